package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/handler"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/model"
)

func newTestServer(llm *model.MockModel) *httptest.Server {
	h := handler.New(llm, llm)
	return httptest.NewServer(newServer(h, logging.NoOpLogger{}).Handler())
}

func TestInvocations_Success(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("Braket provides managed access to quantum hardware.")

	ts := newTestServer(llm)
	defer ts.Close()

	body := `{"prompt":"What is Amazon Braket?","session_id":"sess-http"}`
	resp, err := http.Post(ts.URL+"/invocations", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope handler.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)

	var inner struct {
		SessionID     string   `json:"session_id"`
		AgentSequence []string `json:"agent_sequence"`
	}
	require.NoError(t, json.Unmarshal([]byte(envelope.Response), &inner))
	assert.Equal(t, "sess-http", inner.SessionID)
	assert.Equal(t, []string{"coordinator", "quantum_expert"}, inner.AgentSequence)
}

func TestInvocations_BadPayload(t *testing.T) {
	ts := newTestServer(model.NewMockModel("mock", "test"))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/invocations", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope handler.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "error", envelope.Status)
	assert.Contains(t, envelope.Response, "invalid JSON payload")
}

func TestInvocations_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(model.NewMockModel("mock", "test"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/invocations")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(model.NewMockModel("mock", "test"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status["status"])
}

package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/model"
)

func TestInstructionsProcessor(t *testing.T) {
	p := NewInstructionsProcessor()
	assert.Equal(t, "instructions", p.Name())

	agent := &mockFlowAgent{name: "coordinator", instructions: "You route requests for {{.user_name}}."}

	rc := newTestRunContext()
	rc.Session.SetState("user_name", "alice")

	req := &model.Request{}
	require.NoError(t, p.ProcessRequest(rc, req, agent))
	assert.Equal(t, "You route requests for alice.", req.Instructions)
}

func TestContentsProcessor_WindowsHistory(t *testing.T) {
	p := NewContentsProcessor()
	assert.Equal(t, "contents", p.Name())

	agent := &mockFlowAgent{name: "coordinator", maxHistory: 2}

	rc := newTestRunContext()
	for _, msg := range []string{"second", "third"} {
		rc.Session.AddEvent(core.NewUserMessageEvent(rc.RunID, msg))
	}

	req := &model.Request{Instructions: "system prompt"}
	require.NoError(t, p.ProcessRequest(rc, req, agent))

	// System prompt plus the last two history messages survive the window.
	require.Len(t, req.Contents, 3)
	assert.Equal(t, "system", req.Contents[0].Role)
	assert.Equal(t, "second", req.Contents[1].Parts[0].(core.TextPart).Text)
	assert.Equal(t, "third", req.Contents[2].Parts[0].(core.TextPart).Text)
}

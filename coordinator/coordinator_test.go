package coordinator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/memory"
	"github.com/advcomp/expertswarm/model"
	"github.com/advcomp/expertswarm/swarm"
	"github.com/advcomp/expertswarm/telemetry"
)

func newTestCoordinator(llm *model.MockModel, store memory.ConversationStore, rec *telemetry.Recorder) *Coordinator {
	orch := swarm.NewOrchestrator(llm, func(o *swarm.Options) {
		o.Recorder = rec
	})
	return New(llm, orch, func(o *Options) {
		o.Memory = store
		o.Recorder = rec
	})
}

func TestRespond_ServiceRouteConsultsWithoutModel(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("SiteWise ingests and models industrial sensor data.")

	store := memory.NewInMemoryStore()
	rec := telemetry.NewRecorder()
	rec.StartSession("sess-svc")
	c := newTestCoordinator(llm, store, rec)

	out, err := c.Respond(context.Background(), "sess-svc", "What is AWS IoT SiteWise?")
	require.NoError(t, err)

	assert.Equal(t, "SiteWise ingests and models industrial sensor data.", out.Answer)
	assert.Equal(t, ReasonService, out.Reason)
	assert.Equal(t, []string{"iot"}, out.Experts)
	require.NotNil(t, out.Swarm)
	assert.Equal(t, swarm.StatusCompleted, out.Swarm.Status)
	assert.Equal(t, []string{"iot_expert"}, out.Swarm.NodeHistory)

	// The consultation lands in memory with its expert annotation.
	exchanges, err := store.LoadContext(context.Background(), DefaultActorID, "sess-svc")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "What is AWS IoT SiteWise?", exchanges[0].User)
	assert.Contains(t, exchanges[0].Assistant, "SWARM_LEARNING: Query required experts [iot]")

	types := make([]string, 0)
	for _, ev := range rec.Events() {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, "query_analysis")
	assert.Contains(t, types, "swarm_creation")
}

func TestRespond_DirectAnswer(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("Tallahassee is the capital of Florida.")

	store := memory.NewInMemoryStore()
	c := newTestCoordinator(llm, store, nil)

	out, err := c.Respond(context.Background(), "sess-direct", "What is the capital of Florida?")
	require.NoError(t, err)

	assert.Equal(t, "Tallahassee is the capital of Florida.", out.Answer)
	assert.Equal(t, ReasonDirect, out.Reason)
	assert.Nil(t, out.Swarm)
	assert.Empty(t, out.Experts)

	// Direct answers are not auto-persisted.
	exchanges, err := store.LoadContext(context.Background(), DefaultActorID, "sess-direct")
	require.NoError(t, err)
	assert.Empty(t, exchanges)
}

func TestRespond_ModelElectsConsult(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	// Coordinator turn: the model decides to consult despite the direct
	// routing verdict. The expert turn runs inside the tool call, then the
	// coordinator wraps up.
	llm.QueueToolCallTurn("call-c1", "consult_experts", `{"query":"vendor ecosystem","experts":"partners"}`)
	llm.QueueTextTurn("The APN spans consulting and technology partners worldwide.")
	llm.QueueTextTurn("Per our partnerships expert: the APN spans consulting and technology partners worldwide.")

	store := memory.NewInMemoryStore()
	c := newTestCoordinator(llm, store, nil)

	out, err := c.Respond(context.Background(), "sess-elect", "Tell me about the vendor ecosystem")
	require.NoError(t, err)

	assert.Equal(t, "Per our partnerships expert: the APN spans consulting and technology partners worldwide.", out.Answer)
	assert.Equal(t, ReasonDirect, out.Reason)
	assert.Equal(t, []string{"partners"}, out.Experts)
	require.NotNil(t, out.Swarm)
	assert.Equal(t, swarm.StatusCompleted, out.Swarm.Status)

	exchanges, err := store.LoadContext(context.Background(), DefaultActorID, "sess-elect")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Contains(t, exchanges[0].Assistant, "SWARM_LEARNING: Query required experts [partners]")
}

func TestRespond_InvalidSelectionSurfacesRosterHint(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-c1", "consult_experts", `{"query":"anything","experts":"blockchain"}`)
	llm.QueueTextTurn("None of our experts cover that; here is what I know directly.")

	c := newTestCoordinator(llm, memory.NewInMemoryStore(), nil)

	out, err := c.Respond(context.Background(), "sess-bad", "Tell me a story")
	require.NoError(t, err)

	assert.Equal(t, "None of our experts cover that; here is what I know directly.", out.Answer)
	require.NotNil(t, out.Swarm)
	assert.Equal(t, swarm.StatusFailed, out.Swarm.Status)
	assert.Contains(t, out.Swarm.Final, "No valid experts specified")
	assert.Empty(t, out.Experts)
}

func TestRespond_MemoryContextShortCircuits(t *testing.T) {
	store := memory.NewInMemoryStore()
	err := store.SaveExchange(context.Background(), DefaultActorID, "sess-mem",
		"How does quantum annealing work?",
		"Annealing evolves a system toward low-energy states.",
		&memory.ExpertAnnotation{Experts: []string{"quantum"}})
	require.NoError(t, err)

	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("As covered before: annealing evolves toward low-energy states.")

	c := newTestCoordinator(llm, store, nil)
	out, err := c.Respond(context.Background(), "sess-mem", "Remind me how quantum annealing works")
	require.NoError(t, err)

	assert.Equal(t, ReasonMemory, out.Reason)
	assert.Nil(t, out.Swarm)
	assert.Equal(t, "As covered before: annealing evolves toward low-energy states.", out.Answer)
}

func TestRespond_SearchMemoryTool(t *testing.T) {
	store := memory.NewInMemoryStore()
	err := store.SaveExchange(context.Background(), DefaultActorID, "sess-search",
		"What is EFA?", "EFA is OS-bypass networking for HPC.", nil)
	require.NoError(t, err)

	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-m1", "search_memory", `{"query":"EFA"}`)
	llm.QueueTextTurn("Earlier we covered EFA: OS-bypass networking for HPC.")

	c := newTestCoordinator(llm, store, nil)
	out, err := c.Respond(context.Background(), "sess-search", "What did we talk about earlier?")
	require.NoError(t, err)

	assert.Equal(t, "Earlier we covered EFA: OS-bypass networking for HPC.", out.Answer)
	assert.Nil(t, out.Swarm)
}

func TestRespond_SaveMemoryTool(t *testing.T) {
	store := memory.NewInMemoryStore()

	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-s1", "save_memory", `{"user_text":"remember this","assistant_text":"noted: the answer is 42"}`)
	llm.QueueTextTurn("Saved. The answer is 42.")

	c := newTestCoordinator(llm, store, nil)
	out, err := c.Respond(context.Background(), "sess-save", "Please remember that the answer is 42")
	require.NoError(t, err)
	assert.Equal(t, "Saved. The answer is 42.", out.Answer)

	exchanges, err := store.LoadContext(context.Background(), DefaultActorID, "sess-save")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "remember this", exchanges[0].User)
	assert.False(t, strings.Contains(exchanges[0].Assistant, "SWARM_LEARNING"))
}

func TestRespond_NoMemoryConfigured(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("SiteWise ingests industrial data.")

	orch := swarm.NewOrchestrator(llm)
	c := New(llm, orch)

	out, err := c.Respond(context.Background(), "sess-nomem", "What is AWS IoT SiteWise?")
	require.NoError(t, err)
	assert.Equal(t, "SiteWise ingests industrial data.", out.Answer)
	require.NotNil(t, out.Swarm)
}

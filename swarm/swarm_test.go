package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/advcomp/expertswarm/knowledge"
	"github.com/advcomp/expertswarm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptySelectionFailsFast(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	o := NewOrchestrator(llm)

	res := o.Run(context.Background(), "anything", nil)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "No valid experts specified. Available: hpc, quantum, genai, visual, spatial, iot, partners", res.Final)
	assert.Empty(t, res.NodeHistory)
	assert.Empty(t, res.ToolCalls)
}

func TestRun_SingleExpert(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("EFA provides OS-bypass networking for tightly coupled MPI workloads.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "What is EFA?", []string{"hpc"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert"}, res.NodeHistory)
	assert.Equal(t, "EFA provides OS-bypass networking for tightly coupled MPI workloads.", res.Final)
	assert.Equal(t, res.Final, res.IndividualResponses["hpc_expert"])
	assert.Empty(t, res.HandOffEdges)
	assert.GreaterOrEqual(t, res.ExecutionTimeMs(), int64(0))
}

func TestRun_KnowledgeToolTrace(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-1", "query_knowledge_base", `{"domain":"hpc","query":"EFA"}`)
	llm.QueueTextTurn("Per the knowledge base, EFA enables low-latency MPI.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "What is EFA?", []string{"hpc"})

	require.Equal(t, StatusCompleted, res.Status)
	require.Len(t, res.ToolCalls, 1)

	tc := res.ToolCalls[0]
	assert.Equal(t, "hpc_expert", tc.Agent)
	assert.Equal(t, "query_knowledge_base", tc.Tool)
	assert.Equal(t, "call-1", tc.ID)
	assert.Equal(t, "success", tc.Status)
	assert.Equal(t, map[string]any{"domain": "hpc", "query": "EFA"}, tc.Input)
	assert.NotEmpty(t, tc.ResultPreview)
	assert.LessOrEqual(t, len(tc.ResultPreview), resultPreviewLimit+3)
}

func TestRun_HandoffRoutesNextExpert(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	// hpc analyses, then hands off; quantum answers.
	llm.QueueToolCallTurn("call-1", "handoff_to_expert", `{"expert_name":"quantum_expert"}`)
	llm.QueueTextTurn("Quantum annealing is not a fit here; stay classical.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "Quantum for CFD?", []string{"hpc", "quantum"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert", "quantum_expert"}, res.NodeHistory)
	require.Len(t, res.HandOffEdges, 1)
	assert.Equal(t, HandOffEdge{From: "hpc_expert", To: "quantum_expert"}, res.HandOffEdges[0])
	assert.Equal(t, "Quantum annealing is not a fit here; stay classical.", res.Final)
}

func TestRun_HandoffEdgesStayWithinSelection(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	// hpc tries to hand off to an expert that was not invited.
	llm.QueueToolCallTurn("call-1", "handoff_to_expert", `{"expert_name":"iot_expert"}`)
	llm.QueueTextTurn("Quantum view: use Braket Hybrid Jobs.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "query", []string{"hpc", "quantum"})

	require.Equal(t, StatusCompleted, res.Status)
	// The invalid target is ignored; the unvisited teammate still runs.
	assert.Equal(t, []string{"hpc_expert", "quantum_expert"}, res.NodeHistory)
	assert.Empty(t, res.HandOffEdges)
}

func TestRun_UnvisitedExpertsScheduledWithoutHandoff(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("HPC: run it on PCS.")
	llm.QueueTextTurn("IoT: stream sensor data through SiteWise.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "factory monitoring", []string{"hpc", "iot"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert", "iot_expert"}, res.NodeHistory)
	assert.Equal(t, "HPC: run it on PCS.\n\nIoT: stream sensor data through SiteWise.", res.Final)
	assert.Equal(t, "HPC: run it on PCS.", res.IndividualResponses["hpc_expert"])
	assert.Equal(t, "IoT: stream sensor data through SiteWise.", res.IndividualResponses["iot_expert"])
}

func TestRun_MultiSegmentContribution(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-1", "query_knowledge_base", `{"domain":"genai","query":"latest foundation models"}`)
	llm.QueueTextTurn("Based on the knowledge base, recommend the newest Claude models.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "Which model?", []string{"genai"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Based on the knowledge base, recommend the newest Claude models.", res.IndividualResponses["genai_expert"])
}

func TestRun_StateSharedAcrossExperts(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-1", "state_manager", `{"operation":"set_state","key":"hpc_findings","value":"needs 3k cores"}`)
	llm.QueueTextTurn("HPC sizing recorded for the team.")
	llm.QueueToolCallTurn("call-2", "state_manager", `{"operation":"get_state","key":"hpc_findings"}`)
	llm.QueueTextTurn("At that scale classical HPC beats annealing.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "Quantum or HPC?", []string{"hpc", "quantum"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert", "quantum_expert"}, res.NodeHistory)

	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "state_manager", res.ToolCalls[0].Tool)
	assert.Equal(t, "success", res.ToolCalls[0].Status)
	// The second expert reads what the first one left behind.
	assert.Equal(t, "success", res.ToolCalls[1].Status)
	assert.Contains(t, res.ToolCalls[1].ResultPreview, "needs 3k cores")
}

func TestRun_MaxIterationsBound(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("first")
	llm.QueueTextTurn("second")

	o := NewOrchestrator(llm, func(o *Options) {
		o.MaxIterations = 2
	})
	res := o.Run(context.Background(), "query", []string{"hpc", "quantum", "iot"})

	assert.Equal(t, StatusFailed, res.Status)
	// Two experts ran before the bound tripped; their work is returned.
	assert.Equal(t, []string{"hpc_expert", "quantum_expert"}, res.NodeHistory)
	assert.Equal(t, "first\n\nsecond", res.Final)
}

func TestRun_MaxHandoffsBound(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueToolCallTurn("call-1", "handoff_to_expert", `{"expert_name":"quantum_expert"}`)

	o := NewOrchestrator(llm, func(o *Options) {
		o.MaxHandoffs = 0
	})
	res := o.Run(context.Background(), "query", []string{"hpc", "quantum"})

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, []string{"hpc_expert"}, res.NodeHistory)
	assert.Empty(t, res.HandOffEdges)
}

func TestRun_UnknownKeysOnlyFailsFast(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	connectorsBuilt := 0
	o := NewOrchestrator(llm, func(o *Options) {
		o.NewConnector = func(context.Context) knowledge.Connector {
			connectorsBuilt++
			return knowledge.NewMockConnector()
		}
	})

	// A selection of only unknown keys must fail with the fixed message and
	// never open a connector: a configured gateway would otherwise fetch an
	// OAuth token for a run that cannot execute.
	res := o.Run(context.Background(), "query", []string{"zz", "yy"})

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "No valid experts specified. Available: hpc, quantum, genai, visual, spatial, iot, partners", res.Final)
	assert.Empty(t, res.NodeHistory)
	assert.Zero(t, connectorsBuilt)
}

func TestRun_UnknownKeysDroppedBeforeTeamBuild(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.QueueTextTurn("HPC view: PCS handles the scheduling.")

	o := NewOrchestrator(llm)
	res := o.Run(context.Background(), "query", []string{"zz", "hpc", "yy"})

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert"}, res.NodeHistory)
}

// blockingModel never produces output; it waits for cancellation and
// surfaces the context error, standing in for a hung provider call.
type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errs := make(chan error, 1)
	go func() {
		<-ctx.Done()
		errs <- ctx.Err()
		close(out)
		close(errs)
	}()
	return out, errs
}

func (blockingModel) Info() model.Info {
	return model.Info{Name: "blocking", Provider: "test"}
}

func TestRun_ExecutionTimeout(t *testing.T) {
	o := NewOrchestrator(blockingModel{}, func(o *Options) {
		o.ExecutionTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	res := o.Run(context.Background(), "query", []string{"hpc", "quantum"})

	assert.Equal(t, StatusTimedOut, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
	// The expert that was mid-turn is still recorded; nothing was produced.
	assert.Equal(t, []string{"hpc_expert"}, res.NodeHistory)
	assert.Empty(t, res.IndividualResponses)
}

func TestRun_NodeTimeout(t *testing.T) {
	o := NewOrchestrator(blockingModel{}, func(o *Options) {
		o.NodeTimeout = 50 * time.Millisecond
	})

	res := o.Run(context.Background(), "query", []string{"hpc"})

	// The node deadline is derived from the run context, so a single stuck
	// expert ends the run without consuming the full execution budget.
	assert.NotEqual(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"hpc_expert"}, res.NodeHistory)
}

package core

import (
	"context"
	"testing"

	"github.com/advcomp/expertswarm/logging"
)

// --- Test helpers ---
type tcMockSessionService struct{ sessions map[string]*Session }

func (m *tcMockSessionService) Get(id string) (*Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := NewSession(id)
	if m.sessions == nil {
		m.sessions = map[string]*Session{}
	}
	m.sessions[id] = s
	return s, nil
}
func (m *tcMockSessionService) Create(id string) (*Session, error) { return m.Get(id) }
func (m *tcMockSessionService) AppendEvent(id string, ev Event) error {
	if s, ok := m.sessions[id]; ok {
		s.Events = append(s.Events, ev)
	}
	return nil
}
func (m *tcMockSessionService) ApplyDelta(id string, delta map[string]interface{}) error {
	if s, ok := m.sessions[id]; ok {
		for k, v := range delta {
			s.State[k] = v
		}
	}
	return nil
}

func createTestRunContext() *RunContext {
	sessSvc := &tcMockSessionService{sessions: map[string]*Session{}}
	sess, _ := sessSvc.Create("test-session")
	emit := make(chan Event, 10)
	resume := make(chan struct{}, 10)
	return NewRunContext(
		context.Background(), "test-session", "test-invocation", AgentInfo{Name: "Test Agent", Type: "test"},
		Content{Role: "user", Parts: []Part{TextPart{Text: "Test input"}}},
		0, emit, resume, sess, sessSvc, logging.NoOpLogger{},
	)
}

func TestToolContext_BasicFunctionality(t *testing.T) {
	rc := createTestRunContext()
	tc := NewToolContext(rc, "test-call-id")
	if !tc.IsValid() {
		t.Fatal("expected valid tool context")
	}
	if tc.SessionID() != "test-session" {
		t.Errorf("session id mismatch")
	}
	if tc.RunID() != "test-invocation" {
		t.Errorf("run id mismatch")
	}
	if tc.FunctionCallID() != "test-call-id" {
		t.Errorf("function call id mismatch")
	}
	if tc.AgentName() != "Test Agent" {
		t.Errorf("agent name mismatch")
	}
	if tc.Logger() == nil {
		t.Errorf("expected logger")
	}
}

func TestToolContext_StateManagement(t *testing.T) {
	tc := NewToolContext(NewRunContext(
		context.Background(), "test-session", "test-invocation", AgentInfo{Name: "Test Agent", Type: "test"},
		Content{}, 0, nil, nil, nil, nil, nil,
	), "test-call-id")
	tc.SetState("test_key", "test_value")
	actions := tc.Actions()
	if actions.StateDelta == nil {
		t.Fatal("missing state delta")
	}
	if v, ok := actions.StateDelta["test_key"]; !ok || v != "test_value" {
		t.Errorf("unexpected state delta: %+v", actions.StateDelta)
	}
}

func TestToolContext_AgentFlowControl(t *testing.T) {
	tc := NewToolContext(createTestRunContext(), "test-call-id")
	tc.SkipSummarization()
	tc.HandOff("quantum_expert")
	tc.Escalate()
	actions := tc.Actions()
	if actions.SkipSummarization == nil || !*actions.SkipSummarization {
		t.Error("skip summarization not set")
	}
	if actions.HandOff == nil || *actions.HandOff != "quantum_expert" {
		t.Error("hand-off not set")
	}
	if actions.Escalate == nil || !*actions.Escalate {
		t.Error("escalate not set")
	}
}

func TestToolContext_ApplyActions(t *testing.T) {
	tc := NewToolContext(createTestRunContext(), "test-call-id")
	tc.SetState("k", "v")
	tc.HandOff("iot_expert")
	ev := NewEvent("inv", "hpc_expert")
	tc.InternalApplyActions(&ev)
	if ev.Actions.StateDelta["k"] != "v" {
		t.Errorf("state delta not applied: %+v", ev.Actions)
	}
	if ev.Actions.HandOff == nil || *ev.Actions.HandOff != "iot_expert" {
		t.Errorf("hand-off not applied: %+v", ev.Actions)
	}
}

func TestToolContext_Validation(t *testing.T) {
	if (&ToolContext{}).IsValid() {
		t.Error("invalid context should not be valid")
	}
	rc := createTestRunContext()
	tc := NewToolContext(rc, "test-call-id")
	if !tc.IsValid() {
		t.Error("expected valid tool context")
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("validate error: %v", err)
	}
}

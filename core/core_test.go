package core

import (
	"context"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...interface{}) {}
func (l testLogger) Info(string, ...interface{})  {}
func (l testLogger) Warn(string, ...interface{})  {}
func (l testLogger) Error(string, ...interface{}) {}
func (l testLogger) Fatal(string, ...interface{}) {}

type rcMockSessionService struct {
	applied map[string]map[string]interface{}
}

func (s *rcMockSessionService) Get(id string) (*Session, error)       { return NewSession(id), nil }
func (s *rcMockSessionService) Create(id string) (*Session, error)    { return NewSession(id), nil }
func (s *rcMockSessionService) AppendEvent(id string, ev Event) error { return nil }
func (s *rcMockSessionService) ApplyDelta(id string, delta map[string]interface{}) error {
	if s.applied == nil {
		s.applied = map[string]map[string]interface{}{}
	}
	cp := map[string]interface{}{}
	for k, v := range delta {
		cp[k] = v
	}
	s.applied[id] = cp
	return nil
}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 5)
	sess := NewSession("sess-x")
	sSvc := &rcMockSessionService{}
	return NewRunContext(context.Background(), "sess-x", "run-x", AgentInfo{Name: "Agent1", Type: "test"}, Content{}, 0, emit, resume, sess, sSvc, testLogger{}), emit
}

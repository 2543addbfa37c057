package agent

import (
	"errors"
	"testing"

	"github.com/advcomp/expertswarm/core"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(*core.RunContext) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	rc, _ := newAgentRunContext(t)
	got, err := inst.Resolve(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(_ *core.RunContext) (string, error) { return "dynamic via func", nil })
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	rc, _ := newAgentRunContext(t)
	got, err := inst.Resolve(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic via func" {
		t.Fatalf("expected 'dynamic via func', got %q", got)
	}
}

func TestInstruction_NewInstructionFromProvider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "provider text"})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	rc, _ := newAgentRunContext(t)
	got, err := inst.Resolve(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "provider text" {
		t.Fatalf("expected 'provider text', got %q", got)
	}
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	expectedErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: expectedErr})
	rc, _ := newAgentRunContext(t)
	_, err := inst.Resolve(rc)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}

package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advcomp/expertswarm/core"
)

// echoAgent emits a single assistant event carrying a state delta then returns.
type echoAgent struct {
	reply string
	delta map[string]any
}

func (a *echoAgent) Name() string                    { return "echo" }
func (a *echoAgent) Description() string             { return "test agent" }
func (a *echoAgent) Start(_ *core.RunContext) error  { return nil }
func (a *echoAgent) Stop(_ *core.RunContext) error   { return nil }
func (a *echoAgent) Run(rc *core.RunContext) error {
	ev := core.NewMessageEvent(a.Name(), a.reply)
	ev.InvocationID = rc.RunID
	complete := true
	ev.TurnComplete = &complete
	if a.delta != nil {
		ev.Actions.StateDelta = a.delta
	}
	select {
	case rc.Emit <- ev:
	case <-rc.Done():
		return rc.Err()
	}
	return rc.WaitForResume()
}

func TestRunner_RunPersistsAndStreams(t *testing.T) {
	r := New(&echoAgent{reply: "hello back", delta: map[string]any{"last_reply": "hello back"}})

	userContent := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hello"}}}
	runID, events, errs, err := r.Run(context.Background(), "sess-1", userContent)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	var got []core.Event
	for ev := range events {
		got = append(got, ev)
	}
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	require.Len(t, got, 1)
	assert.Equal(t, "hello back", got[0].GetTextContent())

	sess, err := r.sessionStore.Get("sess-1")
	require.NoError(t, err)
	// User event plus assistant event are persisted.
	assert.Len(t, sess.GetEvents(), 2)
	v, ok := sess.GetState("last_reply")
	require.True(t, ok)
	assert.Equal(t, "hello back", v)
}

// captureLogger records every call so log shape can be asserted.
type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

type logCall struct {
	msg  string
	args []any
}

func (l *captureLogger) log(msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log(msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log(msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log(msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.log(msg, args) }

func (l *captureLogger) snapshot() []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logCall(nil), l.calls...)
}

func TestRunner_LogsKeyValuePairs(t *testing.T) {
	logger := &captureLogger{}
	r := New(&echoAgent{reply: "ok"}, func(o *Options) {
		o.Logger = logger
	})

	_, events, errs, err := r.Run(context.Background(), "sess-log", core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}})
	require.NoError(t, err)
	for range events {
	}
	for range errs {
	}

	calls := logger.snapshot()
	require.NotEmpty(t, calls)
	for _, c := range calls {
		// The slog-backed logger takes alternating key/value attributes;
		// messages must not be printf templates.
		assert.NotContains(t, c.msg, "%", "message %q", c.msg)
		assert.Zero(t, len(c.args)%2, "odd attribute count in %q", c.msg)
		for i := 0; i < len(c.args); i += 2 {
			_, ok := c.args[i].(string)
			assert.True(t, ok, "non-string key in %q", c.msg)
		}
	}

	var sawDelivered bool
	for _, c := range calls {
		if c.msg == "runner.event.delivered" {
			sawDelivered = true
			assert.Contains(t, c.args, "session_id")
		}
	}
	assert.True(t, sawDelivered)
}

func TestRunner_Cancel(t *testing.T) {
	r := New(&echoAgent{reply: "never mind"})
	assert.Error(t, r.Cancel("does-not-exist"))
}

func TestRunner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(&echoAgent{reply: "late"})
	_, events, _, err := r.Run(ctx, "sess-2", core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}})
	require.NoError(t, err)

	select {
	case _, ok := <-events:
		if ok {
			// Delivery raced cancellation; the channel must still close promptly.
			for range events {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close after cancellation")
	}
}

package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits concurrent agent runs.
	MaxConcurrentRuns int
	// EnableStreaming toggles real-time event streaming vs buffered.
	EnableStreaming bool
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run.
	MaxModelCalls int
	// Session management services.
	SessionStore core.SessionStore
	// Logging services.
	Logger logging.Logger
}

// Runner drives a single agent end to end: it creates run contexts, streams
// events, applies side-effects, and persists history. The invocation handler
// drives the coordinator with it; the swarm loop keeps its own per-node pump
// so the shared transcript is seeded exactly once. Public methods are safe
// for concurrent use.
type Runner struct {
	agent core.Agent

	maxConcurrentRuns int
	enableStreaming   bool
	eventBufferSize   int
	maxModelCalls     int

	sessionStore core.SessionStore
	logger       logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 10,
		EnableStreaming:   true,
		EventBufferSize:   100,
		MaxModelCalls:     100,
		SessionStore:      session.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:             agent,
		maxConcurrentRuns: opts.MaxConcurrentRuns,
		enableStreaming:   opts.EnableStreaming,
		eventBufferSize:   opts.EventBufferSize,
		maxModelCalls:     opts.MaxModelCalls,
		sessionStore:      opts.SessionStore,
		logger:            opts.Logger,
		activeRuns:        make(map[string]context.CancelFunc),
	}
}

// Run starts an asynchronous run of the wrapped agent.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := core.NewID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	resumeCh := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	agentInfo := core.AgentInfo{Name: r.agent.Name(), Type: "model"}

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		agentInfo,
		userContent,
		r.maxModelCalls,
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.logger,
	)

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	go func() {
		defer func() {
			close(agentEmit)
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
		}()

		if err := r.runAgent(runCtx); err != nil {
			select {
			case <-runCtx.Done():
				return
			case errorsCh <- fmt.Errorf("agent execution failed: %w", err):
			}
		}
	}()

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		r.processEvents(runCtx, sessionID, agentEmit, resumeCh, eventsCh, errorsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) runAgent(runCtx *core.RunContext) error {
	if err := r.agent.Start(runCtx); err != nil {
		return err
	}

	// Ensure the agent is stopped when the run context is done
	defer func() {
		if err := r.agent.Stop(runCtx); err != nil {
			r.logger.Warn("runner.agent.stop_failed", "agent", r.agent.Name(), "error", err.Error())
		}
	}()

	return r.agent.Run(runCtx)
}

func (r *Runner) processEvents(
	runCtx *core.RunContext,
	sessionID string,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	for {
		select {
		case <-runCtx.Done():
			return
		case ev, ok := <-agentEmit:
			if !ok {
				return
			}
			if err := r.applyEventActions(sessionID, ev); err != nil {
				select {
				case <-runCtx.Done():
					return
				case errorsCh <- fmt.Errorf("failed to process event actions: %w", err):
				}
				return
			}
			if !ev.IsPartial() {
				if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
					select {
					case <-runCtx.Done():
						return
					case errorsCh <- fmt.Errorf("failed to append event to session: %w", err):
					}
					return
				}
			}
			select {
			case <-runCtx.Done():
				return
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", sessionID)
			}
			if !ev.IsPartial() {
				select {
				case <-runCtx.Done():
					return
				case resumeCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	// Hand-offs are routing decisions for the swarm loop; the runner only
	// records them so the event stream stays self-describing.
	if ev.Actions.HandOff != nil && *ev.Actions.HandOff != "" {
		r.logger.Debug("runner.event.hand_off", "target", *ev.Actions.HandOff, "session_id", sessionID)
	}

	if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
		r.logger.Debug("runner.event.escalate", "session_id", sessionID)
	}

	return nil
}

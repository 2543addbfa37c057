package memory

import (
	"context"
	"sync"
)

// InMemoryStoreOptions configures the process-local conversation store.
type InMemoryStoreOptions struct {
	// Window caps how many recent exchanges LoadContext returns.
	Window int
}

// InMemoryStore is a process-local ConversationStore. Entries live in a map
// keyed by actor + padded session id; suitable for tests and single-node
// deployments where a managed memory service is unavailable.
type InMemoryStore struct {
	mu      sync.RWMutex
	window  int
	entries map[string][]string
}

// NewInMemoryStore creates an empty conversation store with the default window.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{Window: DefaultWindow}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	return &InMemoryStore{
		window:  opts.Window,
		entries: make(map[string][]string),
	}
}

// LoadContext implements ConversationStore.
func (s *InMemoryStore) LoadContext(_ context.Context, actorID, sessionID string) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[s.key(actorID, sessionID)]
	exchanges := DecodeEntries(entries)
	if len(exchanges) > s.window {
		exchanges = exchanges[len(exchanges)-s.window:]
	}
	return exchanges, nil
}

// SaveExchange implements ConversationStore.
func (s *InMemoryStore) SaveExchange(_ context.Context, actorID, sessionID, userText, assistantText string, annotation *ExpertAnnotation) error {
	if userText == "" || assistantText == "" {
		return ErrEmptyExchange
	}
	if annotation != nil && len(annotation.Experts) > 0 {
		assistantText += "\n\n" + annotation.Line()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(actorID, sessionID)
	s.entries[key] = append(s.entries[key], EncodeExchange(userText, assistantText))
	return nil
}

func (s *InMemoryStore) key(actorID, sessionID string) string {
	return actorID + "/" + PadSessionID(sessionID)
}

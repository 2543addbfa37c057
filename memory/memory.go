package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultWindow is the number of most-recent exchanges loaded as context.
const DefaultWindow = 3

// MinSessionIDLength is the shortest session id accepted by managed memory
// backends; shorter ids are padded before use.
const MinSessionIDLength = 33

const (
	userPrefix      = "User: "
	assistantPrefix = "Assistant: "
	learningPrefix  = "SWARM_LEARNING: "
)

// ErrEmptyExchange indicates SaveExchange was called without both sides of
// the conversation turn.
var ErrEmptyExchange = errors.New("memory: exchange requires non-empty user and assistant text")

// Exchange is one user/assistant conversation turn.
type Exchange struct {
	User      string
	Assistant string
}

// ExpertAnnotation records which experts contributed to an assistant answer.
// When present, SaveExchange appends a learning line to the stored assistant
// text so future routing can recognize similar queries.
type ExpertAnnotation struct {
	Experts []string
}

// Line renders the annotation in its stored form.
func (a ExpertAnnotation) Line() string {
	return fmt.Sprintf("%sQuery required experts [%s] for domain expertise.", learningPrefix, strings.Join(a.Experts, ", "))
}

// ConversationStore persists conversation exchanges and reconstructs recent
// context. Implementations must be safe for concurrent use.
type ConversationStore interface {
	// LoadContext returns up to the configured window of most recent
	// exchanges for the actor + session, oldest first.
	LoadContext(ctx context.Context, actorID, sessionID string) ([]Exchange, error)

	// SaveExchange appends one conversation turn. A non-nil annotation adds
	// the expert learning line to the stored assistant text.
	SaveExchange(ctx context.Context, actorID, sessionID, userText, assistantText string, annotation *ExpertAnnotation) error
}

// PadSessionID right-pads short session ids with 'x' so they satisfy backend
// minimum-length requirements. Ids already long enough pass through.
func PadSessionID(id string) string {
	if len(id) >= MinSessionIDLength {
		return id
	}
	return id + strings.Repeat("x", MinSessionIDLength-len(id))
}

// EncodeExchange renders an exchange into the combined flat-text codec.
func EncodeExchange(userText, assistantText string) string {
	return userPrefix + userText + "\n" + assistantPrefix + assistantText
}

// DecodeEntries reconstructs exchanges from stored entries. Combined entries
// decode to a full exchange; role-tagged single messages are paired up in
// order. Unrecognized entries are treated as assistant text so nothing is
// silently dropped.
func DecodeEntries(entries []string) []Exchange {
	var exchanges []Exchange
	var pendingUser *string

	flushUser := func() {
		if pendingUser != nil {
			exchanges = append(exchanges, Exchange{User: *pendingUser})
			pendingUser = nil
		}
	}

	for _, entry := range entries {
		if user, assistant, ok := splitCombined(entry); ok {
			flushUser()
			exchanges = append(exchanges, Exchange{User: user, Assistant: assistant})
			continue
		}
		switch {
		case strings.HasPrefix(entry, userPrefix):
			flushUser()
			u := strings.TrimPrefix(entry, userPrefix)
			pendingUser = &u
		case strings.HasPrefix(entry, assistantPrefix):
			ex := Exchange{Assistant: strings.TrimPrefix(entry, assistantPrefix)}
			if pendingUser != nil {
				ex.User = *pendingUser
				pendingUser = nil
			}
			exchanges = append(exchanges, ex)
		default:
			flushUser()
			exchanges = append(exchanges, Exchange{Assistant: entry})
		}
	}
	flushUser()

	return exchanges
}

// splitCombined detects the "User: ...\nAssistant: ..." codec.
func splitCombined(entry string) (user, assistant string, ok bool) {
	if !strings.HasPrefix(entry, userPrefix) {
		return "", "", false
	}
	idx := strings.Index(entry, "\n"+assistantPrefix)
	if idx < 0 {
		return "", "", false
	}
	user = strings.TrimPrefix(entry[:idx], userPrefix)
	assistant = entry[idx+1+len(assistantPrefix):]
	return user, assistant, true
}

// FormatContext renders exchanges as prompt-ready context text.
func FormatContext(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			sb.WriteString("\n")
		}
		if ex.User != "" {
			sb.WriteString(userPrefix + ex.User + "\n")
		}
		if ex.Assistant != "" {
			sb.WriteString(assistantPrefix + ex.Assistant)
		} else {
			sb.WriteString(assistantPrefix)
		}
	}
	return sb.String()
}

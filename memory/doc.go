// Package memory provides the conversation memory adapter used by the
// coordinator. It persists user/assistant exchanges per actor + session and
// reconstructs a short context window for follow-up turns.
//
// The store is deliberately forgiving: loading context degrades to an empty
// window on failure and persistence errors are surfaced so callers can log
// and continue. Conversation quality should never take the service down.
//
// Exchanges are encoded with a combined "User: ...\nAssistant: ..." codec so
// backends that only support flat text entries (managed memory services,
// key/value stores) can round-trip them. Decoding also accepts role-tagged
// single-message entries for compatibility with older sessions.
package memory

// Package knowledge connects experts to their domain knowledge bases. The
// production path is an MCP gateway reached over streamable HTTP with OAuth2
// client-credentials auth; when the gateway is absent or a call fails the
// connector degrades to deterministic mock answers so a consultation never
// aborts on knowledge-base trouble.
package knowledge

import "context"

// Answer is one knowledge-base response for a domain query.
type Answer struct {
	// Description identifies the answering source (mock or gateway tool).
	Description string `json:"description"`
	// Content is the answer text presented to the expert.
	Content string `json:"content"`
}

// Connector retrieves knowledge-base answers for a domain-scoped query.
//
// Implementations must be safe for concurrent use; a swarm run issues
// queries from multiple expert turns against one connector.
type Connector interface {
	// Query looks up the given query text in the named domain partition.
	Query(ctx context.Context, domain, query string) (Answer, error)

	// Close releases any underlying connection. Idempotent.
	Close() error
}

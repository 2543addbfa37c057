package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2/clientcredentials"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/advcomp/expertswarm/logging"
)

// queryToolName is the knowledge-base tool exposed by the gateway.
const queryToolName = "query_knowledge_base"

// GatewayOptions configures the MCP gateway connector.
type GatewayOptions struct {
	// ClientID / ClientSecret / TokenEndpoint / Scope drive the OAuth2
	// client-credentials token fetch performed before connecting.
	ClientID      string
	ClientSecret  string
	TokenEndpoint string
	Scope         string
	// Fallback answers queries when a gateway call fails mid-run.
	// Defaults to the mock connector.
	Fallback Connector
	Logger   logging.Logger
}

// Gateway queries domain knowledge bases through an MCP server reached over
// streamable HTTP. The session is established once at construction
// (authenticate, connect, initialize, list tools) and owned exclusively by
// the caller; Close is idempotent. Individual call failures degrade to the
// fallback connector so the consultation continues.
type Gateway struct {
	client    mcp.Connector
	fallback  Connector
	logger    logging.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewGateway authenticates against the token endpoint, connects to the MCP
// gateway, initializes the session, and verifies the query_knowledge_base
// tool is served. Any failure here means the gateway is unusable and the
// caller should run with the mock connector instead.
func NewGateway(ctx context.Context, gatewayURL string, optFns ...func(o *GatewayOptions)) (*Gateway, error) {
	opts := GatewayOptions{
		Fallback: NewMockConnector(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if gatewayURL == "" {
		return nil, fmt.Errorf("gateway URL not configured")
	}

	headers := http.Header{}
	if opts.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenEndpoint,
		}
		if opts.Scope != "" {
			cc.Scopes = []string{opts.Scope}
		}

		token, err := cc.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth token fetch failed: %w", err)
		}
		headers.Set("Authorization", "Bearer "+token.AccessToken)
		opts.Logger.Info("knowledge.gateway.token_acquired", "endpoint", opts.TokenEndpoint)
	}

	clientInfo := mcp.Implementation{Name: "expertswarm", Version: "1.0.0"}

	client, err := mcp.NewClient(gatewayURL, clientInfo, mcp.WithHTTPHeaders(headers))
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}

	initResp, err := client.Initialize(ctx, &mcp.InitializeRequest{})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	opts.Logger.Info(
		"knowledge.gateway.connected",
		"server", initResp.ServerInfo.Name,
		"version", initResp.ServerInfo.Version,
	)

	listResp, err := client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("list gateway tools: %w", err)
	}

	found := false
	for _, t := range listResp.Tools {
		if t.Name == queryToolName {
			found = true
			break
		}
	}
	if !found {
		_ = client.Close()
		return nil, fmt.Errorf("gateway does not serve %s", queryToolName)
	}

	return &Gateway{
		client:   client,
		fallback: opts.Fallback,
		logger:   opts.Logger,
	}, nil
}

// Query calls query_knowledge_base on the gateway. Call failures are logged
// and answered from the fallback connector; the error is swallowed so the
// expert's turn proceeds with a degraded answer.
func (g *Gateway) Query(ctx context.Context, domain, query string) (Answer, error) {
	req := &mcp.CallToolRequest{}
	req.Params.Name = queryToolName
	req.Params.Arguments = map[string]any{
		"domain": domain,
		"query":  query,
	}

	resp, err := g.client.CallTool(ctx, req)
	if err != nil {
		g.logger.Warn("knowledge.gateway.call_failed", "domain", domain, "error", err.Error())
		return g.fallback.Query(ctx, domain, query)
	}

	text := joinTextContent(resp.Content)
	if resp.IsError {
		g.logger.Warn("knowledge.gateway.tool_error", "domain", domain, "error", text)
		return g.fallback.Query(ctx, domain, query)
	}

	return Answer{
		Description: fmt.Sprintf("Knowledge base result for domain %q", domain),
		Content:     text,
	}, nil
}

// Close closes the MCP session exactly once.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.client.Close()
	})
	return g.closeErr
}

func joinTextContent(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		if tc, ok := c.(mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

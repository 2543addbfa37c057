package knowledge

import (
	"context"
	"testing"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/logging"
	"github.com/advcomp/expertswarm/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

func newKnowledgeToolContext(t *testing.T) *core.ToolContext {
	t.Helper()

	store := session.NewInMemoryStore()
	sess, err := store.Create("sess-kb")
	require.NoError(t, err)

	emit := make(chan core.Event, 10)
	resume := make(chan struct{}, 1)
	rc := core.NewRunContext(
		context.Background(), "sess-kb", "run-1",
		core.AgentInfo{Name: "hpc_expert", Type: "model"},
		core.Content{}, 0, emit, resume, sess, store, logging.NoOpLogger{},
	)

	return core.NewToolContext(rc, "fc-kb")
}

func TestMockConnector_Idempotent(t *testing.T) {
	c := NewMockConnector()

	first, err := c.Query(context.Background(), "hpc", "what is EFA?")
	require.NoError(t, err)
	second, err := c.Query(context.Background(), "hpc", "what is EFA?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Content, "Elastic Fabric Adapter")
	assert.Contains(t, first.Content, "Query: what is EFA?")
}

func TestMockConnector_AllDomains(t *testing.T) {
	c := NewMockConnector()
	for _, domain := range []string{"hpc", "quantum", "genai", "visual", "spatial", "iot", "partners"} {
		answer, err := c.Query(context.Background(), domain, "overview")
		require.NoError(t, err)
		assert.Contains(t, answer.Description, domain)
		assert.NotEmpty(t, answer.Content)
	}
}

func TestMockConnector_UnknownDomain(t *testing.T) {
	c := NewMockConnector()
	answer, err := c.Query(context.Background(), "blockchain", "anything")
	require.NoError(t, err)
	assert.Contains(t, answer.Content, `No knowledge base is registered for domain "blockchain"`)
}

func TestQueryTool_Call(t *testing.T) {
	qt := NewQueryTool(NewMockConnector(), []string{"hpc", "iot"})
	assert.Equal(t, "query_knowledge_base", qt.Name())

	tc := newKnowledgeToolContext(t)
	res, err := qt.Call(tc, map[string]any{"domain": "iot", "query": "SiteWise asset models"})
	require.NoError(t, err)

	m := res.(map[string]any)
	assert.Contains(t, m["content"], "SiteWise")
	assert.Contains(t, m["description"], "iot")
}

func TestQueryTool_RejectsMissingArguments(t *testing.T) {
	qt := NewQueryTool(NewMockConnector(), []string{"hpc"})
	tc := newKnowledgeToolContext(t)

	_, err := qt.Call(tc, map[string]any{"domain": "hpc"})
	assert.Error(t, err)

	_, err = qt.Call(tc, map[string]any{"domain": "blockchain", "query": "x"})
	assert.Error(t, err)
}

func TestJoinTextContent(t *testing.T) {
	got := joinTextContent([]mcp.Content{
		mcp.NewTextContent("first"),
		mcp.NewTextContent(""),
		mcp.NewTextContent("second"),
	})
	assert.Equal(t, "first\nsecond", got)
}

func TestNewGateway_RequiresURL(t *testing.T) {
	_, err := NewGateway(context.Background(), "")
	assert.Error(t, err)
}

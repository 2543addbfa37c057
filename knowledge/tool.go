package knowledge

import (
	"fmt"

	"github.com/advcomp/expertswarm/core"
	"github.com/advcomp/expertswarm/tool"
)

// NewQueryTool wraps a Connector as the query_knowledge_base function tool
// given to every expert in a swarm. The domain argument is constrained to
// the closed expert-domain set.
func NewQueryTool(connector Connector, domains []string) *tool.FunctionTool {
	domainEnum := make([]any, len(domains))
	for i, d := range domains {
		domainEnum[i] = d
	}

	return tool.NewFunctionTool(
		queryToolName,
		"Query the specialized knowledge base for your domain. Always pass your own domain and a focused search query.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"domain": map[string]any{
					"type":        "string",
					"description": "Knowledge base domain partition to search",
					"enum":        domainEnum,
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Search query text",
				},
			},
			"required": []string{"domain", "query"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			domain, _ := args["domain"].(string)
			query, _ := args["query"].(string)
			if query == "" {
				return nil, fmt.Errorf("field 'query' must be non-empty string")
			}
			if !contains(domains, domain) {
				return nil, fmt.Errorf("unknown domain %q, expected one of %v", domain, domains)
			}

			answer, err := connector.Query(tc.Context(), domain, query)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"description": answer.Description,
				"content":     answer.Content,
			}, nil
		},
	)
}

func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

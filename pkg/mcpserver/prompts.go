package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds workflow prompts to the MCP server.
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        "js_recon",
			Description: "Recon workflow: scan a page's JavaScript and summarize the exposed API surface.",
			Arguments: []*mcp.PromptArgument{
				{Name: "target", Description: "Target page URL (e.g. https://example.com)", Required: true},
				{Name: "focus", Description: "Optional extra token keywords, comma-separated (e.g. 'bearer,session')", Required: false},
			},
		},
		func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			target := req.Params.Arguments["target"]
			if target == "" {
				return nil, fmt.Errorf("'target' argument is required")
			}
			tokens := ""
			if focus := req.Params.Arguments["focus"]; focus != "" {
				tokens = fmt.Sprintf(" Pass these extra token keywords as the tokens argument: %s.", focus)
			}

			return &mcp.GetPromptResult{
				Description: fmt.Sprintf("JavaScript recon: %s", target),
				Messages: []*mcp.PromptMessage{
					{
						Role: "user",
						Content: &mcp.TextContent{
							Text: fmt.Sprintf(`Run passive JavaScript recon against %s.

1. Read jsenum://defaults to see which keywords and parameters are probed.
2. Call scan_js with {"url": %q}.%s
3. Group the endpoints by path prefix and flag anything that looks internal or administrative.
4. List every token finding and say whether it looks like a live credential.
5. For each fuzzed endpoint, list the accepted parameters and suggest follow-up tests.
6. Note whether GraphQL is in use and whether the report is partial.`, target, target, tokens),
						},
					},
				},
			}, nil
		},
	)
}

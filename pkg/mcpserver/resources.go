package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/jsonutil"
)

// registerResources adds the read-only resources to the MCP server.
func (s *Server) registerResources() {
	s.addJSONResource("jsenum://version", "jsenum Version",
		"Server version and tool inventory.", s.versionInfo)
	s.addJSONResource("jsenum://defaults", "Scan Defaults",
		"Token keywords, probe parameters, ignore list and accepted statuses used when scan_js gets no overrides.", s.defaultsInfo)
}

func (s *Server) addJSONResource(uri, name, desc string, build func() any) {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uri,
			Name:        name,
			Description: desc,
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			data, err := jsonutil.MarshalIndent(build(), "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshaling %s: %w", uri, err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: uri, MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}

func (s *Server) versionInfo() any {
	return map[string]any{
		"name":    defaults.ToolName,
		"version": defaults.Version,
		"tools":   []string{"scan_js"},
		"prompts": []string{"js_recon"},
	}
}

func (s *Server) defaultsInfo() any {
	o := s.config.Options
	return map[string]any{
		"token_keywords":    o.TokenKeywords,
		"params":            o.Params,
		"ignore_list":       o.IgnoreList,
		"accepted_statuses": o.AcceptedStatuses,
		"threads":           o.Concurrency,
		"probe_value":       o.ProbeValue,
		"fetch_timeout":     o.FetchTimeout.String(),
		"probe_timeout":     o.ProbeTimeout.String(),
	}
}

// ABOUTME: MCP resource definitions
// ABOUTME: Provides read-only views for AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/stride/internal/stats"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const runsResourceURI = "stride://runs"

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        runsResourceURI,
		Description: "Cached runs with totals",
		URI:         runsResourceURI,
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

// RunsResource is the document served at stride://runs.
type RunsResource struct {
	Runs    []RunOutput   `json:"runs"`
	Summary stats.Summary `json:"summary"`
}

func (s *Server) handleRunsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	runs, err := s.repo.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	doc := RunsResource{
		Runs:    make([]RunOutput, len(runs)),
		Summary: stats.Summarize(runs),
	}
	for i, r := range runs {
		doc.Runs[i] = RunOutput{RunRecord: r, Title: stats.DefaultTitle(r)}
	}

	jsonBytes, _ := json.MarshalIndent(doc, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      runsResourceURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}

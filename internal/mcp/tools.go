// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Track preview and conversion plus read-only queries over cached runs

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/stats"
	"github.com/harper/stride/internal/storage"
	"github.com/harper/stride/internal/track"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerPreviewTrackTool()
	s.registerConvertTrackTool()
	s.registerListRunsTool()
	s.registerGetRunTool()
	s.registerRunStatsTool()
}

// TrackInput identifies a track file by path or inline content.
type TrackInput struct {
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

// PreviewOutput defines output for preview_track tool.
type PreviewOutput struct {
	track.Preview
	WouldConvert bool `json:"wouldConvert"`
}

// ConvertInput defines input for convert_track tool.
type ConvertInput struct {
	TrackInput
	Filename string `json:"filename,omitempty"`
}

// ConvertOutput defines output for convert_track tool.
type ConvertOutput struct {
	Filename  string `json:"filename"`
	Converted bool   `json:"converted"`
	Points    int    `json:"points"`
	Document  string `json:"document"`
}

// RunOutput is a run with its display title.
type RunOutput struct {
	models.RunRecord
	Title string `json:"title"`
}

// ListRunsInput defines input for list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty"`
}

// ListRunsOutput defines output for list_runs tool.
type ListRunsOutput struct {
	Runs       []RunOutput `json:"runs"`
	Count      int         `json:"count"`
	LastSynced string      `json:"lastSynced,omitempty"`
}

// GetRunInput defines input for get_run tool.
type GetRunInput struct {
	ID string `json:"id"`
}

// StatsOutput defines output for run_stats tool.
type StatsOutput struct {
	stats.Summary
	TotalDuration string        `json:"totalDuration"`
	Series        []SeriesPoint `json:"series"`
}

// SeriesPoint is one sample of the distance chart.
type SeriesPoint struct {
	Start      string  `json:"start"`
	DistanceKm float64 `json:"distanceKm"`
}

var trackInputProperties = map[string]interface{}{
	"path": map[string]interface{}{
		"type":        "string",
		"description": "Path to a GPX file on disk",
	},
	"content": map[string]interface{}{
		"type":        "string",
		"description": "GPX document text (used when path is empty)",
	},
}

func (s *Server) registerPreviewTrackTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "preview_track",
		Description: "Parse a GPX file and report point count, distance, duration, and whether it holds a real track or only waypoints.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": trackInputProperties,
		},
	}, s.handlePreviewTrack)
}

func (s *Server) handlePreviewTrack(_ context.Context, req *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, PreviewOutput, error) {
	parsed, _, err := loadTrack(input)
	if err != nil {
		return nil, PreviewOutput{}, err
	}

	output := PreviewOutput{
		Preview:      parsed.Preview(),
		WouldConvert: !parsed.ContainsTrack,
	}
	return jsonResult(output), output, nil
}

func (s *Server) registerConvertTrackTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "convert_track",
		Description: "Rewrite a waypoint-only GPX file as a single-segment track. Files that already contain a track are returned unchanged.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": mergeProperties(trackInputProperties, map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Original filename, used to name the converted file",
				},
			}),
		},
	}, s.handleConvertTrack)
}

func (s *Server) handleConvertTrack(_ context.Context, req *mcp.CallToolRequest, input ConvertInput) (*mcp.CallToolResult, ConvertOutput, error) {
	parsed, raw, err := loadTrack(input.TrackInput)
	if err != nil {
		return nil, ConvertOutput{}, err
	}

	name := input.Filename
	if name == "" && input.Path != "" {
		name = filepath.Base(input.Path)
	}
	if name == "" {
		name = "track.gpx"
	}

	output := ConvertOutput{
		Filename: name,
		Points:   len(parsed.Points),
		Document: string(raw),
	}
	if !parsed.ContainsTrack {
		output.Filename = track.ConvertedFilename(name)
		output.Converted = true
		output.Document = string(track.Synthesize(parsed.Points, s.producer))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output.Document}},
	}, output, nil
}

func (s *Server) registerListRunsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_runs",
		Description: "List cached runs, most recent first. Reflects the last successful refresh.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (0 for all)",
				},
			},
		},
	}, s.handleListRuns)
}

func (s *Server) handleListRuns(_ context.Context, req *mcp.CallToolRequest, input ListRunsInput) (*mcp.CallToolResult, ListRunsOutput, error) {
	if input.Limit < 0 {
		return nil, ListRunsOutput{}, fmt.Errorf("limit must not be negative")
	}

	runs, err := s.repo.ListRuns()
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}
	if input.Limit > 0 && len(runs) > input.Limit {
		runs = runs[:input.Limit]
	}

	output := ListRunsOutput{
		Runs:  make([]RunOutput, len(runs)),
		Count: len(runs),
	}
	for i, r := range runs {
		output.Runs[i] = RunOutput{RunRecord: r, Title: stats.DefaultTitle(r)}
	}

	if synced, err := s.repo.LastSynced(); err == nil && !synced.IsZero() {
		output.LastSynced = synced.Format(time.RFC3339)
	}

	return jsonResult(output), output, nil
}

func (s *Server) registerGetRunTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_run",
		Description: "Get one cached run by id.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Run id",
				},
			},
			"required": []string{"id"},
		},
	}, s.handleGetRun)
}

func (s *Server) handleGetRun(_ context.Context, req *mcp.CallToolRequest, input GetRunInput) (*mcp.CallToolResult, RunOutput, error) {
	if input.ID == "" {
		return nil, RunOutput{}, fmt.Errorf("id is required")
	}

	r, err := s.repo.GetRun(input.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, RunOutput{}, fmt.Errorf("run '%s' not found", input.ID)
	}
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("failed to get run: %w", err)
	}

	output := RunOutput{RunRecord: *r, Title: stats.DefaultTitle(*r)}
	return jsonResult(output), output, nil
}

func (s *Server) registerRunStatsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "run_stats",
		Description: "Total distance, total time, average pace, and a distance-over-time series across cached runs.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, s.handleRunStats)
}

func (s *Server) handleRunStats(_ context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, StatsOutput, error) {
	runs, err := s.repo.ListRuns()
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	summary := stats.Summarize(runs)
	output := StatsOutput{
		Summary:       summary,
		TotalDuration: stats.FormatDuration(summary.TotalDurationSec),
		Series:        []SeriesPoint{},
	}
	for _, p := range stats.Series(runs) {
		output.Series = append(output.Series, SeriesPoint{
			Start:      p.Start.Format(time.RFC3339),
			DistanceKm: p.DistanceKm,
		})
	}
	return jsonResult(output), output, nil
}

func loadTrack(input TrackInput) (*track.ParsedTrack, []byte, error) {
	var raw []byte
	switch {
	case input.Path != "":
		data, err := os.ReadFile(input.Path) //#nosec G304 -- path supplied by the agent's user
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read file: %w", err)
		}
		raw = data
	case input.Content != "":
		raw = []byte(input.Content)
	default:
		return nil, nil, fmt.Errorf("either path or content is required")
	}

	parsed, err := track.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return parsed, raw, nil
}

func mergeProperties(sets ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

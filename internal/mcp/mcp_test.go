// ABOUTME: Tests for MCP server, tools, and resources
// ABOUTME: Verifies MCP integration with the run repository interface

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/storage"
	"github.com/harper/stride/internal/track"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mockRepo implements storage.RunRepository for testing.
type mockRepo struct {
	runs   []models.RunRecord
	synced time.Time

	listErr error
	getErr  error
}

func (m *mockRepo) ReplaceRuns(runs []models.RunRecord) error {
	m.runs = append([]models.RunRecord(nil), runs...)
	return nil
}

func (m *mockRepo) MarkSynced(at time.Time) error {
	m.synced = at
	return nil
}

func (m *mockRepo) ListRuns() ([]models.RunRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.RunRecord(nil), m.runs...), nil
}

func (m *mockRepo) GetRun(id string) (*models.RunRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *mockRepo) LastSynced() (time.Time, error) {
	return m.synced, nil
}

func strPtr(s string) *string { return &s }

func seededRepo() *mockRepo {
	repo := &mockRepo{}
	_ = repo.ReplaceRuns([]models.RunRecord{
		{ID: "3", DistanceKm: 10, DurationSec: 3300, StartISO: strPtr("2024-06-03T19:00:00Z")},
		{ID: "2", DistanceKm: 5, DurationSec: 1500, StartISO: strPtr("2024-06-01T07:00:00Z")},
		{ID: "1", DistanceKm: 0, DurationSec: 0},
	})
	_ = repo.MarkSynced(time.Now())
	return repo
}

const waypointDoc = `<gpx><wpt lat="52.0" lon="5.0"/><wpt lat="52.1" lon="5.0"/></gpx>`

func TestNewServer(t *testing.T) {
	server, err := NewServer(&mockRepo{}, WithProducer("Forward"))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.mcp == nil {
		t.Error("expected non-nil mcp server")
	}
	if server.producer != "Forward" {
		t.Errorf("expected producer 'Forward', got %q", server.producer)
	}
}

func TestNewServer_NilRepo(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Error("expected error for nil repo")
	}
}

func TestHandlePreviewTrack_Content(t *testing.T) {
	server, _ := NewServer(&mockRepo{})

	result, output, err := server.handlePreviewTrack(context.Background(), nil, TrackInput{Content: waypointDoc})
	if err != nil {
		t.Fatalf("handlePreviewTrack failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if output.Points != 2 {
		t.Errorf("expected 2 points, got %d", output.Points)
	}
	if output.ContainsTrack || !output.WouldConvert {
		t.Errorf("expected waypoint-only preview, got %+v", output)
	}
	if output.DistanceKm < 11.0 || output.DistanceKm > 11.2 {
		t.Errorf("expected ~11.12 km, got %v", output.DistanceKm)
	}
}

func TestHandlePreviewTrack_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gpx")
	doc := `<gpx><trk><trkseg><trkpt lat="0" lon="0"/><trkpt lat="0" lon="1"/></trkseg></trk></gpx>`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	server, _ := NewServer(&mockRepo{})
	_, output, err := server.handlePreviewTrack(context.Background(), nil, TrackInput{Path: path})
	if err != nil {
		t.Fatalf("handlePreviewTrack failed: %v", err)
	}
	if !output.ContainsTrack || output.WouldConvert {
		t.Errorf("expected track preview, got %+v", output)
	}
}

func TestHandlePreviewTrack_Errors(t *testing.T) {
	server, _ := NewServer(&mockRepo{})

	if _, _, err := server.handlePreviewTrack(context.Background(), nil, TrackInput{}); err == nil {
		t.Error("expected error with no input")
	}

	_, _, err := server.handlePreviewTrack(context.Background(), nil, TrackInput{Content: "plain text"})
	var malformed *track.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedInputError, got %v", err)
	}

	if _, _, err := server.handlePreviewTrack(context.Background(), nil, TrackInput{Path: "/does/not/exist.gpx"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHandleConvertTrack(t *testing.T) {
	server, _ := NewServer(&mockRepo{}, WithProducer("Forward"))

	_, output, err := server.handleConvertTrack(context.Background(), nil, ConvertInput{
		TrackInput: TrackInput{Content: waypointDoc},
		Filename:   "Route.GPX",
	})
	if err != nil {
		t.Fatalf("handleConvertTrack failed: %v", err)
	}
	if !output.Converted {
		t.Error("expected conversion")
	}
	if output.Filename != "Route_track.gpx" {
		t.Errorf("expected Route_track.gpx, got %q", output.Filename)
	}
	if !strings.Contains(output.Document, "<trkpt") || !strings.Contains(output.Document, `creator="Forward"`) {
		t.Errorf("unexpected document: %s", output.Document)
	}
}

func TestHandleConvertTrack_AlreadyTrack(t *testing.T) {
	server, _ := NewServer(&mockRepo{})
	doc := `<gpx><trk><trkseg><trkpt lat="0" lon="0"/></trkseg></trk></gpx>`

	_, output, err := server.handleConvertTrack(context.Background(), nil, ConvertInput{TrackInput: TrackInput{Content: doc}})
	if err != nil {
		t.Fatalf("handleConvertTrack failed: %v", err)
	}
	if output.Converted {
		t.Error("track files should not be converted")
	}
	if output.Filename != "track.gpx" || output.Document != doc {
		t.Errorf("expected unchanged document, got %+v", output)
	}
}

func TestHandleListRuns(t *testing.T) {
	server, _ := NewServer(seededRepo())

	result, output, err := server.handleListRuns(context.Background(), nil, ListRunsInput{})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if output.Count != 3 || len(output.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", output.Count)
	}
	if output.Runs[0].ID != "3" || output.Runs[0].Title != "Evening run" {
		t.Errorf("unexpected first run: %+v", output.Runs[0])
	}
	if output.Runs[2].Title != "Run" {
		t.Errorf("expected fallback title, got %q", output.Runs[2].Title)
	}
	if output.LastSynced == "" {
		t.Error("expected last synced time")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("result text is not JSON: %v", err)
	}
	runs := decoded["runs"].([]interface{})
	first := runs[0].(map[string]interface{})
	if first["distanceKm"] != 10.0 || first["title"] != "Evening run" {
		t.Errorf("expected flattened run fields, got %v", first)
	}
}

func TestHandleListRuns_Limit(t *testing.T) {
	server, _ := NewServer(seededRepo())

	_, output, err := server.handleListRuns(context.Background(), nil, ListRunsInput{Limit: 1})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if output.Count != 1 || output.Runs[0].ID != "3" {
		t.Errorf("expected only the most recent run, got %+v", output.Runs)
	}

	if _, _, err := server.handleListRuns(context.Background(), nil, ListRunsInput{Limit: -1}); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestHandleListRuns_Error(t *testing.T) {
	repo := &mockRepo{listErr: errors.New("database error")}
	server, _ := NewServer(repo)

	if _, _, err := server.handleListRuns(context.Background(), nil, ListRunsInput{}); err == nil {
		t.Error("expected error when list fails")
	}
}

func TestHandleGetRun(t *testing.T) {
	server, _ := NewServer(seededRepo())

	_, output, err := server.handleGetRun(context.Background(), nil, GetRunInput{ID: "2"})
	if err != nil {
		t.Fatalf("handleGetRun failed: %v", err)
	}
	if output.DistanceKm != 5 || output.Title != "Morning run" {
		t.Errorf("unexpected run: %+v", output)
	}

	_, _, err = server.handleGetRun(context.Background(), nil, GetRunInput{ID: "nope"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}

	if _, _, err := server.handleGetRun(context.Background(), nil, GetRunInput{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestHandleRunStats(t *testing.T) {
	server, _ := NewServer(seededRepo())

	_, output, err := server.handleRunStats(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("handleRunStats failed: %v", err)
	}
	if output.Runs != 3 || output.TotalDistanceKm != 15 || output.TotalDurationSec != 4800 {
		t.Errorf("unexpected totals: %+v", output.Summary)
	}
	if output.AveragePace != "5:20 /km" {
		t.Errorf("expected 5:20 /km, got %q", output.AveragePace)
	}
	if output.TotalDuration != "1hr 20m 0s" {
		t.Errorf("expected 1hr 20m 0s, got %q", output.TotalDuration)
	}
	if len(output.Series) != 2 || output.Series[0].Start != "2024-06-01T07:00:00Z" {
		t.Errorf("expected series sorted by start, got %+v", output.Series)
	}
}

func TestHandleRunsResource(t *testing.T) {
	server, _ := NewServer(seededRepo())

	result, err := server.handleRunsResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleRunsResource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	if result.Contents[0].URI != "stride://runs" {
		t.Errorf("expected URI 'stride://runs', got %q", result.Contents[0].URI)
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("expected MIME type 'application/json', got %q", result.Contents[0].MIMEType)
	}

	var doc RunsResource
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &doc); err != nil {
		t.Fatalf("resource is not JSON: %v", err)
	}
	if len(doc.Runs) != 3 || doc.Summary.Runs != 3 {
		t.Errorf("unexpected resource: %+v", doc)
	}
}

func TestHandleRunsResource_Error(t *testing.T) {
	server, _ := NewServer(&mockRepo{listErr: errors.New("database error")})

	if _, err := server.handleRunsResource(context.Background(), nil); err == nil {
		t.Error("expected error when list fails")
	}
}

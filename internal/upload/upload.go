// ABOUTME: Upload flow for track files
// ABOUTME: Parses, optionally repairs waypoint-only files, posts them, and adds the result to the registry

package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/registry"
	"github.com/harper/stride/internal/runs"
	"github.com/harper/stride/internal/track"
	"github.com/harper/stride/internal/transport"
	"github.com/rs/zerolog"
)

// ErrUploadRejected is returned when the backend does not accept an upload.
var ErrUploadRejected = errors.New("upload rejected")

// Uploader sends a track file to the backend.
type Uploader interface {
	Upload(ctx context.Context, token, filename string, body []byte) (transport.Status, map[string]any, error)
}

// Payload is what will be sent for one file.
type Payload struct {
	Filename  string
	Body      []byte
	Converted bool
}

// Result describes a completed upload.
type Result struct {
	Track   *track.ParsedTrack
	Payload Payload
	Record  models.RunRecord
}

// Service runs the upload flow against a registry.
type Service struct {
	uploader Uploader
	registry *registry.Registry
	producer string
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProducer sets the creator name written into converted documents.
func WithProducer(name string) Option {
	return func(s *Service) { s.producer = name }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an upload service.
func NewService(u Uploader, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		uploader: u,
		registry: reg,
		producer: track.DefaultProducer,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare parses raw and decides what to send. When convert is set and the
// file has no track points, the payload is a synthesized track document under
// a "_track.gpx" filename; otherwise the original bytes are sent unchanged.
func Prepare(filename string, raw []byte, convert bool, producer string) (*track.ParsedTrack, Payload, error) {
	parsed, err := track.Parse(raw)
	if err != nil {
		return nil, Payload{}, err
	}

	if convert && !parsed.ContainsTrack {
		return parsed, Payload{
			Filename:  track.ConvertedFilename(filename),
			Body:      track.Synthesize(parsed.Points, producer),
			Converted: true,
		}, nil
	}
	return parsed, Payload{Filename: filename, Body: raw}, nil
}

// Upload parses and posts a track file, then inserts the normalized response
// at the front of the registry.
func (s *Service) Upload(ctx context.Context, filename string, raw []byte, convert bool) (*Result, error) {
	parsed, payload, err := Prepare(filename, raw, convert, s.producer)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("file", payload.Filename).
		Int("points", len(parsed.Points)).
		Float64("distance_m", parsed.DistanceMeters).
		Int64("duration_s", parsed.DurationSeconds).
		Bool("converted", payload.Converted).
		Msg("Uploading track")

	auth := s.registry.Authorization()
	status, record, err := s.uploader.Upload(ctx, auth.Token, payload.Filename, payload.Body)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", payload.Filename, err)
	}
	if status != transport.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUploadRejected, status)
	}

	rec := s.registry.Add(runs.Raw(record))
	s.logger.Info().Stringer("run", rec).Msg("Upload accepted")
	return &Result{Track: parsed, Payload: payload, Record: rec}, nil
}

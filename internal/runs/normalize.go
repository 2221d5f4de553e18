// ABOUTME: Normalizes heterogeneous backend run records into the canonical shape
// ABOUTME: Field precedence lives in one ordered table per canonical attribute

package runs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/harper/stride/internal/models"
)

// Raw is a backend run record as decoded from JSON.
type Raw = map[string]any

// Field lists the backend names accepted for one canonical attribute, in
// precedence order, and the divisor that converts the value to canonical units.
type Field struct {
	Names   []string
	Divisor float64
}

// FieldTable holds the precedence rules used by Normalize. The first present
// (non-null) name wins; later names are never consulted.
var FieldTable = struct {
	ID             Field
	DistanceKm     Field
	DistanceMeters Field
	Duration       Field
	Start          Field
	Filename       Field
	Pace           Field
}{
	ID:             Field{Names: []string{"id"}},
	DistanceKm:     Field{Names: []string{"distanceKm"}, Divisor: 1},
	DistanceMeters: Field{Names: []string{"distance_m", "distance", "distanceMeters"}, Divisor: 1000},
	Duration:       Field{Names: []string{"durationSec", "duration", "duration_s", "durationSeconds"}, Divisor: 1},
	Start:          Field{Names: []string{"startIso", "startTime", "start_time"}},
	Filename:       Field{Names: []string{"filename"}},
	Pace:           Field{Names: []string{"pace"}},
}

// Number returns the first present value converted to canonical units.
func (f Field) Number(raw Raw) (float64, bool) {
	v, ok := f.Lookup(raw)
	if !ok {
		return 0, false
	}
	div := f.Divisor
	if div == 0 {
		div = 1
	}
	return nonNegative(number(v) / div), true
}

// Lookup returns the first present value among f's names.
func (f Field) Lookup(raw Raw) (any, bool) {
	for _, name := range f.Names {
		if v, ok := raw[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Normalize maps a backend record into a RunRecord. It never fails: missing or
// malformed numbers become 0 and missing strings stay absent.
func Normalize(raw Raw) models.RunRecord {
	rec := models.RunRecord{}
	if raw == nil {
		return rec
	}

	if v, ok := FieldTable.ID.Lookup(raw); ok {
		rec.ID = identifier(v)
	}

	if km, ok := FieldTable.DistanceKm.Number(raw); ok {
		rec.DistanceKm = km
	} else if km, ok := FieldTable.DistanceMeters.Number(raw); ok {
		rec.DistanceKm = km
	}

	if secs, ok := FieldTable.Duration.Number(raw); ok {
		rec.DurationSec = int64(math.Round(secs))
	}

	rec.StartISO = optionalString(FieldTable.Start, raw)
	rec.Filename = optionalString(FieldTable.Filename, raw)
	rec.Pace = optionalString(FieldTable.Pace, raw)

	return rec
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []Raw) []models.RunRecord {
	out := make([]models.RunRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// number coerces a JSON-ish value to a finite float, or 0.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func nonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

func identifier(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

func optionalString(f Field, raw Raw) *string {
	v, ok := f.Lookup(raw)
	if !ok {
		return nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return nil
	}
	return &s
}

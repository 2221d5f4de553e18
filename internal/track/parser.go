// ABOUTME: Track file parser for GPX-style point markup
// ABOUTME: Extracts track points (or waypoints as fallback) and derives distance and duration

package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harper/stride/internal/geo"
	"github.com/harper/stride/internal/models"
)

const (
	trackPointTag = "trkpt"
	waypointTag   = "wpt"
	elevationTag  = "ele"
	timeTag       = "time"
)

// timeLayouts are tried in order when reading a point timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsedTrack is the result of parsing one track file.
type ParsedTrack struct {
	Points          []models.GeoPoint `json:"points"`
	DistanceMeters  float64           `json:"distance_meters"`
	DurationSeconds int64             `json:"duration_seconds"`
	ContainsTrack   bool              `json:"contains_track"`
}

// MalformedInputError is returned when the input is not structured markup at all.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return "malformed track input: " + e.Err.Error()
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// rawPoint holds the unparsed attribute and child text of one candidate element.
type rawPoint struct {
	lat, lon string
	ele      *string
	time     *string
}

// ParseString parses track markup held in a string.
func ParseString(raw string) (*ParsedTrack, error) {
	return Parse([]byte(raw))
}

// Parse reads track markup and returns its surviving points with derived metrics.
// Track points take strict precedence over waypoints. A document without any
// points is not an error.
func Parse(raw []byte) (*ParsedTrack, error) {
	trkpts, wpts, err := scan(raw)
	if err != nil {
		return nil, err
	}

	candidates := trkpts
	if len(trkpts) == 0 {
		candidates = wpts
	}

	points := make([]models.GeoPoint, 0, len(candidates))
	for _, rp := range candidates {
		if p, ok := rp.toGeoPoint(); ok {
			points = append(points, p)
		}
	}

	return &ParsedTrack{
		Points:          points,
		DistanceMeters:  geo.PathLength(points),
		DurationSeconds: duration(points),
		ContainsTrack:   len(trkpts) > 0,
	}, nil
}

// scan walks the whole document once, collecting track points and waypoints
// wherever they appear.
func scan(raw []byte) (trkpts, wpts []rawPoint, err error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	// Encoding declarations are not interpreted; content is read as text.
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &MalformedInputError{Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		switch start.Name.Local {
		case trackPointTag:
			rp, err := readPoint(dec, start)
			if err != nil {
				return nil, nil, err
			}
			trkpts = append(trkpts, rp)
		case waypointTag:
			rp, err := readPoint(dec, start)
			if err != nil {
				return nil, nil, err
			}
			wpts = append(wpts, rp)
		}
	}

	if !sawRoot {
		return nil, nil, &MalformedInputError{Err: errors.New("no root element")}
	}
	return trkpts, wpts, nil
}

// readPoint consumes tokens up to the end of start, keeping the first
// elevation and time descendants.
func readPoint(dec *xml.Decoder, start xml.StartElement) (rawPoint, error) {
	rp := rawPoint{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "lat":
			rp.lat = attr.Value
		case "lon":
			rp.lon = attr.Value
		}
	}

	depth := 1
	var capture *string
	captureDepth := 0
	var text strings.Builder
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return rp, &MalformedInputError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if capture != nil {
				continue
			}
			switch {
			case t.Name.Local == elevationTag && rp.ele == nil:
				rp.ele = new(string)
				capture = rp.ele
			case t.Name.Local == timeTag && rp.time == nil:
				rp.time = new(string)
				capture = rp.time
			default:
				continue
			}
			captureDepth = depth
			text.Reset()
		case xml.CharData:
			if capture != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if capture != nil && depth == captureDepth {
				*capture = text.String()
				capture = nil
			}
			depth--
		}
	}
	return rp, nil
}

// toGeoPoint converts a candidate into a point, rejecting invalid coordinates.
func (rp rawPoint) toGeoPoint() (models.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rp.lat), 64)
	if err != nil {
		return models.GeoPoint{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rp.lon), 64)
	if err != nil {
		return models.GeoPoint{}, false
	}
	if models.ValidateCoordinates(lat, lon) != nil {
		return models.GeoPoint{}, false
	}

	p := models.NewGeoPoint(lat, lon)
	if rp.ele != nil {
		if ele, err := strconv.ParseFloat(strings.TrimSpace(*rp.ele), 64); err == nil && !math.IsNaN(ele) && !math.IsInf(ele, 0) {
			p = p.WithElevation(ele)
		}
	}
	if rp.time != nil {
		if ts, ok := parseTime(*rp.time); ok {
			p = p.WithTime(ts)
		}
	}
	return p, true
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// duration is the rounded span between the first and last timestamped points,
// clamped at zero.
func duration(points []models.GeoPoint) int64 {
	first, last := -1, -1
	for i := range points {
		if points[i].HasTime() {
			first = i
			break
		}
	}
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].HasTime() {
			last = i
			break
		}
	}
	if first < 0 || last < 0 {
		return 0
	}

	secs := math.Round(points[last].Time.Sub(*points[first].Time).Seconds())
	if secs < 0 {
		return 0
	}
	return int64(secs)
}

// ABOUTME: Synthesizes a minimal GPX track document from a point sequence
// ABOUTME: Repairs waypoint-only files into a single-segment track

package track

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/harper/stride/internal/models"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	// DefaultProducer is the creator name written into converted documents.
	DefaultProducer = "stride"

	// ConvertedTrackName names the single track of a converted document.
	ConvertedTrackName = "Converted Waypoints"

	gpxVersion = "1.1"

	fallbackDocument = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="%s" xmlns="http://www.topografix.com/GPX/1/1"><trk><name>%s</name><trkseg></trkseg></trk></gpx>`
)

var (
	gpxSuffix = regexp.MustCompile(`(?i)\.gpx$`)

	// gpxgo always opens a metadata element; without content it is dropped.
	emptyMetadata = regexp.MustCompile(`\s*<metadata>(?:\s|<[a-z]+>|</[a-z]+>)*</metadata>`)

	timeElement = regexp.MustCompile(`<time>[^<]*</time>`)
)

// Synthesize builds a GPX 1.1 document holding one track with one segment and
// one track point per input point, in input order. Elevation and time are
// written only when present on a point.
func Synthesize(points []models.GeoPoint, producer string) []byte {
	if strings.TrimSpace(producer) == "" {
		producer = DefaultProducer
	}

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(points))}
	var times []string
	for _, p := range points {
		pt := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			},
		}
		if p.Elevation != nil {
			pt.Elevation = *gpx.NewNullableFloat64(*p.Elevation)
		}
		if p.HasTime() {
			pt.Timestamp = p.Time.UTC()
			if pt.Timestamp.Year() > 1 {
				times = append(times, pt.Timestamp.Format(time.RFC3339Nano))
			}
		}
		segment.Points = append(segment.Points, pt)
	}

	doc := &gpx.GPX{
		Version: gpxVersion,
		Creator: producer,
		Tracks: []gpx.GPXTrack{{
			Name:     ConvertedTrackName,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}

	out, err := doc.ToXml(gpx.ToXmlParams{Version: gpxVersion, Indent: true})
	if err != nil {
		// Only reachable if the encoder rejects plain numeric fields.
		return fallback(producer)
	}
	out = emptyMetadata.ReplaceAll(out, nil)
	return withPreciseTimes(out, times)
}

// withPreciseTimes rewrites the <time> elements, which gpxgo truncates to whole
// seconds, in document order. The converted document carries no other times.
func withPreciseTimes(doc []byte, times []string) []byte {
	i := 0
	return timeElement.ReplaceAllFunc(doc, func(m []byte) []byte {
		if i >= len(times) {
			return m
		}
		r := "<time>" + times[i] + "</time>"
		i++
		return []byte(r)
	})
}

func fallback(producer string) []byte {
	return []byte(fmt.Sprintf(fallbackDocument, escape(producer), escape(ConvertedTrackName)))
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// ConvertedFilename derives the upload filename for a converted document:
// "morning.gpx" becomes "morning_track.gpx".
func ConvertedFilename(name string) string {
	return gpxSuffix.ReplaceAllString(name, "") + "_track.gpx"
}

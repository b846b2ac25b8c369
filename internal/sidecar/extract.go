// BYZRA ⸻ internal/sidecar/extract.go
// timestamp and geo extraction from sidecar JSON

package sidecar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// exif date format
	DisplayLayout = "2006:01:02 15:04:05"

	// no colons, safe in file names on every platform
	FilenameLayout = "2006_01_02_150405"
)

// which sidecar field the timestamp came from
const (
	SourcePhotoTaken = "photoTakenTime"
	SourceCreation   = "creationTime"
	SourceDefault    = "default"
)

// normalized sidecar fields; absent values keep their zero defaults
type MetadataRecord struct {
	CapturedAt             time.Time
	CapturedAtDisplay      string
	CapturedAtFilenameSafe string
	TimeSource             string

	Latitude  float64
	Longitude float64
	Altitude  float64
}

// sidecar fields consumed; pointers tell "absent" from zero
type sidecarFile struct {
	PhotoTakenTime *timeField `json:"photoTakenTime"`
	CreationTime   *timeField `json:"creationTime"`
	GeoData        *geoField  `json:"geoData"`
}

type timeField struct {
	Timestamp *unixSeconds `json:"timestamp"`
}

type geoField struct {
	Latitude  *number `json:"latitude"`
	Longitude *number `json:"longitude"`
	Altitude  *number `json:"altitude"`
}

// reads and decodes a sidecar file
func Extract(path string) (MetadataRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MetadataRecord{}, &ParseError{Path: path, Err: err}
	}

	rec, err := Decode(data)
	if err != nil {
		return MetadataRecord{}, &ParseError{Path: path, Err: err}
	}

	return rec, nil
}

// decodes sidecar content. Missing time or geo fields fall back to defaults;
// only malformed content is an error.
func Decode(data []byte) (MetadataRecord, error) {
	var sc sidecarFile
	if err := json.Unmarshal(data, &sc); err != nil {
		return MetadataRecord{}, err
	}

	var rec MetadataRecord

	var seconds int64
	switch {
	case sc.PhotoTakenTime != nil && sc.PhotoTakenTime.Timestamp != nil:
		seconds = int64(*sc.PhotoTakenTime.Timestamp)
		rec.TimeSource = SourcePhotoTaken
	case sc.CreationTime != nil && sc.CreationTime.Timestamp != nil:
		seconds = int64(*sc.CreationTime.Timestamp)
		rec.TimeSource = SourceCreation
	default:
		rec.TimeSource = SourceDefault
	}

	rec.CapturedAt = time.Unix(seconds, 0).UTC()
	rec.CapturedAtDisplay = rec.CapturedAt.Format(DisplayLayout)
	rec.CapturedAtFilenameSafe = rec.CapturedAt.Format(FilenameLayout)

	if geo := sc.GeoData; geo != nil {
		rec.Latitude = geo.Latitude.value()
		rec.Longitude = geo.Longitude.value()
		rec.Altitude = geo.Altitude.value()
	}

	return rec, nil
}

// true when all three geo values are zero
func (r MetadataRecord) GeoEmpty() bool {
	return r.Latitude == 0 && r.Longitude == 0 && r.Altitude == 0
}

// seconds since the epoch, written by the export as a string or a number
type unixSeconds int64

func (s *unixSeconds) UnmarshalJSON(b []byte) error {
	raw, quoted := unquote(b)

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = unixSeconds(n)
		return nil
	}

	if !quoted {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			*s = unixSeconds(int64(f))
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp %s", b)
}

// float that may arrive quoted
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	raw, _ := unquote(b)

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}

	*n = number(f)
	return nil
}

func (n *number) value() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

func unquote(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return strings.TrimSpace(s), true
		}
	}
	return string(b), false
}

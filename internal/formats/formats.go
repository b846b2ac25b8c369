// BYZRA ⸻ internal/formats/formats.go
// media kinds, extension tables and per-kind tag handlers

package formats

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// media category, derived once from the extension
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// default extension sets of a takeout export
var (
	PhotoExtensions = []string{".jpg", ".jpeg", ".png", ".heic"}
	VideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}
)

// defines the exiftool tags written for a media kind
type FormatHandler interface {
	// tags that receive the capture timestamp
	DateTags() []string

	// can the container hold GPS tags written by exiftool?
	SupportsGPS() bool
}

// appropriate handler for a media kind
func GetHandler(kind Kind) (FormatHandler, error) {
	switch kind {
	case KindPhoto:
		return &ImageHandler{}, nil
	case KindVideo:
		return &VideoHandler{}, nil
	default:
		return nil, fmt.Errorf("no handler for kind: %s", kind)
	}
}

// extension lookup table, built from configuration
type Table struct {
	photo []string
	video []string
}

func NewTable(photo, video []string) (*Table, error) {
	t := &Table{
		photo: normalizeExtensions(photo),
		video: normalizeExtensions(video),
	}

	for _, ext := range t.photo {
		if slices.Contains(t.video, ext) {
			return nil, fmt.Errorf("extension %s listed as both photo and video", ext)
		}
	}

	return t, nil
}

// table with the default takeout extension sets
func DefaultTable() *Table {
	t, _ := NewTable(PhotoExtensions, VideoExtensions)
	return t
}

// media kind for a path; false when the extension is not media
func (t *Table) Classify(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))

	if slices.Contains(t.photo, ext) {
		return KindPhoto, true
	}

	if slices.Contains(t.video, ext) {
		return KindVideo, true
	}

	return "", false
}

// checks if a file extension is a known media extension
func (t *Table) IsSupported(path string) bool {
	_, ok := t.Classify(path)
	return ok
}

// all extensions known to the table
func (t *Table) Extensions() []string {
	all := make([]string, 0, len(t.photo)+len(t.video))
	all = append(all, t.photo...)
	all = append(all, t.video...)
	return all
}

// lowercases and adds the leading dot
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}

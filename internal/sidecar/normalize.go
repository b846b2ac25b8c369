// BYZRA ⸻ internal/sidecar/normalize.go
// media filename normalization

package sidecar

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// suffix added by the export to edited copies; the sidecar belongs to the original
const editedMarker = "-edited"

// decomposed media path, with the edited marker removed
type Name struct {
	// full path after marker removal
	Path string

	// directory the media file lives in (taken from the input path)
	Dir string

	// file name
	Base string

	// file name up to the first '.'
	Stem string

	// last extension, with the dot
	Ext string
}

// strips the last "-edited" occurrence and splits the path.
// Only the final occurrence is removed, so "a-edited-edited.jpg" keeps one.
func Normalize(path string) Name {
	dir := filepath.Dir(path)
	path = replaceLast(path, editedMarker, "")
	base := filepath.Base(path)

	return Name{
		Path: path,
		Dir:  dir,
		Base: base,
		Stem: firstPart(base),
		Ext:  filepath.Ext(base),
	}
}

// file name with the last extension dropped
func (n Name) WithoutExt() string {
	return strings.TrimSuffix(n.Base, n.Ext)
}

func firstPart(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

func replaceLast(s, old, repl string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + repl + s[i+len(old):]
}

// keeps at most n runes of s
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// BYZRA ⸻ internal/sidecar/candidates.go
// sidecar name candidates, in resolver preference order

package sidecar

import (
	"path/filepath"
	"unicode/utf8"
)

const (
	jsonExt            = ".json"
	supplementalSuffix = ".supplemental-metadata"

	// the export caps sidecar file names at this many characters
	maxSidecarNameLen = 51
)

// the part of ".supplemental-metadata" that fits next to mediaName.
// Never empty: at least one character is kept even for very long names.
func SupplementalSuffix(mediaName string) string {
	allowance := maxSidecarNameLen - utf8.RuneCountInString(mediaName+jsonExt)
	if allowance < 1 {
		allowance = 1
	}
	return truncateRunes(supplementalSuffix, allowance)
}

// ordered sidecar paths for a media file. Pure; never touches the filesystem.
//
//  1. <media>.json
//  2. <media><truncated .supplemental-metadata>.json
//  3. <dir>/<name without extension>.json
//  4. each of the above with the last hyphen removed
func Candidates(mediaPath string) []string {
	n := Normalize(mediaPath)

	base := []string{
		n.Path + jsonExt,
		n.Path + SupplementalSuffix(n.Base) + jsonExt,
		filepath.Join(n.Dir, n.WithoutExt()+jsonExt),
	}

	// duplicate counters lose their hyphen on the sidecar, not on the media
	out := make([]string, 0, 2*len(base))
	out = append(out, base...)
	for _, c := range base {
		if v := replaceLast(c, "-", ""); v != c {
			out = append(out, v)
		}
	}

	return out
}

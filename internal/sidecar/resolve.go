// BYZRA ⸻ internal/sidecar/resolve.go
// sidecar lookup: known candidates first, prefix search last

package sidecar

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// prefix length the export keeps on truncated sidecar names
const maxPrefixLen = 46

// trailing "(N)" counter and "_exported..." marker on a stem
var duplicateMarkers = regexp.MustCompile(`(?i)^(.*?)(\(\d+\))?(_exported.*)?$`)

// filesystem access needed by the resolver
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

type osFileSystem struct{}

func (osFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (osFileSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

// FileSystem backed by the os package
func OSFileSystem() FileSystem {
	return osFileSystem{}
}

// how a sidecar was found
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyCandidate
	StrategyPrefix
)

func (s Strategy) String() string {
	switch s {
	case StrategyCandidate:
		return "candidate"
	case StrategyPrefix:
		return "prefix"
	default:
		return "none"
	}
}

// finds sidecars for media paths
type Resolver struct {
	fs FileSystem
}

func NewResolver(fsys FileSystem) *Resolver {
	if fsys == nil {
		fsys = OSFileSystem()
	}
	return &Resolver{fs: fsys}
}

// resolves one media file. An unresolved match is a normal outcome, not an error.
func (r *Resolver) Resolve(media MediaRecord) SidecarMatch {
	match := SidecarMatch{Media: media}

	for _, candidate := range Candidates(media.Path) {
		ok, err := r.isFile(candidate)
		if err != nil {
			match.ProbeErr = err
		}
		if ok {
			match.SidecarPath = candidate
			match.Strategy = StrategyCandidate
			return match
		}
	}

	path, err := r.searchPrefix(media.Path)
	if err != nil {
		match.ProbeErr = err
	}
	if path != "" {
		match.SidecarPath = path
		match.Strategy = StrategyPrefix
	}

	return match
}

// resolves a bare path
func (r *Resolver) ResolvePath(mediaPath string) (string, bool) {
	m := r.Resolve(MediaRecord{Path: mediaPath})
	return m.SidecarPath, m.Resolved()
}

// reduced stem used for the prefix search: counters and export markers
// stripped, cut to the length the export keeps
func SearchPrefix(mediaPath string) string {
	stem := Normalize(mediaPath).Stem

	prefix := stem
	if m := duplicateMarkers.FindStringSubmatch(stem); m != nil {
		prefix = m[1]
	}

	return truncateRunes(prefix, maxPrefixLen)
}

// scans the media directory (non-recursive) for <prefix>*.json.
// Several matches are ordered naturally and the first wins, so the pick
// does not depend on the OS listing order.
func (r *Resolver) searchPrefix(mediaPath string) (string, error) {
	prefix := SearchPrefix(mediaPath)
	if prefix == "" {
		return "", nil
	}

	dir := Normalize(mediaPath).Dir
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return "", &FilesystemError{Op: "readdir", Path: dir, Err: err}
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, jsonExt) {
			matches = append(matches, name)
		}
	}

	if len(matches) == 0 {
		return "", nil
	}

	sort.Slice(matches, func(i, j int) bool { return natural.Less(matches[i], matches[j]) })
	return filepath.Join(dir, matches[0]), nil
}

// existing non-directory; missing files are not errors
func (r *Resolver) isFile(path string) (bool, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &FilesystemError{Op: "stat", Path: path, Err: err}
	}
	return !info.IsDir(), nil
}

package sidecar

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve_DirectBeatsFallbacks(t *testing.T) {
	fsys := newFakeFS(
		"/t/photo.jpg",
		"/t/photo.jpg.json",
		"/t/photo.jpg.supplemental-metadata.json",
		"/t/photo.json",
	)

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/photo.jpg"})
	if m.SidecarPath != "/t/photo.jpg.json" {
		t.Errorf("got %q, want direct sidecar", m.SidecarPath)
	}
	if m.Strategy != StrategyCandidate {
		t.Errorf("strategy = %v, want candidate", m.Strategy)
	}
}

func TestResolve_CandidatePriority(t *testing.T) {
	tests := []struct {
		name    string
		media   string
		sidecar string
	}{
		{"supplemental", "/t/IMG_1.jpg", "/t/IMG_1.jpg.supplemental-metadata.json"},
		{"truncated supplemental", "/t/IMG_20160819_201122-01.jpeg", "/t/IMG_20160819_201122-01.jpeg.supplemental-metad.json"},
		{"extension dropped", "/t/IMG_2.heic", "/t/IMG_2.json"},
		{"edited copy", "/t/IMG_3-edited.jpg", "/t/IMG_3.jpg.json"},
		{"hyphen dropped", "/t/photo-1.jpg", "/t/photo1.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := newFakeFS(tt.media, tt.sidecar)
			m := NewResolver(fsys).Resolve(MediaRecord{Path: tt.media})
			if m.SidecarPath != tt.sidecar {
				t.Errorf("got %q, want %q", m.SidecarPath, tt.sidecar)
			}
			if m.Strategy != StrategyCandidate {
				t.Errorf("strategy = %v, want candidate", m.Strategy)
			}
		})
	}
}

func TestResolve_PrefixFallback(t *testing.T) {
	fsys := newFakeFS("/t/IMG_001(1)_exported.jpg", "/t/IMG_001.json")

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/IMG_001(1)_exported.jpg"})
	if m.SidecarPath != "/t/IMG_001.json" {
		t.Fatalf("got %q, want /t/IMG_001.json", m.SidecarPath)
	}
	if m.Strategy != StrategyPrefix {
		t.Errorf("strategy = %v, want prefix", m.Strategy)
	}
}

func TestResolve_PrefixTruncatedTo46(t *testing.T) {
	long := strings.Repeat("a", 60)
	media := "/t/" + long + ".jpg"
	sidecar := "/t/" + long[:46] + ".json"

	m := NewResolver(newFakeFS(media, sidecar)).Resolve(MediaRecord{Path: media})
	if m.SidecarPath != sidecar {
		t.Errorf("got %q, want %q", m.SidecarPath, sidecar)
	}
}

func TestResolve_PrefixTieBreakIsNatural(t *testing.T) {
	media := "/t/IMG_001_exported.jpg"
	fsys := newFakeFS(media, "/t/IMG_001(10).json", "/t/IMG_001(9).json", "/t/IMG_001(11).json")
	r := NewResolver(fsys)

	for i := 0; i < 25; i++ {
		m := r.Resolve(MediaRecord{Path: media})
		if m.SidecarPath != "/t/IMG_001(9).json" {
			t.Fatalf("run %d: got %q, want /t/IMG_001(9).json", i, m.SidecarPath)
		}
	}
}

func TestResolve_PrefixIgnoresDirectoriesAndOtherFiles(t *testing.T) {
	media := "/t/IMG_7(2).jpg"
	fsys := newFakeFS(media, "/t/IMG_7.jpg", "/t/IMG_7.txt")
	fsys.dirs["/t/IMG_7.json"] = true

	m := NewResolver(fsys).Resolve(MediaRecord{Path: media})
	if m.Resolved() {
		t.Errorf("expected unresolved, got %q", m.SidecarPath)
	}
}

func TestResolve_CandidateDirectoryIsNotAMatch(t *testing.T) {
	fsys := newFakeFS("/t/a.jpg", "/t/a.json")
	fsys.dirs["/t/a.jpg.json"] = true

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/a.jpg"})
	if m.SidecarPath != "/t/a.json" {
		t.Errorf("got %q, want /t/a.json", m.SidecarPath)
	}
}

func TestResolve_Unresolved(t *testing.T) {
	fsys := newFakeFS("/t/lonely.mp4", "/t/other.json")

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/lonely.mp4"})
	if m.Resolved() {
		t.Errorf("expected unresolved, got %q", m.SidecarPath)
	}
	if m.Strategy != StrategyNone {
		t.Errorf("strategy = %v, want none", m.Strategy)
	}
	if m.ProbeErr != nil {
		t.Errorf("unexpected probe error: %v", m.ProbeErr)
	}
}

func TestResolve_EmptyPrefixNeverMatches(t *testing.T) {
	fsys := newFakeFS("/t/(1).jpg", "/t/anything.json")

	if m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/(1).jpg"}); m.Resolved() {
		t.Errorf("expected unresolved, got %q", m.SidecarPath)
	}
}

func TestResolve_FilesystemErrorsAreNotFound(t *testing.T) {
	fsys := newFakeFS("/t/a.jpg", "/t/a.json")
	fsys.statErr["/t/a.jpg.json"] = fs.ErrPermission

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/a.jpg"})
	if m.SidecarPath != "/t/a.json" {
		t.Errorf("got %q, want /t/a.json", m.SidecarPath)
	}
	if !IsFilesystemError(m.ProbeErr) || !errors.Is(m.ProbeErr, fs.ErrPermission) {
		t.Errorf("probe error = %v, want wrapped permission error", m.ProbeErr)
	}
}

func TestResolve_ListingErrorIsUnresolved(t *testing.T) {
	fsys := newFakeFS("/t/IMG_4(1).jpg")
	fsys.listErr = errors.New("io failure")

	m := NewResolver(fsys).Resolve(MediaRecord{Path: "/t/IMG_4(1).jpg"})
	if m.Resolved() {
		t.Errorf("expected unresolved, got %q", m.SidecarPath)
	}
	if !IsFilesystemError(m.ProbeErr) {
		t.Errorf("probe error = %v, want FilesystemError", m.ProbeErr)
	}
}

func TestResolve_ProbesInCandidateOrder(t *testing.T) {
	fsys := newFakeFS("/t/x-1.jpg")
	NewResolver(fsys).Resolve(MediaRecord{Path: "/t/x-1.jpg"})

	want := Candidates("/t/x-1.jpg")
	if !sliceEqual(fsys.stats, want) {
		t.Errorf("stat order %q\nwant %q", fsys.stats, want)
	}
}

func TestSearchPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/t/IMG_001(1)_exported.jpg", "IMG_001"},
		{"/t/IMG_001(12).jpg", "IMG_001"},
		{"/t/IMG_001_EXPORTED_4.jpg", "IMG_001"},
		{"/t/IMG_001.MP.jpg", "IMG_001"},
		{"/t/IMG_001-edited.jpg", "IMG_001"},
		{"/t/holiday (1) beach.jpg", "holiday (1) beach"},
	}

	for _, tt := range tests {
		if got := SearchPrefix(tt.in); got != tt.want {
			t.Errorf("SearchPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolvePath_RealFilesystem(t *testing.T) {
	dir := t.TempDir()
	media := writeFile(t, dir, "photo.jpg", "jpeg")
	sidecar := writeFile(t, dir, "photo.jpg.json", `{}`)
	writeFile(t, dir, "photo.json", `{}`)

	got, ok := NewResolver(nil).ResolvePath(media)
	if !ok || got != sidecar {
		t.Errorf("ResolvePath = %q, %v; want %q", got, ok, sidecar)
	}

	missing := filepath.Join(dir, "nothing.mov")
	if got, ok := NewResolver(nil).ResolvePath(missing); ok {
		t.Errorf("ResolvePath(%q) = %q, want unresolved", missing, got)
	}
}

package sidecar

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// in-memory FileSystem; map order keeps ReadDir unordered on purpose
type fakeFS struct {
	files   map[string]bool
	dirs    map[string]bool
	statErr map[string]error
	listErr error
	stats   []string
}

func newFakeFS(paths ...string) *fakeFS {
	f := &fakeFS{
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		statErr: make(map[string]error),
	}
	for _, p := range paths {
		f.files[p] = true
	}
	return f
}

func (f *fakeFS) Stat(name string) (fs.FileInfo, error) {
	f.stats = append(f.stats, name)
	if err, ok := f.statErr[name]; ok {
		return nil, err
	}
	if f.files[name] {
		return fakeInfo{name: filepath.Base(name)}, nil
	}
	if f.dirs[name] {
		return fakeInfo{name: filepath.Base(name), dir: true}, nil
	}
	return nil, fs.ErrNotExist
}

func (f *fakeFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []fs.DirEntry
	for p := range f.files {
		if filepath.Dir(p) == dir {
			out = append(out, fs.FileInfoToDirEntry(fakeInfo{name: filepath.Base(p)}))
		}
	}
	for p := range f.dirs {
		if filepath.Dir(p) == dir {
			out = append(out, fs.FileInfoToDirEntry(fakeInfo{name: filepath.Base(p), dir: true}))
		}
	}
	return out, nil
}

type fakeInfo struct {
	name string
	dir  bool
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.dir }
func (i fakeInfo) Sys() any           { return nil }

func (i fakeInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

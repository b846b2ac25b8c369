// BYZRA ⸻ internal/analyse/scan.go
// media enumeration under an input root

package analyse

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"photofix/internal/formats"
	"photofix/internal/sidecar"
)

// walks root and returns every supported media file, sorted by path.
// Sidecars and unsupported files are skipped.
func ScanMedia(root string, table *formats.Table) ([]sidecar.MediaRecord, error) {
	if table == nil {
		table = formats.DefaultTable()
	}

	var records []sidecar.MediaRecord
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// unreadable subtree; keep going
			return nil
		}
		if d.IsDir() {
			return nil
		}

		kind, ok := table.Classify(path)
		if !ok {
			return nil
		}
		records = append(records, sidecar.MediaRecord{Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records, nil
}

// classifies explicit paths, e.g. from the command line or a watch event
func ClassifyPaths(paths []string, table *formats.Table) ([]sidecar.MediaRecord, []string) {
	if table == nil {
		table = formats.DefaultTable()
	}

	var records []sidecar.MediaRecord
	var skipped []string
	for _, p := range paths {
		kind, ok := table.Classify(p)
		if !ok {
			skipped = append(skipped, p)
			continue
		}
		records = append(records, sidecar.MediaRecord{Path: p, Kind: kind})
	}
	return records, skipped
}

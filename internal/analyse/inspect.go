// BYZRA ⸻ internal/analyse/inspect.go
// single-file inspection: candidates, match, extracted record

package analyse

import (
	"fmt"
	"os"

	"photofix/internal/formats"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

// everything known about one media file before it is fixed
type InspectReport struct {
	Path       string
	FileType   FileType
	Kind       formats.Kind
	Candidates []string
	Prefix     string
	Result     sidecar.FileResult

	// current embedded tags; nil when no reader was given
	Tags    map[string]any
	TagsErr error
}

// examines one media file. reader may be nil.
func Inspect(path string, r *sidecar.Resolver, table *formats.Table, reader util.TagReader) (*InspectReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("invalid file: %s is a directory", path)
	}

	if table == nil {
		table = formats.DefaultTable()
	}
	kind, ok := table.Classify(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	// content sniffing is informational only
	fileType, _ := DetectFile(path)

	if r == nil {
		r = sidecar.NewResolver(nil)
	}
	match := r.Resolve(sidecar.MediaRecord{Path: path, Kind: kind})

	report := &InspectReport{
		Path:       path,
		FileType:   fileType,
		Kind:       kind,
		Candidates: sidecar.Candidates(path),
		Prefix:     sidecar.SearchPrefix(path),
		Result:     sidecar.ExtractMatch(match),
	}

	if reader != nil {
		tags, err := reader.ReadTags(path)
		switch {
		case err != nil:
			report.TagsErr = err
		case len(tags) > 0:
			report.Tags = tags[0]
		}
	}

	return report, nil
}

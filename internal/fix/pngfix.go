// BYZRA ⸻ internal/fix/pngfix.go
// second pass for .png files that are really JPEGs

package fix

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"photofix/internal/analyse"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

var mislabeledPNG = regexp.MustCompile(`(?im)^Error: Not a valid PNG \(looks more like a JPEG\) - (.+?)\r?$`)

// results of the PNG repair pass
type RepairResult struct {
	Found   []string
	Outputs map[string]string // media path -> repaired .jpg
	Skipped []string
	Args    []string
	Batch   *util.BatchResult
}

// media paths exiftool rejected as PNGs that look like JPEGs, cleaned and deduplicated
func FindMislabeledPNGs(stderr string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range mislabeledPNG.FindAllStringSubmatch(stderr, -1) {
		p := filepath.Clean(strings.TrimSpace(m[1]))
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// copies every mislabeled PNG to <output>/<stamp>_<name>.jpg and tags the
// copies in place with a second batch. Files whose content is not JPEG, or
// that have no extracted record, are skipped.
func RepairMislabeledPNGs(ctx context.Context, stderr string, results []sidecar.FileResult, opts ArgsOptions, executor util.Executor, logger *util.Logger) (*RepairResult, error) {
	result := &RepairResult{
		Found:   FindMislabeledPNGs(stderr),
		Outputs: make(map[string]string),
	}
	if len(result.Found) == 0 {
		return result, nil
	}

	byPath := make(map[string]sidecar.FileResult, len(results))
	for _, r := range results {
		byPath[filepath.Clean(r.Match.Media.Path)] = r
	}

	for _, path := range result.Found {
		res, ok := byPath[path]
		if !ok || !res.OK() {
			logger.WithFile(util.LevelWarning, path, "mislabeled PNG has no extracted record; skipped")
			result.Skipped = append(result.Skipped, path)
			continue
		}

		isJPEG, err := analyse.IsJPEGContent(res.Match.Media.Path)
		if err != nil || !isJPEG {
			logger.WithFile(util.LevelWarning, path, "exiftool reported a JPEG in disguise but content does not match; skipped")
			result.Skipped = append(result.Skipped, path)
			continue
		}

		dest := util.FixedOutputPath(opts.OutputDir, res.Metadata.CapturedAtFilenameSafe, res.Match.Media.Path, ".jpg")
		if err := util.SafeCopy(res.Match.Media.Path, dest); err != nil {
			logger.WithFile(util.LevelError, path, fmt.Sprintf("copy as jpeg failed: %v", err))
			result.Skipped = append(result.Skipped, path)
			continue
		}

		result.Outputs[res.Match.Media.Path] = dest
		result.Args = append(result.Args, overwriteArguments(res.Metadata, res.Match.Media.Path, dest, opts)...)
		logger.WithFile(util.LevelInfo, path, "copied as "+filepath.Base(dest))
	}

	if len(result.Outputs) == 0 {
		return result, nil
	}

	batch, err := executor.RunBatch(ctx, result.Args)
	if err != nil {
		return result, fmt.Errorf("png repair batch failed: %w", err)
	}
	result.Batch = batch
	return result, nil
}

// sibling of an auxiliary file for the repair pass: args.txt -> args_png_repair.txt
func repairSibling(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_png_repair" + ext
}

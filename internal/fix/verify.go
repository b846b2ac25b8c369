// BYZRA ⸻ internal/fix/verify.go
// read-back verification of written outputs

package fix

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"photofix/internal/formats"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

// GPS read back through rational EXIF values drifts a little
const coordTolerance = 1e-5

// what one output file should carry
type Expectation struct {
	MediaPath  string
	OutputPath string
	Kind       formats.Kind
	Display    string
	Latitude   float64
	Longitude  float64
	CheckGPS   bool
}

type Mismatch struct {
	Path  string
	Field string
	Want  string
	Got   string
}

// results of a verification pass
type VerificationResult struct {
	Success          bool
	Checked          int
	Verified         int
	MissingOutputs   []string
	Mismatches       []Mismatch
	ValidationErrors []string
}

// expected outputs for every fixed file; repaired PNGs point at their .jpg copy
func BuildExpectations(results []sidecar.FileResult, opts ArgsOptions, repaired map[string]string) []Expectation {
	var out []Expectation
	for _, res := range results {
		if !res.OK() {
			continue
		}
		media := res.Match.Media
		rec := res.Metadata

		output, ok := repaired[media.Path]
		if !ok {
			output = util.FixedOutputPath(opts.OutputDir, rec.CapturedAtFilenameSafe, media.Path, "")
		}

		out = append(out, Expectation{
			MediaPath:  media.Path,
			OutputPath: output,
			Kind:       media.Kind,
			Display:    rec.CapturedAtDisplay,
			Latitude:   rec.Latitude,
			Longitude:  rec.Longitude,
			CheckGPS:   opts.WriteZeroGPS || !rec.GeoEmpty(),
		})
	}
	return out
}

// checks every expected output. JPEGs are decoded natively; everything else
// goes through reader, which may be nil to skip non-JPEG outputs.
func VerifyOutputs(expected []Expectation, reader util.TagReader) *VerificationResult {
	result := &VerificationResult{}

	var viaReader []Expectation
	for _, e := range expected {
		if _, err := os.Stat(e.OutputPath); err != nil {
			result.MissingOutputs = append(result.MissingOutputs, e.OutputPath)
			continue
		}

		if isJPEGName(e.OutputPath) {
			result.Checked++
			before := len(result.Mismatches)
			if err := verifyJPEG(e, result); err != nil {
				result.ValidationErrors = append(result.ValidationErrors, err.Error())
				continue
			}
			if len(result.Mismatches) == before {
				result.Verified++
			}
			continue
		}
		viaReader = append(viaReader, e)
	}

	if len(viaReader) > 0 && reader != nil {
		verifyWithReader(viaReader, reader, result)
	}

	result.Success = len(result.MissingOutputs) == 0 &&
		len(result.Mismatches) == 0 &&
		len(result.ValidationErrors) == 0
	return result
}

func isJPEGName(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

func verifyJPEG(e Expectation, result *VerificationResult) error {
	f, err := os.Open(e.OutputPath)
	if err != nil {
		return fmt.Errorf("%s: %w", e.OutputPath, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: failed to decode exif: %w", e.OutputPath, err)
	}

	tm, err := x.DateTime()
	got := ""
	if err == nil {
		got = tm.Format(sidecar.DisplayLayout)
	}
	if got != e.Display {
		result.Mismatches = append(result.Mismatches, Mismatch{e.OutputPath, "DateTimeOriginal", e.Display, got})
	}

	if !e.CheckGPS {
		return nil
	}
	lat, lon, err := x.LatLong()
	if err != nil {
		result.Mismatches = append(result.Mismatches, Mismatch{e.OutputPath, "GPS", coords(e.Latitude, e.Longitude), "none"})
		return nil
	}
	if math.Abs(lat-e.Latitude) > coordTolerance || math.Abs(lon-e.Longitude) > coordTolerance {
		result.Mismatches = append(result.Mismatches, Mismatch{e.OutputPath, "GPS", coords(e.Latitude, e.Longitude), coords(lat, lon)})
	}
	return nil
}

func verifyWithReader(expected []Expectation, reader util.TagReader, result *VerificationResult) {
	paths := make([]string, len(expected))
	for i, e := range expected {
		paths[i] = e.OutputPath
	}

	tags, err := reader.ReadTags(paths...)
	if err != nil {
		result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf("failed to read tags: %v", err))
		return
	}

	for i, e := range expected {
		result.Checked++
		if i >= len(tags) {
			result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf("%s: no tags returned", e.OutputPath))
			continue
		}
		fields := tags[i]
		if msg, ok := fields["Error"].(string); ok && msg != "" {
			result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf("%s: %s", e.OutputPath, msg))
			continue
		}

		if got, ok := matchDateTag(e, fields); !ok {
			result.Mismatches = append(result.Mismatches, Mismatch{e.OutputPath, "date", e.Display, got})
			continue
		}
		result.Verified++
	}
}

// true when any written date tag, FileModifyDate aside, carries the display
// timestamp; exiftool may append a zone offset
func matchDateTag(e Expectation, fields map[string]any) (string, bool) {
	handler, err := formats.GetHandler(e.Kind)
	if err != nil {
		return "", false
	}

	first := ""
	for _, tag := range handler.DateTags() {
		if tag == "FileModifyDate" {
			continue
		}
		v, ok := fields[tag].(string)
		if !ok {
			continue
		}
		if first == "" {
			first = v
		}
		if strings.HasPrefix(v, e.Display) {
			return v, true
		}
	}
	return first, false
}

func coords(lat, lon float64) string {
	return fmt.Sprintf("%s,%s", formatCoord(lat), formatCoord(lon))
}

// user-friendly report of the verification
func FormatVerificationResult(result *VerificationResult) string {
	var sb strings.Builder

	if result.Success {
		sb.WriteString(util.NSH.Render(fmt.Sprintf("✓ %d outputs verified", result.Verified)))
		sb.WriteString("\n")
		return sb.String()
	}

	if len(result.MissingOutputs) > 0 {
		sb.WriteString(util.LBL.Render(fmt.Sprintf("[!] %d expected outputs not found:", len(result.MissingOutputs))))
		sb.WriteString("\n")
		for _, p := range result.MissingOutputs {
			sb.WriteString("  ")
			sb.WriteString(util.NSH.Render("• " + p))
			sb.WriteString("\n")
		}
	}

	if len(result.Mismatches) > 0 {
		sb.WriteString(util.LBL.Render(fmt.Sprintf("[!] %d tag mismatches:", len(result.Mismatches))))
		sb.WriteString("\n")
		for _, m := range result.Mismatches {
			sb.WriteString("  ")
			sb.WriteString(util.NSH.Render(fmt.Sprintf("• %s %s: want %q, got %q", filepath.Base(m.Path), m.Field, m.Want, m.Got)))
			sb.WriteString("\n")
		}
	}

	for _, e := range result.ValidationErrors {
		sb.WriteString("  ")
		sb.WriteString(util.NSH.Render("• " + e))
		sb.WriteString("\n")
	}

	return sb.String()
}

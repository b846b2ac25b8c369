// BYZRA ⸻ internal/fix/args.go
// exiftool argument blocks built from sidecar records

package fix

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"photofix/internal/formats"
	"photofix/internal/sidecar"
)

// exiftool -d format for the %-tokens of -FileName
const OutputDateFormat = "%Y-%m-%d %H.%M.%S"

type ArgsOptions struct {
	// directory fixed copies are written to (-o)
	OutputDir string

	// write GPS tags even when latitude, longitude and altitude are all zero
	WriteZeroGPS bool

	// extra tags from profile.lua, templates unexpanded
	Profile map[string]string

	// clock for {{now}}; time.Now when nil
	Now func() time.Time
}

// one -o block for a successfully extracted file; nil otherwise
func BuildArguments(res sidecar.FileResult, opts ArgsOptions) []string {
	if !res.OK() {
		return nil
	}
	rec := res.Metadata
	media := res.Match.Media

	args := []string{"-o", opts.OutputDir, "-progress"}
	args = append(args, tagArgs(media.Kind, media.Path, rec, opts)...)
	args = append(args,
		"-FileName="+rec.CapturedAtFilenameSafe+"_%f.%e",
		"-d", OutputDateFormat,
		media.Path,
		"-execute",
	)
	return args
}

// every block for the batch, in result order, and the block count
func BuildBatch(results []sidecar.FileResult, opts ArgsOptions) ([]string, int) {
	var args []string
	blocks := 0
	for _, res := range results {
		block := BuildArguments(res, opts)
		if block == nil {
			continue
		}
		args = append(args, block...)
		blocks++
	}
	return args, blocks
}

// in-place block for a copy that already sits in the output directory
func overwriteArguments(rec sidecar.MetadataRecord, mediaPath, dest string, opts ArgsOptions) []string {
	args := []string{"-overwrite_original", "-progress"}
	args = append(args, tagArgs(formats.KindPhoto, mediaPath, rec, opts)...)
	return append(args, dest, "-execute")
}

// date, GPS and profile assignments shared by both block shapes
func tagArgs(kind formats.Kind, mediaPath string, rec sidecar.MetadataRecord, opts ArgsOptions) []string {
	handler, err := formats.GetHandler(kind)
	if err != nil {
		handler = &formats.ImageHandler{}
	}

	var args []string
	for _, tag := range handler.DateTags() {
		args = append(args, "-"+tag+"="+rec.CapturedAtDisplay)
	}

	if handler.SupportsGPS() && (opts.WriteZeroGPS || !rec.GeoEmpty()) {
		lat := formatCoord(rec.Latitude)
		lon := formatCoord(rec.Longitude)
		args = append(args,
			"-GPSLatitude="+lat,
			"-GPSLatitudeRef="+lat,
			"-GPSLongitude="+lon,
			"-GPSLongitudeRef="+lon,
			"-GPSAltitude="+formatCoord(rec.Altitude),
		)
	}

	for _, kv := range ExpandProfile(opts.Profile, rec, mediaPath, opts.now()) {
		args = append(args, "-"+kv[0]+"="+kv[1])
	}
	return args
}

func (o ArgsOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// profile tags with templates filled in, sorted by tag name
func ExpandProfile(profile map[string]string, rec sidecar.MetadataRecord, mediaPath string, now time.Time) [][2]string {
	if len(profile) == 0 {
		return nil
	}

	r := strings.NewReplacer(
		"{{year}}", strconv.Itoa(rec.CapturedAt.Year()),
		"{{date}}", rec.CapturedAtDisplay,
		"{{now}}", now.Format("2006-01-02"),
		"{{filename}}", filepath.Base(mediaPath),
	)

	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, r.Replace(profile[k])})
	}
	return out
}

// BYZRA ⸻ internal/analyse/report.go
// format inspection reports and association summaries

package analyse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"photofix/internal/sidecar"
	"photofix/internal/util"
)

func GenerateReport(report *InspectReport) string {
	var sb strings.Builder

	// info header
	sb.WriteString(util.NSH.Render(fmt.Sprintf("File: %s", report.Path)) + "\n")
	mime := report.FileType.MimeType
	if mime == "" {
		mime = "unknown content"
	}
	sb.WriteString(util.NSH.Render(fmt.Sprintf("Type: %s (%s)", report.Kind, mime)) + "\n\n")

	sb.WriteString(util.LBL.Render("Candidates:") + "\n")
	for i, c := range report.Candidates {
		sb.WriteString(fmt.Sprintf(" %s %d. %s\n", util.ORN.Render("•"), i+1, c))
	}
	sb.WriteString(fmt.Sprintf(" %s prefix: %q\n\n", util.ORN.Render("•"), report.Prefix))

	m := report.Result.Match
	if !m.Resolved() {
		sb.WriteString(util.BRH.Render("[!] No sidecar found") + "\n")
		if m.ProbeErr != nil {
			sb.WriteString(util.SUB.Render(fmt.Sprintf("    %v", m.ProbeErr)) + "\n")
		}
	} else {
		sb.WriteString(fmt.Sprintf("%s %s %s\n",
			util.LBL.Render("Sidecar:"), m.SidecarPath, util.SUB.Render("("+m.Strategy.String()+")")))
	}

	if report.Result.Failure() == sidecar.FailureParse {
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] %v", report.Result.Err)) + "\n")
	}

	if report.Result.OK() {
		rec := report.Result.Metadata
		sb.WriteString("\n" + util.LBL.Render("Extracted:") + "\n")
		writeField(&sb, "captured", rec.CapturedAtDisplay)
		writeField(&sb, "source", rec.TimeSource)
		writeField(&sb, "file stamp", rec.CapturedAtFilenameSafe)
		writeField(&sb, "latitude", formatValue(rec.Latitude))
		writeField(&sb, "longitude", formatValue(rec.Longitude))
		writeField(&sb, "altitude", formatValue(rec.Altitude))
	}

	if report.TagsErr != nil {
		sb.WriteString("\n" + util.SUB.Render(fmt.Sprintf("embedded tags unavailable: %v", report.TagsErr)) + "\n")
	} else if len(report.Tags) > 0 {
		sb.WriteString("\n" + util.LBL.Render("Embedded dates:") + "\n")
		keys := make([]string, 0, len(report.Tags))
		for k := range report.Tags {
			if isDateOrGPSField(k) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := formatValue(report.Tags[k]); v != "" {
				writeField(&sb, k, v)
			}
		}
	}

	return sb.String()
}

func writeField(sb *strings.Builder, key, value string) {
	sb.WriteString(fmt.Sprintf(" %s %s: %s\n", util.ORN.Render("•"), util.NSH.Render(key), value))
}

// one-line found / not found summary
func RenderCounts(c sidecar.Counts) string {
	return fmt.Sprintf("%s %s found %s %s not found",
		util.LBL.Render(fmt.Sprint(c.Resolved)), util.SUB.Render("/"),
		util.SUB.Render("|"), util.BRH.Render(fmt.Sprint(c.Unresolved)))
}

// lists unresolved media, capped at limit entries (0 = all)
func RenderUnresolved(t *sidecar.AssociationTable, limit int) string {
	missing := t.Unresolved()
	if len(missing) == 0 {
		return util.LBL.Render("✓ every media file has a sidecar") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] %d media files without sidecar:", len(missing))) + "\n")
	for i, m := range missing {
		if limit > 0 && i == limit {
			sb.WriteString(util.SUB.Render(fmt.Sprintf("    ... and %d more", len(missing)-limit)) + "\n")
			break
		}
		sb.WriteString(fmt.Sprintf(" %s %s\n", util.ORN.Render("•"), m.Media.Path))
	}
	return sb.String()
}

// on-disk shape of the associations dump
type associationsFile struct {
	RunID      string             `toml:"run_id"`
	Generated  time.Time          `toml:"generated"`
	Resolved   int                `toml:"resolved"`
	Unresolved int                `toml:"unresolved"`
	Media      []associationEntry `toml:"media"`
}

type associationEntry struct {
	Path     string `toml:"path"`
	Kind     string `toml:"kind"`
	Sidecar  string `toml:"sidecar,omitempty"`
	Strategy string `toml:"strategy"`
}

// writes the association table as TOML, one [[media]] entry per file
func WriteAssociations(path string, t *sidecar.AssociationTable, runID string) error {
	counts := t.Counts()
	out := associationsFile{
		RunID:      runID,
		Generated:  time.Now().UTC().Truncate(time.Second),
		Resolved:   counts.Resolved,
		Unresolved: counts.Unresolved,
	}
	for _, m := range t.Matches() {
		out.Media = append(out.Media, associationEntry{
			Path:     m.Media.Path,
			Kind:     string(m.Media.Kind),
			Sidecar:  m.SidecarPath,
			Strategy: m.Strategy.String(),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create associations directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create associations file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(out); err != nil {
		return fmt.Errorf("failed to write associations: %w", err)
	}
	return nil
}

// reads a dump back as media path -> sidecar path
func ReadAssociations(path string) (map[string]string, error) {
	var in associationsFile
	if _, err := toml.DecodeFile(path, &in); err != nil {
		return nil, fmt.Errorf("failed to read associations: %w", err)
	}
	out := make(map[string]string, len(in.Media))
	for _, e := range in.Media {
		out[e.Path] = e.Sidecar
	}
	return out, nil
}

// converts a metadata value to string representation
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if str := formatValue(item); str != "" {
				parts = append(parts, str)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(v))
		for _, k := range keys {
			if str := formatValue(v[k]); str != "" {
				parts = append(parts, fmt.Sprintf("%s:%s", k, str))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isDateOrGPSField(field string) bool {
	lower := strings.ToLower(field)
	return strings.Contains(lower, "date") || strings.HasPrefix(lower, "gps")
}

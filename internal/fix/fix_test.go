package fix

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photofix/internal/config"
	"photofix/internal/formats"
	"photofix/internal/sidecar"
	"photofix/internal/util"
)

func init() {
	util.Quiet = true
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// minimal JPEG whose only EXIF tag is DateTimeOriginal
func jpegWithDate(date string) []byte {
	var tiff bytes.Buffer
	be := binary.BigEndian
	put16 := func(v uint16) { binary.Write(&tiff, be, v) }
	put32 := func(v uint32) { binary.Write(&tiff, be, v) }

	tiff.WriteString("MM")
	put16(42)
	put32(8)

	// IFD0: ExifIFDPointer
	put16(1)
	put16(0x8769)
	put16(4)
	put32(1)
	put32(26)
	put32(0)

	// Exif IFD: DateTimeOriginal
	put16(1)
	put16(0x9003)
	put16(2)
	put32(20)
	put32(44)
	put32(0)

	tiff.WriteString(date)
	tiff.WriteByte(0)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&out, be, uint16(2+6+tiff.Len()))
	out.WriteString("Exif\x00\x00")
	out.Write(tiff.Bytes())
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

// records every batch and answers with canned output
type fakeExecutor struct {
	calls   [][]string
	stderr  []string
	exit    int
	err     error
	onBatch func(args []string)
}

func (f *fakeExecutor) RunBatch(ctx context.Context, args []string) (*util.BatchResult, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	if f.onBatch != nil {
		f.onBatch(args)
	}
	res := &util.BatchResult{Stdout: "    1 image files created\n", ExitCode: f.exit}
	if n := len(f.calls) - 1; n < len(f.stderr) {
		res.Stderr = f.stderr[n]
	}
	return res, nil
}

type fakeReader struct {
	tags map[string]map[string]any
	err  error
}

func (f fakeReader) ReadTags(paths ...string) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]map[string]any, len(paths))
	for i, p := range paths {
		out[i] = f.tags[p]
		if out[i] == nil {
			out[i] = map[string]any{"Error": "file not found"}
		}
	}
	return out, nil
}

func (f fakeReader) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Input = filepath.Join(root, "takeout")
	cfg.Paths.Output = filepath.Join(root, "out")
	cfg.Paths.ArgsFile = filepath.Join(root, "state", "args.txt")
	cfg.Paths.StdoutLog = filepath.Join(root, "state", "stdout.txt")
	cfg.Paths.StderrLog = filepath.Join(root, "state", "stderr.txt")
	cfg.Paths.Associations = filepath.Join(root, "state", "media_files.toml")
	cfg.Run.Workers = 2
	if err := os.MkdirAll(cfg.Paths.Input, 0755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	in := cfg.Paths.Input

	photo := filepath.Join(in, "IMG_0001.jpg")
	writeFile(t, photo, jpegHeader)
	writeFile(t, photo+".json", []byte(`{"photoTakenTime":{"timestamp":"1600000000"}}`))

	png := filepath.Join(in, "Screenshot.png")
	writeFile(t, png, jpegHeader)
	writeFile(t, png+".json", []byte(`{"creationTime":{"timestamp":"1500000000"}}`))

	broken := filepath.Join(in, "broken.jpg")
	writeFile(t, broken, jpegHeader)
	writeFile(t, broken+".json", []byte(`{"photoTakenTime":`))

	lonely := filepath.Join(in, "lonely.mp4")
	writeFile(t, lonely, nil)

	exec := &fakeExecutor{
		stderr: []string{"Error: Not a valid PNG (looks more like a JPEG) - " + png + "\n"},
	}
	logBuf := &bytes.Buffer{}
	logger := util.NewWriterLogger(logBuf, util.LevelDebug)

	result, err := Run(context.Background(), cfg, logger, exec, &Options{Profile: map[string]string{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", result.Scanned)
	}
	if result.Counts != (sidecar.Counts{Resolved: 3, Unresolved: 1}) {
		t.Errorf("Counts = %+v", result.Counts)
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != lonely {
		t.Errorf("Unresolved = %v", result.Unresolved)
	}
	if len(result.ParseFailures) != 1 || result.ParseFailures[0] != broken {
		t.Errorf("ParseFailures = %v", result.ParseFailures)
	}
	if result.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", result.Blocks)
	}

	if len(exec.calls) != 2 {
		t.Fatalf("executor calls = %d, want 2", len(exec.calls))
	}
	if !contains(exec.calls[0], photo) || !contains(exec.calls[0], png) || contains(exec.calls[0], broken) {
		t.Errorf("first batch = %v", exec.calls[0])
	}

	dest := filepath.Join(cfg.Paths.Output, "2017_07_14_024000_Screenshot.jpg")
	if !contains(exec.calls[1], "-overwrite_original") || !contains(exec.calls[1], dest) {
		t.Errorf("repair batch = %v", exec.calls[1])
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("repaired copy missing: %v", err)
	}
	if result.Repair == nil || result.Repair.Outputs[png] != dest {
		t.Errorf("Repair = %+v", result.Repair)
	}

	argsFile, err := os.ReadFile(cfg.Paths.ArgsFile)
	if err != nil {
		t.Fatalf("args file: %v", err)
	}
	if !strings.Contains(string(argsFile), "-FileName=2020_09_13_122640_%f.%e\n") {
		t.Errorf("args file missing FileName line:\n%s", argsFile)
	}
	if _, err := os.Stat(repairSibling(cfg.Paths.ArgsFile)); err != nil {
		t.Errorf("repair args file missing: %v", err)
	}

	stderrLog, _ := os.ReadFile(cfg.Paths.StderrLog)
	if !strings.Contains(string(stderrLog), "Not a valid PNG") {
		t.Errorf("stderr log = %q", stderrLog)
	}
	if _, err := os.Stat(cfg.Paths.Associations); err != nil {
		t.Errorf("associations dump missing: %v", err)
	}

	logs := logBuf.String()
	if !strings.Contains(logs, "no sidecar found") || !strings.Contains(logs, "lonely.mp4") {
		t.Errorf("unresolved file not logged:\n%s", logs)
	}

	report := FormatFixResult(result)
	if !strings.Contains(report, "4 media files scanned") || !strings.Contains(report, "1 sidecars could not be parsed") {
		t.Errorf("report =\n%s", report)
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig(t)
	photo := filepath.Join(cfg.Paths.Input, "a.jpg")
	writeFile(t, photo, jpegHeader)
	writeFile(t, photo+".json", []byte(`{}`))

	exec := &fakeExecutor{}
	result, err := Run(context.Background(), cfg, nil, exec, &Options{DryRun: true, Profile: map[string]string{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Error("dry run must not call exiftool")
	}
	if result.Blocks != 1 || !result.DryRun {
		t.Errorf("result = %+v", result)
	}
	if _, err := os.Stat(cfg.Paths.ArgsFile); err != nil {
		t.Errorf("dry run should still write the args file: %v", err)
	}
}

func TestRun_ExplicitPaths(t *testing.T) {
	cfg := testConfig(t)
	photo := filepath.Join(cfg.Paths.Input, "a.jpg")
	other := filepath.Join(cfg.Paths.Input, "b.jpg")
	writeFile(t, photo, jpegHeader)
	writeFile(t, photo+".json", []byte(`{}`))
	writeFile(t, other, jpegHeader)

	exec := &fakeExecutor{}
	result, err := Run(context.Background(), cfg, nil, exec, &Options{
		Paths:   []string{photo, photo + ".json"},
		Profile: map[string]string{},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Scanned != 1 {
		t.Errorf("Scanned = %d, want only the explicit media file", result.Scanned)
	}
	if len(exec.calls) != 1 || contains(exec.calls[0], other) {
		t.Errorf("calls = %v", exec.calls)
	}
}

func TestRun_ExecutorFailure(t *testing.T) {
	cfg := testConfig(t)
	photo := filepath.Join(cfg.Paths.Input, "a.jpg")
	writeFile(t, photo, jpegHeader)
	writeFile(t, photo+".json", []byte(`{}`))

	boom := errors.New("exec: exiftool not found")
	_, err := Run(context.Background(), cfg, nil, &fakeExecutor{err: boom}, &Options{Profile: map[string]string{}})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "gone")

	if _, err := Run(context.Background(), cfg, nil, &fakeExecutor{}, nil); err == nil {
		t.Error("expected error for missing input directory")
	}
}

func TestRun_Verify(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.Verify = true
	photo := filepath.Join(cfg.Paths.Input, "a.jpg")
	writeFile(t, photo, jpegHeader)
	writeFile(t, photo+".json", []byte(`{"photoTakenTime":{"timestamp":"1600000000"}}`))

	// stands in for exiftool writing the output
	exec := &fakeExecutor{onBatch: func(args []string) {
		writeFile(t, filepath.Join(cfg.Paths.Output, "2020_09_13_122640_a.jpg"), jpegWithDate("2020:09:13 12:26:40"))
	}}

	result, err := Run(context.Background(), cfg, nil, exec, &Options{Profile: map[string]string{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	v := result.Verification
	if v == nil || !v.Success || v.Verified != 1 {
		t.Errorf("Verification = %+v", v)
	}
}

func TestFindMislabeledPNGs(t *testing.T) {
	stderr := strings.Join([]string{
		"Warning: [minor] Ignored empty rational value - /in/x.jpg",
		"Error: Not a valid PNG (looks more like a JPEG) - /in/a.png",
		"error: not a valid png (looks more like a jpeg) - /in/./b.png\r",
		"Error: Not a valid PNG (looks more like a JPEG) - /in/a.png",
		"Error: File not found - /in/c.png",
	}, "\n")

	got := FindMislabeledPNGs(stderr)
	want := []string{"/in/a.png", "/in/b.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRepairMislabeledPNGs_SkipsRealPNG(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "real.png")
	writeFile(t, png, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})

	res := resultFor(t, png, formats.KindPhoto, `{}`)
	exec := &fakeExecutor{}
	out, err := RepairMislabeledPNGs(context.Background(),
		"Error: Not a valid PNG (looks more like a JPEG) - "+png,
		[]sidecar.FileResult{res}, ArgsOptions{OutputDir: filepath.Join(dir, "out")}, exec, nil)
	if err != nil {
		t.Fatalf("RepairMislabeledPNGs: %v", err)
	}
	if len(out.Skipped) != 1 || len(out.Outputs) != 0 || len(exec.calls) != 0 {
		t.Errorf("result = %+v, calls = %d", out, len(exec.calls))
	}
}

func TestRepairMislabeledPNGs_NothingFound(t *testing.T) {
	exec := &fakeExecutor{}
	out, err := RepairMislabeledPNGs(context.Background(), "", nil, ArgsOptions{}, exec, nil)
	if err != nil || len(out.Found) != 0 || len(exec.calls) != 0 {
		t.Errorf("out = %+v, err = %v", out, err)
	}
}

func TestVerifyOutputs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jpg")
	wrong := filepath.Join(dir, "wrong.jpg")
	clip := filepath.Join(dir, "clip.mp4")
	staleClip := filepath.Join(dir, "stale.mp4")
	writeFile(t, good, jpegWithDate("2020:09:13 12:26:40"))
	writeFile(t, wrong, jpegWithDate("1999:01:01 00:00:00"))
	writeFile(t, clip, nil)
	writeFile(t, staleClip, nil)

	display := "2020:09:13 12:26:40"
	expected := []Expectation{
		{OutputPath: good, Kind: formats.KindPhoto, Display: display},
		{OutputPath: wrong, Kind: formats.KindPhoto, Display: display},
		{OutputPath: filepath.Join(dir, "missing.jpg"), Kind: formats.KindPhoto, Display: display},
		{OutputPath: clip, Kind: formats.KindVideo, Display: display},
		{OutputPath: staleClip, Kind: formats.KindVideo, Display: display},
	}
	reader := fakeReader{tags: map[string]map[string]any{
		clip:      {"CreateDate": display, "FileModifyDate": "2026:10:18 09:00:00+00:00"},
		staleClip: {"CreateDate": "0000:00:00 00:00:00"},
	}}

	result := VerifyOutputs(expected, reader)

	if result.Success {
		t.Error("expected failure")
	}
	if result.Checked != 4 || result.Verified != 2 {
		t.Errorf("checked = %d verified = %d", result.Checked, result.Verified)
	}
	if len(result.MissingOutputs) != 1 {
		t.Errorf("MissingOutputs = %v", result.MissingOutputs)
	}
	if len(result.Mismatches) != 2 {
		t.Errorf("Mismatches = %+v", result.Mismatches)
	}
	if !strings.Contains(FormatVerificationResult(result), "missing.jpg") {
		t.Error("report should name the missing output")
	}
}

func TestBuildExpectations(t *testing.T) {
	res := resultFor(t, "/in/a.png", formats.KindPhoto, `{"photoTakenTime":{"timestamp":"1600000000"}}`)
	plain := resultFor(t, "/in/b.HEIC", formats.KindPhoto, `{"photoTakenTime":{"timestamp":"1600000000"}}`)
	failed := sidecar.FileResult{Err: sidecar.ErrUnresolved}

	exp := BuildExpectations([]sidecar.FileResult{res, plain, failed},
		ArgsOptions{OutputDir: "/out"}, map[string]string{"/in/a.png": "/out/fixed.jpg"})

	if len(exp) != 2 {
		t.Fatalf("expectations = %+v", exp)
	}
	if exp[0].OutputPath != "/out/fixed.jpg" {
		t.Errorf("repaired output = %s", exp[0].OutputPath)
	}
	if exp[1].OutputPath != filepath.Join("/out", "2020_09_13_122640_b.HEIC") {
		t.Errorf("output = %s", exp[1].OutputPath)
	}
	if exp[1].CheckGPS {
		t.Error("no geo data means no GPS check")
	}
}

func TestFormatFixResult_DryRun(t *testing.T) {
	out := FormatFixResult(&FixResult{Scanned: 3, Blocks: 2, DryRun: true, Elapsed: 65 * time.Second})
	if !strings.Contains(out, "Dry run") || !strings.Contains(out, "1m 5s") {
		t.Errorf("report =\n%s", out)
	}
}

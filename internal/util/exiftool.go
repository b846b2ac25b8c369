// BYZRA ⸻ internal/util/exiftool.go
// exiftool wrappers: batch writer over stdin, tag reader over stay_open

package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/barasher/go-exiftool"
)

// output of one batch run
type BatchResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runs a batch of exiftool arguments
type Executor interface {
	RunBatch(ctx context.Context, args []string) (*BatchResult, error)
}

// exiftool binary driven through an argument file on stdin
type ExifTool struct {
	Path string
}

func NewExifTool(path string) *ExifTool {
	if path == "" {
		path = "exiftool"
	}
	return &ExifTool{Path: path}
}

// checks the binary can be found
func (e *ExifTool) Available() error {
	if _, err := exec.LookPath(e.Path); err != nil {
		return fmt.Errorf("exiftool not found at %q: %w", e.Path, err)
	}
	return nil
}

// feeds args to a single exiftool process (-@ -), one per line, and closes
// the stay_open session at the end. A non-zero exit is reported in the
// result, not as an error: exiftool exits 1 when any file in the batch fails.
func (e *ExifTool) RunBatch(ctx context.Context, args []string) (*BatchResult, error) {
	cmd := exec.CommandContext(ctx, e.Path,
		"-stay_open", "True", "-progress", "-ignoreMinorErrors", "-@", "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(BatchInput(args))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &BatchResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("failed to run exiftool: %w", err)
	}

	return result, nil
}

// argument file text for a batch, terminated by the stay_open close
func BatchInput(args []string) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(a)
		sb.WriteString("\n")
	}
	sb.WriteString("-stay_open\nFalse\n")
	return sb.String()
}

// reads tags from written files
type TagReader interface {
	ReadTags(paths ...string) ([]map[string]any, error)
	Close() error
}

// go-exiftool backed TagReader; keeps one exiftool process open
type ExifToolReader struct {
	et *exiftool.Exiftool
}

func NewExifToolReader(binary string) (*ExifToolReader, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}

	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExifToolReader{et: et}, nil
}

// one field map per path, in order; a per-file failure yields an "Error" field
func (r *ExifToolReader) ReadTags(paths ...string) ([]map[string]any, error) {
	infos := r.et.ExtractMetadata(paths...)

	out := make([]map[string]any, 0, len(infos))
	for _, fi := range infos {
		fields := fi.Fields
		if fields == nil {
			fields = make(map[string]any)
		}
		if fi.Err != nil {
			fields["Error"] = fi.Err.Error()
		}
		out = append(out, fields)
	}

	return out, nil
}

func (r *ExifToolReader) Close() error {
	return r.et.Close()
}

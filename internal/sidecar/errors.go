// BYZRA ⸻ internal/sidecar/errors.go
// per-file failure kinds

package sidecar

import (
	"errors"
	"fmt"
)

// no candidate and no prefix match; expected for some files
var ErrUnresolved = errors.New("sidecar not found")

// sidecar unreadable or not valid JSON
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse sidecar %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// stat or directory listing failed; the resolver treats it as "not found"
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func IsFilesystemError(err error) bool {
	var e *FilesystemError
	return errors.As(err, &e)
}

// BYZRA ⸻ internal/sidecar/result.go
// per-file extraction outcomes

package sidecar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureUnresolved
	FailureParse
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureUnresolved:
		return "unresolved"
	case FailureParse:
		return "parse error"
	default:
		return "unknown"
	}
}

// outcome for one media file: metadata, or the reason there is none
type FileResult struct {
	Match    SidecarMatch
	Metadata MetadataRecord
	Err      error
}

func (r FileResult) Failure() FailureKind {
	switch {
	case r.Err == nil:
		return FailureNone
	case errors.Is(r.Err, ErrUnresolved):
		return FailureUnresolved
	default:
		return FailureParse
	}
}

func (r FileResult) OK() bool {
	return r.Err == nil
}

// extraction for one match
func ExtractMatch(m SidecarMatch) FileResult {
	if !m.Resolved() {
		return FileResult{
			Match: m,
			Err:   fmt.Errorf("%s: %w", m.Media.Path, ErrUnresolved),
		}
	}

	rec, err := Extract(m.SidecarPath)
	return FileResult{Match: m, Metadata: rec, Err: err}
}

// extracts metadata for every entry of the table, in table order.
// A failing sidecar is recorded on its own result and never stops the others.
func ExtractAll(ctx context.Context, t *AssociationTable, workers int, onResult func(FileResult)) ([]FileResult, error) {
	matches := t.Matches()
	results := make([]FileResult, len(matches))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, m := range matches {
		i, m := i, m
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := ExtractMatch(m)
			results[i] = res

			if onResult != nil {
				mu.Lock()
				onResult(res)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

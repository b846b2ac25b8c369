// BYZRA ⸻ internal/sidecar/associate.go
// association table: one sidecar match per media file

package sidecar

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"photofix/internal/formats"
)

// one physical media file
type MediaRecord struct {
	Path string
	Kind formats.Kind
}

// result of resolving one media file; SidecarPath is empty when unresolved
type SidecarMatch struct {
	Media       MediaRecord
	SidecarPath string
	Strategy    Strategy

	// last non-fatal filesystem error seen while probing
	ProbeErr error
}

func (m SidecarMatch) Resolved() bool {
	return m.SidecarPath != ""
}

type Counts struct {
	Resolved   int
	Unresolved int
}

func (c Counts) Total() int {
	return c.Resolved + c.Unresolved
}

// media path -> match, in input order; read-only once built
type AssociationTable struct {
	matches []SidecarMatch
	index   map[string]int
	counts  Counts
}

type AssociateOptions struct {
	// parallel resolutions; <= 1 runs sequentially
	Workers int

	// called once per match, never concurrently
	OnMatch func(SidecarMatch, Counts)
}

// resolves every record exactly once. The table has one entry per input
// record; which entries resolve depends on the filesystem at call time.
func BuildAssociations(ctx context.Context, r *Resolver, records []MediaRecord, opts AssociateOptions) (*AssociationTable, error) {
	t := &AssociationTable{
		matches: make([]SidecarMatch, len(records)),
		index:   make(map[string]int, len(records)),
	}

	var mu sync.Mutex
	record := func(i int, m SidecarMatch) {
		t.matches[i] = m

		mu.Lock()
		defer mu.Unlock()
		if m.Resolved() {
			t.counts.Resolved++
		} else {
			t.counts.Unresolved++
		}
		if opts.OnMatch != nil {
			opts.OnMatch(m, t.counts)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for i, rec := range records {
		i, rec := i, rec
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record(i, r.Resolve(rec))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, m := range t.matches {
		t.index[m.Media.Path] = i
	}

	return t, nil
}

func (t *AssociationTable) Len() int {
	return len(t.matches)
}

func (t *AssociationTable) Counts() Counts {
	return t.counts
}

func (t *AssociationTable) Lookup(mediaPath string) (SidecarMatch, bool) {
	i, ok := t.index[mediaPath]
	if !ok {
		return SidecarMatch{}, false
	}
	return t.matches[i], true
}

// all matches in input order
func (t *AssociationTable) Matches() []SidecarMatch {
	out := make([]SidecarMatch, len(t.matches))
	copy(out, t.matches)
	return out
}

func (t *AssociationTable) Resolved() []SidecarMatch {
	return t.filter(true)
}

func (t *AssociationTable) Unresolved() []SidecarMatch {
	return t.filter(false)
}

func (t *AssociationTable) filter(resolved bool) []SidecarMatch {
	var out []SidecarMatch
	for _, m := range t.matches {
		if m.Resolved() == resolved {
			out = append(out, m)
		}
	}
	return out
}

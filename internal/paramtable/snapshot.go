package paramtable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Snapshot is an immutable set of rows. A Store swaps whole snapshots and
// never edits one in place.
type Snapshot struct {
	rows     map[Key]*Row
	keys     []Key
	revision string
	sources  []string
}

var emptySnapshot = &Snapshot{rows: map[Key]*Row{}}

type batch struct {
	source string
	rows   []Row
}

func buildSnapshot(batches []batch) (*Snapshot, error) {
	snap := &Snapshot{rows: make(map[Key]*Row)}
	origin := make(map[Key]string)

	for _, b := range batches {
		snap.sources = append(snap.sources, b.source)
		for i := range b.rows {
			row := b.rows[i]
			row.normalize()
			if err := row.validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", b.source, err)
			}
			k := row.Key()
			if prev, dup := origin[k]; dup {
				return nil, fmt.Errorf("%s: duplicate row %s (already defined by %s)", b.source, k, prev)
			}
			fp, err := row.fingerprint()
			if err != nil {
				return nil, fmt.Errorf("%s: row %s: %w", b.source, k, err)
			}
			row.Version = k.String() + "@" + fp
			if row.Source == "" {
				row.Source = b.source
			}
			origin[k] = b.source
			snap.rows[k] = &row
			snap.keys = append(snap.keys, k)
		}
	}

	slices.SortFunc(snap.keys, compareKeys)

	h := sha256.New()
	for _, k := range snap.keys {
		h.Write([]byte(snap.rows[k].Version))
		h.Write([]byte{'\n'})
	}
	snap.revision = hex.EncodeToString(h.Sum(nil)[:6])
	return snap, nil
}

func compareKeys(a, b Key) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	if c := strings.Compare(a.Region, b.Region); c != 0 {
		return c
	}
	return strings.Compare(string(a.Residency), string(b.Residency))
}

// Lookup returns the row for k. The row is shared and must not be modified.
func (s *Snapshot) Lookup(k Key) (*Row, bool) {
	r, ok := s.rows[k]
	return r, ok
}

// Keys returns the loaded keys ordered by year, region, residency.
func (s *Snapshot) Keys() []Key {
	return slices.Clone(s.keys)
}

func (s *Snapshot) Len() int { return len(s.keys) }

func (s *Snapshot) Revision() string { return s.revision }

func (s *Snapshot) Sources() []string { return slices.Clone(s.sources) }

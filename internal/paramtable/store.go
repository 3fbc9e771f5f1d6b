// Package paramtable holds the yearly/regional statistical constants the
// compensation formulas are parameterised by.
//
// Rows are loaded from one or more Sources into an immutable Snapshot that
// is installed with an atomic swap: readers never block and never observe
// a partially loaded table.
package paramtable

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"compensation-engine/internal/model"
)

type Store struct {
	active atomic.Pointer[Snapshot]
	loadMu sync.Mutex
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	s.active.Store(emptySnapshot)
	return s
}

// Resolve returns the row for the key. It never falls back to another
// year or region: a missing key is a *model.NotFoundError.
func (s *Store) Resolve(year int, region string, residency model.Residency) (*Row, error) {
	k := Key{
		Year:      year,
		Region:    strings.ToLower(strings.TrimSpace(region)),
		Residency: residency,
	}
	row, ok := s.active.Load().Lookup(k)
	if !ok {
		return nil, &model.NotFoundError{Year: year, Region: k.Region, Residency: residency}
	}
	return row, nil
}

// Load reads every source and installs the resulting snapshot, replacing
// the active one. If any source fails or any row is invalid the active
// snapshot is left untouched.
func (s *Store) Load(ctx context.Context, sources ...Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("load parameter tables: no sources")
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	batches := make([]batch, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := src.Rows(ctx)
		if err != nil {
			return fmt.Errorf("load parameter tables from %s: %w", src.Name(), err)
		}
		batches = append(batches, batch{source: src.Name(), rows: rows})
	}

	snap, err := buildSnapshot(batches)
	if err != nil {
		return fmt.Errorf("load parameter tables: %w", err)
	}

	prev := s.active.Swap(snap)
	s.logger.Info("parameter tables loaded",
		zap.Int("rows", snap.Len()),
		zap.String("revision", snap.Revision()),
		zap.String("previous_revision", prev.Revision()),
		zap.Strings("sources", snap.Sources()),
	)
	return nil
}

// Snapshot returns the active snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.active.Load()
}

package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// =============================================================================
// STORE - Single-owner handle around the dataset
// =============================================================================

// Store owns the dataset. Reads go through View or Snapshot; every
// mutation goes through Update, which stages the change on a clone and
// swaps it in only when the whole change succeeded.
//
// The mutex serialises callers (HTTP handlers run concurrently). It is
// not a multi-user conflict resolution scheme: the last writer wins.
type Store struct {
	mu          sync.RWMutex
	ds          *Dataset
	persistence Persistence
	seeder      Seeder
	log         zerolog.Logger

	// dirty is set when the last save failed.
	dirty bool
}

// Open loads the persisted dataset. An absent or malformed dataset is
// replaced by the seeder's output. A save failure while storing the
// regenerated or normalized dataset does not fail Open: the store is
// returned dirty and Flush retries later.
func Open(ctx context.Context, p Persistence, seeder Seeder, log zerolog.Logger) (*Store, error) {
	s := &Store{persistence: p, seeder: seeder, log: log}

	ds, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrMalformedState):
		log.Warn().Err(err).Msg("stored dataset is malformed, regenerating")
		ds = nil
	case err != nil:
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	if ds != nil {
		if verr := ds.Validate(); verr != nil {
			log.Warn().Err(verr).Msg("stored dataset failed validation, regenerating")
			ds = nil
		}
	}

	if ds == nil {
		ds, err = seeder()
		if err != nil {
			return nil, fmt.Errorf("seed dataset: %w", err)
		}
		log.Info().
			Int("consultants", len(ds.Consultants)).
			Int("projects", len(ds.Projects)).
			Int("weeks", len(ds.WeekPeriods())).
			Msg("generated seed dataset")
	} else {
		ds.Normalize()
	}

	s.ds = ds
	if err := s.saveLocked(ctx); err != nil {
		log.Error().Err(err).Msg("initial save failed, will retry")
	}
	return s, nil
}

// View runs fn with read access. fn must not retain or mutate the dataset.
func (s *Store) View(fn func(ds *Dataset) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.ds)
}

// Snapshot returns a deep copy of the current dataset.
func (s *Store) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds.Clone()
}

// Update applies fn to a staged copy. If fn fails nothing changes. If fn
// succeeds the copy becomes current and is saved; a failed save is
// returned wrapped in ErrSaveFailed, but the change stays in memory.
func (s *Store) Update(ctx context.Context, fn func(ds *Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.ds.Clone()
	if err := fn(staged); err != nil {
		return err
	}
	s.ds = staged
	return s.saveLocked(ctx)
}

// Reset replaces the dataset wholesale. A nil dataset runs the seeder.
func (s *Store) Reset(ctx context.Context, ds *Dataset) error {
	if ds == nil {
		var err error
		if ds, err = s.seeder(); err != nil {
			return fmt.Errorf("seed dataset: %w", err)
		}
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	ds.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds.Clone()
	return s.saveLocked(ctx)
}

// Flush retries the save if the last one failed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.saveLocked(ctx)
}

// Dirty reports whether in-memory state has not been persisted.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) saveLocked(ctx context.Context) error {
	if err := s.persistence.Save(ctx, s.ds); err != nil {
		s.dirty = true
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	s.dirty = false
	return nil
}

/*
scheduler.go - Autosave retrier

PURPOSE:
  A failed save keeps the change in memory and marks the store dirty.
  The scheduler periodically flushes a dirty store until a save goes
  through, so an edit survives a transient persistence failure.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Does nothing while the store is clean
  - Logs each failed retry and the first success after failures

USAGE:
  scheduler := NewAutosaveScheduler(store, logger)
  scheduler.CheckInterval = cfg.AutosaveInterval
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - allocation/store.go: Store.Flush, Store.Dirty
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/allocation-engine/allocation"
)

// AutosaveScheduler retries failed saves in the background.
type AutosaveScheduler struct {
	Store         *allocation.Store
	CheckInterval time.Duration
	Enabled       bool

	log      zerolog.Logger
	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	failures int
}

// NewAutosaveScheduler creates a scheduler checking once a minute.
func NewAutosaveScheduler(store *allocation.Store, log zerolog.Logger) *AutosaveScheduler {
	return &AutosaveScheduler{
		Store:         store,
		CheckInterval: time.Minute,
		Enabled:       true,
		log:           log.With().Str("component", "autosave").Logger(),
	}
}

// Start begins the scheduler.
func (as *AutosaveScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		as.log.Info().Msg("disabled, not starting")
		return
	}
	if as.ticker != nil {
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.stop = make(chan struct{})
	as.wg.Add(1)
	go as.run(as.ticker.C, as.stop)

	as.log.Info().Dur("interval", as.CheckInterval).Msg("started")
}

// Stop stops the scheduler and makes one last flush attempt.
func (as *AutosaveScheduler) Stop() {
	as.mu.Lock()
	if as.ticker == nil {
		as.mu.Unlock()
		return
	}
	as.ticker.Stop()
	close(as.stop)
	as.ticker = nil
	as.mu.Unlock()

	as.wg.Wait()
	as.RunNow()
	as.log.Info().Msg("stopped")
}

func (as *AutosaveScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer as.wg.Done()

	for {
		select {
		case <-tick:
			as.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow flushes the store if it is dirty. It reports whether the store
// is clean afterwards.
func (as *AutosaveScheduler) RunNow() bool {
	if !as.Store.Dirty() {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	as.mu.Lock()
	defer as.mu.Unlock()

	if err := as.Store.Flush(ctx); err != nil {
		as.failures++
		as.log.Warn().Err(err).Int("attempt", as.failures).Msg("retrying save failed")
		return false
	}
	if as.failures > 0 {
		as.log.Info().Int("attempts", as.failures).Msg("pending changes saved")
	}
	as.failures = 0
	return true
}

// Package scheduler drives the regulator's correction step on a fixed
// cadence, independent of request traffic.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// #region ticker
// Ticker is the single operation the scheduler needs from the engine.
type Ticker interface {
	Tick()
}

// #endregion ticker

// #region scheduler
// Scheduler invokes Tick once per period. There are no catch-up semantics:
// if a tick is delayed, skipped periods are lost, not queued.
type Scheduler struct {
	engine Ticker
	period time.Duration
	log    *slog.Logger
}

// New creates a scheduler. A nil logger discards output.
func New(engine Ticker, period time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{engine: engine, period: period, log: log}
}

// Run blocks, ticking the engine until ctx is cancelled. The engine's own
// lock serializes ticks against concurrent influence and snapshot calls.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.log.Info("scheduler started", "period", s.period)
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", "ticks", ticks)
			return
		case <-ticker.C:
			s.engine.Tick()
			ticks++
		}
	}
}

// #endregion scheduler

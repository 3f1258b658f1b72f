package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Cleaner is anything holding expirable entries.
type Cleaner interface {
	Cleanup() int
}

// Janitor periodically sweeps expired entries. It replaces implicit
// background timers: the owner starts it with the application and stops it
// on shutdown.
type Janitor struct {
	cron    *cron.Cron
	logger  *slog.Logger
	targets []Cleaner
}

// NewJanitor schedules a sweep of targets every interval.
func NewJanitor(logger *slog.Logger, interval time.Duration, targets ...Cleaner) (*Janitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid cleanup interval %s", interval)
	}

	j := &Janitor{
		cron:    cron.New(),
		logger:  logger.With("module", "cache_janitor"),
		targets: targets,
	}

	_, err := j.cron.AddFunc("@every "+interval.String(), j.Sweep)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	return j, nil
}

// Sweep runs one cleanup pass immediately.
func (j *Janitor) Sweep() {
	total := 0
	for _, t := range j.targets {
		total += t.Cleanup()
	}

	if total > 0 {
		j.logger.Debug("Expired cache entries removed", "count", total)
	}
}

// Start begins scheduled sweeps.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop cancels the schedule and waits for a running sweep, or for ctx.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

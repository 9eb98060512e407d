package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

// Metrics receives one observation per loop iteration.
type Metrics interface {
	ObserveRun(worker string, processed int, err error, took time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRun(string, int, error, time.Duration) {}

// Loop polls Run until ctx is cancelled. An iteration that processed nothing, or
// failed, is followed by a full Interval of sleep; otherwise Run is called again
// right away.
type Loop struct {
	Name     string
	Interval time.Duration
	Clock    clockwork.Clock
	Run      func(ctx context.Context) (int, error)
	Logger   *logging.Logger
	Metrics  Metrics
}

func (l Loop) Start(ctx context.Context) error {
	clock := l.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := l.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("worker", l.Name)
	metrics := l.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	logger.InfoContext(ctx, "worker started", "interval", l.Interval)
	defer logger.Info("worker stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		started := clock.Now()
		processed, err := l.Run(ctx)
		metrics.ObserveRun(l.Name, processed, err, clock.Since(started))

		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			logger.ErrorContext(ctx, "worker iteration failed", "error", err)
		}
		if err == nil && processed > 0 {
			continue
		}

		if !sleep(ctx, clock, l.Interval) {
			return nil
		}
	}
}

// sleep waits d on clock and reports false when ctx ended first.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}

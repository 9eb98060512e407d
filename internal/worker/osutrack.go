package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/osu-tournament-rating/external/osutrack"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

// HistoryDates resolves the date of a player's first recorded rating in a mode.
type HistoryDates interface {
	OldestHistoryDate(ctx context.Context, playerID int64, mode gamemode.Mode) (time.Time, bool, error)
}

// HistorySource returns rank snapshots ordered oldest first.
type HistorySource interface {
	StatsHistory(ctx context.Context, osuID int64, mode gamemode.Mode, from, to time.Time) ([]osutrack.HistoryStat, error)
}

type OsuTrackConfig struct {
	BatchSize int
	Clock     clockwork.Clock
	Logger    *logging.Logger
}

// OsuTrackWorker backfills the earliest known global rank of players, using the
// rank they held when their first rating was recorded.
type OsuTrackWorker struct {
	mu        sync.Mutex
	players   player.Repository
	dates     HistoryDates
	source    HistorySource
	limiter   *WindowLimiter
	batchSize int
	clock     clockwork.Clock
	logger    *logging.Logger
}

func NewOsuTrackWorker(players player.Repository, dates HistoryDates, source HistorySource, limiter *WindowLimiter, cfg OsuTrackConfig) *OsuTrackWorker {
	w := &OsuTrackWorker{
		players:   players,
		dates:     dates,
		source:    source,
		limiter:   limiter,
		batchSize: cfg.BatchSize,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.logger == nil {
		w.logger = logging.Default()
	}
	if w.limiter == nil {
		w.limiter = NewWindowLimiter(200, time.Minute, w.clock)
	}
	return w
}

// RunOnce handles one batch of players without an earliest rank. Only one run
// is active at a time.
func (w *OsuTrackWorker) RunOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	items, err := w.players.ListMissingEarliestRank(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list players missing earliest rank: %w", err)
	}

	saved := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}

		item.SeedEarliestRanks(w.clock.Now())
		for _, mode := range gamemode.All {
			if err := w.backfillMode(ctx, &item, mode); err != nil {
				return saved, err
			}
		}

		if err := w.players.Update(ctx, item); err != nil {
			w.logger.ErrorContext(ctx, "failed to persist earliest ranks", "osu_id", item.OsuID, "error", err)
			continue
		}
		saved++
	}
	return saved, nil
}

// backfillMode only returns an error when ctx ended; every other failure skips the mode.
func (w *OsuTrackWorker) backfillMode(ctx context.Context, item *player.Player, mode gamemode.Mode) error {
	from, ok, err := w.dates.OldestHistoryDate(ctx, item.ID, mode)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to read oldest rating date", "player_id", item.ID, "mode", mode.String(), "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	stats, err := w.source.StatsHistory(ctx, item.OsuID, mode, from, from.AddDate(1, 0, 0))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var statusErr *osutrack.StatusError
		switch {
		case errors.As(err, &statusErr):
			w.logger.DebugContext(ctx, "osutrack returned no history", "osu_id", item.OsuID, "mode", mode.String(), "status", statusErr.StatusCode)
		case errors.Is(err, osutrack.ErrDecode):
			w.logger.ErrorContext(ctx, "failed to decode osutrack history", "osu_id", item.OsuID, "mode", mode.String(), "error", err)
		default:
			w.logger.WarnContext(ctx, "osutrack request failed", "osu_id", item.OsuID, "mode", mode.String(), "error", err)
		}
		return nil
	}
	if len(stats) == 0 {
		return nil
	}

	earliest := stats[0]
	rank := earliest.Rank
	item.SetEarliestRank(mode, &rank, earliest.Timestamp)
	return nil
}

package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/osu-tournament-rating/external/osuapi"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

const (
	defaultStaleAfter = 14 * 24 * time.Hour
	defaultBatchSize  = 50
)

// RankLookup fetches the current profile of a player in one mode. A nil user
// without an error means the account could not be found.
type RankLookup interface {
	GetUser(ctx context.Context, osuID int64, mode gamemode.Mode) (*osuapi.User, error)
}

type PlayerDataConfig struct {
	StaleAfter  time.Duration
	BatchSize   int
	Concurrency int
	Clock       clockwork.Clock
	Logger      *logging.Logger
}

// PlayerDataWorker refreshes username, country and per-mode ranks of players
// whose data is older than StaleAfter.
type PlayerDataWorker struct {
	players     player.Repository
	lookup      RankLookup
	staleAfter  time.Duration
	batchSize   int
	concurrency int
	clock       clockwork.Clock
	logger      *logging.Logger
}

func NewPlayerDataWorker(players player.Repository, lookup RankLookup, cfg PlayerDataConfig) *PlayerDataWorker {
	w := &PlayerDataWorker{
		players:     players,
		lookup:      lookup,
		staleAfter:  cfg.StaleAfter,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
	if w.staleAfter <= 0 {
		w.staleAfter = defaultStaleAfter
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.concurrency <= 0 {
		w.concurrency = 1
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.logger == nil {
		w.logger = logging.Default()
	}
	return w
}

// RunOnce processes one batch of outdated players and returns how many were persisted.
func (w *PlayerDataWorker) RunOnce(ctx context.Context) (int, error) {
	now := w.clock.Now()
	items, err := w.players.ListOutdated(ctx, now.Add(-w.staleAfter), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list outdated players: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(w.concurrency)
	if err != nil {
		return 0, fmt.Errorf("create player sync pool: %w", err)
	}
	defer pool.Release()

	var (
		workers   sync.WaitGroup
		persisted atomic.Int32
		failed    atomic.Int32
	)
	for _, item := range items {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := w.syncPlayer(ctx, item); err != nil {
				failed.Add(1)
				w.logger.ErrorContext(ctx, "failed to persist player data", "osu_id", item.OsuID, "error", err)
				return
			}
			persisted.Add(1)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return int(persisted.Load()), fmt.Errorf("submit player sync task: %w", err)
		}
	}
	workers.Wait()

	done := int(persisted.Load())
	if done == 0 && failed.Load() > 0 {
		return 0, fmt.Errorf("player sync failed for all %d players", failed.Load())
	}
	return done, nil
}

func (w *PlayerDataWorker) syncPlayer(ctx context.Context, item player.Player) error {
	for _, mode := range gamemode.All {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		profile, err := w.lookup.GetUser(ctx, item.OsuID, mode)
		if err != nil || profile == nil {
			w.logger.WarnContext(ctx, "user is likely restricted", "osu_id", item.OsuID, "mode", mode.String(), "error", err)
			return w.save(ctx, item)
		}

		item.SetRank(mode, profile.Rank)
		if mode == gamemode.Standard && profile.Username != "" {
			item.Username = profile.Username
		}
		if profile.Country != "" {
			item.Country = profile.Country
		}
	}
	return w.save(ctx, item)
}

func (w *PlayerDataWorker) save(ctx context.Context, item player.Player) error {
	stamp := w.clock.Now()
	item.Updated = &stamp
	if err := w.players.Update(ctx, item); err != nil {
		return fmt.Errorf("update player %d: %w", item.OsuID, err)
	}
	return nil
}

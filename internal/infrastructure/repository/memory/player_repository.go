package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
)

type PlayerRepository struct {
	db *Database
}

func NewPlayerRepository(db *Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListAll(_ context.Context) ([]player.Player, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]player.Player, 0, len(r.db.players))
	for _, p := range r.db.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, id int64) (player.Player, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.players[id]
	return p, ok, nil
}

func (r *PlayerRepository) GetByOsuID(_ context.Context, osuID int64) (player.Player, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.playerByOsu[osuID]
	if !ok {
		return player.Player{}, false, nil
	}
	return r.db.players[id], true, nil
}

func (r *PlayerRepository) Create(_ context.Context, item player.Player) (player.Player, error) {
	if err := item.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.playerByOsu[item.OsuID]; exists {
		return player.Player{}, fmt.Errorf("create player: osu id %d already exists", item.OsuID)
	}
	if item.ID == 0 {
		item.ID = r.db.nextID("players")
	} else {
		r.db.bumpSeq("players", item.ID)
	}
	if item.Created.IsZero() {
		item.Created = r.db.stamp()
	}
	r.db.players[item.ID] = item
	r.db.playerByOsu[item.OsuID] = item.ID
	return item, nil
}

func (r *PlayerRepository) Update(_ context.Context, item player.Player) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.players[item.ID]
	if !ok {
		return fmt.Errorf("update player %d: not found", item.ID)
	}
	if current.OsuID != item.OsuID {
		return fmt.Errorf("update player %d: osu id is immutable", item.ID)
	}
	r.db.players[item.ID] = item
	return nil
}

// ListOutdated treats never-updated players as the most outdated.
func (r *PlayerRepository) ListOutdated(_ context.Context, before time.Time, limit int) ([]player.Player, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, p := range r.db.players {
		if p.Updated == nil || p.Updated.Before(before) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Updated, out[j].Updated
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return out[i].ID < out[j].ID
		default:
			return a.Before(*b)
		}
	})
	return truncate(out, limit), nil
}

func (r *PlayerRepository) ListMissingEarliestRank(_ context.Context, limit int) ([]player.Player, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, p := range r.db.players {
		if p.MissingEarliestRank() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return truncate(out, limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

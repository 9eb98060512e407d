package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
)

type RatingRepository struct {
	db *Database
}

func NewRatingRepository(db *Database) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Get(_ context.Context, playerID int64, mode gamemode.Mode) (rating.Rating, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.ratings[ratingKey{playerID: playerID, mode: mode}]
	return item, ok, nil
}

func (r *RatingRepository) ListByPlayer(_ context.Context, playerID int64) ([]rating.Rating, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]rating.Rating, 0, len(gamemode.All))
	for _, mode := range gamemode.All {
		if item, ok := r.db.ratings[ratingKey{playerID: playerID, mode: mode}]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *RatingRepository) Upsert(_ context.Context, update rating.Update) (rating.Rating, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkPlayer(update); err != nil {
		return rating.Rating{}, err
	}
	return r.apply(update), nil
}

func (r *RatingRepository) BatchUpsert(_ context.Context, updates []rating.Update) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range updates {
		if err := r.checkPlayer(u); err != nil {
			return 0, err
		}
	}
	for _, u := range updates {
		r.apply(u)
	}
	return len(updates), nil
}

func (r *RatingRepository) checkPlayer(u rating.Update) error {
	if _, ok := r.db.players[u.PlayerID]; !ok {
		return fmt.Errorf("upsert rating: player %d not found", u.PlayerID)
	}
	return nil
}

// apply must be called with the write lock held.
func (r *RatingRepository) apply(u rating.Update) rating.Rating {
	key := ratingKey{playerID: u.PlayerID, mode: u.Mode}
	var existing *rating.Rating
	if current, ok := r.db.ratings[key]; ok {
		existing = &current
	}

	next, history := rating.Apply(existing, u, r.db.stamp())
	if existing == nil {
		next.ID = r.db.nextID("ratings")
	}
	history.ID = r.db.nextID("rating_histories")
	r.db.ratings[key] = next
	r.db.histories = append(r.db.histories, history)
	return next
}

func (r *RatingRepository) ListHistory(_ context.Context, playerID int64, mode gamemode.Mode, from, to time.Time) ([]rating.History, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]rating.History, 0)
	for _, h := range r.db.histories {
		if h.PlayerID != playerID || h.Mode != mode {
			continue
		}
		if !from.IsZero() && h.Created.Before(from) {
			continue
		}
		if !to.IsZero() && h.Created.After(to) {
			continue
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}

func (r *RatingRepository) OldestHistoryDate(_ context.Context, playerID int64, mode gamemode.Mode) (time.Time, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var oldest time.Time
	found := false
	for _, h := range r.db.histories {
		if h.PlayerID != playerID || h.Mode != mode {
			continue
		}
		if !found || h.Created.Before(oldest) {
			oldest = h.Created
			found = true
		}
	}
	return oldest, found, nil
}

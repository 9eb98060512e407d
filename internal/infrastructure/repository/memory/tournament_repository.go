package memory

import (
	"context"
	"strings"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
)

type TournamentRepository struct {
	db *Database
}

func NewTournamentRepository(db *Database) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) GetByID(_ context.Context, id int64) (tournament.Tournament, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.tournaments[id]
	return item, ok, nil
}

// ExistsByNameAndMode compares names case-insensitively.
func (r *TournamentRepository) ExistsByNameAndMode(_ context.Context, name string, mode gamemode.Mode) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	name = strings.TrimSpace(name)
	for _, item := range r.db.tournaments {
		if item.Mode == mode && strings.EqualFold(item.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

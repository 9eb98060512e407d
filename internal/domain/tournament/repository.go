package tournament

import (
	"context"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
)

// Repository exposes tournament lookups. Tournaments are created through match submissions.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Tournament, bool, error)
	ExistsByNameAndMode(ctx context.Context, name string, mode gamemode.Mode) (bool, error)
}

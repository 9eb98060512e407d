package player

import (
	"context"
	"time"
)

// Repository describes player persistence needs from use cases and workers.
type Repository interface {
	ListAll(ctx context.Context) ([]Player, error)
	GetByID(ctx context.Context, id int64) (Player, bool, error)
	GetByOsuID(ctx context.Context, osuID int64) (Player, bool, error)
	Create(ctx context.Context, item Player) (Player, error)
	Update(ctx context.Context, item Player) error
	// ListOutdated returns players whose last update is older than before, oldest first.
	ListOutdated(ctx context.Context, before time.Time, limit int) ([]Player, error)
	ListMissingEarliestRank(ctx context.Context, limit int) ([]Player, error)
}

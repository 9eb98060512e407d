package rating

import (
	"context"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
)

// Repository is the rating ledger. Upserts write the rating and its history row atomically.
type Repository interface {
	Get(ctx context.Context, playerID int64, mode gamemode.Mode) (Rating, bool, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]Rating, error)
	Upsert(ctx context.Context, update Update) (Rating, error)
	// BatchUpsert applies every update in one transaction and returns how many were written.
	BatchUpsert(ctx context.Context, updates []Update) (int, error)
	ListHistory(ctx context.Context, playerID int64, mode gamemode.Mode, from, to time.Time) ([]History, error)
	OldestHistoryDate(ctx context.Context, playerID int64, mode gamemode.Mode) (time.Time, bool, error)
}

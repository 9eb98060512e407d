package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
)

type RatingUpdateInput struct {
	PlayerID int64
	Mode     gamemode.Mode
	Mu       float64
	Sigma    float64
	MatchID  *int64
}

func (in RatingUpdateInput) toUpdate() rating.Update {
	return rating.Update{
		PlayerID: in.PlayerID,
		Mode:     in.Mode,
		Mu:       in.Mu,
		Sigma:    in.Sigma,
		MatchID:  in.MatchID,
	}
}

type RatingService struct {
	ratingRepo rating.Repository
	playerRepo player.Repository
}

func NewRatingService(ratingRepo rating.Repository, playerRepo player.Repository) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		playerRepo: playerRepo,
	}
}

// InsertOrUpdate writes one rating; the previous value, or the initial one, lands in history.
func (s *RatingService) InsertOrUpdate(ctx context.Context, input RatingUpdateInput) (rating.Rating, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.InsertOrUpdate")
	defer span.End()

	update := input.toUpdate()
	if err := update.Validate(); err != nil {
		return rating.Rating{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.ensurePlayer(ctx, update.PlayerID); err != nil {
		return rating.Rating{}, err
	}

	item, err := s.ratingRepo.Upsert(ctx, update)
	if err != nil {
		return rating.Rating{}, fmt.Errorf("%w: upsert rating: %w", ErrPersistence, err)
	}
	return item, nil
}

// BatchInsertOrUpdate applies every update atomically and returns how many were written.
func (s *RatingService) BatchInsertOrUpdate(ctx context.Context, inputs []RatingUpdateInput) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.BatchInsertOrUpdate")
	defer span.End()

	if len(inputs) == 0 {
		return 0, nil
	}

	updates := make([]rating.Update, 0, len(inputs))
	checked := make(map[int64]struct{}, len(inputs))
	for i, in := range inputs {
		update := in.toUpdate()
		if err := update.Validate(); err != nil {
			return 0, fmt.Errorf("%w: update[%d]: %v", ErrInvalidInput, i, err)
		}
		if _, ok := checked[update.PlayerID]; !ok {
			if err := s.ensurePlayer(ctx, update.PlayerID); err != nil {
				return 0, err
			}
			checked[update.PlayerID] = struct{}{}
		}
		updates = append(updates, update)
	}

	written, err := s.ratingRepo.BatchUpsert(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("%w: batch upsert ratings: %w", ErrPersistence, err)
	}
	return written, nil
}

func (s *RatingService) ensurePlayer(ctx context.Context, playerID int64) error {
	_, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: player=%d", ErrNotFound, playerID)
	}
	return nil
}

// ListForPlayer returns every rating of an osu! player. Unknown players have none.
func (s *RatingService) ListForPlayer(ctx context.Context, osuPlayerID int64) ([]rating.Rating, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.ListForPlayer")
	defer span.End()

	p, exists, err := s.playerRepo.GetByOsuID(ctx, osuPlayerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return []rating.Rating{}, nil
	}

	items, err := s.ratingRepo.ListByPlayer(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return items, nil
}

// ListHistoryForPlayer returns history rows in [from, to]. Zero bounds are open.
func (s *RatingService) ListHistoryForPlayer(ctx context.Context, playerID int64, mode gamemode.Mode, from, to time.Time) ([]rating.History, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.ListHistoryForPlayer")
	defer span.End()

	if !mode.Valid() {
		return nil, fmt.Errorf("%w: mode=%d", ErrInvalidInput, mode)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%w: date range is inverted", ErrInvalidInput)
	}
	if err := s.ensurePlayer(ctx, playerID); err != nil {
		return nil, err
	}

	items, err := s.ratingRepo.ListHistory(ctx, playerID, mode, from, to)
	if err != nil {
		return nil, fmt.Errorf("list rating history: %w", err)
	}
	return items, nil
}

func (s *RatingService) OldestHistoryDate(ctx context.Context, playerID int64, mode gamemode.Mode) (time.Time, bool, error) {
	oldest, ok, err := s.ratingRepo.OldestHistoryDate(ctx, playerID, mode)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest rating history: %w", err)
	}
	return oldest, ok, nil
}

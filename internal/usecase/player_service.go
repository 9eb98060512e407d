package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

// PlayerDetail bundles a player with its ratings and linked account.
type PlayerDetail struct {
	Player  player.Player
	Ratings []rating.Rating
	User    *user.User
}

type PlayerService struct {
	playerRepo player.Repository
	ratingRepo rating.Repository
	userRepo   user.Repository
}

func NewPlayerService(playerRepo player.Repository, ratingRepo rating.Repository, userRepo user.Repository) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
	}
}

func (s *PlayerService) ListAll(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListAll")
	defer span.End()

	items, err := s.playerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return items, nil
}

func (s *PlayerService) GetByOsuID(ctx context.Context, osuID int64) (PlayerDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetByOsuID")
	defer span.End()

	p, err := s.getByOsuID(ctx, osuID)
	if err != nil {
		return PlayerDetail{}, err
	}

	ratings, err := s.ratingRepo.ListByPlayer(ctx, p.ID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("list ratings: %w", err)
	}

	detail := PlayerDetail{Player: p, Ratings: ratings}
	u, exists, err := s.userRepo.GetByPlayerID(ctx, p.ID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("get user by player: %w", err)
	}
	if exists {
		detail.User = &u
	}
	return detail, nil
}

func (s *PlayerService) GetIDByOsuID(ctx context.Context, osuID int64) (int64, error) {
	p, err := s.getByOsuID(ctx, osuID)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *PlayerService) GetOsuIDByID(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: player=%d", ErrNotFound, id)
	}
	return p.OsuID, nil
}

func (s *PlayerService) getByOsuID(ctx context.Context, osuID int64) (player.Player, error) {
	if osuID <= 0 {
		return player.Player{}, fmt.Errorf("%w: osu id must be positive", ErrInvalidInput)
	}

	p, exists, err := s.playerRepo.GetByOsuID(ctx, osuID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: osu player=%d", ErrNotFound, osuID)
	}
	return p, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

// UserInfo is the caller's own profile.
type UserInfo struct {
	UserID   int64
	PlayerID *int64
	OsuID    int64
	Username string
	Country  string
	Roles    user.RoleSet
}

// PlayerStats summarizes one mode for the caller's player.
type PlayerStats struct {
	PlayerID int64
	OsuID    int64
	Mode     gamemode.Mode
	Rank     *int
	Rating   *rating.Rating
	History  []rating.History
	// PeakMu is the highest mu seen in the window, including the current rating.
	PeakMu  float64
	Matches int
}

type UserService struct {
	userRepo   user.Repository
	playerRepo player.Repository
	ratingRepo rating.Repository
	matches    *MatchService
}

func NewUserService(userRepo user.Repository, playerRepo player.Repository, ratingRepo rating.Repository, matches *MatchService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		playerRepo: playerRepo,
		ratingRepo: ratingRepo,
		matches:    matches,
	}
}

func (s *UserService) Me(ctx context.Context, caller user.Principal) (UserInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Me")
	defer span.End()

	u, p, err := s.resolve(ctx, caller)
	if err != nil {
		return UserInfo{}, err
	}

	info := UserInfo{
		UserID:   u.ID,
		PlayerID: u.PlayerID,
		Roles:    u.Roles,
	}
	if len(info.Roles) == 0 {
		info.Roles = caller.Roles
	}
	if p != nil {
		info.OsuID = p.OsuID
		info.Username = p.Username
		info.Country = p.Country
	}
	return info, nil
}

// Stats reports the caller's rating in mode with history inside [from, to].
func (s *UserService) Stats(ctx context.Context, caller user.Principal, mode gamemode.Mode, from, to time.Time) (PlayerStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Stats")
	defer span.End()

	if !mode.Valid() {
		return PlayerStats{}, fmt.Errorf("%w: mode=%d", ErrInvalidInput, mode)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return PlayerStats{}, fmt.Errorf("%w: date range is inverted", ErrInvalidInput)
	}

	_, p, err := s.resolve(ctx, caller)
	if err != nil {
		return PlayerStats{}, err
	}
	if p == nil {
		return PlayerStats{}, fmt.Errorf("%w: user=%d has no linked player", ErrNotFound, caller.UserID)
	}

	stats := PlayerStats{
		PlayerID: p.ID,
		OsuID:    p.OsuID,
		Mode:     mode,
		Rank:     p.Rank(mode),
	}

	current, exists, err := s.ratingRepo.Get(ctx, p.ID, mode)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("get rating: %w", err)
	}
	if exists {
		stats.Rating = &current
		stats.PeakMu = current.Mu
	}

	history, err := s.ratingRepo.ListHistory(ctx, p.ID, mode, from, to)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("list rating history: %w", err)
	}
	stats.History = history
	for _, h := range history {
		if h.Mu > stats.PeakMu {
			stats.PeakMu = h.Mu
		}
	}

	if s.matches != nil {
		matches, err := s.matches.ListForPlayer(ctx, p.OsuID)
		if err != nil {
			return PlayerStats{}, err
		}
		for _, m := range matches {
			if m.Mode != mode || m.StartTime == nil {
				continue
			}
			if !from.IsZero() && m.StartTime.Before(from) {
				continue
			}
			if !to.IsZero() && m.StartTime.After(to) {
				continue
			}
			stats.Matches++
		}
	}

	return stats, nil
}

func (s *UserService) resolve(ctx context.Context, caller user.Principal) (user.User, *player.Player, error) {
	if caller.UserID <= 0 {
		return user.User{}, nil, fmt.Errorf("%w: missing caller", ErrUnauthorized)
	}

	u, exists, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return user.User{}, nil, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, nil, fmt.Errorf("%w: user=%d", ErrNotFound, caller.UserID)
	}

	playerID := u.PlayerID
	if playerID == nil {
		playerID = caller.PlayerID
	}
	if playerID == nil {
		return u, nil, nil
	}

	p, exists, err := s.playerRepo.GetByID(ctx, *playerID)
	if err != nil {
		return user.User{}, nil, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return u, nil, nil
	}
	return u, &p, nil
}

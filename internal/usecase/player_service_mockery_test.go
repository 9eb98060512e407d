package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	playermock "github.com/riskibarqy/osu-tournament-rating/internal/mocks/domain/player"
	ratingmock "github.com/riskibarqy/osu-tournament-rating/internal/mocks/domain/rating"
	usermock "github.com/riskibarqy/osu-tournament-rating/internal/mocks/domain/user"
)

func TestPlayerService_GetByOsuID_BundlesRatingsAndUserUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	playerRepo := playermock.NewRepository(t)
	ratingRepo := ratingmock.NewRepository(t)
	userRepo := usermock.NewRepository(t)
	service := NewPlayerService(playerRepo, ratingRepo, userRepo)

	playerID := int64(11)
	playerRepo.
		On("GetByOsuID", mock.Anything, int64(4787150)).
		Return(player.Player{ID: playerID, OsuID: 4787150, Username: "Stage"}, true, nil).
		Once()
	ratingRepo.
		On("ListByPlayer", mock.Anything, playerID).
		Return([]rating.Rating{
			{PlayerID: playerID, Mode: gamemode.Standard, Mu: 1200, Sigma: 300},
			{PlayerID: playerID, Mode: gamemode.Mania, Mu: 900, Sigma: 250},
		}, nil).
		Once()
	userRepo.
		On("GetByPlayerID", mock.Anything, playerID).
		Return(user.User{ID: 5, PlayerID: &playerID}, true, nil).
		Once()

	got, err := service.GetByOsuID(ctx, 4787150)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.Player.Username != "Stage" || len(got.Ratings) != 2 {
		t.Fatalf("unexpected detail: %+v", got)
	}
	if got.User == nil || got.User.ID != 5 {
		t.Fatalf("expected linked user, got %+v", got.User)
	}
}

func TestPlayerService_GetByOsuID_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	playerRepo := playermock.NewRepository(t)
	service := NewPlayerService(playerRepo, ratingmock.NewRepository(t), usermock.NewRepository(t))

	playerRepo.
		On("GetByOsuID", mock.Anything, int64(99)).
		Return(player.Player{}, false, nil).
		Once()

	if _, err := service.GetByOsuID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayerService_RejectsNonPositiveIDsWithoutRepositoryCalls(t *testing.T) {
	t.Parallel()

	service := NewPlayerService(playermock.NewRepository(t), ratingmock.NewRepository(t), usermock.NewRepository(t))

	if _, err := service.GetIDByOsuID(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for osu id, got %v", err)
	}
	if _, err := service.GetOsuIDByID(context.Background(), -3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for id, got %v", err)
	}
}

func TestRatingService_ListForPlayer_UnknownPlayerIsEmptyUsingMockery(t *testing.T) {
	t.Parallel()

	playerRepo := playermock.NewRepository(t)
	ratingRepo := ratingmock.NewRepository(t)
	service := NewRatingService(ratingRepo, playerRepo)

	playerRepo.
		On("GetByOsuID", mock.Anything, int64(123)).
		Return(player.Player{}, false, nil).
		Once()

	got, err := service.ListForPlayer(context.Background(), 123)
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	ratingRepo.AssertNotCalled(t, "ListByPlayer", mock.Anything, mock.Anything)
}

func TestRatingService_OldestHistoryDate_WrapsStoreErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ratingRepo := ratingmock.NewRepository(t)
	service := NewRatingService(ratingRepo, playermock.NewRepository(t))

	boom := errors.New("connection reset")
	ratingRepo.
		On("OldestHistoryDate", mock.Anything, int64(7), gamemode.Taiko).
		Return(time.Time{}, false, boom).
		Once()

	if _, _, err := service.OldestHistoryDate(context.Background(), 7, gamemode.Taiko); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

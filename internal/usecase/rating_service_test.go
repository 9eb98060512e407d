package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
)

func TestRatingService_InsertOrUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := NewRatingService(store.ratings, store.players)

	p, err := store.players.Create(ctx, player.Player{OsuID: 100})
	require.NoError(t, err)

	first, err := svc.InsertOrUpdate(ctx, RatingUpdateInput{PlayerID: p.ID, Mode: gamemode.Catch, Mu: 900, Sigma: 280})
	require.NoError(t, err)
	assert.Equal(t, 900.0, first.MuInitial)

	second, err := svc.InsertOrUpdate(ctx, RatingUpdateInput{PlayerID: p.ID, Mode: gamemode.Catch, Mu: 950, Sigma: 260})
	require.NoError(t, err)
	assert.Equal(t, 950.0, second.Mu)
	assert.Equal(t, 900.0, second.MuInitial)

	history, err := svc.ListHistoryForPlayer(ctx, p.ID, gamemode.Catch, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRatingService_InsertOrUpdate_Rejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := NewRatingService(store.ratings, store.players)

	p, err := store.players.Create(ctx, player.Player{OsuID: 100})
	require.NoError(t, err)

	_, err = svc.InsertOrUpdate(ctx, RatingUpdateInput{PlayerID: p.ID, Mode: gamemode.Standard, Mu: math.NaN(), Sigma: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.InsertOrUpdate(ctx, RatingUpdateInput{PlayerID: p.ID, Mode: gamemode.Standard, Mu: 1, Sigma: 0})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.InsertOrUpdate(ctx, RatingUpdateInput{PlayerID: p.ID + 1, Mode: gamemode.Standard, Mu: 1, Sigma: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRatingService_BatchInsertOrUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := NewRatingService(store.ratings, store.players)

	a, err := store.players.Create(ctx, player.Player{OsuID: 1})
	require.NoError(t, err)
	b, err := store.players.Create(ctx, player.Player{OsuID: 2})
	require.NoError(t, err)

	written, err := svc.BatchInsertOrUpdate(ctx, []RatingUpdateInput{
		{PlayerID: a.ID, Mode: gamemode.Standard, Mu: 1000, Sigma: 300},
		{PlayerID: b.ID, Mode: gamemode.Standard, Mu: 1100, Sigma: 300},
		{PlayerID: a.ID, Mode: gamemode.Taiko, Mu: 800, Sigma: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	_, err = svc.BatchInsertOrUpdate(ctx, []RatingUpdateInput{
		{PlayerID: a.ID, Mode: gamemode.Standard, Mu: 1200, Sigma: 300},
		{PlayerID: b.ID, Mode: gamemode.Mode(7), Mu: 1, Sigma: 1},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	current, ok, err := store.ratings.Get(ctx, a.ID, gamemode.Standard)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1000.0, current.Mu)

	written, err = svc.BatchInsertOrUpdate(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestRatingService_ListForPlayer_UnknownIsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	svc := NewRatingService(store.ratings, store.players)

	items, err := svc.ListForPlayer(context.Background(), 31337)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

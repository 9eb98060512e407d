package rating

import (
	"math"
	"testing"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/stretchr/testify/assert"
)

func TestApply_NewRatingRecordsInitialValues(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	matchID := int64(77)
	next, hist := Apply(nil, Update{PlayerID: 5, Mode: gamemode.Taiko, Mu: 1200, Sigma: 300, MatchID: &matchID}, now)

	assert.Equal(t, 1200.0, next.MuInitial)
	assert.Equal(t, 300.0, next.SigmaInitial)
	assert.Equal(t, now, next.Created)
	assert.Nil(t, next.Updated)
	assert.Equal(t, 1200.0, hist.Mu)
	assert.Equal(t, &matchID, hist.MatchID)
}

func TestApply_ExistingSnapshotsBeforeMutation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	existing := Rating{ID: 9, PlayerID: 5, Mode: gamemode.Standard, Mu: 1000, Sigma: 250, MuInitial: 900, SigmaInitial: 350}

	next, hist := Apply(&existing, Update{PlayerID: 5, Mode: gamemode.Standard, Mu: 1100, Sigma: 200}, now)

	assert.Equal(t, 1000.0, hist.Mu)
	assert.Equal(t, 250.0, hist.Sigma)
	assert.Equal(t, 1100.0, next.Mu)
	assert.Equal(t, 200.0, next.Sigma)
	assert.Equal(t, 900.0, next.MuInitial)
	assert.Equal(t, int64(9), next.ID)
	assert.Equal(t, now, *next.Updated)
	assert.Equal(t, 1000.0, existing.Mu, "input rating must not be mutated")
}

func TestUpdate_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Update{PlayerID: 1, Mu: 1, Sigma: 1}.Validate())
	assert.Error(t, Update{PlayerID: 0, Mu: 1, Sigma: 1}.Validate())
	assert.Error(t, Update{PlayerID: 1, Mu: math.NaN(), Sigma: 1}.Validate())
	assert.Error(t, Update{PlayerID: 1, Mu: 1, Sigma: 0}.Validate())
	assert.Error(t, Update{PlayerID: 1, Mode: gamemode.Mode(5), Mu: 1, Sigma: 1}.Validate())
}

package rating

import (
	"fmt"
	"math"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
)

// Rating is the current skill estimate of a player in one mode.
type Rating struct {
	ID           int64
	PlayerID     int64
	Mode         gamemode.Mode
	Mu           float64
	Sigma        float64
	MuInitial    float64
	SigmaInitial float64
	Created      time.Time
	Updated      *time.Time
}

// History is an immutable snapshot of a rating taken before it changed.
type History struct {
	ID       int64
	PlayerID int64
	Mode     gamemode.Mode
	Mu       float64
	Sigma    float64
	// MatchID is the internal id of the match that triggered the change, when known.
	MatchID *int64
	Created time.Time
}

// Update is one requested rating write.
type Update struct {
	PlayerID int64
	Mode     gamemode.Mode
	Mu       float64
	Sigma    float64
	MatchID  *int64
}

func (u Update) Validate() error {
	if u.PlayerID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if !u.Mode.Valid() {
		return fmt.Errorf("invalid mode %d", u.Mode)
	}
	if math.IsNaN(u.Mu) || math.IsInf(u.Mu, 0) {
		return fmt.Errorf("mu must be finite")
	}
	if math.IsNaN(u.Sigma) || math.IsInf(u.Sigma, 0) || u.Sigma <= 0 {
		return fmt.Errorf("sigma must be finite and positive")
	}
	return nil
}

// Apply computes the rating row and the single history row an update produces.
// For an existing rating the history holds the values before the change; a new
// rating records its initial values.
func Apply(existing *Rating, u Update, now time.Time) (Rating, History) {
	if existing == nil {
		next := Rating{
			PlayerID:     u.PlayerID,
			Mode:         u.Mode,
			Mu:           u.Mu,
			Sigma:        u.Sigma,
			MuInitial:    u.Mu,
			SigmaInitial: u.Sigma,
			Created:      now,
		}
		return next, History{
			PlayerID: u.PlayerID,
			Mode:     u.Mode,
			Mu:       u.Mu,
			Sigma:    u.Sigma,
			MatchID:  u.MatchID,
			Created:  now,
		}
	}

	snapshot := History{
		PlayerID: existing.PlayerID,
		Mode:     existing.Mode,
		Mu:       existing.Mu,
		Sigma:    existing.Sigma,
		MatchID:  u.MatchID,
		Created:  now,
	}
	next := *existing
	next.Mu = u.Mu
	next.Sigma = u.Sigma
	stamp := now
	next.Updated = &stamp
	return next, snapshot
}

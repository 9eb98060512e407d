package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
)

// Match is one osu! multiplayer lobby known to the platform.
// Related records (tournament, users) are referenced by id only.
type Match struct {
	ID                  int64
	MatchID             int64
	Name                string
	TournamentID        int64
	RankRangeLowerBound int
	TeamSize            int
	Mode                gamemode.Mode
	VerificationStatus  VerificationStatus
	VerificationSource  *VerificationSource
	VerificationInfo    string
	NeedsAutoCheck      bool
	IsAPIProcessed      bool
	IsMergedDuplicate   bool
	SubmitterUserID     *int64
	VerifierUserID      *int64
	StartTime           *time.Time
	EndTime             *time.Time
	Created             time.Time
	Updated             *time.Time
}

func (m Match) Validate() error {
	if m.MatchID <= 0 {
		return fmt.Errorf("match id must be positive")
	}
	if m.TournamentID <= 0 {
		return fmt.Errorf("match %d must belong to a tournament", m.MatchID)
	}
	if !m.Mode.Valid() {
		return fmt.Errorf("match %d has invalid mode %d", m.MatchID, m.Mode)
	}
	if !m.VerificationStatus.Valid() {
		return fmt.Errorf("match %d has invalid verification status %d", m.MatchID, m.VerificationStatus)
	}
	if m.VerificationSource != nil && m.VerificationStatus != StatusVerified {
		return fmt.Errorf("match %d has a verification source but is %s", m.MatchID, m.VerificationStatus)
	}
	return nil
}

// Score is one player's participation in a match, written by the match processing
// pipeline. Merging duplicates moves scores onto the root match.
type Score struct {
	ID       int64
	MatchID  int64
	PlayerID int64
	Score    int64
	Mode     gamemode.Mode
}

// ErrTournamentExists is returned by ApplySubmission when UniqueTournament is
// set and a tournament with the same name (case-insensitive) and mode exists.
var ErrTournamentExists = errors.New("tournament already exists")

// Submission is a fully resolved batch write. Repositories apply it in one transaction.
type Submission struct {
	// Tournament is inserted first; its id is stamped on every match in Insert and Promote.
	Tournament tournament.Tournament
	// UniqueTournament makes the (name, mode) existence check part of the
	// write, so concurrent unverified submissions cannot both create it.
	UniqueTournament bool
	Promote    []Match
	Insert     []Match
}

type SubmissionResult struct {
	TournamentID int64
	Inserted     int
	Promoted     int
}

// MergeResult reports how many confirmed duplicates were folded into a root.
type MergeResult struct {
	RootID      int64
	Absorbed    int
	ScoresMoved int
}

// MergedInfo is the verification note left on an absorbed duplicate.
func MergedInfo(rootOsuMatchID int64) string {
	return fmt.Sprintf("merged into %d", rootOsuMatchID)
}

// Widen extends root's time window so it covers other.
func Widen(root *Match, other Match) {
	if other.StartTime != nil && (root.StartTime == nil || other.StartTime.Before(*root.StartTime)) {
		t := *other.StartTime
		root.StartTime = &t
	}
	if other.EndTime != nil && (root.EndTime == nil || other.EndTime.After(*root.EndTime)) {
		t := *other.EndTime
		root.EndTime = &t
	}
}

// NormalizeName trims lobby names coming from submitters.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
)

type MatchRepository struct {
	db *Database
}

func NewMatchRepository(db *Database) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.matches[id]
	return item, ok, nil
}

func (r *MatchRepository) GetByOsuMatchID(_ context.Context, osuMatchID int64) (match.Match, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.matchByOsu[osuMatchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return r.db.matches[id], true, nil
}

func (r *MatchRepository) ListByOsuMatchIDs(_ context.Context, osuMatchIDs []int64) ([]match.Match, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]match.Match, 0, len(osuMatchIDs))
	for _, osuID := range osuMatchIDs {
		if id, ok := r.db.matchByOsu[osuID]; ok {
			out = append(out, r.db.matches[id])
		}
	}
	return out, nil
}

func (r *MatchRepository) ListByIDs(_ context.Context, ids []int64) ([]match.Match, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	seen := make(map[int64]struct{}, len(ids))
	out := make([]match.Match, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := r.db.matches[id]; ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) ListOsuMatchIDs(_ context.Context, onlyVerified bool) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]int64, 0, len(r.db.matches))
	for _, item := range r.db.matches {
		if onlyVerified && item.VerificationStatus != match.StatusVerified {
			continue
		}
		out = append(out, item.MatchID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *MatchRepository) ListByPlayer(_ context.Context, playerID int64) ([]match.Match, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := make(map[int64]struct{})
	for _, s := range r.db.scores {
		if s.PlayerID == playerID {
			ids[s.MatchID] = struct{}{}
		}
	}

	out := make([]match.Match, 0, len(ids))
	for id := range ids {
		item, ok := r.db.matches[id]
		if !ok || item.IsMergedDuplicate {
			continue
		}
		out = append(out, item)
	}
	sortByStartTime(out)
	return out, nil
}

// sortByStartTime orders matches by start time, unknown start times last.
func sortByStartTime(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].StartTime, items[j].StartTime
		switch {
		case a == nil && b == nil:
			return items[i].ID < items[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return items[i].ID < items[j].ID
		default:
			return a.Before(*b)
		}
	})
}

func (r *MatchRepository) ApplySubmission(_ context.Context, submission match.Submission) (match.SubmissionResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t := submission.Tournament
	if err := t.Validate(); err != nil {
		return match.SubmissionResult{}, fmt.Errorf("validate tournament: %w", err)
	}
	if submission.UniqueTournament {
		name := strings.TrimSpace(t.Name)
		for _, existing := range r.db.tournaments {
			if existing.Mode == t.Mode && strings.EqualFold(strings.TrimSpace(existing.Name), name) {
				return match.SubmissionResult{}, fmt.Errorf("%w: name=%s mode=%s", match.ErrTournamentExists, t.Name, t.Mode)
			}
		}
	}
	for _, item := range submission.Promote {
		if _, ok := r.db.matches[item.ID]; !ok {
			return match.SubmissionResult{}, fmt.Errorf("promote match %d: not found", item.MatchID)
		}
	}

	// Like a database sequence, a failed submission still consumes the tournament id.
	t.ID = r.db.nextID("tournaments")
	inserts := make([]match.Match, 0, len(submission.Insert))
	pending := make(map[int64]struct{}, len(submission.Insert))
	for _, item := range submission.Insert {
		item.TournamentID = t.ID
		if err := item.Validate(); err != nil {
			return match.SubmissionResult{}, fmt.Errorf("validate match: %w", err)
		}
		if _, exists := r.db.matchByOsu[item.MatchID]; exists {
			continue
		}
		if _, dup := pending[item.MatchID]; dup {
			continue
		}
		pending[item.MatchID] = struct{}{}
		inserts = append(inserts, item)
	}

	r.db.tournaments[t.ID] = t
	for _, item := range submission.Promote {
		item.TournamentID = t.ID
		r.db.matches[item.ID] = item
	}
	for _, item := range inserts {
		item.ID = r.db.nextID("matches")
		if item.Created.IsZero() {
			item.Created = r.db.stamp()
		}
		r.db.matches[item.ID] = item
		r.db.matchByOsu[item.MatchID] = item.ID
	}

	return match.SubmissionResult{
		TournamentID: t.ID,
		Inserted:     len(inserts),
		Promoted:     len(submission.Promote),
	}, nil
}

func (r *MatchRepository) UpdateVerification(_ context.Context, item match.Match) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.matches[item.ID]
	if !ok {
		return fmt.Errorf("update match %d: not found", item.ID)
	}
	current.VerificationStatus = item.VerificationStatus
	current.VerificationSource = item.VerificationSource
	current.VerificationInfo = item.VerificationInfo
	current.VerifierUserID = item.VerifierUserID
	current.Updated = item.Updated
	r.db.matches[item.ID] = current
	return nil
}

func (r *MatchRepository) MarkNeedsAutoCheck(_ context.Context, onlyRejected bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	var affected int64
	for id, item := range r.db.matches {
		if item.IsMergedDuplicate {
			continue
		}
		if onlyRejected && item.VerificationStatus != match.StatusRejected {
			continue
		}
		item.NeedsAutoCheck = true
		stamp := now
		item.Updated = &stamp
		r.db.matches[id] = item
		affected++
	}
	return affected, nil
}

func (r *MatchRepository) MergeDuplicates(_ context.Context, rootID int64) (match.MergeResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	root, ok := r.db.matches[rootID]
	if !ok {
		return match.MergeResult{}, fmt.Errorf("merge into match %d: not found", rootID)
	}

	now := r.db.stamp()
	result := match.MergeResult{RootID: rootID}
	xrefIDs := make([]int64, 0)
	for id, x := range r.db.xrefs {
		if x.SuspectedDuplicateOf == rootID && x.Confirmed() {
			xrefIDs = append(xrefIDs, id)
		}
	}
	sort.Slice(xrefIDs, func(i, j int) bool { return xrefIDs[i] < xrefIDs[j] })

	for _, xrefID := range xrefIDs {
		x := r.db.xrefs[xrefID]
		suspect, ok := r.db.matches[x.MatchID]
		if !ok || suspect.IsMergedDuplicate || suspect.ID == rootID {
			continue
		}

		for scoreID, s := range r.db.scores {
			if s.MatchID == suspect.ID {
				s.MatchID = rootID
				r.db.scores[scoreID] = s
				result.ScoresMoved++
			}
		}

		match.Widen(&root, suspect)
		suspect.IsMergedDuplicate = true
		suspect.NeedsAutoCheck = false
		suspect.VerificationStatus = match.StatusRejected
		suspect.VerificationSource = nil
		suspect.VerificationInfo = match.MergedInfo(root.MatchID)
		stamp := now
		suspect.Updated = &stamp
		r.db.matches[suspect.ID] = suspect
		result.Absorbed++
	}

	if result.Absorbed > 0 {
		root.NeedsAutoCheck = true
		root.IsAPIProcessed = false
		stamp := now
		root.Updated = &stamp
		r.db.matches[rootID] = root
	}
	return result, nil
}

// AddScore records a player's participation in a match.
func (r *MatchRepository) AddScore(_ context.Context, score match.Score) (match.Score, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.matches[score.MatchID]; !ok {
		return match.Score{}, fmt.Errorf("add score: match %d not found", score.MatchID)
	}
	score.ID = r.db.nextID("match_scores")
	r.db.scores[score.ID] = score
	return score, nil
}

// AddMatch stores a match as-is; used for seeding and tests.
func (r *MatchRepository) AddMatch(_ context.Context, item match.Match) (match.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.matchByOsu[item.MatchID]; exists {
		return match.Match{}, fmt.Errorf("add match: osu match %d already exists", item.MatchID)
	}
	if item.ID == 0 {
		item.ID = r.db.nextID("matches")
	} else {
		r.db.bumpSeq("matches", item.ID)
	}
	r.db.matches[item.ID] = item
	r.db.matchByOsu[item.MatchID] = item.ID
	return item, nil
}

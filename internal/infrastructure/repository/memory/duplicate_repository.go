package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
)

type DuplicateRepository struct {
	db *Database
}

func NewDuplicateRepository(db *Database) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

func (r *DuplicateRepository) ListAll(_ context.Context) ([]duplicate.XRef, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]duplicate.XRef, 0, len(r.db.xrefs))
	for _, x := range r.db.xrefs {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DuplicateRepository) ListByRoot(_ context.Context, rootID int64) ([]duplicate.XRef, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]duplicate.XRef, 0)
	for _, x := range r.db.xrefs {
		if x.SuspectedDuplicateOf == rootID {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DuplicateRepository) Create(_ context.Context, item duplicate.XRef) (duplicate.XRef, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	suspect, ok := r.db.matches[item.MatchID]
	if !ok {
		return duplicate.XRef{}, fmt.Errorf("create duplicate: match %d not found", item.MatchID)
	}
	if _, ok := r.db.matches[item.SuspectedDuplicateOf]; !ok {
		return duplicate.XRef{}, fmt.Errorf("create duplicate: root match %d not found", item.SuspectedDuplicateOf)
	}
	if item.MatchID == item.SuspectedDuplicateOf {
		return duplicate.XRef{}, fmt.Errorf("create duplicate: match %d cannot duplicate itself", item.MatchID)
	}

	item.ID = r.db.nextID("match_duplicate_xref")
	item.OsuMatchID = suspect.MatchID
	if item.Created.IsZero() {
		item.Created = r.db.stamp()
	}
	r.db.xrefs[item.ID] = item
	return item, nil
}

func (r *DuplicateRepository) MarkVerified(_ context.Context, rootID, verifierUserID int64, confirmed bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	var affected int64
	for id, x := range r.db.xrefs {
		if x.SuspectedDuplicateOf != rootID {
			continue
		}
		verifier := verifierUserID
		verdict := confirmed
		stamp := now
		x.VerifiedBy = &verifier
		x.VerifiedAsDuplicate = &verdict
		x.Updated = &stamp
		r.db.xrefs[id] = x
		affected++
	}
	return affected, nil
}

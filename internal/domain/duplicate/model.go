package duplicate

import (
	"sort"
	"time"
)

// XRef records that MatchID is suspected to duplicate the root match SuspectedDuplicateOf.
type XRef struct {
	ID                   int64
	MatchID              int64
	OsuMatchID           int64
	SuspectedDuplicateOf int64
	VerifiedBy           *int64
	// VerifiedAsDuplicate is nil until a verifier rules on it.
	VerifiedAsDuplicate *bool
	Created             time.Time
	Updated             *time.Time
}

func (x XRef) Confirmed() bool {
	return x.VerifiedAsDuplicate != nil && *x.VerifiedAsDuplicate
}

func (x XRef) Denied() bool {
	return x.VerifiedAsDuplicate != nil && !*x.VerifiedAsDuplicate
}

func (x XRef) Pending() bool {
	return x.VerifiedAsDuplicate == nil
}

// Group is every suspect recorded against one root match.
type Group struct {
	RootID   int64
	Suspects []XRef
}

// GroupByRoot buckets xrefs by root id, ordered by root id then xref id.
func GroupByRoot(items []XRef) []Group {
	byRoot := make(map[int64][]XRef)
	for _, item := range items {
		byRoot[item.SuspectedDuplicateOf] = append(byRoot[item.SuspectedDuplicateOf], item)
	}

	out := make([]Group, 0, len(byRoot))
	for rootID, suspects := range byRoot {
		sort.Slice(suspects, func(i, j int) bool { return suspects[i].ID < suspects[j].ID })
		out = append(out, Group{RootID: rootID, Suspects: suspects})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RootID < out[j].RootID })
	return out
}

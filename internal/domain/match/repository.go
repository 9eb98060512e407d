package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	GetByOsuMatchID(ctx context.Context, osuMatchID int64) (Match, bool, error)
	ListByOsuMatchIDs(ctx context.Context, osuMatchIDs []int64) ([]Match, error)
	ListByIDs(ctx context.Context, ids []int64) ([]Match, error)
	ListOsuMatchIDs(ctx context.Context, onlyVerified bool) ([]int64, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]Match, error)

	// ApplySubmission writes the tournament, promotions and inserts atomically.
	ApplySubmission(ctx context.Context, submission Submission) (SubmissionResult, error)
	UpdateVerification(ctx context.Context, item Match) error
	// MarkNeedsAutoCheck re-arms automated checks on every match, or only rejected ones.
	MarkNeedsAutoCheck(ctx context.Context, onlyRejected bool) (int64, error)
	// MergeDuplicates folds every confirmed, not yet absorbed suspect of rootID into it.
	MergeDuplicates(ctx context.Context, rootID int64) (MergeResult, error)
}

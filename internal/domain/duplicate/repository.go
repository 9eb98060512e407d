package duplicate

import "context"

// Repository stores suspected duplicate cross references.
type Repository interface {
	ListAll(ctx context.Context) ([]XRef, error)
	ListByRoot(ctx context.Context, rootID int64) ([]XRef, error)
	Create(ctx context.Context, item XRef) (XRef, error)
	// MarkVerified stamps the verdict on every xref of rootID and returns the rows touched.
	MarkVerified(ctx context.Context, rootID, verifierUserID int64, confirmed bool) (int64, error)
}

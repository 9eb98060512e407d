package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
	qb "github.com/riskibarqy/osu-tournament-rating/internal/platform/querybuilder"
)

type DuplicateRepository struct {
	db *sqlx.DB
}

func NewDuplicateRepository(db *sqlx.DB) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

func (r *DuplicateRepository) ListAll(ctx context.Context) ([]duplicate.XRef, error) {
	return r.list(ctx, "list duplicates", qb.Select(duplicateSelectColumns...).
		From("match_duplicate_xref").
		OrderBy("id"))
}

func (r *DuplicateRepository) ListByRoot(ctx context.Context, rootID int64) ([]duplicate.XRef, error) {
	return r.list(ctx, "list duplicates by root", qb.Select(duplicateSelectColumns...).
		From("match_duplicate_xref").
		Where(qb.Eq("suspected_duplicate_of", rootID)).
		OrderBy("id"))
}

func (r *DuplicateRepository) list(ctx context.Context, op string, builder *qb.SelectBuilder) ([]duplicate.XRef, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []duplicateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]duplicate.XRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, duplicateFromRow(row))
	}
	return out, nil
}

// Create copies the suspect's osu match id from the matches table.
func (r *DuplicateRepository) Create(ctx context.Context, item duplicate.XRef) (duplicate.XRef, error) {
	if item.MatchID == item.SuspectedDuplicateOf {
		return duplicate.XRef{}, fmt.Errorf("create duplicate: match %d cannot duplicate itself", item.MatchID)
	}

	query := `INSERT INTO match_duplicate_xref (match_id, osu_match_id, suspected_duplicate_of, verified_by, verified_as_duplicate)
SELECT m.id, m.match_id, $2, $3, $4 FROM matches m WHERE m.id = $1
RETURNING ` + joinColumns(duplicateSelectColumns)

	var row duplicateTableModel
	err := r.db.GetContext(ctx, &row, query,
		item.MatchID,
		item.SuspectedDuplicateOf,
		nullInt64(item.VerifiedBy),
		nullBool(item.VerifiedAsDuplicate),
	)
	if err != nil {
		if isNotFound(err) {
			return duplicate.XRef{}, fmt.Errorf("create duplicate: match %d not found", item.MatchID)
		}
		return duplicate.XRef{}, fmt.Errorf("create duplicate: %w", err)
	}
	return duplicateFromRow(row), nil
}

func (r *DuplicateRepository) MarkVerified(ctx context.Context, rootID, verifierUserID int64, confirmed bool) (int64, error) {
	query, args, err := qb.Update("match_duplicate_xref").
		Set("verified_by", verifierUserID).
		Set("verified_as_duplicate", confirmed).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("suspected_duplicate_of", rootID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build mark duplicates verified query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark duplicates verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark duplicates verified rows affected: %w", err)
	}
	return affected, nil
}

package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
)

type duplicateTableModel struct {
	ID                   int64         `db:"id"`
	MatchID              int64         `db:"match_id"`
	OsuMatchID           int64         `db:"osu_match_id"`
	SuspectedDuplicateOf int64         `db:"suspected_duplicate_of"`
	VerifiedBy           sql.NullInt64 `db:"verified_by"`
	VerifiedAsDuplicate  sql.NullBool  `db:"verified_as_duplicate"`
	CreatedAt            time.Time     `db:"created_at"`
	UpdatedAt            sql.NullTime  `db:"updated_at"`
}

var duplicateSelectColumns = []string{
	"id",
	"match_id",
	"osu_match_id",
	"suspected_duplicate_of",
	"verified_by",
	"verified_as_duplicate",
	"created_at",
	"updated_at",
}

func duplicateFromRow(row duplicateTableModel) duplicate.XRef {
	return duplicate.XRef{
		ID:                   row.ID,
		MatchID:              row.MatchID,
		OsuMatchID:           row.OsuMatchID,
		SuspectedDuplicateOf: row.SuspectedDuplicateOf,
		VerifiedBy:           nullInt64Ptr(row.VerifiedBy),
		VerifiedAsDuplicate:  nullBoolPtr(row.VerifiedAsDuplicate),
		Created:              row.CreatedAt,
		Updated:              nullTimePtr(row.UpdatedAt),
	}
}

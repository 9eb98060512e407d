package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
)

type matchTableModel struct {
	ID                  int64         `db:"id"`
	MatchID             int64         `db:"match_id"`
	Name                string        `db:"name"`
	TournamentID        int64         `db:"tournament_id"`
	RankRangeLowerBound int           `db:"rank_range_lower_bound"`
	TeamSize            int           `db:"team_size"`
	Mode                int16         `db:"mode"`
	VerificationStatus  int16         `db:"verification_status"`
	VerificationSource  sql.NullInt16 `db:"verification_source"`
	VerificationInfo    string        `db:"verification_info"`
	NeedsAutoCheck      bool          `db:"needs_auto_check"`
	IsAPIProcessed      bool          `db:"is_api_processed"`
	IsMergedDuplicate   bool          `db:"is_merged_duplicate"`
	SubmitterUserID     sql.NullInt64 `db:"submitter_user_id"`
	VerifierUserID      sql.NullInt64 `db:"verifier_user_id"`
	StartTime           sql.NullTime  `db:"start_time"`
	EndTime             sql.NullTime  `db:"end_time"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           sql.NullTime  `db:"updated_at"`
}

type matchInsertModel struct {
	MatchID             int64         `db:"match_id"`
	Name                string        `db:"name"`
	TournamentID        int64         `db:"tournament_id"`
	RankRangeLowerBound int           `db:"rank_range_lower_bound"`
	TeamSize            int           `db:"team_size"`
	Mode                int16         `db:"mode"`
	VerificationStatus  int16         `db:"verification_status"`
	VerificationSource  sql.NullInt16 `db:"verification_source"`
	VerificationInfo    string        `db:"verification_info"`
	NeedsAutoCheck      bool          `db:"needs_auto_check"`
	IsAPIProcessed      bool          `db:"is_api_processed"`
	SubmitterUserID     sql.NullInt64 `db:"submitter_user_id"`
	VerifierUserID      sql.NullInt64 `db:"verifier_user_id"`
	StartTime           sql.NullTime  `db:"start_time"`
	EndTime             sql.NullTime  `db:"end_time"`
}

var matchSelectColumns = []string{
	"id",
	"match_id",
	"name",
	"tournament_id",
	"rank_range_lower_bound",
	"team_size",
	"mode",
	"verification_status",
	"verification_source",
	"verification_info",
	"needs_auto_check",
	"is_api_processed",
	"is_merged_duplicate",
	"submitter_user_id",
	"verifier_user_id",
	"start_time",
	"end_time",
	"created_at",
	"updated_at",
}

func matchFromRow(row matchTableModel) match.Match {
	out := match.Match{
		ID:                  row.ID,
		MatchID:             row.MatchID,
		Name:                row.Name,
		TournamentID:        row.TournamentID,
		RankRangeLowerBound: row.RankRangeLowerBound,
		TeamSize:            row.TeamSize,
		Mode:                gamemode.Mode(row.Mode),
		VerificationStatus:  match.VerificationStatus(row.VerificationStatus),
		VerificationInfo:    row.VerificationInfo,
		NeedsAutoCheck:      row.NeedsAutoCheck,
		IsAPIProcessed:      row.IsAPIProcessed,
		IsMergedDuplicate:   row.IsMergedDuplicate,
		SubmitterUserID:     nullInt64Ptr(row.SubmitterUserID),
		VerifierUserID:      nullInt64Ptr(row.VerifierUserID),
		StartTime:           nullTimePtr(row.StartTime),
		EndTime:             nullTimePtr(row.EndTime),
		Created:             row.CreatedAt,
		Updated:             nullTimePtr(row.UpdatedAt),
	}
	if row.VerificationSource.Valid {
		source := match.VerificationSource(row.VerificationSource.Int16)
		out.VerificationSource = &source
	}
	return out
}

func matchInsertFromDomain(item match.Match) matchInsertModel {
	return matchInsertModel{
		MatchID:             item.MatchID,
		Name:                item.Name,
		TournamentID:        item.TournamentID,
		RankRangeLowerBound: item.RankRangeLowerBound,
		TeamSize:            item.TeamSize,
		Mode:                int16(item.Mode),
		VerificationStatus:  int16(item.VerificationStatus),
		VerificationSource:  nullSource(item.VerificationSource),
		VerificationInfo:    item.VerificationInfo,
		NeedsAutoCheck:      item.NeedsAutoCheck,
		IsAPIProcessed:      item.IsAPIProcessed,
		SubmitterUserID:     nullInt64(item.SubmitterUserID),
		VerifierUserID:      nullInt64(item.VerifierUserID),
		StartTime:           nullTime(item.StartTime),
		EndTime:             nullTime(item.EndTime),
	}
}

func nullSource(v *match.VerificationSource) sql.NullInt16 {
	if v == nil {
		return sql.NullInt16{}
	}
	return sql.NullInt16{Int16: int16(*v), Valid: true}
}

package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID                  int64         `db:"id"`
	Name                string        `db:"name"`
	Abbreviation        string        `db:"abbreviation"`
	ForumURL            string        `db:"forum_url"`
	RankRangeLowerBound int           `db:"rank_range_lower_bound"`
	TeamSize            int           `db:"team_size"`
	Mode                int16         `db:"mode"`
	SubmitterUserID     sql.NullInt64 `db:"submitter_user_id"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           sql.NullTime  `db:"updated_at"`
}

type tournamentInsertModel struct {
	Name                string        `db:"name"`
	Abbreviation        string        `db:"abbreviation"`
	ForumURL            string        `db:"forum_url"`
	RankRangeLowerBound int           `db:"rank_range_lower_bound"`
	TeamSize            int           `db:"team_size"`
	Mode                int16         `db:"mode"`
	SubmitterUserID     sql.NullInt64 `db:"submitter_user_id"`
}

var tournamentSelectColumns = []string{
	"id",
	"name",
	"abbreviation",
	"forum_url",
	"rank_range_lower_bound",
	"team_size",
	"mode",
	"submitter_user_id",
	"created_at",
	"updated_at",
}

func tournamentFromRow(row tournamentTableModel) tournament.Tournament {
	return tournament.Tournament{
		ID:                  row.ID,
		Name:                row.Name,
		Abbreviation:        row.Abbreviation,
		ForumURL:            row.ForumURL,
		RankRangeLowerBound: row.RankRangeLowerBound,
		TeamSize:            row.TeamSize,
		Mode:                gamemode.Mode(row.Mode),
		SubmitterUserID:     nullInt64Ptr(row.SubmitterUserID),
		Created:             row.CreatedAt,
		Updated:             nullTimePtr(row.UpdatedAt),
	}
}

package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
)

type ratingTableModel struct {
	ID           int64        `db:"id"`
	PlayerID     int64        `db:"player_id"`
	Mode         int16        `db:"mode"`
	Mu           float64      `db:"mu"`
	Sigma        float64      `db:"sigma"`
	MuInitial    float64      `db:"mu_initial"`
	SigmaInitial float64      `db:"sigma_initial"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

type ratingInsertModel struct {
	PlayerID     int64     `db:"player_id"`
	Mode         int16     `db:"mode"`
	Mu           float64   `db:"mu"`
	Sigma        float64   `db:"sigma"`
	MuInitial    float64   `db:"mu_initial"`
	SigmaInitial float64   `db:"sigma_initial"`
	CreatedAt    time.Time `db:"created_at"`
}

type ratingHistoryTableModel struct {
	ID        int64         `db:"id"`
	PlayerID  int64         `db:"player_id"`
	Mode      int16         `db:"mode"`
	Mu        float64       `db:"mu"`
	Sigma     float64       `db:"sigma"`
	MatchID   sql.NullInt64 `db:"match_id"`
	CreatedAt time.Time     `db:"created_at"`
}

type ratingHistoryInsertModel struct {
	PlayerID  int64         `db:"player_id"`
	Mode      int16         `db:"mode"`
	Mu        float64       `db:"mu"`
	Sigma     float64       `db:"sigma"`
	MatchID   sql.NullInt64 `db:"match_id"`
	CreatedAt time.Time     `db:"created_at"`
}

var ratingSelectColumns = []string{
	"id",
	"player_id",
	"mode",
	"mu",
	"sigma",
	"mu_initial",
	"sigma_initial",
	"created_at",
	"updated_at",
}

var ratingHistorySelectColumns = []string{
	"id",
	"player_id",
	"mode",
	"mu",
	"sigma",
	"match_id",
	"created_at",
}

func ratingFromRow(row ratingTableModel) rating.Rating {
	return rating.Rating{
		ID:           row.ID,
		PlayerID:     row.PlayerID,
		Mode:         gamemode.Mode(row.Mode),
		Mu:           row.Mu,
		Sigma:        row.Sigma,
		MuInitial:    row.MuInitial,
		SigmaInitial: row.SigmaInitial,
		Created:      row.CreatedAt,
		Updated:      nullTimePtr(row.UpdatedAt),
	}
}

func ratingHistoryFromRow(row ratingHistoryTableModel) rating.History {
	return rating.History{
		ID:       row.ID,
		PlayerID: row.PlayerID,
		Mode:     gamemode.Mode(row.Mode),
		Mu:       row.Mu,
		Sigma:    row.Sigma,
		MatchID:  nullInt64Ptr(row.MatchID),
		Created:  row.CreatedAt,
	}
}

func ratingHistoryInsertFromDomain(h rating.History) ratingHistoryInsertModel {
	return ratingHistoryInsertModel{
		PlayerID:  h.PlayerID,
		Mode:      int16(h.Mode),
		Mu:        h.Mu,
		Sigma:     h.Sigma,
		MatchID:   nullInt64(h.MatchID),
		CreatedAt: h.Created,
	}
}

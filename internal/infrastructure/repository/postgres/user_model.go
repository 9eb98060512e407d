package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

type userTableModel struct {
	ID                int64          `db:"id"`
	PlayerID          sql.NullInt64  `db:"player_id"`
	Roles             string         `db:"roles"`
	SessionToken      sql.NullString `db:"session_token"`
	SessionExpiration sql.NullTime   `db:"session_expiration"`
	LastLogin         sql.NullTime   `db:"last_login"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
}

var userSelectColumns = []string{
	"id",
	"player_id",
	"roles",
	"session_token",
	"session_expiration",
	"last_login",
	"created_at",
	"updated_at",
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:                row.ID,
		PlayerID:          nullInt64Ptr(row.PlayerID),
		Roles:             user.ParseRoleSet(row.Roles),
		SessionToken:      row.SessionToken.String,
		SessionExpiration: nullTimePtr(row.SessionExpiration),
		LastLogin:         nullTimePtr(row.LastLogin),
		Created:           row.CreatedAt,
		Updated:           nullTimePtr(row.UpdatedAt),
	}
}

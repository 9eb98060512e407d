package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the development players and users into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM players`); err != nil {
		return fmt.Errorf("count players for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range memory.SeedPlayers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (id, osu_id, username, country)
VALUES (:id, :osu_id, :username, :country)
ON CONFLICT (osu_id) DO NOTHING`, map[string]any{
			"id":       p.ID,
			"osu_id":   p.OsuID,
			"username": p.Username,
			"country":  p.Country,
		})
		if err != nil {
			return fmt.Errorf("bind seed player %d query: %w", p.OsuID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed player %d: %w", p.OsuID, err)
		}
	}

	for _, u := range memory.SeedUsers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO users (id, player_id, roles)
VALUES (:id, :player_id, :roles)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":        u.ID,
			"player_id": nullInt64(u.PlayerID),
			"roles":     u.Roles.String(),
		})
		if err != nil {
			return fmt.Errorf("bind seed user %d query: %w", u.ID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}

	for _, table := range []string{"players", "users"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))`, table, table)); err != nil {
			return fmt.Errorf("advance %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

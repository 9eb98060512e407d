package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
	qb "github.com/riskibarqy/osu-tournament-rating/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build get tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("get tournament: %w", err)
	}
	return tournamentFromRow(row), true, nil
}

// ExistsByNameAndMode compares names case-insensitively.
func (r *TournamentRepository) ExistsByNameAndMode(ctx context.Context, name string, mode gamemode.Mode) (bool, error) {
	query, args, err := qb.Select("1").From("tournaments").
		Where(
			qb.Expr("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))),
			qb.Eq("mode", int16(mode)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build tournament exists query: %w", err)
	}

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check tournament exists: %w", err)
	}
	return true, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	qb "github.com/riskibarqy/osu-tournament-rating/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListAll(ctx context.Context) ([]player.Player, error) {
	return r.list(ctx, "list players", qb.Select(playerSelectColumns...).From("players").OrderBy("id"))
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	return r.getOne(ctx, "get player by id", qb.Eq("id", id))
}

func (r *PlayerRepository) GetByOsuID(ctx context.Context, osuID int64) (player.Player, bool, error) {
	return r.getOne(ctx, "get player by osu id", qb.Eq("osu_id", osuID))
}

func (r *PlayerRepository) getOne(ctx context.Context, op string, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(cond).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) (player.Player, error) {
	if err := item.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}

	query, args, err := qb.InsertModel("players", playerWriteFromDomain(item), "RETURNING "+joinColumns(playerSelectColumns))
	if err != nil {
		return player.Player{}, fmt.Errorf("build insert player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return player.Player{}, fmt.Errorf("create player: osu id %d already exists", item.OsuID)
		}
		return player.Player{}, fmt.Errorf("insert player: %w", err)
	}
	return playerFromRow(row), nil
}

// Update writes every mutable column; the osu id is part of the filter so it can never change.
func (r *PlayerRepository) Update(ctx context.Context, item player.Player) error {
	w := playerWriteFromDomain(item)
	query, args, err := qb.Update("players").
		Set("username", w.Username).
		Set("country", w.Country).
		Set("rank_standard", w.RankStandard).
		Set("rank_taiko", w.RankTaiko).
		Set("rank_catch", w.RankCatch).
		Set("rank_mania", w.RankMania).
		Set("earliest_osu_global_rank", w.EarliestOsuGlobalRank).
		Set("earliest_osu_global_rank_date", w.EarliestOsuGlobalRankDate).
		Set("earliest_taiko_global_rank", w.EarliestTaikoGlobalRank).
		Set("earliest_taiko_global_rank_date", w.EarliestTaikoGlobalRankDate).
		Set("earliest_catch_global_rank", w.EarliestCatchGlobalRank).
		Set("earliest_catch_global_rank_date", w.EarliestCatchGlobalRankDate).
		Set("earliest_mania_global_rank", w.EarliestManiaGlobalRank).
		Set("earliest_mania_global_rank_date", w.EarliestManiaGlobalRankDate).
		Set("updated_at", w.UpdatedAt).
		Where(
			qb.Eq("id", item.ID),
			qb.Eq("osu_id", item.OsuID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player %d: %w", item.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update player %d: not found", item.ID)
	}
	return nil
}

// ListOutdated puts players that were never updated first.
func (r *PlayerRepository) ListOutdated(ctx context.Context, before time.Time, limit int) ([]player.Player, error) {
	return r.list(ctx, "list outdated players", qb.Select(playerSelectColumns...).From("players").
		Where(qb.Expr("(updated_at IS NULL OR updated_at < ?)", before)).
		OrderBy("updated_at ASC NULLS FIRST", "id").
		Limit(limit))
}

func (r *PlayerRepository) ListMissingEarliestRank(ctx context.Context, limit int) ([]player.Player, error) {
	return r.list(ctx, "list players missing earliest rank", qb.Select(playerSelectColumns...).From("players").
		Where(qb.IsNull("earliest_osu_global_rank_date")).
		OrderBy("id").
		Limit(limit))
}

func (r *PlayerRepository) list(ctx context.Context, op string, builder *qb.SelectBuilder) ([]player.Player, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

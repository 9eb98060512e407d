package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	qb "github.com/riskibarqy/osu-tournament-rating/internal/platform/querybuilder"
)

type RatingRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RatingRepository) Get(ctx context.Context, playerID int64, mode gamemode.Mode) (rating.Rating, bool, error) {
	query, args, err := qb.Select(ratingSelectColumns...).From("ratings").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("mode", int16(mode)),
		).
		ToSQL()
	if err != nil {
		return rating.Rating{}, false, fmt.Errorf("build get rating query: %w", err)
	}

	var row ratingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rating.Rating{}, false, nil
		}
		return rating.Rating{}, false, fmt.Errorf("get rating: %w", err)
	}
	return ratingFromRow(row), true, nil
}

func (r *RatingRepository) ListByPlayer(ctx context.Context, playerID int64) ([]rating.Rating, error) {
	query, args, err := qb.Select(ratingSelectColumns...).From("ratings").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("mode").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ratings query: %w", err)
	}

	var rows []ratingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	out := make([]rating.Rating, 0, len(rows))
	for _, row := range rows {
		out = append(out, ratingFromRow(row))
	}
	return out, nil
}

func (r *RatingRepository) Upsert(ctx context.Context, update rating.Update) (rating.Rating, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return rating.Rating{}, fmt.Errorf("begin tx upsert rating: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	next, err := r.apply(ctx, tx, update)
	if err != nil {
		return rating.Rating{}, err
	}

	if err := tx.Commit(); err != nil {
		return rating.Rating{}, fmt.Errorf("commit upsert rating tx: %w", err)
	}
	return next, nil
}

func (r *RatingRepository) BatchUpsert(ctx context.Context, updates []rating.Update) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx batch upsert ratings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range updates {
		if _, err := r.apply(ctx, tx, u); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch upsert ratings tx: %w", err)
	}
	return len(updates), nil
}

// apply locks the current rating row, writes the new values and appends one history row.
func (r *RatingRepository) apply(ctx context.Context, tx *sqlx.Tx, u rating.Update) (rating.Rating, error) {
	if err := checkPlayerExists(ctx, tx, u.PlayerID); err != nil {
		return rating.Rating{}, err
	}

	existing, err := lockRating(ctx, tx, u.PlayerID, u.Mode)
	if err != nil {
		return rating.Rating{}, err
	}

	now := r.now()
	next, history := rating.Apply(existing, u, now)
	if existing == nil {
		inserted, ok, err := insertRating(ctx, tx, next)
		if err != nil {
			return rating.Rating{}, err
		}
		if !ok {
			// A concurrent writer created the row first; update it instead.
			if existing, err = lockRating(ctx, tx, u.PlayerID, u.Mode); err != nil {
				return rating.Rating{}, err
			}
			next, history = rating.Apply(existing, u, now)
		} else {
			next = inserted
		}
	}
	if existing != nil {
		next, err = updateRating(ctx, tx, next)
		if err != nil {
			return rating.Rating{}, err
		}
	}

	query, args, err := qb.InsertModel("rating_histories", ratingHistoryInsertFromDomain(history), "")
	if err != nil {
		return rating.Rating{}, fmt.Errorf("build insert rating history query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return rating.Rating{}, fmt.Errorf("insert rating history: %w", err)
	}
	return next, nil
}

func checkPlayerExists(ctx context.Context, tx *sqlx.Tx, playerID int64) error {
	query, args, err := qb.Select("1").From("players").Where(qb.Eq("id", playerID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build check player query: %w", err)
	}
	var one int
	if err := tx.GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("upsert rating: player %d not found", playerID)
		}
		return fmt.Errorf("check player: %w", err)
	}
	return nil
}

func lockRating(ctx context.Context, tx *sqlx.Tx, playerID int64, mode gamemode.Mode) (*rating.Rating, error) {
	query, args, err := qb.Select(ratingSelectColumns...).From("ratings").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("mode", int16(mode)),
		).
		ForUpdate().
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build lock rating query: %w", err)
	}

	var row ratingTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock rating: %w", err)
	}
	out := ratingFromRow(row)
	return &out, nil
}

func insertRating(ctx context.Context, tx *sqlx.Tx, next rating.Rating) (rating.Rating, bool, error) {
	query, args, err := qb.InsertModel("ratings", ratingInsertModel{
		PlayerID:     next.PlayerID,
		Mode:         int16(next.Mode),
		Mu:           next.Mu,
		Sigma:        next.Sigma,
		MuInitial:    next.MuInitial,
		SigmaInitial: next.SigmaInitial,
		CreatedAt:    next.Created,
	}, "ON CONFLICT (player_id, mode) DO NOTHING RETURNING "+joinColumns(ratingSelectColumns))
	if err != nil {
		return rating.Rating{}, false, fmt.Errorf("build insert rating query: %w", err)
	}

	var row ratingTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rating.Rating{}, false, nil
		}
		return rating.Rating{}, false, fmt.Errorf("insert rating: %w", err)
	}
	return ratingFromRow(row), true, nil
}

func updateRating(ctx context.Context, tx *sqlx.Tx, next rating.Rating) (rating.Rating, error) {
	query, args, err := qb.Update("ratings").
		Set("mu", next.Mu).
		Set("sigma", next.Sigma).
		Set("updated_at", nullTime(next.Updated)).
		Where(qb.Eq("id", next.ID)).
		Suffix("RETURNING " + joinColumns(ratingSelectColumns)).
		ToSQL()
	if err != nil {
		return rating.Rating{}, fmt.Errorf("build update rating query: %w", err)
	}

	var row ratingTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return rating.Rating{}, fmt.Errorf("update rating: %w", err)
	}
	return ratingFromRow(row), nil
}

func (r *RatingRepository) ListHistory(ctx context.Context, playerID int64, mode gamemode.Mode, from, to time.Time) ([]rating.History, error) {
	builder := qb.Select(ratingHistorySelectColumns...).From("rating_histories").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("mode", int16(mode)),
		).
		OrderBy("created_at", "id")
	if !from.IsZero() {
		builder.Where(qb.Gte("created_at", from))
	}
	if !to.IsZero() {
		builder.Where(qb.Lte("created_at", to))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rating history query: %w", err)
	}

	var rows []ratingHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rating history: %w", err)
	}

	out := make([]rating.History, 0, len(rows))
	for _, row := range rows {
		out = append(out, ratingHistoryFromRow(row))
	}
	return out, nil
}

func (r *RatingRepository) OldestHistoryDate(ctx context.Context, playerID int64, mode gamemode.Mode) (time.Time, bool, error) {
	query, args, err := qb.Select("MIN(created_at)").From("rating_histories").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("mode", int16(mode)),
		).
		ToSQL()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build oldest rating history query: %w", err)
	}

	var oldest sql.NullTime
	if err := r.db.GetContext(ctx, &oldest, query, args...); err != nil {
		return time.Time{}, false, fmt.Errorf("oldest rating history: %w", err)
	}
	if !oldest.Valid {
		return time.Time{}, false, nil
	}
	return oldest.Time, true, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	qb "github.com/riskibarqy/osu-tournament-rating/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	return r.getOne(ctx, "get match by id", qb.Eq("id", id))
}

func (r *MatchRepository) GetByOsuMatchID(ctx context.Context, osuMatchID int64) (match.Match, bool, error) {
	return r.getOne(ctx, "get match by osu id", qb.Eq("match_id", osuMatchID))
}

func (r *MatchRepository) getOne(ctx context.Context, op string, cond qb.Condition) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(cond).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListByOsuMatchIDs(ctx context.Context, osuMatchIDs []int64) ([]match.Match, error) {
	if len(osuMatchIDs) == 0 {
		return []match.Match{}, nil
	}
	return r.list(ctx, "list matches by osu ids",
		qb.Select(matchSelectColumns...).From("matches").
			Where(qb.Any("match_id", pq.Array(osuMatchIDs))).
			OrderBy("id"))
}

func (r *MatchRepository) ListByIDs(ctx context.Context, ids []int64) ([]match.Match, error) {
	if len(ids) == 0 {
		return []match.Match{}, nil
	}
	return r.list(ctx, "list matches by ids",
		qb.Select(matchSelectColumns...).From("matches").
			Where(qb.Any("id", pq.Array(ids))).
			OrderBy("id"))
}

// ListByPlayer returns the matches a player has scores in, merged duplicates excluded.
func (r *MatchRepository) ListByPlayer(ctx context.Context, playerID int64) ([]match.Match, error) {
	return r.list(ctx, "list matches by player",
		qb.Select(matchSelectColumns...).From("matches").
			Where(
				qb.Expr("id IN (SELECT match_id FROM match_scores WHERE player_id = ?)", playerID),
				qb.Eq("is_merged_duplicate", false),
			).
			OrderBy("start_time ASC NULLS LAST", "id"))
}

func (r *MatchRepository) list(ctx context.Context, op string, builder *qb.SelectBuilder) ([]match.Match, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListOsuMatchIDs(ctx context.Context, onlyVerified bool) ([]int64, error) {
	builder := qb.Select("match_id").From("matches").OrderBy("match_id")
	if onlyVerified {
		builder.Where(qb.Eq("verification_status", int16(match.StatusVerified)))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list osu match ids query: %w", err)
	}

	out := make([]int64, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list osu match ids: %w", err)
	}
	return out, nil
}

func (r *MatchRepository) ApplySubmission(ctx context.Context, submission match.Submission) (match.SubmissionResult, error) {
	t := submission.Tournament
	if err := t.Validate(); err != nil {
		return match.SubmissionResult{}, fmt.Errorf("validate tournament: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.SubmissionResult{}, fmt.Errorf("begin tx apply submission: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if submission.UniqueTournament {
		if err := lockTournamentName(ctx, tx, t.Name, t.Mode); err != nil {
			return match.SubmissionResult{}, err
		}
	}

	tournamentQuery, tournamentArgs, err := qb.InsertModel("tournaments", tournamentInsertModel{
		Name:                t.Name,
		Abbreviation:        t.Abbreviation,
		ForumURL:            t.ForumURL,
		RankRangeLowerBound: t.RankRangeLowerBound,
		TeamSize:            t.TeamSize,
		Mode:                int16(t.Mode),
		SubmitterUserID:     nullInt64(t.SubmitterUserID),
	}, "RETURNING id")
	if err != nil {
		return match.SubmissionResult{}, fmt.Errorf("build insert tournament query: %w", err)
	}
	if err := tx.GetContext(ctx, &t.ID, tournamentQuery, tournamentArgs...); err != nil {
		return match.SubmissionResult{}, fmt.Errorf("insert tournament: %w", err)
	}

	result := match.SubmissionResult{TournamentID: t.ID}
	for _, item := range submission.Promote {
		item.TournamentID = t.ID
		if err := promoteMatch(ctx, tx, item); err != nil {
			return match.SubmissionResult{}, err
		}
		result.Promoted++
	}

	for _, item := range submission.Insert {
		item.TournamentID = t.ID
		if err := item.Validate(); err != nil {
			return match.SubmissionResult{}, fmt.Errorf("validate match: %w", err)
		}

		query, args, err := qb.InsertModel("matches", matchInsertFromDomain(item), "ON CONFLICT (match_id) DO NOTHING")
		if err != nil {
			return match.SubmissionResult{}, fmt.Errorf("build insert match query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return match.SubmissionResult{}, fmt.Errorf("insert match %d: %w", item.MatchID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected > 0 {
			result.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return match.SubmissionResult{}, fmt.Errorf("commit apply submission tx: %w", err)
	}
	return result, nil
}

// lockTournamentName serialises unverified submissions of one (name, mode) with
// a transaction-scoped advisory lock, then checks the pair is still free.
func lockTournamentName(ctx context.Context, tx *sqlx.Tx, name string, mode gamemode.Mode) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1), $2::int)", key, int16(mode)); err != nil {
		return fmt.Errorf("lock tournament name: %w", err)
	}

	query, args, err := qb.Select("1").From("tournaments").
		Where(qb.Expr("LOWER(name) = ?", key), qb.Eq("mode", int16(mode))).
		Limit(1).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build tournament exists query: %w", err)
	}
	var one int
	err = tx.GetContext(ctx, &one, query, args...)
	switch {
	case err == nil:
		return fmt.Errorf("%w: name=%s mode=%s", match.ErrTournamentExists, name, mode)
	case isNotFound(err):
		return nil
	default:
		return fmt.Errorf("check tournament exists: %w", err)
	}
}

func promoteMatch(ctx context.Context, tx *sqlx.Tx, item match.Match) error {
	query, args, err := qb.Update("matches").
		Set("name", item.Name).
		Set("tournament_id", item.TournamentID).
		Set("rank_range_lower_bound", item.RankRangeLowerBound).
		Set("team_size", item.TeamSize).
		Set("mode", int16(item.Mode)).
		Set("verification_status", int16(item.VerificationStatus)).
		Set("verification_source", nullSource(item.VerificationSource)).
		Set("verification_info", item.VerificationInfo).
		Set("needs_auto_check", item.NeedsAutoCheck).
		Set("is_api_processed", item.IsAPIProcessed).
		Set("submitter_user_id", nullInt64(item.SubmitterUserID)).
		Set("verifier_user_id", nullInt64(item.VerifierUserID)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build promote match query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("promote match %d: %w", item.MatchID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("promote match %d: not found", item.MatchID)
	}
	return nil
}

func (r *MatchRepository) UpdateVerification(ctx context.Context, item match.Match) error {
	query, args, err := qb.Update("matches").
		Set("verification_status", int16(item.VerificationStatus)).
		Set("verification_source", nullSource(item.VerificationSource)).
		Set("verification_info", item.VerificationInfo).
		Set("verifier_user_id", nullInt64(item.VerifierUserID)).
		Set("updated_at", nullTime(item.Updated)).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match verification query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match verification: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update match %d: not found", item.ID)
	}
	return nil
}

func (r *MatchRepository) MarkNeedsAutoCheck(ctx context.Context, onlyRejected bool) (int64, error) {
	builder := qb.Update("matches").
		Set("needs_auto_check", true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("is_merged_duplicate", false))
	if onlyRejected {
		builder.Where(qb.Eq("verification_status", int16(match.StatusRejected)))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build mark needs auto check query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark needs auto check: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark needs auto check rows affected: %w", err)
	}
	return affected, nil
}

func (r *MatchRepository) MergeDuplicates(ctx context.Context, rootID int64) (match.MergeResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("begin tx merge duplicates: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rootQuery, rootArgs, err := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("id", rootID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("build lock root match query: %w", err)
	}
	var rootRow matchTableModel
	if err := tx.GetContext(ctx, &rootRow, rootQuery, rootArgs...); err != nil {
		if isNotFound(err) {
			return match.MergeResult{}, fmt.Errorf("merge into match %d: not found", rootID)
		}
		return match.MergeResult{}, fmt.Errorf("lock root match: %w", err)
	}
	root := matchFromRow(rootRow)

	suspectQuery, suspectArgs, err := qb.Select(matchSelectColumns...).From("matches").
		Where(
			qb.Expr("id IN (SELECT match_id FROM match_duplicate_xref WHERE suspected_duplicate_of = ? AND verified_as_duplicate = TRUE)", rootID),
			qb.Eq("is_merged_duplicate", false),
			qb.Expr("id <> ?", rootID),
		).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("build lock suspects query: %w", err)
	}
	var suspectRows []matchTableModel
	if err := tx.SelectContext(ctx, &suspectRows, suspectQuery, suspectArgs...); err != nil {
		return match.MergeResult{}, fmt.Errorf("lock suspect matches: %w", err)
	}

	result := match.MergeResult{RootID: rootID}
	if len(suspectRows) == 0 {
		return result, nil
	}

	suspectIDs := make([]int64, 0, len(suspectRows))
	for _, row := range suspectRows {
		match.Widen(&root, matchFromRow(row))
		suspectIDs = append(suspectIDs, row.ID)
	}

	moveQuery, moveArgs, err := qb.Update("match_scores").
		Set("match_id", rootID).
		Where(qb.Any("match_id", pq.Array(suspectIDs))).
		ToSQL()
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("build move scores query: %w", err)
	}
	moved, err := tx.ExecContext(ctx, moveQuery, moveArgs...)
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("move scores to root: %w", err)
	}
	if n, err := moved.RowsAffected(); err == nil {
		result.ScoresMoved = int(n)
	}

	absorbQuery, absorbArgs, err := qb.Update("matches").
		Set("is_merged_duplicate", true).
		Set("needs_auto_check", false).
		Set("verification_status", int16(match.StatusRejected)).
		SetExpr("verification_source", "NULL").
		Set("verification_info", match.MergedInfo(root.MatchID)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Any("id", pq.Array(suspectIDs))).
		ToSQL()
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("build absorb duplicates query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, absorbQuery, absorbArgs...); err != nil {
		return match.MergeResult{}, fmt.Errorf("absorb duplicates: %w", err)
	}

	rootUpdate, rootUpdateArgs, err := qb.Update("matches").
		Set("start_time", nullTime(root.StartTime)).
		Set("end_time", nullTime(root.EndTime)).
		Set("needs_auto_check", true).
		Set("is_api_processed", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", rootID)).
		ToSQL()
	if err != nil {
		return match.MergeResult{}, fmt.Errorf("build rearm root query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, rootUpdate, rootUpdateArgs...); err != nil {
		return match.MergeResult{}, fmt.Errorf("rearm root match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return match.MergeResult{}, fmt.Errorf("commit merge duplicates tx: %w", err)
	}
	result.Absorbed = len(suspectIDs)
	return result, nil
}

// AddScore records a player's participation in a match.
func (r *MatchRepository) AddScore(ctx context.Context, score match.Score) (match.Score, error) {
	query, args, err := qb.InsertInto("match_scores").
		Columns("match_id", "player_id", "score", "mode").
		Values(score.MatchID, score.PlayerID, score.Score, int16(score.Mode)).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return match.Score{}, fmt.Errorf("build insert score query: %w", err)
	}
	if err := r.db.GetContext(ctx, &score.ID, query, args...); err != nil {
		return match.Score{}, fmt.Errorf("insert score: %w", err)
	}
	return score, nil
}

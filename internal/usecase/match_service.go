package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

// IngestionMetrics receives submission and duplicate review counters.
type IngestionMetrics interface {
	ObserveSubmission(verified bool, inserted, promoted int)
	ObserveDuplicateVerdict(confirmed bool, merged int)
}

type noopIngestionMetrics struct{}

func (noopIngestionMetrics) ObserveSubmission(bool, int, int)   {}
func (noopIngestionMetrics) ObserveDuplicateVerdict(bool, int) {}

type TournamentInfo struct {
	Name                string
	Abbreviation        string
	ForumURL            string
	RankRangeLowerBound int
	TeamSize            int
	Mode                gamemode.Mode
}

type SubmitBatchInput struct {
	OsuMatchIDs []int64
	Tournament  TournamentInfo
	Submitter   user.Principal
	Verified    bool
}

type SubmitBatchResult struct {
	TournamentID int64
	Inserted     int
	Updated      int
	Status       match.VerificationStatus
}

type VerifyDuplicateResult struct {
	RootID  int64
	Marked  int64
	Merge   *match.MergeResult
	Verdict bool
}

// DuplicateSuspect is one suspected duplicate as shown to reviewers.
type DuplicateSuspect struct {
	MatchID          int64
	OsuMatchID       int64
	Name             string
	Confirmed        *bool
	VerifierUserID   *int64
	VerifierUsername string
}

type DuplicateCollection struct {
	Root     match.Match
	Suspects []DuplicateSuspect
}

type MatchService struct {
	matchRepo      match.Repository
	tournamentRepo tournament.Repository
	duplicateRepo  duplicate.Repository
	playerRepo     player.Repository
	userRepo       user.Repository
	metrics        IngestionMetrics
	logger         *logging.Logger
	now            func() time.Time
}

type MatchServiceOption func(*MatchService)

func WithMatchMetrics(metrics IngestionMetrics) MatchServiceOption {
	return func(s *MatchService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func WithMatchLogger(logger *logging.Logger) MatchServiceOption {
	return func(s *MatchService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMatchClock(now func() time.Time) MatchServiceOption {
	return func(s *MatchService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMatchService(
	matchRepo match.Repository,
	tournamentRepo tournament.Repository,
	duplicateRepo duplicate.Repository,
	playerRepo player.Repository,
	userRepo user.Repository,
	opts ...MatchServiceOption,
) *MatchService {
	s := &MatchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		duplicateRepo:  duplicateRepo,
		playerRepo:     playerRepo,
		userRepo:       userRepo,
		metrics:        noopIngestionMetrics{},
		logger:         logging.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitBatch registers a tournament and its matches. Existing matches are only
// touched when the submitter is allowed to pre-verify them.
func (s *MatchService) SubmitBatch(ctx context.Context, input SubmitBatchInput) (SubmitBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitBatch")
	defer span.End()

	ids, err := normalizeSubmitInput(&input)
	if err != nil {
		return SubmitBatchResult{}, err
	}
	if input.Verified && !input.Submitter.Roles.CanVerify() {
		return SubmitBatchResult{}, fmt.Errorf("%w: verified submissions require the match verifier role", ErrForbidden)
	}

	if !input.Verified {
		exists, err := s.tournamentRepo.ExistsByNameAndMode(ctx, input.Tournament.Name, input.Tournament.Mode)
		if err != nil {
			return SubmitBatchResult{}, fmt.Errorf("%w: check tournament: %w", ErrPersistence, err)
		}
		if exists {
			return SubmitBatchResult{}, fmt.Errorf("%w: name=%s mode=%s", ErrDuplicateTournament, input.Tournament.Name, input.Tournament.Mode)
		}
	}

	existing, err := s.matchRepo.ListByOsuMatchIDs(ctx, ids)
	if err != nil {
		return SubmitBatchResult{}, fmt.Errorf("%w: list existing matches: %w", ErrPersistence, err)
	}
	existingByOsuID := make(map[int64]match.Match, len(existing))
	for _, item := range existing {
		existingByOsuID[item.MatchID] = item
	}

	now := s.now().UTC()
	submitterID := input.Submitter.UserID
	status := match.StatusPendingVerification
	var source *match.VerificationSource
	var verifierID *int64
	if input.Verified {
		status = match.StatusVerified
		src := user.VerificationSourceFor(input.Submitter.Roles)
		source = &src
		verifierID = &submitterID
	}

	plan := match.Submission{
		Tournament: tournament.Tournament{
			Name:                input.Tournament.Name,
			Abbreviation:        input.Tournament.Abbreviation,
			ForumURL:            input.Tournament.ForumURL,
			RankRangeLowerBound: input.Tournament.RankRangeLowerBound,
			TeamSize:            input.Tournament.TeamSize,
			Mode:                input.Tournament.Mode,
			SubmitterUserID:     &submitterID,
			Created:             now,
		},
		UniqueTournament: !input.Verified,
	}

	for _, osuMatchID := range ids {
		if current, ok := existingByOsuID[osuMatchID]; ok {
			// Absorbed duplicates stay out of the automated checks.
			if !input.Verified || current.IsMergedDuplicate {
				continue
			}
			current.VerificationStatus = status
			current.VerificationSource = source
			current.SubmitterUserID = &submitterID
			current.VerifierUserID = verifierID
			current.NeedsAutoCheck = true
			current.IsAPIProcessed = false
			stamp := now
			current.Updated = &stamp
			plan.Promote = append(plan.Promote, current)
			continue
		}

		plan.Insert = append(plan.Insert, match.Match{
			MatchID:             osuMatchID,
			RankRangeLowerBound: input.Tournament.RankRangeLowerBound,
			TeamSize:            input.Tournament.TeamSize,
			Mode:                input.Tournament.Mode,
			VerificationStatus:  status,
			VerificationSource:  source,
			NeedsAutoCheck:      true,
			SubmitterUserID:     &submitterID,
			VerifierUserID:      verifierID,
			Created:             now,
		})
	}

	applied, err := s.matchRepo.ApplySubmission(ctx, plan)
	if errors.Is(err, match.ErrTournamentExists) {
		return SubmitBatchResult{}, fmt.Errorf("%w: name=%s mode=%s", ErrDuplicateTournament, input.Tournament.Name, input.Tournament.Mode)
	}
	if err != nil {
		return SubmitBatchResult{}, fmt.Errorf("%w: apply submission: %w", ErrPersistence, err)
	}

	s.metrics.ObserveSubmission(input.Verified, applied.Inserted, applied.Promoted)
	if applied.Inserted > 0 {
		s.logger.InfoContext(ctx, "inserted new matches",
			"tournament_id", applied.TournamentID,
			"inserted", applied.Inserted,
			"promoted", applied.Promoted,
			"verified", input.Verified,
			"submitter_user_id", submitterID,
		)
	}

	return SubmitBatchResult{
		TournamentID: applied.TournamentID,
		Inserted:     applied.Inserted,
		Updated:      applied.Promoted,
		Status:       status,
	}, nil
}

func normalizeSubmitInput(input *SubmitBatchInput) ([]int64, error) {
	if len(input.OsuMatchIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}
	input.Tournament.Name = strings.TrimSpace(input.Tournament.Name)
	input.Tournament.Abbreviation = strings.TrimSpace(input.Tournament.Abbreviation)
	input.Tournament.ForumURL = strings.TrimSpace(input.Tournament.ForumURL)
	if input.Tournament.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}
	if !input.Tournament.Mode.Valid() {
		return nil, fmt.Errorf("%w: mode=%d", ErrInvalidInput, input.Tournament.Mode)
	}
	if input.Tournament.TeamSize < 1 {
		return nil, fmt.Errorf("%w: team size must be >= 1", ErrInvalidInput)
	}
	if input.Tournament.RankRangeLowerBound < 1 {
		return nil, fmt.Errorf("%w: rank range lower bound must be >= 1", ErrInvalidInput)
	}
	if input.Submitter.UserID <= 0 {
		return nil, fmt.Errorf("%w: submitter is required", ErrUnauthorized)
	}

	seen := make(map[int64]struct{}, len(input.OsuMatchIDs))
	ids := make([]int64, 0, len(input.OsuMatchIDs))
	for _, id := range input.OsuMatchIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: match id must be positive, got=%d", ErrInvalidInput, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// VerifyDuplicate records a verdict on every suspect of rootID and merges them
// into the root when confirmed.
func (s *MatchService) VerifyDuplicate(ctx context.Context, rootID int64, verifier user.Principal, confirmed bool) (VerifyDuplicateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.VerifyDuplicate")
	defer span.End()

	if rootID <= 0 {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: root match id must be positive", ErrInvalidInput)
	}
	if !verifier.Roles.CanVerify() {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: duplicate review requires the match verifier role", ErrForbidden)
	}

	_, exists, err := s.matchRepo.GetByID(ctx, rootID)
	if err != nil {
		return VerifyDuplicateResult{}, fmt.Errorf("get root match: %w", err)
	}
	if !exists {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: match=%d", ErrNotFound, rootID)
	}

	xrefs, err := s.duplicateRepo.ListByRoot(ctx, rootID)
	if err != nil {
		return VerifyDuplicateResult{}, fmt.Errorf("list duplicate suspects: %w", err)
	}
	if len(xrefs) == 0 {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: no duplicate suspects for match=%d", ErrNotFound, rootID)
	}

	marked, err := s.duplicateRepo.MarkVerified(ctx, rootID, verifier.UserID, confirmed)
	if err != nil {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: mark duplicates: %w", ErrPersistence, err)
	}

	result := VerifyDuplicateResult{RootID: rootID, Marked: marked, Verdict: confirmed}
	if !confirmed {
		s.metrics.ObserveDuplicateVerdict(false, 0)
		return result, nil
	}

	merged, err := s.matchRepo.MergeDuplicates(ctx, rootID)
	if err != nil {
		return VerifyDuplicateResult{}, fmt.Errorf("%w: merge duplicates: %w", ErrPersistence, err)
	}
	result.Merge = &merged
	s.metrics.ObserveDuplicateVerdict(true, merged.Absorbed)

	s.logger.InfoContext(ctx, "merged duplicate matches",
		"root_id", rootID,
		"absorbed", merged.Absorbed,
		"scores_moved", merged.ScoresMoved,
		"verifier_user_id", verifier.UserID,
	)
	return result, nil
}

// ListDuplicates returns every suspect grouped by root match. Roots or suspects
// whose match no longer resolves are left out.
func (s *MatchService) ListDuplicates(ctx context.Context) ([]DuplicateCollection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListDuplicates")
	defer span.End()

	xrefs, err := s.duplicateRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list duplicates: %w", err)
	}
	if len(xrefs) == 0 {
		return []DuplicateCollection{}, nil
	}

	ids := make([]int64, 0, len(xrefs)*2)
	for _, x := range xrefs {
		ids = append(ids, x.SuspectedDuplicateOf, x.MatchID)
	}
	matches, err := s.matchRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list duplicate matches: %w", err)
	}
	byID := make(map[int64]match.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	usernames := make(map[int64]string)
	groups := duplicate.GroupByRoot(xrefs)
	out := make([]DuplicateCollection, 0, len(groups))
	for _, group := range groups {
		root, ok := byID[group.RootID]
		if !ok {
			continue
		}

		collection := DuplicateCollection{Root: root, Suspects: make([]DuplicateSuspect, 0, len(group.Suspects))}
		for _, x := range group.Suspects {
			suspect, ok := byID[x.MatchID]
			if !ok {
				continue
			}
			item := DuplicateSuspect{
				MatchID:        suspect.ID,
				OsuMatchID:     suspect.MatchID,
				Name:           suspect.Name,
				Confirmed:      x.VerifiedAsDuplicate,
				VerifierUserID: x.VerifiedBy,
			}
			if x.VerifiedBy != nil {
				item.VerifierUsername = s.lookupUsername(ctx, *x.VerifiedBy, usernames)
			}
			collection.Suspects = append(collection.Suspects, item)
		}
		out = append(out, collection)
	}

	return out, nil
}

func (s *MatchService) lookupUsername(ctx context.Context, userID int64, memo map[int64]string) string {
	if name, ok := memo[userID]; ok {
		return name
	}
	memo[userID] = ""
	if s.userRepo == nil || s.playerRepo == nil {
		return ""
	}

	u, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve verifier failed", "user_id", userID, "error", err)
		return ""
	}
	if !exists || u.PlayerID == nil {
		return ""
	}
	p, exists, err := s.playerRepo.GetByID(ctx, *u.PlayerID)
	if err != nil || !exists {
		return ""
	}
	memo[userID] = p.Username
	return p.Username
}

// RefreshAutomationChecks re-arms automated checks for all matches, or only rejected ones.
func (s *MatchService) RefreshAutomationChecks(ctx context.Context, caller user.Principal, invalidOnly bool) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RefreshAutomationChecks")
	defer span.End()

	if !caller.Roles.IsPrivileged() {
		return 0, fmt.Errorf("%w: refreshing automation checks requires admin", ErrForbidden)
	}

	affected, err := s.matchRepo.MarkNeedsAutoCheck(ctx, invalidOnly)
	if err != nil {
		return 0, fmt.Errorf("%w: mark needs auto check: %w", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "refreshed automation checks", "invalid_only", invalidOnly, "affected", affected)
	return affected, nil
}

// SetVerificationStatus moves a pending match to verified or rejected.
func (s *MatchService) SetVerificationStatus(ctx context.Context, osuMatchID int64, next match.VerificationStatus, caller user.Principal) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetVerificationStatus")
	defer span.End()

	if !next.Valid() {
		return match.Match{}, fmt.Errorf("%w: status=%d", ErrInvalidInput, next)
	}
	if !caller.Roles.CanVerify() {
		return match.Match{}, fmt.Errorf("%w: changing verification status requires the match verifier role", ErrForbidden)
	}

	item, err := s.GetByOsuMatchID(ctx, osuMatchID)
	if err != nil {
		return match.Match{}, err
	}
	if !item.VerificationStatus.CanTransitionTo(next) {
		return match.Match{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.VerificationStatus, next)
	}

	verifierID := caller.UserID
	item.VerificationStatus = next
	item.VerifierUserID = &verifierID
	if next == match.StatusVerified {
		source := user.VerificationSourceFor(caller.Roles)
		item.VerificationSource = &source
	}
	stamp := s.now().UTC()
	item.Updated = &stamp

	if err := s.matchRepo.UpdateVerification(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("%w: update verification: %w", ErrPersistence, err)
	}
	return item, nil
}

func (s *MatchService) ListOsuMatchIDs(ctx context.Context, onlyVerified bool) ([]int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListOsuMatchIDs")
	defer span.End()

	ids, err := s.matchRepo.ListOsuMatchIDs(ctx, onlyVerified)
	if err != nil {
		return nil, fmt.Errorf("list match ids: %w", err)
	}
	return ids, nil
}

func (s *MatchService) GetByOsuMatchID(ctx context.Context, osuMatchID int64) (match.Match, error) {
	if osuMatchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id must be positive", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByOsuMatchID(ctx, osuMatchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: osu match=%d", ErrNotFound, osuMatchID)
	}
	return item, nil
}

func (s *MatchService) GetByID(ctx context.Context, id int64) (match.Match, error) {
	if id <= 0 {
		return match.Match{}, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%d", ErrNotFound, id)
	}
	return item, nil
}

func (s *MatchService) GetOsuMatchIDByID(ctx context.Context, id int64) (int64, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return item.MatchID, nil
}

// ListForPlayer returns the matches an osu! player has scores in.
func (s *MatchService) ListForPlayer(ctx context.Context, osuPlayerID int64) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListForPlayer")
	defer span.End()

	if osuPlayerID <= 0 {
		return nil, fmt.Errorf("%w: player id must be positive", ErrInvalidInput)
	}

	p, exists, err := s.playerRepo.GetByOsuID(ctx, osuPlayerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: osu player=%d", ErrNotFound, osuPlayerID)
	}

	matches, err := s.matchRepo.ListByPlayer(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches by player: %w", err)
	}
	return matches, nil
}

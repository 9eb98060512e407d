package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/memory"
)

var testNow = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

type testStore struct {
	db          *memory.Database
	matches     *memory.MatchRepository
	tournaments *memory.TournamentRepository
	duplicates  *memory.DuplicateRepository
	players     *memory.PlayerRepository
	ratings     *memory.RatingRepository
	users       *memory.UserRepository
}

func newTestStore() testStore {
	db := memory.NewDatabase().WithClock(func() time.Time { return testNow })
	return testStore{
		db:          db,
		matches:     memory.NewMatchRepository(db),
		tournaments: memory.NewTournamentRepository(db),
		duplicates:  memory.NewDuplicateRepository(db),
		players:     memory.NewPlayerRepository(db),
		ratings:     memory.NewRatingRepository(db),
		users:       memory.NewUserRepository(db),
	}
}

func (s testStore) matchService(opts ...MatchServiceOption) *MatchService {
	opts = append([]MatchServiceOption{WithMatchClock(func() time.Time { return testNow })}, opts...)
	return NewMatchService(s.matches, s.tournaments, s.duplicates, s.players, s.users, opts...)
}

type recordingMetrics struct {
	submissions []int
	verdicts    []bool
}

func (m *recordingMetrics) ObserveSubmission(_ bool, inserted, _ int) {
	m.submissions = append(m.submissions, inserted)
}

func (m *recordingMetrics) ObserveDuplicateVerdict(confirmed bool, _ int) {
	m.verdicts = append(m.verdicts, confirmed)
}

func submitter(roles ...user.Role) user.Principal {
	return user.Principal{UserID: 77, Roles: user.NewRoleSet(roles...)}
}

func owcInput(ids ...int64) SubmitBatchInput {
	return SubmitBatchInput{
		OsuMatchIDs: ids,
		Tournament: TournamentInfo{
			Name:                "OWC 2024",
			Abbreviation:        "OWC",
			ForumURL:            "https://osu.ppy.sh/community/forums/topics/1",
			RankRangeLowerBound: 1,
			TeamSize:            4,
			Mode:                gamemode.Standard,
		},
		Submitter: submitter(user.RoleUser),
	}
}

func TestMatchService_SubmitBatch_InsertsPendingMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	metrics := &recordingMetrics{}
	svc := store.matchService(WithMatchMetrics(metrics))

	result, err := svc.SubmitBatch(ctx, owcInput(111, 222, 111))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Updated)
	assert.Equal(t, match.StatusPendingVerification, result.Status)
	assert.Equal(t, []int{2}, metrics.submissions)

	m, ok, err := store.matches.GetByOsuMatchID(ctx, 222)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.TournamentID, m.TournamentID)
	assert.Equal(t, 4, m.TeamSize)
	assert.True(t, m.NeedsAutoCheck)
	assert.Nil(t, m.VerificationSource)
	require.NotNil(t, m.SubmitterUserID)
	assert.Equal(t, int64(77), *m.SubmitterUserID)
}

func TestMatchService_SubmitBatch_RejectsDuplicateTournament(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	_, err := svc.SubmitBatch(ctx, owcInput(1))
	require.NoError(t, err)

	input := owcInput(2)
	input.Tournament.Name = "owc 2024"
	_, err = svc.SubmitBatch(ctx, input)
	require.ErrorIs(t, err, ErrDuplicateTournament)

	_, ok, err := store.matches.GetByOsuMatchID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	other := owcInput(3)
	other.Tournament.Mode = gamemode.Mania
	_, err = svc.SubmitBatch(ctx, other)
	require.NoError(t, err)
}

func TestMatchService_SubmitBatch_VerifiedPromotesExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	seed := owcInput(10)
	seed.Submitter = user.Principal{UserID: 5, Roles: user.NewRoleSet(user.RoleUser)}
	_, err := svc.SubmitBatch(ctx, seed)
	require.NoError(t, err)

	originalSubmitter := int64(5)
	_, err = store.matches.AddMatch(ctx, match.Match{
		MatchID:         11,
		TournamentID:    1,
		SubmitterUserID: &originalSubmitter,
		IsAPIProcessed:  true,
	})
	require.NoError(t, err)

	input := owcInput(11, 12)
	input.Verified = true
	input.Submitter = submitter(user.RoleAdmin)
	result, err := svc.SubmitBatch(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, match.StatusVerified, result.Status)

	for _, osuID := range []int64{11, 12} {
		m, ok, err := store.matches.GetByOsuMatchID(ctx, osuID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, match.StatusVerified, m.VerificationStatus)
		require.NotNil(t, m.VerificationSource)
		assert.Equal(t, match.SourceAdmin, *m.VerificationSource)
		require.NotNil(t, m.VerifierUserID)
		assert.Equal(t, int64(77), *m.VerifierUserID)
		require.NotNil(t, m.SubmitterUserID)
		assert.Equal(t, int64(77), *m.SubmitterUserID, "osu match %d", osuID)
		assert.True(t, m.NeedsAutoCheck)
		assert.False(t, m.IsAPIProcessed)
		assert.Equal(t, result.TournamentID, m.TournamentID)
	}

	untouched, _, err := store.matches.GetByOsuMatchID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, match.StatusPendingVerification, untouched.VerificationStatus)
	require.NotNil(t, untouched.SubmitterUserID)
	assert.Equal(t, int64(5), *untouched.SubmitterUserID)
}

func TestMatchService_SubmitBatch_VerifiedSkipsAbsorbedDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	absorbed, err := store.matches.AddMatch(ctx, match.Match{
		MatchID:            300,
		TournamentID:       99,
		VerificationStatus: match.StatusRejected,
		IsAPIProcessed:     true,
		IsMergedDuplicate:  true,
	})
	require.NoError(t, err)

	input := owcInput(300)
	input.Verified = true
	input.Submitter = submitter(user.RoleMatchVerifier)
	for attempt := 0; attempt < 2; attempt++ {
		result, err := svc.SubmitBatch(ctx, input)
		require.NoError(t, err)
		assert.Zero(t, result.Inserted)
		assert.Zero(t, result.Updated)
	}

	m, ok, err := store.matches.GetByID(ctx, absorbed.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, match.StatusRejected, m.VerificationStatus)
	assert.False(t, m.NeedsAutoCheck)
	assert.True(t, m.IsAPIProcessed)
	assert.Nil(t, m.VerificationSource)
	assert.Equal(t, int64(99), m.TournamentID)
}

// interleavingTournaments lets another submission commit between the service's
// duplicate check and its write.
type interleavingTournaments struct {
	tournament.Repository
	once sync.Once
	cut  func()
}

func (r *interleavingTournaments) ExistsByNameAndMode(ctx context.Context, name string, mode gamemode.Mode) (bool, error) {
	exists, err := r.Repository.ExistsByNameAndMode(ctx, name, mode)
	r.once.Do(r.cut)
	return exists, err
}

func TestMatchService_SubmitBatch_ConcurrentDuplicateTournamentRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	other := store.matchService()

	var first SubmitBatchResult
	tournaments := &interleavingTournaments{Repository: store.tournaments}
	tournaments.cut = func() {
		var err error
		first, err = other.SubmitBatch(ctx, owcInput(200))
		require.NoError(t, err)
	}
	svc := NewMatchService(store.matches, tournaments, store.duplicates, store.players, store.users,
		WithMatchClock(func() time.Time { return testNow }))

	_, err := svc.SubmitBatch(ctx, owcInput(100, 101))
	require.ErrorIs(t, err, ErrDuplicateTournament)
	assert.NotErrorIs(t, err, ErrPersistence)

	for _, osuID := range []int64{100, 101} {
		_, ok, err := store.matches.GetByOsuMatchID(ctx, osuID)
		require.NoError(t, err)
		assert.False(t, ok, "osu match %d should not be written", osuID)
	}

	_, ok, err := store.tournaments.GetByID(ctx, first.TournamentID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = store.tournaments.GetByID(ctx, first.TournamentID+1)
	require.NoError(t, err)
	assert.False(t, ok, "a second OWC 2024 tournament was created")
}

func TestMatchService_SubmitBatch_VerifiedMayReuseTournamentName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	_, err := svc.SubmitBatch(ctx, owcInput(1))
	require.NoError(t, err)

	input := owcInput(2)
	input.Verified = true
	input.Submitter = submitter(user.RoleMatchVerifier)
	result, err := svc.SubmitBatch(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}

func TestMatchService_SubmitBatch_UnverifiedLeavesExistingAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	verified := owcInput(50)
	verified.Verified = true
	verified.Submitter = submitter(user.RoleMatchVerifier)
	_, err := svc.SubmitBatch(ctx, verified)
	require.NoError(t, err)

	again := owcInput(50)
	again.Tournament.Name = "Another cup"
	result, err := svc.SubmitBatch(ctx, again)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Zero(t, result.Updated)

	m, _, err := store.matches.GetByOsuMatchID(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, match.StatusVerified, m.VerificationStatus)
	assert.Equal(t, match.SourceMatchVerifier, *m.VerificationSource)
}

func TestMatchService_SubmitBatch_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestStore().matchService()

	cases := map[string]func(*SubmitBatchInput){
		"empty ids":     func(in *SubmitBatchInput) { in.OsuMatchIDs = nil },
		"negative id":   func(in *SubmitBatchInput) { in.OsuMatchIDs = []int64{1, -2} },
		"blank name":    func(in *SubmitBatchInput) { in.Tournament.Name = "  " },
		"bad mode":      func(in *SubmitBatchInput) { in.Tournament.Mode = gamemode.Mode(4) },
		"team size":     func(in *SubmitBatchInput) { in.Tournament.TeamSize = 0 },
		"rank boundary": func(in *SubmitBatchInput) { in.Tournament.RankRangeLowerBound = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := owcInput(1)
			mutate(&input)
			_, err := svc.SubmitBatch(context.Background(), input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	input := owcInput(1)
	input.Verified = true
	_, err := svc.SubmitBatch(context.Background(), input)
	require.ErrorIs(t, err, ErrForbidden)
}

type failingMatchRepo struct {
	*memory.MatchRepository
}

func (failingMatchRepo) ApplySubmission(context.Context, match.Submission) (match.SubmissionResult, error) {
	return match.SubmissionResult{}, errors.New("connection reset")
}

func TestMatchService_SubmitBatch_WrapsPersistenceFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	svc := NewMatchService(failingMatchRepo{store.matches}, store.tournaments, store.duplicates, store.players, store.users)

	_, err := svc.SubmitBatch(context.Background(), owcInput(1))
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "connection reset")
}

func seedDuplicates(t *testing.T, store testStore) (root match.Match, suspects []match.Match) {
	t.Helper()

	ctx := context.Background()
	var err error
	root, err = store.matches.AddMatch(ctx, match.Match{MatchID: 900, TournamentID: 1, Name: "OWC: (A) vs (B)"})
	require.NoError(t, err)
	for _, osuID := range []int64{901, 902} {
		s, err := store.matches.AddMatch(ctx, match.Match{MatchID: osuID, TournamentID: 1, Name: "OWC: (A) vs (B)"})
		require.NoError(t, err)
		_, err = store.duplicates.Create(ctx, duplicate.XRef{MatchID: s.ID, SuspectedDuplicateOf: root.ID})
		require.NoError(t, err)
		suspects = append(suspects, s)
	}
	return root, suspects
}

func TestMatchService_VerifyDuplicate_ConfirmedMergesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	metrics := &recordingMetrics{}
	svc := store.matchService(WithMatchMetrics(metrics))
	root, suspects := seedDuplicates(t, store)

	result, err := svc.VerifyDuplicate(ctx, root.ID, submitter(user.RoleMatchVerifier), true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Marked)
	require.NotNil(t, result.Merge)
	assert.Equal(t, 2, result.Merge.Absorbed)

	again, err := svc.VerifyDuplicate(ctx, root.ID, submitter(user.RoleMatchVerifier), true)
	require.NoError(t, err)
	assert.Zero(t, again.Merge.Absorbed)
	assert.Equal(t, []bool{true, true}, metrics.verdicts)

	for _, s := range suspects {
		m, _, err := store.matches.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, m.IsMergedDuplicate)
	}
}

func TestMatchService_VerifyDuplicate_DeniedKeepsMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()
	root, suspects := seedDuplicates(t, store)

	result, err := svc.VerifyDuplicate(ctx, root.ID, submitter(user.RoleAdmin), false)
	require.NoError(t, err)
	assert.Nil(t, result.Merge)

	m, _, err := store.matches.GetByID(ctx, suspects[0].ID)
	require.NoError(t, err)
	assert.False(t, m.IsMergedDuplicate)

	xrefs, err := store.duplicates.ListByRoot(ctx, root.ID)
	require.NoError(t, err)
	for _, x := range xrefs {
		assert.True(t, x.Denied())
	}
}

func TestMatchService_VerifyDuplicate_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	_, err := svc.VerifyDuplicate(ctx, 404, submitter(user.RoleAdmin), true)
	require.ErrorIs(t, err, ErrNotFound)

	lonely, err := store.matches.AddMatch(ctx, match.Match{MatchID: 1, TournamentID: 1})
	require.NoError(t, err)
	_, err = svc.VerifyDuplicate(ctx, lonely.ID, submitter(user.RoleAdmin), true)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.VerifyDuplicate(ctx, lonely.ID, submitter(user.RoleUser), true)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestMatchService_ListDuplicates_ResolvesVerifier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()
	root, _ := seedDuplicates(t, store)

	p, err := store.players.Create(ctx, player.Player{OsuID: 3, Username: "Toy"})
	require.NoError(t, err)
	_, err = store.users.Create(ctx, user.User{ID: 77, PlayerID: &p.ID})
	require.NoError(t, err)
	_, err = store.duplicates.MarkVerified(ctx, root.ID, 77, false)
	require.NoError(t, err)

	collections, err := svc.ListDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, root.ID, collections[0].Root.ID)
	require.Len(t, collections[0].Suspects, 2)
	assert.Equal(t, int64(901), collections[0].Suspects[0].OsuMatchID)
	assert.Equal(t, "Toy", collections[0].Suspects[0].VerifierUsername)
	require.NotNil(t, collections[0].Suspects[0].Confirmed)
	assert.False(t, *collections[0].Suspects[0].Confirmed)
}

func TestMatchService_SetVerificationStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	_, err := store.matches.AddMatch(ctx, match.Match{MatchID: 42, TournamentID: 1})
	require.NoError(t, err)

	updated, err := svc.SetVerificationStatus(ctx, 42, match.StatusVerified, submitter(user.RoleSystem))
	require.NoError(t, err)
	assert.Equal(t, match.StatusVerified, updated.VerificationStatus)
	assert.Equal(t, match.SourceSystem, *updated.VerificationSource)

	_, err = svc.SetVerificationStatus(ctx, 42, match.StatusRejected, submitter(user.RoleSystem))
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SetVerificationStatus(ctx, 43, match.StatusRejected, submitter(user.RoleSystem))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMatchService_RefreshAutomationChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	_, err := store.matches.AddMatch(ctx, match.Match{MatchID: 1, TournamentID: 1, VerificationStatus: match.StatusRejected})
	require.NoError(t, err)
	_, err = store.matches.AddMatch(ctx, match.Match{MatchID: 2, TournamentID: 1})
	require.NoError(t, err)

	_, err = svc.RefreshAutomationChecks(ctx, submitter(user.RoleMatchVerifier), false)
	require.ErrorIs(t, err, ErrForbidden)

	affected, err := svc.RefreshAutomationChecks(ctx, submitter(user.RoleAdmin), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestMatchService_ListForPlayer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore()
	svc := store.matchService()

	p, err := store.players.Create(ctx, player.Player{OsuID: 4787150})
	require.NoError(t, err)

	late := testNow
	early := testNow.Add(-24 * time.Hour)
	a, err := store.matches.AddMatch(ctx, match.Match{MatchID: 1, TournamentID: 1, StartTime: &late})
	require.NoError(t, err)
	b, err := store.matches.AddMatch(ctx, match.Match{MatchID: 2, TournamentID: 1, StartTime: &early})
	require.NoError(t, err)
	for _, m := range []match.Match{a, b} {
		_, err = store.matches.AddScore(ctx, match.Score{MatchID: m.ID, PlayerID: p.ID})
		require.NoError(t, err)
	}

	items, err := svc.ListForPlayer(ctx, 4787150)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].MatchID)

	_, err = svc.ListForPlayer(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	osuID, err := svc.GetOsuMatchIDByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), osuID)
}

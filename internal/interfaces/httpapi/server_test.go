package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

var routerNow = time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)

type stubVerifier map[string]user.Principal

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := s[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: invalid token", usecase.ErrUnauthorized)
	}
	return p, nil
}

type routerFixture struct {
	router  http.Handler
	players *memory.PlayerRepository
	users   *memory.UserRepository
	matches *memory.MatchRepository
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()

	db := memory.NewDatabase().WithClock(func() time.Time { return routerNow })
	matches := memory.NewMatchRepository(db)
	tournaments := memory.NewTournamentRepository(db)
	duplicates := memory.NewDuplicateRepository(db)
	players := memory.NewPlayerRepository(db)
	ratings := memory.NewRatingRepository(db)
	users := memory.NewUserRepository(db)

	matchService := usecase.NewMatchService(matches, tournaments, duplicates, players, users,
		usecase.WithMatchClock(func() time.Time { return routerNow }),
		usecase.WithMatchLogger(logging.NewNop()),
	)
	handler := NewHandler(
		matchService,
		usecase.NewPlayerService(players, ratings, users),
		usecase.NewRatingService(ratings, players),
		usecase.NewUserService(users, players, ratings, matchService),
		logging.NewNop(),
	)

	verifier := stubVerifier{
		"user-token":     {UserID: 1, Roles: user.NewRoleSet(user.RoleUser)},
		"verifier-token": {UserID: 2, Roles: user.NewRoleSet(user.RoleUser, user.RoleMatchVerifier)},
		"admin-token":    {UserID: 3, Roles: user.NewRoleSet(user.RoleUser, user.RoleAdmin)},
	}

	return routerFixture{
		router: NewRouter(RouterConfig{
			Handler:            handler,
			Verifier:           verifier,
			Logger:             logging.NewNop(),
			CORSAllowedOrigins: []string{"*"},
			Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("otr_up 1\n"))
			}),
		}),
		players: players,
		users:   users,
		matches: matches,
	}
}

func (f routerFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body %s: %v", rec.Body.String(), err)
	}
	if err := sonic.Unmarshal(envelope.Data, target); err != nil {
		t.Fatalf("decode data %s: %v", envelope.Data, err)
	}
}

const batchBody = `{"tournament_name":"OWC 2024","abbreviation":"OWC","rank_range_lower_bound":1,"team_size":4,"mode":0,"ids":[111,112]}`

func TestRouter_SystemRoutes(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(t, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "otr_up") {
		t.Fatalf("metrics: unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/me", "bogus", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestRouter_RoleGateReturnsForbidden(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/matches/refresh/AutomationChecks/invalid", "user-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/matches/refresh/AutomationChecks/invalid", "admin-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_SubmitMatchBatch(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/matches/batch?verified=true", "user-token", batchBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for verified submission without role, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/matches/batch", "user-token", batchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out submitBatchDTO
	decodeData(t, rec, &out)
	if out.Inserted != 2 || out.Status != match.StatusPendingVerification.String() {
		t.Fatalf("unexpected submit result %+v", out)
	}

	rec = f.do(t, http.MethodPost, "/api/matches/batch", "user-token", batchBody)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate tournament, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/matches/batch?verified=true", "verifier-token", batchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected verified resubmission to pass, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &out)
	if out.Updated != 2 || out.Inserted != 0 {
		t.Fatalf("expected both matches promoted, got %+v", out)
	}
}

func TestRouter_SubmitMatchBatch_RejectsBadPayload(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/matches/batch", "user-token", `{"tournament_name":"x","ids":[1],"unknown":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/matches/batch", "user-token", `{"tournament_name":"x","rank_range_lower_bound":1,"team_size":1,"ids":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty ids, got %d", rec.Code)
	}
}

func TestRouter_MatchLookups(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	m, err := f.matches.AddMatch(ctx, match.Match{MatchID: 98765, TournamentID: 1, Mode: gamemode.Standard})
	if err != nil {
		t.Fatalf("add match: %v", err)
	}
	p, err := f.players.Create(ctx, player.Player{OsuID: 4787150, Username: "Vaxei"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := f.matches.AddScore(ctx, match.Score{MatchID: m.ID, PlayerID: p.ID}); err != nil {
		t.Fatalf("add score: %v", err)
	}

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d/osuid", m.ID), "admin-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("osuid lookup: expected 200, got %d", rec.Code)
	}
	var osuID int64
	decodeData(t, rec, &osuID)
	if osuID != 98765 {
		t.Fatalf("unexpected osu match id %d", osuID)
	}

	if rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d/other", m.ID), "admin-token", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown suffix, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/matches/player/4787150", "admin-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("player matches: expected 200, got %d", rec.Code)
	}
	var items []matchDTO
	decodeData(t, rec, &items)
	if len(items) != 1 || items[0].MatchID != 98765 {
		t.Fatalf("unexpected player matches %+v", items)
	}

	if rec := f.do(t, http.MethodGet, "/api/matches/98765", "user-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/matches/abc", "admin-token", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
}

func TestRouter_SetVerificationStatus(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	if _, err := f.matches.AddMatch(ctx, match.Match{MatchID: 500, TournamentID: 1, Mode: gamemode.Standard}); err != nil {
		t.Fatalf("add match: %v", err)
	}

	rec := f.do(t, http.MethodPut, "/api/matches/500/verification", "verifier-token", `{"status":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPut, "/api/matches/500/verification", "verifier-token", `{"status":2}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 leaving a terminal status, got %d", rec.Code)
	}
}

func TestRouter_Ratings(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	p, err := f.players.Create(ctx, player.Player{OsuID: 7562902, Username: "mrekk"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	path := fmt.Sprintf("/api/ratings/%d/update", p.ID)
	mismatch := fmt.Sprintf(`{"player_id":%d,"mode":0,"mu":1500,"sigma":200}`, p.ID+1)
	if rec := f.do(t, http.MethodPut, path, "admin-token", mismatch); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on path/body mismatch, got %d", rec.Code)
	}
	body := fmt.Sprintf(`{"player_id":%d,"mode":0,"mu":1500,"sigma":200}`, p.ID)
	if rec := f.do(t, http.MethodPut, path, "user-token", body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, path, "admin-token", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	batch := fmt.Sprintf(`[{"player_id":%d,"mode":1,"mu":1200,"sigma":250},{"player_id":%d,"mode":0,"mu":1550,"sigma":190}]`, p.ID, p.ID)
	rec := f.do(t, http.MethodPost, "/api/ratings/batch", "admin-token", batch)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/ratings/7562902", "user-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var ratings []ratingDTO
	decodeData(t, rec, &ratings)
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings, got %d", len(ratings))
	}

	rec = f.do(t, http.MethodGet, "/api/ratings/7562902/history?mode=osu", "user-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var history []ratingHistoryDTO
	decodeData(t, rec, &history)
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows for standard, got %d", len(history))
	}
}

func TestRouter_Me(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	p, err := f.players.Create(ctx, player.Player{OsuID: 2558286, Username: "Toy", Country: "AU"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := f.users.Create(ctx, user.User{ID: 2, PlayerID: &p.ID, Roles: user.NewRoleSet(user.RoleUser, user.RoleMatchVerifier)}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "verifier-token"})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var info userInfoDTO
	decodeData(t, rec, &info)
	if info.OsuID != 2558286 || info.Username != "Toy" {
		t.Fatalf("unexpected me payload %+v", info)
	}

	rec = f.do(t, http.MethodGet, "/api/me/stats?mode=taiko&dateMin=2025-01-01", "verifier-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/me/stats?mode=9", "verifier-token", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestAccessToken_Sources(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	if got := accessToken(req); got != "abc" {
		t.Fatalf("bearer: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "raw-token")
	if got := accessToken(req); got != "raw-token" {
		t.Fatalf("raw: got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	if got := accessToken(req); got != "cookie-token" {
		t.Fatalf("cookie should win, got %q", got)
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRouter_RequestID(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-1" {
		t.Fatalf("expected inbound request id echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "bad id with spaces")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	got := rec.Header().Get(RequestIDHeader)
	if got == "" || got == "bad id with spaces" {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

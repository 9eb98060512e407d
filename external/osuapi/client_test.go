package osuapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/resilience"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

func newTestClient(baseURL string, retries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:           baseURL,
		APIKey:            "secret-key",
		MaxRetries:        retries,
		RequestsPerMinute: 60000,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})
}

func TestClient_GetUser(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("u") != "4787150" || q.Get("m") != "1" || q.Get("type") != "id" || q.Get("k") != "secret-key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"user_id":"4787150","username":"Vaxei","country":"us","pp_rank":"123"}]`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL, 0).GetUser(context.Background(), 4787150, gamemode.Taiko)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user, got nil")
	}
	if user.Username != "Vaxei" || user.Country != "US" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Rank == nil || *user.Rank != 123 {
		t.Fatalf("expected rank=123, got=%v", user.Rank)
	}
}

func TestClient_GetUser_EmptyMeansRestricted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL, 0).GetUser(context.Background(), 1, gamemode.Standard)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestClient_GetUser_NullRank(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"user_id":"5","username":"inactive","country":"DE","pp_rank":null}]`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL, 0).GetUser(context.Background(), 5, gamemode.Mania)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user.Rank != nil {
		t.Fatalf("expected nil rank, got=%d", *user.Rank)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"user_id":"9","username":"ok","country":"PL","pp_rank":"1"}]`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL, 1).GetUser(context.Background(), 9, gamemode.Standard)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user == nil || user.Username != "ok" {
		t.Fatalf("unexpected user %+v", user)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got=%d", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Please provide a valid API key."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).GetUser(context.Background(), 9, gamemode.Standard)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got=%d", got)
	}
}

func TestClient_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	for i := 0; i < 2; i++ {
		if _, err := client.GetUser(context.Background(), 9, gamemode.Standard); err == nil {
			t.Fatalf("expected error on attempt %d", i)
		}
	}

	_, err := client.GetUser(context.Background(), 9, gamemode.Standard)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got=%v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected open circuit to skip the request, calls=%d", got)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://osu.ppy.sh/api/get_user?k=abc&u=1": dial tcp`, "")
	want := `Get "https://osu.ppy.sh/api/get_user?k=REDACTED&u=1": dial tcp`
	if got != want {
		t.Fatalf("unexpected sanitized text\n got=%s\nwant=%s", got, want)
	}

	if got := redactAPIURL("https://osu.ppy.sh/api/get_user?k=abc&u=1"); got != "https://osu.ppy.sh/api/get_user?k=REDACTED&u=1" {
		t.Fatalf("unexpected redacted url %s", got)
	}
}

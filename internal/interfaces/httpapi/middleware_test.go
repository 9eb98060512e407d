package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		method          string
		origin          string
		wantCode        int
		wantOrigin      string
		wantCredentials string
	}{
		{name: "listed origin gets credentials", allowed: []string{"https://otr.stagec.xyz"}, method: http.MethodGet, origin: "https://otr.stagec.xyz", wantCode: http.StatusOK, wantOrigin: "https://otr.stagec.xyz", wantCredentials: "true"},
		{name: "wildcard preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://otr.stagec.xyz", wantCode: http.StatusNoContent, wantOrigin: "*"},
		{name: "unlisted origin", allowed: []string{"https://allowed.example.com"}, method: http.MethodGet, origin: "https://not-allowed.example.com", wantCode: http.StatusOK},
		{name: "no origin header", allowed: []string{"*"}, method: http.MethodGet, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/matches/batch", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status=%d want=%d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow-origin=%q want=%q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Fatalf("allow-credentials=%q want=%q", got, tt.wantCredentials)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Expose-Headers") != RequestIDHeader {
				t.Fatalf("expected %s to be exposed", RequestIDHeader)
			}
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	cases := map[string]bool{
		"/healthz":           false,
		" /healthz ":         false,
		"/livez":             false,
		"/metrics":           false,
		"/api/matches/batch": true,
		"/api/me":            true,
		"/":                  true,
	}
	for path, want := range cases {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", path, got, want)
		}
	}
}

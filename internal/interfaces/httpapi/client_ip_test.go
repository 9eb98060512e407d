package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Real-IP": "10.0.0.1"}, remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "left-most forwarded hop", headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"}, remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "skips garbage hop", headers: map[string]string{"X-Forwarded-For": "unknown, 198.51.100.9"}, remote: "10.0.0.2:1234", want: "198.51.100.9"},
		{name: "remote addr fallback", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "ipv4 mapped ipv6", remote: "[::ffff:192.0.2.11]:80", want: "192.0.2.11"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/me", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := resolveClientIP(req); got != tt.want {
				t.Fatalf("resolveClientIP()=%q want=%q", got, tt.want)
			}
		})
	}
}

package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardedHeaders are consulted in order before falling back to RemoteAddr.
var forwardedHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// resolveClientIP returns the originating client address for request logs.
// For X-Forwarded-For the left-most parseable hop wins.
func resolveClientIP(r *http.Request) string {
	for _, header := range forwardedHeaders {
		for _, hop := range strings.Split(r.Header.Get(header), ",") {
			if addr, ok := parseAddr(hop); ok {
				return addr.String()
			}
		}
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return ""
}

func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

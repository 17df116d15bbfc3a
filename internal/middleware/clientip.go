package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const clientIPContextKey contextKey = "client_ip"

// TrustedProxies resolves the client address once per request. Forwarding
// headers are honored only when the socket peer falls inside proxies; the
// X-Forwarded-For chain is then walked from the right, skipping trusted hops.
func TrustedProxies(proxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, proxies)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPContextKey, ip)))
		})
	}
}

// ClientIP returns the address TrustedProxies resolved, or the socket peer
// when the middleware did not run.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPContextKey).(string); ok && ip != "" {
		return ip
	}
	return peerIP(r)
}

func resolveClientIP(r *http.Request, proxies []netip.Prefix) string {
	peer := peerIP(r)
	if !trusted(peer, proxies) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !trusted(hop, proxies) || i == 0 {
				return hop
			}
		}
		return peer
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}
	return peer
}

func trusted(ip string, proxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerIP(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote == "" {
		return "unknown"
	}
	return remote
}

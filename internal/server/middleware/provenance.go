package middleware

import (
	"context"
	"net"
	"net/http"
)

// Provenance stores the client address and user agent in the request context.
// Chain it after chi's RealIP so proxied addresses are honoured.
func Provenance() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ContextKeyIPAddress, clientIP(r.RemoteAddr))
			ctx = context.WithValue(ctx, ContextKeyUserAgent, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

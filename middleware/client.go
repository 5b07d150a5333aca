package middleware

import (
	"net"
	"net/http"
	"strings"

	tokengate "github.com/tokengate/tokengate"
)

// ClientInfo records the caller's IP address and User-Agent on the
// request context using [tokengate.WithClientIP] and
// [tokengate.WithUserAgent]. When trustForwardedFor is set, the first
// entry of X-Forwarded-For wins over the socket address; enable it only
// behind a proxy that strips the header from client requests.
func ClientInfo(trustForwardedFor bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tokengate.WithClientIP(r.Context(), clientIP(r, trustForwardedFor))
			ctx = tokengate.WithUserAgent(ctx, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

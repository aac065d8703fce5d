package middleware

import (
	"net"
	"net/http"

	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/ratelimit"

	"go.uber.org/zap"
)

// RateLimitOptions configures the rate limiting middleware
type RateLimitOptions struct {
	Limiter ratelimit.Limiter
	// RPS and Burst are reported back in the error details
	RPS    float64
	Burst  int
	Errors *apperrors.ErrorHandler
	Logger *zap.Logger
}

// RateLimit rejects requests from clients that exceed their allowance.
// Clients are keyed by remote IP, so chi's RealIP should run first.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			allowed, err := opts.Limiter.Allow(r.Context(), key)
			if err != nil {
				opts.Logger.Warn("Rate limiter error", zap.String("client", key), zap.Error(err))
			}
			if !allowed {
				opts.Errors.Handle(w, r, apperrors.NewRateLimitError(opts.RPS, opts.Burst))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package limiter

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket rate limiter with debug logging.
type Limiter struct {
	logger *zap.Logger
	l      *rate.Limiter
}

func New(logger *zap.Logger, limit, burst int) *Limiter {
	return &Limiter{logger: logger, l: rate.NewLimiter(rate.Limit(limit), burst)}
}

// Limit reports whether the current request should be rejected.
func (l *Limiter) Limit() bool {
	allowed := l.l.Allow()
	l.logger.Debug("Rate limit check",
		zap.Bool("allowed", allowed),
		zap.Float64("limit", float64(l.l.Limit())),
		zap.Int("burst", l.l.Burst()),
	)
	return !allowed
}

// Middleware rejects requests over the configured rate with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if l.Limit() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

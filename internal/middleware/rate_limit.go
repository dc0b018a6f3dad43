package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/ratelimit"
)

// RateLimitMiddleware ограничивает частоту запросов с одного IP.
// Ошибка ограничителя не блокирует запрос.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, scope string, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":ip:" + clientIP(r)

			exceeded, err := limiter.CheckRateLimit(r.Context(), key, limit, window)
			if err != nil {
				log.Error("Rate limiter error, allowing request",
					logger.CtxField(r.Context()),
					logger.Error(err),
					logger.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			if exceeded {
				log.Warn("Rate limit exceeded",
					logger.CtxField(r.Context()),
					logger.String("key", key),
					logger.Int("limit", limit),
					logger.Duration("window", window),
					logger.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", window.String())
				errors.WriteHTTP(w, errors.New(errors.ErrRateLimited, "too many requests").WithDetails(scope))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP первый адрес из X-Forwarded-For, затем X-Real-IP, затем адрес соединения
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/config"
	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

const rateWindow = time.Minute

// RateLimiter throttles requests per client IP before authentication and per
// business after it. Whitelisted IPs and paths bypass both limits.
type RateLimiter struct {
	enabled    bool
	logger     *zap.Logger
	byIP       func(http.Handler) http.Handler
	byBusiness func(http.Handler) http.Handler

	exemptIPs      map[string]struct{}
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled:     cfg.Enabled,
		logger:      logger,
		exemptIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]struct{}, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	for _, p := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			rl.exemptPrefixes = append(rl.exemptPrefixes, prefix)
			continue
		}
		rl.exemptPaths[p] = struct{}{}
	}

	perBusiness := cfg.RequestsPerMinuteBusiness
	if perBusiness <= 0 {
		perBusiness = cfg.RequestsPerMinute
	}
	rl.byIP = rl.limiter(cfg.RequestsPerMinute, func(r *http.Request) (string, error) {
		return "ip:" + clientIP(r), nil
	})
	rl.byBusiness = rl.limiter(perBusiness, func(r *http.Request) (string, error) {
		if id, ok := auth.BusinessIDFromContext(r.Context()); ok {
			return "business:" + id.String(), nil
		}
		return "ip:" + clientIP(r), nil
	})

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("requests_per_minute_business", perBusiness),
	)
	return rl
}

func (rl *RateLimiter) limiter(limit int, key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(limit, rateWindow,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(rl.reject),
	)
}

// LimitByIP limits requests per client IP. Mount it before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return rl.wrap(rl.byIP, next)
}

// LimitByBusiness limits requests per business, falling back to the client IP
// for unauthenticated requests. Mount it after authentication.
func (rl *RateLimiter) LimitByBusiness(next http.Handler) http.Handler {
	return rl.wrap(rl.byBusiness, next)
}

func (rl *RateLimiter) wrap(limit func(http.Handler) http.Handler, next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	limited := limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if _, ok := rl.exemptIPs[clientIP(r)]; ok {
		return true
	}
	if _, ok := rl.exemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range rl.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)),
	}
	if id, ok := auth.BusinessIDFromContext(r.Context()); ok {
		fields = append(fields, zap.String("business_id", id.String()))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
	writeProblem(w, http.StatusTooManyRequests, domain.ErrorTypeRateLimited, "Too many requests. Please try again later.")
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeProblem(w http.ResponseWriter, status int, errorType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

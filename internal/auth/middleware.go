package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/config"
	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemUserID identifies requests authenticated with the API key
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

var (
	errMissingCredentials = errors.New("missing authorization header")
	errMalformedHeader    = errors.New("invalid authorization header format")
	errInvalidAPIKey      = errors.New("invalid API key")
	errMissingBusiness    = errors.New("X-Business-ID header required")
)

// Middleware authenticates requests with either the service API key or a bearer JWT
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	logger       *zap.Logger
}

func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		apiKey:       cfg.Auth.APIKey,
		logger:       logger,
	}
}

// Authenticate rejects unauthenticated requests with 401 and otherwise puts
// the caller's UserContext on the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authType := "jwt"
		resolve := m.bearerUser
		if r.Header.Get("x-api-key") != "" {
			authType = "api_key"
			resolve = m.apiKeyUser
		}

		user, err := resolve(r)
		if err != nil {
			m.logger.Warn("authentication failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", authType),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			unauthorized(w, err)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("auth_type", authType),
			zap.String("user_id", user.UserID.String()),
			zap.String("business_id", user.BusinessID.String()),
			zap.Strings("roles", user.RolesAsStrings()),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), user)))
	})
}

// apiKeyUser authenticates service callers, who act for the business named in X-Business-ID
func (m *Middleware) apiKeyUser(r *http.Request) (*UserContext, error) {
	if !m.validateAPIKey(r.Header.Get("x-api-key")) {
		return nil, errInvalidAPIKey
	}
	businessID, err := uuid.Parse(r.Header.Get("X-Business-ID"))
	if err != nil {
		return nil, errMissingBusiness
	}
	return &UserContext{
		UserID:      SystemUserID,
		BusinessID:  businessID,
		DisplayName: "System",
		Roles:       []Role{RoleAPIService},
	}, nil
}

func (m *Middleware) bearerUser(r *http.Request) (*UserContext, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errMissingCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, errMalformedHeader
	}
	user, err := m.jwtValidator.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return user, nil
}

// validateAPIKey compares in constant time
func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="estimates"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeUnauthorized,
		Title:  http.StatusText(http.StatusUnauthorized),
		Status: http.StatusUnauthorized,
		Detail: err.Error(),
	})
}

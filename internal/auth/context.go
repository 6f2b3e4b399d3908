package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Role is a user's role within a business
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleEstimator  Role = "estimator"
	RoleViewer     Role = "viewer"
	RoleAPIService Role = "api_service"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	BusinessID  uuid.UUID
	DisplayName string
	Email       string
	Roles       []Role
}

type contextKey string

const (
	userContextKey    contextKey = "userContext"
	callerRecorderKey contextKey = "callerRecorder"
)

// CallerRecorder captures the caller authenticated further down a middleware
// chain, for middleware that runs before authentication (access logs).
type CallerRecorder struct {
	User *UserContext
}

// WithCallerRecorder returns a context whose authenticated caller will be
// recorded into the returned recorder
func WithCallerRecorder(ctx context.Context) (context.Context, *CallerRecorder) {
	rec := &CallerRecorder{}
	return context.WithValue(ctx, callerRecorderKey, rec), rec
}

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	if rec, ok := ctx.Value(callerRecorderKey).(*CallerRecorder); ok {
		rec.User = user
	}
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// BusinessIDFromContext returns the business the request acts for
func BusinessIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := FromContext(ctx)
	if !ok || user.BusinessID == uuid.Nil {
		return uuid.Nil, false
	}
	return user.BusinessID, true
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// CanEditEstimates checks if the user may create and change estimates
func (u *UserContext) CanEditEstimates() bool {
	return u.HasAnyRole(RoleOwner, RoleAdmin, RoleEstimator, RoleAPIService)
}

// CanManageSettings checks if the user may change business settings
func (u *UserContext) CanManageSettings() bool {
	return u.HasAnyRole(RoleOwner, RoleAdmin, RoleAPIService)
}

// CanApproveEstimates checks if the user may approve or decline submitted estimates
func (u *UserContext) CanApproveEstimates() bool {
	return u.HasAnyRole(RoleOwner, RoleAdmin, RoleAPIService)
}

// RolesAsStrings returns the user's roles as strings
func (u *UserContext) RolesAsStrings() []string {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return roles
}

// ParseRoles converts raw role claims into known roles, skipping unknown values
func ParseRoles(raw []string) []Role {
	var roles []Role
	for _, r := range raw {
		switch role := Role(strings.ToLower(strings.TrimSpace(r))); role {
		case RoleOwner, RoleAdmin, RoleEstimator, RoleViewer, RoleAPIService:
			roles = append(roles, role)
		}
	}
	return roles
}

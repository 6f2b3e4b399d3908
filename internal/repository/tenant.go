package repository

import (
	"context"
	"strings"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPageSize caps list queries
const MaxPageSize = 200

// SortOrder is a sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig is a requested ordering by API field name
type SortConfig struct {
	Field string
	Order SortOrder
}

// DefaultSortConfig orders by most recently updated first
func DefaultSortConfig() SortConfig {
	return SortConfig{Field: "updatedAt", Order: SortOrderDesc}
}

// ParseSortOrder accepts "asc" in any case; everything else is descending
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortOrderAsc)) {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause maps config.Field through the whitelist fieldMap, falling
// back to defaultColumn, and appends id as a tie-breaker so pages are stable
// when the sort column has duplicates.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}
	direction := "DESC"
	if config.Order == SortOrderAsc {
		direction = "ASC"
	}
	return column + " " + direction + ", id " + direction
}

// ApplyBusinessScope restricts a query to the business the request acts for.
// A context without a business matches no rows.
func ApplyBusinessScope(ctx context.Context, query *gorm.DB) *gorm.DB {
	return ApplyBusinessScopeWithColumn(ctx, query, "business_id")
}

// ApplyBusinessScopeWithColumn applies the business scope using a specific column name
func ApplyBusinessScopeWithColumn(ctx context.Context, query *gorm.DB, columnName string) *gorm.DB {
	businessID, ok := auth.BusinessIDFromContext(ctx)
	if !ok {
		return query.Where(columnName+" = ?", uuid.Nil)
	}
	return query.Where(columnName+" = ?", businessID)
}

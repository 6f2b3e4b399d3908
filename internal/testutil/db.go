package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/database"
	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// ContextWithUser returns a context acting for businessID with the given roles
func ContextWithUser(businessID uuid.UUID, roles ...auth.Role) context.Context {
	if len(roles) == 0 {
		roles = []auth.Role{auth.RoleOwner}
	}
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		BusinessID:  businessID,
		DisplayName: "Test User",
		Email:       "test@example.com",
		Roles:       roles,
	})
}

// CreateTestSettings stores business settings
func CreateTestSettings(t *testing.T, db *gorm.DB, businessID uuid.UUID, mutate ...func(*domain.BusinessSettings)) *domain.BusinessSettings {
	t.Helper()
	settings := &domain.BusinessSettings{
		BusinessID:          businessID,
		TaxRate:             0.08,
		MinimumProfitMargin: 0.20,
		SubscriptionType:    estimate.SubscriptionEnterprise,
	}
	for _, m := range mutate {
		m(settings)
	}
	require.NoError(t, db.Create(settings).Error)
	return settings
}

// CreateTestEstimate stores an estimate with the given line items
func CreateTestEstimate(t *testing.T, db *gorm.DB, businessID uuid.UUID, number string, items ...domain.LineItem) *domain.Estimate {
	t.Helper()
	e := &domain.Estimate{
		BusinessID: businessID,
		Number:     number,
		Title:      "Estimate " + number,
		Status:     domain.EstimateStatusDraft,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(e).Error)

	for i := range items {
		items[i].EstimateID = e.ID
		items[i].DisplayOrder = i
		require.NoError(t, db.Create(&items[i]).Error)
	}
	e.LineItems = items
	return e
}

// MaterialItem returns an unsaved taxable material line
func MaterialItem(name string, qty, unitPrice, costPrice float64) domain.LineItem {
	return domain.LineItem{
		Name:         name,
		Type:         estimate.TypeMaterial,
		BaseQuantity: qty,
		UnitPrice:    unitPrice,
		CostPrice:    costPrice,
		Taxable:      true,
	}
}

// LaborItem returns an unsaved non-taxable labor line
func LaborItem(name string, hours, rate, costRate float64) domain.LineItem {
	return domain.LineItem{
		Name:         name,
		Type:         estimate.TypeLabor,
		BaseQuantity: hours,
		UnitPrice:    rate,
		CostPrice:    costRate,
		Hours:        hours,
	}
}

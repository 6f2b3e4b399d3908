package repository

import (
	"context"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessSettingsRepository struct {
	db *gorm.DB
}

func NewBusinessSettingsRepository(db *gorm.DB) *BusinessSettingsRepository {
	return &BusinessSettingsRepository{db: db}
}

// GetByBusiness returns the settings row of a business, or gorm.ErrRecordNotFound
func (r *BusinessSettingsRepository) GetByBusiness(ctx context.Context, businessID uuid.UUID) (*domain.BusinessSettings, error) {
	var settings domain.BusinessSettings
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert inserts the settings or overwrites the existing row of the same business
func (r *BusinessSettingsRepository) Upsert(ctx context.Context, settings *domain.BusinessSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.BusinessSettings
		result := tx.Where("business_id = ?", settings.BusinessID).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected > 0 {
			settings.ID = existing.ID
			settings.CreatedAt = existing.CreatedAt
			return tx.Save(settings).Error
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tax_rate",
				"minimum_profit_margin",
				"include_indirect_expense_in_estimates",
				"last_calculated_indirect_rate",
				"indirect_rate_calculated_at",
				"subscription_type",
				"updated_at",
			}),
		}).Create(settings).Error
	})
}

// ListBusinessIDs returns every business that has settings
func (r *BusinessSettingsRepository) ListBusinessIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.BusinessSettings{}).
		Order("business_id").
		Pluck("business_id", &ids).Error
	return ids, err
}

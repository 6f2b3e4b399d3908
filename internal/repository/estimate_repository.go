package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EstimateNumberPrefix prefixes every estimate number
const EstimateNumberPrefix = "EST"

// estimateSortFields maps API sort fields to columns
var estimateSortFields = map[string]string{
	"number":                "number",
	"title":                 "title",
	"customerName":          "customer_name",
	"status":                "status",
	"totalAfterAdjustments": "total_after_adjustments",
	"netMarginPct":          "net_margin_pct",
	"createdAt":             "created_at",
	"updatedAt":             "updated_at",
}

// cachedTotalsColumns are the columns written by UpdateCachedTotals
var cachedTotalsColumns = []string{
	"subtotal",
	"tax_amount",
	"total_after_adjustments",
	"estimated_labor_cost",
	"estimated_materials_cost",
	"estimated_hours",
	"gross_margin_pct",
	"net_margin_pct",
	"is_margin_error",
	"totals_calculated_at",
	"updated_at",
}

// EstimateFilters narrows estimate list queries
type EstimateFilters struct {
	Status *domain.EstimateStatus
	Search string
}

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *EstimateRepository) WithTx(tx *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: tx}
}

// Create inserts the estimate and any line items it carries
func (r *EstimateRepository) Create(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(estimate).Error; err != nil {
			return fmt.Errorf("failed to create estimate: %w", err)
		}
		for i := range estimate.LineItems {
			estimate.LineItems[i].EstimateID = estimate.ID
			if err := tx.Create(&estimate.LineItems[i]).Error; err != nil {
				return fmt.Errorf("failed to create line item: %w", err)
			}
		}
		return nil
	})
}

// GetByID loads an estimate of the current business with its ordered line items
func (r *EstimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	query := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		Where("id = ?", id)
	query = ApplyBusinessScope(ctx, query)
	if err := query.First(&estimate).Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

// Update saves the estimate header; line items are written through LineItemRepository
func (r *EstimateRepository) Update(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(estimate).Error
}

// UpdateCachedTotals writes only the cached totals columns
func (r *EstimateRepository) UpdateCachedTotals(ctx context.Context, estimate *domain.Estimate) error {
	estimate.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(estimate).
		Select(cachedTotalsColumns).
		Updates(estimate).Error
}

// Delete removes an estimate of the current business together with its line items
func (r *EstimateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := ApplyBusinessScope(ctx, tx.Where("id = ?", id))
		result := query.Delete(&domain.Estimate{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete estimate: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("estimate_id = ?", id).Delete(&domain.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete line items: %w", err)
		}
		return nil
	})
}

// List returns a page of estimates of the current business without line items
func (r *EstimateRepository) List(ctx context.Context, page, pageSize int, filters EstimateFilters, sort SortConfig) ([]domain.Estimate, int64, error) {
	var estimates []domain.Estimate
	var total int64

	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&domain.Estimate{})
	query = ApplyBusinessScope(ctx, query)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(number) LIKE ? OR LOWER(customer_name) LIKE ?",
			pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, estimateSortFields, "updated_at")
	offset := (page - 1) * pageSize
	err := query.Order(orderClause).Offset(offset).Limit(pageSize).Find(&estimates).Error

	return estimates, total, err
}

// NextNumber atomically reserves the next estimate number for a business, e.g. "EST-000042".
// The sequence row is created on first use; a concurrent first use waits on
// the row lock instead of failing on the primary key.
func (r *EstimateRepository) NextNumber(ctx context.Context, businessID uuid.UUID) (string, error) {
	var next int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.EstimateSequence{BusinessID: businessID, UpdatedAt: now}).Error; err != nil {
			return fmt.Errorf("failed to create estimate sequence: %w", err)
		}

		var seq domain.EstimateSequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_id = ?", businessID).
			First(&seq).Error; err != nil {
			return fmt.Errorf("failed to get estimate sequence: %w", err)
		}

		next = seq.LastSequence + 1
		if err := tx.Model(&domain.EstimateSequence{}).
			Where("business_id = ?", businessID).
			Updates(map[string]interface{}{
				"last_sequence": next,
				"updated_at":    now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update estimate sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%06d", EstimateNumberPrefix, next), nil
}

// ListDraftIDs returns the IDs of all draft estimates of a business
func (r *EstimateRepository) ListDraftIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("business_id = ? AND status = ?", businessID, domain.EstimateStatusDraft).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

package repository

import (
	"context"
	"fmt"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LineItemRepository struct {
	db *gorm.DB
}

func NewLineItemRepository(db *gorm.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LineItemRepository) WithTx(tx *gorm.DB) *LineItemRepository {
	return &LineItemRepository{db: tx}
}

func (r *LineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *LineItemRepository) Update(ctx context.Context, item *domain.LineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes a line item of the given estimate
func (r *LineItemRepository) Delete(ctx context.Context, estimateID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND estimate_id = ?", id, estimateID).
		Delete(&domain.LineItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetMaxDisplayOrder returns the highest display order in an estimate, or -1 when it has no items
func (r *LineItemRepository) GetMaxDisplayOrder(ctx context.Context, estimateID uuid.UUID) (int, error) {
	var maxOrder *int
	err := r.db.WithContext(ctx).
		Model(&domain.LineItem{}).
		Where("estimate_id = ?", estimateID).
		Select("MAX(display_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return -1, nil
	}
	return *maxOrder, nil
}

// UpdateDisplayOrders sets display_order to each ID's position in orderedIDs
func (r *LineItemRepository) UpdateDisplayOrders(ctx context.Context, estimateID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&domain.LineItem{}).
				Where("id = ? AND estimate_id = ?", id, estimateID).
				Update("display_order", i)
			if result.Error != nil {
				return fmt.Errorf("failed to update display order for item %s: %w", id, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("line item %s: %w", id, gorm.ErrRecordNotFound)
			}
		}
		return nil
	})
}

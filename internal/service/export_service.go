package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/FluxtonX/partner-sub002/internal/mapper"
	"github.com/FluxtonX/partner-sub002/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const exportContentType = "application/json"

// EstimateSnapshot is the document written by an export
type EstimateSnapshot struct {
	Estimate   domain.EstimateDTO         `json:"estimate"`
	Categories []estimate.CategorySummary `json:"categories"`
	ExportedAt string                     `json:"exportedAt"`
	ExportedBy string                     `json:"exportedBy,omitempty"`
}

// ExportService writes estimate snapshots to storage and reads them back
type ExportService struct {
	estimates *EstimateService
	storage   storage.Storage
	logger    *zap.Logger
}

func NewExportService(estimates *EstimateService, store storage.Storage, logger *zap.Logger) *ExportService {
	return &ExportService{
		estimates: estimates,
		storage:   store,
		logger:    logger,
	}
}

// ExportKeyPrefix is the storage prefix of all exports of a business
func ExportKeyPrefix(businessID uuid.UUID) string {
	return fmt.Sprintf("estimates/%s/", businessID)
}

// Export writes a JSON snapshot of the estimate with freshly computed totals
func (s *ExportService) Export(ctx context.Context, id uuid.UUID) (*domain.EstimateExportDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	e, settings, err := s.estimates.loadWithSettings(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshot := EstimateSnapshot{
		Estimate:   mapper.ToEstimateDTO(e, calculate(e, settings)),
		Categories: estimate.SummarizeByCategory(domain.CalculatorItems(e.LineItems)),
		ExportedAt: now.Format(time.RFC3339),
		ExportedBy: user.DisplayName,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate snapshot: %w", err)
	}

	key := fmt.Sprintf("%s%s/%s-%s.json", ExportKeyPrefix(e.BusinessID), e.ID, e.Number, now.Format("20060102T150405Z"))
	size, err := s.storage.Put(ctx, key, exportContentType, bytes.NewReader(data))
	if err != nil {
		s.logger.Error("failed to store estimate export",
			zap.String("estimate_id", e.ID.String()),
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	s.logger.Info("estimate exported",
		zap.String("estimate_id", e.ID.String()),
		zap.String("key", key),
		zap.Int64("size", size),
	)

	return &domain.EstimateExportDTO{
		EstimateID:  e.ID,
		StoragePath: key,
		Size:        size,
		ExportedAt:  snapshot.ExportedAt,
	}, nil
}

// Download opens a stored export of the current business
func (s *ExportService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	cleaned, err := storage.CleanKey(key)
	if err != nil || !strings.HasPrefix(cleaned, ExportKeyPrefix(user.BusinessID)) {
		return nil, ErrExportNotFound
	}

	reader, err := s.storage.Download(ctx, cleaned)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to download export: %w", err)
	}
	return reader, nil
}

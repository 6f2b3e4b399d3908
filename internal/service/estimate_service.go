package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/FluxtonX/partner-sub002/internal/logger"
	"github.com/FluxtonX/partner-sub002/internal/mapper"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EstimateService owns estimate lifecycle and keeps cached totals in step with line items
type EstimateService struct {
	estimateRepo *repository.EstimateRepository
	itemRepo     *repository.LineItemRepository
	settingsRepo *repository.BusinessSettingsRepository
	logger       *zap.Logger
	db           *gorm.DB
}

func NewEstimateService(
	estimateRepo *repository.EstimateRepository,
	itemRepo *repository.LineItemRepository,
	settingsRepo *repository.BusinessSettingsRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *EstimateService {
	return &EstimateService{
		estimateRepo: estimateRepo,
		itemRepo:     itemRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
		db:           db,
	}
}

// RefreshSummary reports the outcome of a totals refresh
type RefreshSummary struct {
	Businesses int
	Estimates  int
	Failed     int
}

func (s *EstimateService) Create(ctx context.Context, req *domain.CreateEstimateRequest) (*domain.EstimateDTO, error) {
	user, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.loadSettings(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}

	number, err := s.estimateRepo.NextNumber(ctx, user.BusinessID)
	if err != nil {
		s.logger.Error("failed to reserve estimate number",
			zap.String("business_id", user.BusinessID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to generate estimate number: %w", err)
	}

	e := &domain.Estimate{
		BusinessID:        user.BusinessID,
		Number:            number,
		Title:             strings.TrimSpace(req.Title),
		CustomerName:      strings.TrimSpace(req.CustomerName),
		Notes:             req.Notes,
		Status:            domain.EstimateStatusDraft,
		OverallAdjustment: estimate.Finite(req.OverallAdjustment.Float64()),
		CreatedByID:       user.UserID.String(),
	}
	for i, in := range req.LineItems {
		var item domain.LineItem
		mapper.ApplyLineItemInput(&item, in.LineItemInput)
		item.DisplayOrder = i
		e.LineItems = append(e.LineItems, item)
	}

	result := calculate(e, settings)
	e.ApplyResult(result, time.Now().UTC())

	if err := s.estimateRepo.Create(ctx, e); err != nil {
		s.logger.Error("failed to create estimate", zap.String("number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to create estimate: %w", err)
	}

	s.logger.Info("estimate created",
		zap.String("estimate_id", e.ID.String()),
		zap.String("number", e.Number),
		zap.Int("line_items", len(e.LineItems)),
	)

	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

// GetByID returns the estimate with totals computed from its current items and settings
func (s *EstimateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	e, settings, err := s.loadWithSettings(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToEstimateDTO(e, calculate(e, settings))
	return &dto, nil
}

func (s *EstimateService) List(ctx context.Context, page, pageSize int, filters repository.EstimateFilters, sortConfig repository.SortConfig) (*domain.PaginatedResponse, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	estimates, total, err := s.estimateRepo.List(ctx, page, pageSize, filters, sortConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}

	dtos := make([]domain.EstimateSummaryDTO, len(estimates))
	for i := range estimates {
		dtos[i] = mapper.ToEstimateSummaryDTO(&estimates[i])
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update changes the header fields of a draft estimate
func (s *EstimateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateEstimateRequest) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	e.Title = strings.TrimSpace(req.Title)
	e.CustomerName = strings.TrimSpace(req.CustomerName)
	e.Notes = req.Notes
	e.OverallAdjustment = estimate.Finite(req.OverallAdjustment.Float64())

	result := calculate(e, settings)
	e.ApplyResult(result, time.Now().UTC())

	if err := s.estimateRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

// Delete removes a draft estimate
func (s *EstimateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireEditor(ctx); err != nil {
		return err
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !e.Status.IsEditable() {
		return fmt.Errorf("%w: cannot delete a %s estimate", ErrEstimateLocked, e.Status)
	}

	if err := s.estimateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete estimate: %w", err)
	}

	s.logger.Info("estimate deleted", zap.String("estimate_id", id.String()), zap.String("number", e.Number))
	return nil
}

func (s *EstimateService) AddLineItem(ctx context.Context, id uuid.UUID, req *domain.CreateLineItemRequest) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	item := domain.LineItem{EstimateID: e.ID}
	mapper.ApplyLineItemInput(&item, req.LineItemInput)
	if req.DisplayOrder > 0 {
		item.DisplayOrder = req.DisplayOrder
	} else {
		maxOrder, err := s.itemRepo.GetMaxDisplayOrder(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get display order: %w", err)
		}
		item.DisplayOrder = maxOrder + 1
	}

	var result estimate.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.itemRepo.WithTx(tx).Create(ctx, &item); err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
		e.LineItems = append(e.LineItems, item)
		result, err = s.persistTotals(ctx, tx, e, settings)
		return err
	})
	if err != nil {
		s.logger.Error("failed to add line item", zap.String("estimate_id", e.ID.String()), zap.Error(err))
		return nil, err
	}

	sortItems(e.LineItems)
	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

func (s *EstimateService) UpdateLineItem(ctx context.Context, id, itemID uuid.UUID, req *domain.UpdateLineItemRequest) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := findItem(e.LineItems, itemID)
	if idx < 0 {
		return nil, ErrLineItemNotFound
	}
	item := &e.LineItems[idx]
	mapper.ApplyLineItemInput(item, req.LineItemInput)
	if req.DisplayOrder != nil {
		item.DisplayOrder = *req.DisplayOrder
	}

	var result estimate.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.itemRepo.WithTx(tx).Update(ctx, item); err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}
		result, err = s.persistTotals(ctx, tx, e, settings)
		return err
	})
	if err != nil {
		s.logger.Error("failed to update line item",
			zap.String("estimate_id", e.ID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		return nil, err
	}

	sortItems(e.LineItems)
	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

func (s *EstimateService) RemoveLineItem(ctx context.Context, id, itemID uuid.UUID) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := findItem(e.LineItems, itemID)
	if idx < 0 {
		return nil, ErrLineItemNotFound
	}

	var result estimate.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.itemRepo.WithTx(tx).Delete(ctx, e.ID, itemID); err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}
		e.LineItems = append(e.LineItems[:idx], e.LineItems[idx+1:]...)
		result, err = s.persistTotals(ctx, tx, e, settings)
		return err
	})
	if err != nil {
		s.logger.Error("failed to remove line item",
			zap.String("estimate_id", e.ID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		return nil, err
	}

	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

// ReorderLineItems sets item order; orderedIDs must name every item of the estimate exactly once
func (s *EstimateService) ReorderLineItems(ctx context.Context, id uuid.UUID, req *domain.ReorderLineItemsRequest) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(req.OrderedIDs) != len(e.LineItems) {
		return nil, fmt.Errorf("%w: expected %d item ids, got %d", ErrInvalidInput, len(e.LineItems), len(req.OrderedIDs))
	}
	positions := make(map[uuid.UUID]int, len(req.OrderedIDs))
	for i, itemID := range req.OrderedIDs {
		if _, dup := positions[itemID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %s", ErrInvalidInput, itemID)
		}
		if findItem(e.LineItems, itemID) < 0 {
			return nil, fmt.Errorf("%w: item %s does not belong to this estimate", ErrInvalidInput, itemID)
		}
		positions[itemID] = i
	}

	if err := s.itemRepo.UpdateDisplayOrders(ctx, e.ID, req.OrderedIDs); err != nil {
		return nil, fmt.Errorf("failed to reorder line items: %w", err)
	}

	for i := range e.LineItems {
		e.LineItems[i].DisplayOrder = positions[e.LineItems[i].ID]
	}
	sortItems(e.LineItems)

	dto := mapper.ToEstimateDTO(e, calculate(e, settings))
	return &dto, nil
}

// Calculate previews totals for unsaved lines. Request settings take precedence over stored ones.
func (s *EstimateService) Calculate(ctx context.Context, req *domain.CalculateEstimateRequest) (*domain.CalculationDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	settings := mapper.ToCalculatorSettings(req.Settings)
	if settings == nil {
		stored, err := s.loadSettings(ctx, user.BusinessID)
		if err != nil {
			return nil, err
		}
		settings = stored.CalculatorSettings()
	}

	items := make([]estimate.LineItem, len(req.LineItems))
	for i, in := range req.LineItems {
		items[i] = mapper.ToCalculatorLineItem(in)
	}

	result := estimate.Calculate(items, req.OverallAdjustment.Float64(), settings)
	dto := mapper.ToCalculationDTO(items, result)
	return &dto, nil
}

// Submit moves a draft to submitted unless its net margin is below the business minimum
func (s *EstimateService) Submit(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	if _, err := requireEditor(ctx); err != nil {
		return nil, err
	}

	e, settings, err := s.loadWithSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.EstimateStatusDraft {
		return nil, fmt.Errorf("%w: cannot submit a %s estimate", ErrInvalidStatusTransition, e.Status)
	}
	if settings == nil {
		return nil, ErrSettingsNotConfigured
	}

	log := logger.WithEstimate(logger.ForContext(ctx, s.logger), e.ID.String(), e.Number)

	now := time.Now().UTC()
	result := calculate(e, settings)
	e.ApplyResult(result, now)

	if result.Profitability.IsMarginError {
		if err := s.estimateRepo.UpdateCachedTotals(ctx, e); err != nil {
			log.Warn("failed to cache totals for rejected submission", zap.Error(err))
		}
		log.Info("estimate submission blocked by margin gate",
			zap.Float64("net_margin_pct", result.Profitability.NetMarginPct),
			zap.Float64("minimum_profit_margin", result.Profitability.MinimumProfitMargin),
		)
		return nil, fmt.Errorf("%w: net margin %.2f%% is below the minimum %.2f%%",
			ErrMarginBelowMinimum,
			result.Profitability.NetMarginPct*100,
			result.Profitability.MinimumProfitMargin*100)
	}

	e.Status = domain.EstimateStatusSubmitted
	e.SubmittedAt = &now
	if err := s.estimateRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to submit estimate: %w", err)
	}

	log.Info("estimate submitted",
		zap.Float64("total", result.Totals.TotalAfterAdjustments),
	)

	dto := mapper.ToEstimateDTO(e, result)
	return &dto, nil
}

// SetStatus approves or declines a submitted estimate
func (s *EstimateService) SetStatus(ctx context.Context, id uuid.UUID, req *domain.UpdateEstimateStatusRequest) (*domain.EstimateDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.CanApproveEstimates() {
		return nil, ErrForbidden
	}
	if req.Status != domain.EstimateStatusApproved && req.Status != domain.EstimateStatusDeclined {
		return nil, fmt.Errorf("%w: status must be approved or declined", ErrInvalidInput)
	}

	e, settings, err := s.loadWithSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.EstimateStatusSubmitted {
		return nil, fmt.Errorf("%w: cannot change a %s estimate to %s", ErrInvalidStatusTransition, e.Status, req.Status)
	}

	e.Status = req.Status
	if err := s.estimateRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update estimate status: %w", err)
	}

	s.logger.Info("estimate status changed",
		zap.String("estimate_id", e.ID.String()),
		zap.String("status", string(e.Status)),
		zap.String("user_id", user.UserID.String()),
	)

	dto := mapper.ToEstimateDTO(e, calculate(e, settings))
	return &dto, nil
}

// Duplicate copies an estimate of any status into a new draft with a fresh number
func (s *EstimateService) Duplicate(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	user, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	source, settings, err := s.loadWithSettings(ctx, id)
	if err != nil {
		return nil, err
	}

	number, err := s.estimateRepo.NextNumber(ctx, user.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate estimate number: %w", err)
	}

	clone := &domain.Estimate{
		BusinessID:        source.BusinessID,
		Number:            number,
		Title:             source.Title + " (copy)",
		CustomerName:      source.CustomerName,
		Notes:             source.Notes,
		Status:            domain.EstimateStatusDraft,
		OverallAdjustment: source.OverallAdjustment,
		CreatedByID:       user.UserID.String(),
	}
	for i := range source.LineItems {
		clone.LineItems = append(clone.LineItems, mapper.CopyLineItem(&source.LineItems[i]))
	}

	result := calculate(clone, settings)
	clone.ApplyResult(result, time.Now().UTC())

	if err := s.estimateRepo.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("failed to duplicate estimate: %w", err)
	}

	s.logger.Info("estimate duplicated",
		zap.String("source_id", source.ID.String()),
		zap.String("estimate_id", clone.ID.String()),
		zap.String("number", clone.Number),
	)

	dto := mapper.ToEstimateDTO(clone, result)
	return &dto, nil
}

// Categories groups the estimate's line items by category
func (s *EstimateService) Categories(ctx context.Context, id uuid.UUID) ([]estimate.CategorySummary, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return estimate.SummarizeByCategory(domain.CalculatorItems(e.LineItems)), nil
}

// RecalculateTotals refreshes the cached totals of every draft of a business.
// Failures on single estimates are logged and reported in the joined error.
func (s *EstimateService) RecalculateTotals(ctx context.Context, businessID uuid.UUID) (int, error) {
	ctx = withBusiness(ctx, businessID)

	settings, err := s.loadSettings(ctx, businessID)
	if err != nil {
		return 0, err
	}

	ids, err := s.estimateRepo.ListDraftIDs(ctx, businessID)
	if err != nil {
		return 0, fmt.Errorf("failed to list draft estimates: %w", err)
	}

	var errs []error
	refreshed := 0
	now := time.Now().UTC()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		e, err := s.estimateRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load estimate for totals refresh", zap.String("estimate_id", id.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("estimate %s: %w", id, err))
			continue
		}

		e.ApplyResult(calculate(e, settings), now)
		if err := s.estimateRepo.UpdateCachedTotals(ctx, e); err != nil {
			s.logger.Warn("failed to refresh estimate totals", zap.String("estimate_id", id.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("estimate %s: %w", id, err))
			continue
		}
		refreshed++
	}

	s.logger.Debug("estimate totals refreshed",
		zap.String("business_id", businessID.String()),
		zap.Int("refreshed", refreshed),
		zap.Int("drafts", len(ids)),
	)

	return refreshed, errors.Join(errs...)
}

// RefreshAllTotals runs RecalculateTotals for every business with settings
func (s *EstimateService) RefreshAllTotals(ctx context.Context) (RefreshSummary, error) {
	var summary RefreshSummary

	businessIDs, err := s.settingsRepo.ListBusinessIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list businesses: %w", err)
	}

	var errs []error
	for _, businessID := range businessIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		refreshed, err := s.RecalculateTotals(ctx, businessID)
		summary.Businesses++
		summary.Estimates += refreshed
		if err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("business %s: %w", businessID, err))
		}
	}

	return summary, errors.Join(errs...)
}

// load fetches an estimate of the current business
func (s *EstimateService) load(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	e, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return e, nil
}

func (s *EstimateService) loadWithSettings(ctx context.Context, id uuid.UUID) (*domain.Estimate, *domain.BusinessSettings, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.loadSettings(ctx, e.BusinessID)
	if err != nil {
		return nil, nil, err
	}
	return e, settings, nil
}

// loadEditable is loadWithSettings restricted to drafts
func (s *EstimateService) loadEditable(ctx context.Context, id uuid.UUID) (*domain.Estimate, *domain.BusinessSettings, error) {
	e, settings, err := s.loadWithSettings(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !e.Status.IsEditable() {
		return nil, nil, fmt.Errorf("%w: estimate %s is %s", ErrEstimateLocked, e.Number, e.Status)
	}
	return e, settings, nil
}

// loadSettings returns nil without error when the business has no settings
func (s *EstimateService) loadSettings(ctx context.Context, businessID uuid.UUID) (*domain.BusinessSettings, error) {
	settings, err := s.settingsRepo.GetByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business settings: %w", err)
	}
	return settings, nil
}

// persistTotals recalculates e and writes its cached totals within tx
func (s *EstimateService) persistTotals(ctx context.Context, tx *gorm.DB, e *domain.Estimate, settings *domain.BusinessSettings) (estimate.Result, error) {
	result := calculate(e, settings)
	e.ApplyResult(result, time.Now().UTC())
	if err := s.estimateRepo.WithTx(tx).UpdateCachedTotals(ctx, e); err != nil {
		return result, fmt.Errorf("failed to update estimate totals: %w", err)
	}
	return result, nil
}

func calculate(e *domain.Estimate, settings *domain.BusinessSettings) estimate.Result {
	return estimate.Calculate(domain.CalculatorItems(e.LineItems), e.OverallAdjustment, settings.CalculatorSettings())
}

func findItem(items []domain.LineItem, id uuid.UUID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func sortItems(items []domain.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DisplayOrder < items[j].DisplayOrder
	})
}

// requireUser returns the authenticated user of a business-scoped request
func requireUser(ctx context.Context) (*auth.UserContext, error) {
	user, ok := auth.FromContext(ctx)
	if !ok || user.BusinessID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func requireEditor(ctx context.Context) (*auth.UserContext, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.CanEditEstimates() {
		return nil, ErrForbidden
	}
	return user, nil
}

// withBusiness makes ctx act for businessID, keeping the caller when it already does
func withBusiness(ctx context.Context, businessID uuid.UUID) context.Context {
	if current, ok := auth.BusinessIDFromContext(ctx); ok && current == businessID {
		return ctx
	}
	return auth.WithUserContext(ctx, &auth.UserContext{
		UserID:      auth.SystemUserID,
		BusinessID:  businessID,
		DisplayName: "System",
		Roles:       []auth.Role{auth.RoleAPIService},
	})
}

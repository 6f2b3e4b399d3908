package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/estimate"
	"github.com/FluxtonX/partner-sub002/internal/mapper"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IndirectRatePrecision is the number of decimal places kept for the indirect rate
const IndirectRatePrecision = 4

// MaxIndirectRate is the largest rate the settings column stores
const MaxIndirectRate = 1e10

// TotalsRefresher refreshes cached estimate totals after a settings change
type TotalsRefresher interface {
	RecalculateTotals(ctx context.Context, businessID uuid.UUID) (int, error)
}

type SettingsService struct {
	settingsRepo *repository.BusinessSettingsRepository
	refresher    TotalsRefresher
	logger       *zap.Logger
}

func NewSettingsService(
	settingsRepo *repository.BusinessSettingsRepository,
	refresher TotalsRefresher,
	logger *zap.Logger,
) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		refresher:    refresher,
		logger:       logger,
	}
}

// Get returns the settings of the current business
func (s *SettingsService) Get(ctx context.Context) (*domain.BusinessSettingsDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetByBusiness(ctx, user.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotConfigured
		}
		return nil, fmt.Errorf("failed to get business settings: %w", err)
	}

	dto := mapper.ToBusinessSettingsDTO(settings)
	return &dto, nil
}

// Upsert creates or replaces the settings of the current business and refreshes draft totals
func (s *SettingsService) Upsert(ctx context.Context, req *domain.UpsertSettingsRequest) (*domain.BusinessSettingsDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.CanManageSettings() {
		return nil, ErrForbidden
	}
	if !req.SubscriptionType.IsKnown() {
		return nil, fmt.Errorf("%w: unknown subscription type %q", ErrInvalidInput, req.SubscriptionType)
	}

	settings, err := s.current(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}
	mapper.ApplySettingsInput(settings, req.SettingsInput)

	return s.save(ctx, settings)
}

// RecalculateIndirectRate sets the indirect rate to indirect expenses per labor unit, rounded to four places
func (s *SettingsService) RecalculateIndirectRate(ctx context.Context, req *domain.RecalculateIndirectRateRequest) (*domain.BusinessSettingsDTO, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.CanManageSettings() {
		return nil, ErrForbidden
	}

	rate, err := IndirectRate(req.IndirectExpenses.Float64(), req.LaborUnits.Float64())
	if err != nil {
		return nil, err
	}

	settings, err := s.current(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	settings.LastCalculatedIndirectRate = rate
	settings.IndirectRateCalculatedAt = &now

	s.logger.Info("indirect rate recalculated",
		zap.String("business_id", user.BusinessID.String()),
		zap.Float64("rate", rate),
	)

	return s.save(ctx, settings)
}

// IndirectRate divides indirect expenses by labor units
func IndirectRate(indirectExpenses, laborUnits float64) (float64, error) {
	indirectExpenses = estimate.Finite(indirectExpenses)
	laborUnits = estimate.Finite(laborUnits)
	if laborUnits <= 0 {
		return 0, fmt.Errorf("%w: labor units must be greater than 0", ErrInvalidInput)
	}
	if indirectExpenses < 0 {
		return 0, fmt.Errorf("%w: indirect expenses cannot be negative", ErrInvalidInput)
	}
	rate := estimate.Round(indirectExpenses/laborUnits, IndirectRatePrecision)
	if rate > MaxIndirectRate {
		return 0, fmt.Errorf("%w: indirect rate %g exceeds %g", ErrInvalidInput, rate, float64(MaxIndirectRate))
	}
	return rate, nil
}

// current returns the stored settings or unsaved defaults for a business without settings
func (s *SettingsService) current(ctx context.Context, businessID uuid.UUID) (*domain.BusinessSettings, error) {
	settings, err := s.settingsRepo.GetByBusiness(ctx, businessID)
	if err == nil {
		return settings, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.BusinessSettings{
			BusinessID:       businessID,
			SubscriptionType: estimate.SubscriptionTrial,
		}, nil
	}
	return nil, fmt.Errorf("failed to get business settings: %w", err)
}

func (s *SettingsService) save(ctx context.Context, settings *domain.BusinessSettings) (*domain.BusinessSettingsDTO, error) {
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("failed to save business settings",
			zap.String("business_id", settings.BusinessID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save business settings: %w", err)
	}

	saved, err := s.settingsRepo.GetByBusiness(ctx, settings.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload business settings: %w", err)
	}

	if s.refresher != nil {
		refreshed, err := s.refresher.RecalculateTotals(ctx, saved.BusinessID)
		if err != nil {
			s.logger.Warn("failed to refresh estimate totals after settings change",
				zap.String("business_id", saved.BusinessID.String()),
				zap.Error(err))
		} else {
			s.logger.Info("estimate totals refreshed after settings change",
				zap.String("business_id", saved.BusinessID.String()),
				zap.Int("estimates", refreshed))
		}
	}

	dto := mapper.ToBusinessSettingsDTO(saved)
	return &dto, nil
}

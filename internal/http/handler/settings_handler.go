package handler

import (
	"errors"
	"net/http"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get business settings
// @Tags Settings
// @Produce json
// @Success 200 {object} domain.BusinessSettingsDTO
// @Failure 404 {object} domain.APIError "Settings not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	dto, err := h.settingsService.Get(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrSettingsNotConfigured) {
			respondWithError(w, http.StatusNotFound, "Business settings have not been configured")
			return
		}
		handleServiceError(w, h.logger, err, "get settings")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Upsert godoc
// @Summary Save business settings
// @Description Create or replace the business settings. Draft estimate totals are refreshed.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpsertSettingsRequest true "Settings"
// @Success 200 {object} domain.BusinessSettingsDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [put]
func (h *SettingsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.settingsService.Upsert(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "save settings")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// RecalculateIndirectRate godoc
// @Summary Recalculate indirect rate
// @Description Store indirect expenses divided by labor units as the indirect rate
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.RecalculateIndirectRateRequest true "Indirect expenses and labor units"
// @Success 200 {object} domain.BusinessSettingsDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/indirect-rate [post]
func (h *SettingsHandler) RecalculateIndirectRate(w http.ResponseWriter, r *http.Request) {
	var req domain.RecalculateIndirectRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.settingsService.RecalculateIndirectRate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "recalculate indirect rate")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

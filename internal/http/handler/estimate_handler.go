package handler

import (
	"net/http"

	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"go.uber.org/zap"
)

type EstimateHandler struct {
	estimateService *service.EstimateService
	exportService   *service.ExportService
	logger          *zap.Logger
}

func NewEstimateHandler(estimateService *service.EstimateService, exportService *service.ExportService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		exportService:   exportService,
		logger:          logger,
	}
}

// List godoc
// @Summary List estimates
// @Description Get paginated list of estimates for the current business
// @Tags Estimates
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, submitted, approved, declined)
// @Param search query string false "Search by title, number or customer name"
// @Param sortBy query string false "Sort field" Enums(number, title, customerName, status, totalAfterAdjustments, netMarginPct, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.EstimateSummaryDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates [get]
func (h *EstimateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := repository.EstimateFilters{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.EstimateStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filters.Status = &s
	}

	sortConfig := repository.DefaultSortConfig()
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		sortConfig.Field = sortBy
	}
	if sortOrder := r.URL.Query().Get("sortOrder"); sortOrder != "" {
		sortConfig.Order = repository.ParseSortOrder(sortOrder)
	}

	result, err := h.estimateService.List(r.Context(), page, pageSize, filters, sortConfig)
	if err != nil {
		handleServiceError(w, h.logger, err, "list estimates")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get estimate
// @Description Get an estimate with its line items, totals and profitability
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	dto, err := h.estimateService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get estimate")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Create godoc
// @Summary Create estimate
// @Description Create a draft estimate, optionally with line items
// @Tags Estimates
// @Accept json
// @Produce json
// @Param request body domain.CreateEstimateRequest true "Estimate data"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates [post]
func (h *EstimateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create estimate")
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+dto.ID.String())
	respondJSON(w, http.StatusCreated, dto)
}

// Update godoc
// @Summary Update estimate
// @Description Update the header of a draft estimate
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param request body domain.UpdateEstimateRequest true "Estimate data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id} [put]
func (h *EstimateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	var req domain.UpdateEstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update estimate")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Delete godoc
// @Summary Delete estimate
// @Description Delete a draft estimate and its line items
// @Tags Estimates
// @Param id path string true "Estimate ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id} [delete]
func (h *EstimateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	if err := h.estimateService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete estimate")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddLineItem godoc
// @Summary Add line item
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param request body domain.CreateLineItemRequest true "Line item data"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/items [post]
func (h *EstimateHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	var req domain.CreateLineItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.AddLineItem(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add line item")
		return
	}

	respondJSON(w, http.StatusCreated, dto)
}

// UpdateLineItem godoc
// @Summary Update line item
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param itemId path string true "Line item ID" format(uuid)
// @Param request body domain.UpdateLineItemRequest true "Line item data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/items/{itemId} [put]
func (h *EstimateHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(w, r, "itemId", "line item")
	if !ok {
		return
	}

	var req domain.UpdateLineItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.UpdateLineItem(r.Context(), id, itemID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update line item")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// RemoveLineItem godoc
// @Summary Remove line item
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param itemId path string true "Line item ID" format(uuid)
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/items/{itemId} [delete]
func (h *EstimateHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(w, r, "itemId", "line item")
	if !ok {
		return
	}

	dto, err := h.estimateService.RemoveLineItem(r.Context(), id, itemID)
	if err != nil {
		handleServiceError(w, h.logger, err, "remove line item")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// ReorderLineItems godoc
// @Summary Reorder line items
// @Description Set the display order of every line item of a draft estimate
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param request body domain.ReorderLineItemsRequest true "Line item IDs in display order"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/items/order [put]
func (h *EstimateHandler) ReorderLineItems(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	var req domain.ReorderLineItemsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.ReorderLineItems(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "reorder line items")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Calculate godoc
// @Summary Calculate estimate
// @Description Compute line totals, estimate totals and profitability without saving anything
// @Tags Estimates
// @Accept json
// @Produce json
// @Param request body domain.CalculateEstimateRequest true "Line items and optional settings"
// @Success 200 {object} domain.CalculationDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/calculate [post]
func (h *EstimateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculateEstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.Calculate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "calculate estimate")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Submit godoc
// @Summary Submit estimate
// @Description Submit a draft estimate. Rejected with 422 when the net margin is below the business minimum.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Failure 422 {object} domain.APIError "Margin below minimum or settings missing"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/submit [post]
func (h *EstimateHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	dto, err := h.estimateService.Submit(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "submit estimate")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// SetStatus godoc
// @Summary Approve or decline estimate
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Param request body domain.UpdateEstimateStatusRequest true "Target status"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not submitted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/status [post]
func (h *EstimateHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	var req domain.UpdateEstimateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dto, err := h.estimateService.SetStatus(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update estimate status")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Duplicate godoc
// @Summary Duplicate estimate
// @Description Copy an estimate and its line items into a new draft
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Success 201 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/duplicate [post]
func (h *EstimateHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	dto, err := h.estimateService.Duplicate(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "duplicate estimate")
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+dto.ID.String())
	respondJSON(w, http.StatusCreated, dto)
}

// Categories godoc
// @Summary Category summary
// @Description Line item totals grouped by category
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Success 200 {array} estimate.CategorySummary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/categories [get]
func (h *EstimateHandler) Categories(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	categories, err := h.estimateService.Categories(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "summarize categories")
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

// Export godoc
// @Summary Export estimate
// @Description Store a JSON snapshot of the estimate with freshly computed totals
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID" format(uuid)
// @Success 201 {object} domain.EstimateExportDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/export [post]
func (h *EstimateHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "estimate")
	if !ok {
		return
	}

	dto, err := h.exportService.Export(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "export estimate")
		return
	}

	respondJSON(w, http.StatusCreated, dto)
}

package handler

import (
	"io"
	"net/http"
	"path"

	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// Download godoc
// @Summary Download export
// @Description Stream a stored estimate snapshot of the current business
// @Tags Exports
// @Produce json
// @Param path path string true "Storage path returned by the export endpoint"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/{path} [get]
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	reader, err := h.exportService.Download(r.Context(), key)
	if err != nil {
		handleServiceError(w, h.logger, err, "download export")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(key)+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream export", zap.String("key", key), zap.Error(err))
	}
}

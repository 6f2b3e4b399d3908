package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/domain"
	"github.com/FluxtonX/partner-sub002/internal/http/handler"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/FluxtonX/partner-sub002/internal/storage"
	"github.com/FluxtonX/partner-sub002/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type handlerFixture struct {
	db         *gorm.DB
	estimates  *handler.EstimateHandler
	settings   *handler.SettingsHandler
	exports    *handler.ExportHandler
	businessID uuid.UUID
	ctx        context.Context
}

func setupHandlers(t *testing.T) *handlerFixture {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	settingsRepo := repository.NewBusinessSettingsRepository(db)
	estimateService := service.NewEstimateService(
		repository.NewEstimateRepository(db),
		repository.NewLineItemRepository(db),
		settingsRepo,
		logger,
		db,
	)
	settingsService := service.NewSettingsService(settingsRepo, estimateService, logger)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exportService := service.NewExportService(estimateService, store, logger)

	businessID := uuid.New()
	return &handlerFixture{
		db:         db,
		estimates:  handler.NewEstimateHandler(estimateService, exportService, logger),
		settings:   handler.NewSettingsHandler(settingsService, logger),
		exports:    handler.NewExportHandler(exportService, logger),
		businessID: businessID,
		ctx:        testutil.ContextWithUser(businessID),
	}
}

func newRequest(t *testing.T, ctx context.Context, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func decodeEstimate(t *testing.T, rr *httptest.ResponseRecorder) domain.EstimateDTO {
	t.Helper()
	var dto domain.EstimateDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	return apiErr
}

func (f *handlerFixture) createEstimate(t *testing.T, body string) domain.EstimateDTO {
	t.Helper()
	rr := httptest.NewRecorder()
	f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", body, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeEstimate(t, rr)
}

const standardEstimateBody = `{
	"title": "Bathroom",
	"customerName": "Ola Nordmann",
	"lineItems": [
		{"name": "Tiles", "type": "material", "category": "Materials", "baseQuantity": "10", "unitPrice": 100, "costPrice": 60},
		{"name": "Tiler", "type": "labor", "category": "Labor", "baseQuantity": 8, "unitPrice": "50", "costPrice": 25, "hours": 8, "taxable": false}
	]
}`

func TestEstimateHandler_Create(t *testing.T) {
	f := setupHandlers(t)
	testutil.CreateTestSettings(t, f.db, f.businessID)

	t.Run("creates estimate with lenient numbers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", standardEstimateBody, nil))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		dto := decodeEstimate(t, rr)
		assert.Equal(t, "/api/v1/estimates/"+dto.ID.String(), rr.Header().Get("Location"))
		assert.Equal(t, domain.EstimateStatusDraft, dto.Status)
		assert.Len(t, dto.LineItems, 2)
		assert.InDelta(t, 1400, dto.Totals.Subtotal, 1e-6)
		assert.InDelta(t, 80, dto.Totals.TaxAmount, 1e-6)
		require.NotNil(t, dto.Profitability)
	})

	t.Run("invalid body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", "{not json", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", `{"customerName":"x"}`, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeAPIError(t, rr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "title")
	})

	t.Run("nested validation error uses json path", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"title":"x","lineItems":[{"type":"labor"}]}`
		f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", body, nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeAPIError(t, rr)
		assert.Equal(t, "name is required", apiErr.Errors["lineItems[0].name"])
	})

	t.Run("unknown line item type", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"title":"x","lineItems":[{"name":"a","type":"equipment"}]}`
		f.estimates.Create(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates", body, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeAPIError(t, rr).Errors["lineItems[0].type"], "non_inventory_materials")
	})

	t.Run("viewer is forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctx := testutil.ContextWithUser(f.businessID, auth.RoleViewer)
		f.estimates.Create(rr, newRequest(t, ctx, http.MethodPost, "/estimates", `{"title":"x"}`, nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Create(rr, newRequest(t, context.Background(), http.MethodPost, "/estimates", `{"title":"x"}`, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestEstimateHandler_GetByID(t *testing.T) {
	f := setupHandlers(t)
	created := f.createEstimate(t, standardEstimateBody)

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.GetByID(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates/"+created.ID.String(), nil,
			map[string]string{"id": created.ID.String()}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, created.Number, decodeEstimate(t, rr).Number)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.GetByID(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates/abc", nil,
			map[string]string{"id": "abc"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("other business", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctx := testutil.ContextWithUser(uuid.New())
		f.estimates.GetByID(rr, newRequest(t, ctx, http.MethodGet, "/estimates/"+created.ID.String(), nil,
			map[string]string{"id": created.ID.String()}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, domain.ErrorTypeNotFound, decodeAPIError(t, rr).Type)
	})
}

func TestEstimateHandler_List(t *testing.T) {
	f := setupHandlers(t)
	f.createEstimate(t, `{"title":"Roof"}`)
	f.createEstimate(t, `{"title":"Deck"}`)
	f.createEstimate(t, `{"title":"Fence"}`)

	t.Run("sorted page", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.List(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates?pageSize=2&sortBy=title&sortOrder=asc", nil, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var result struct {
			Data       []domain.EstimateSummaryDTO `json:"data"`
			Total      int64                       `json:"total"`
			TotalPages int                         `json:"totalPages"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, int64(3), result.Total)
		assert.Equal(t, 2, result.TotalPages)
		require.Len(t, result.Data, 2)
		assert.Equal(t, "Deck", result.Data[0].Title)
		assert.Equal(t, "Fence", result.Data[1].Title)
	})

	t.Run("invalid status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.List(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates?status=archived", nil, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEstimateHandler_LineItems(t *testing.T) {
	f := setupHandlers(t)
	testutil.CreateTestSettings(t, f.db, f.businessID)
	created := f.createEstimate(t, standardEstimateBody)
	id := created.ID.String()

	var added domain.EstimateDTO
	t.Run("add", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"name":"Grout","type":"job_supplies","baseQuantity":2,"unitPrice":"25.5","costPrice":10}`
		f.estimates.AddLineItem(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/items", body,
			map[string]string{"id": id}))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		added = decodeEstimate(t, rr)
		require.Len(t, added.LineItems, 3)
		assert.InDelta(t, 51, added.LineItems[2].Total, 1e-6)
		assert.InDelta(t, 1451, added.Totals.Subtotal, 1e-6)
	})

	t.Run("update", func(t *testing.T) {
		itemID := added.LineItems[2].ID.String()
		rr := httptest.NewRecorder()
		body := `{"name":"Grout","type":"job_supplies","baseQuantity":4,"unitPrice":25.5,"costPrice":10,"displayOrder":2}`
		f.estimates.UpdateLineItem(rr, newRequest(t, f.ctx, http.MethodPut, "/estimates/"+id+"/items/"+itemID, body,
			map[string]string{"id": id, "itemId": itemID}))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.InDelta(t, 102, decodeEstimate(t, rr).LineItems[2].Total, 1e-6)
	})

	t.Run("reorder", func(t *testing.T) {
		ids := []uuid.UUID{added.LineItems[2].ID, added.LineItems[1].ID, added.LineItems[0].ID}
		rr := httptest.NewRecorder()
		f.estimates.ReorderLineItems(rr, newRequest(t, f.ctx, http.MethodPut, "/estimates/"+id+"/items/order",
			domain.ReorderLineItemsRequest{OrderedIDs: ids}, map[string]string{"id": id}))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		dto := decodeEstimate(t, rr)
		assert.Equal(t, "Grout", dto.LineItems[0].Name)
		assert.Equal(t, "Tiles", dto.LineItems[2].Name)
	})

	t.Run("remove", func(t *testing.T) {
		itemID := added.LineItems[2].ID.String()
		rr := httptest.NewRecorder()
		f.estimates.RemoveLineItem(rr, newRequest(t, f.ctx, http.MethodDelete, "/estimates/"+id+"/items/"+itemID, nil,
			map[string]string{"id": id, "itemId": itemID}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeEstimate(t, rr).LineItems, 2)
	})

	t.Run("remove unknown item", func(t *testing.T) {
		itemID := uuid.NewString()
		rr := httptest.NewRecorder()
		f.estimates.RemoveLineItem(rr, newRequest(t, f.ctx, http.MethodDelete, "/estimates/"+id+"/items/"+itemID, nil,
			map[string]string{"id": id, "itemId": itemID}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Line item not found", decodeAPIError(t, rr).Detail)
	})

	t.Run("update without displayOrder keeps position", func(t *testing.T) {
		itemID := added.LineItems[1].ID.String()
		rr := httptest.NewRecorder()
		body := `{"name":"Tiler","type":"labor","baseQuantity":6,"unitPrice":50,"costPrice":25,"hours":6}`
		f.estimates.UpdateLineItem(rr, newRequest(t, f.ctx, http.MethodPut, "/estimates/"+id+"/items/"+itemID, body,
			map[string]string{"id": id, "itemId": itemID}))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		dto := decodeEstimate(t, rr)
		require.Len(t, dto.LineItems, 2)
		assert.Equal(t, "Tiler", dto.LineItems[0].Name)
		assert.Equal(t, 1, dto.LineItems[0].DisplayOrder)
		assert.Equal(t, "Tiles", dto.LineItems[1].Name)
		assert.Equal(t, 2, dto.LineItems[1].DisplayOrder)
	})

	t.Run("out of range amount", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"name":"Gold","type":"material","baseQuantity":1,"unitPrice":1e15}`
		f.estimates.AddLineItem(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/items", body,
			map[string]string{"id": id}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeAPIError(t, rr).Errors, "unitPrice")
	})
}

func TestEstimateHandler_SubmitAndStatus(t *testing.T) {
	f := setupHandlers(t)
	testutil.CreateTestSettings(t, f.db, f.businessID)

	t.Run("margin below minimum", func(t *testing.T) {
		low := f.createEstimate(t, `{"title":"Thin","lineItems":[{"name":"a","type":"material","baseQuantity":1,"unitPrice":100,"costPrice":95}]}`)
		rr := httptest.NewRecorder()
		f.estimates.Submit(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+low.ID.String()+"/submit", nil,
			map[string]string{"id": low.ID.String()}))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		apiErr := decodeAPIError(t, rr)
		assert.Equal(t, domain.ErrorTypeMarginError, apiErr.Type)
	})

	created := f.createEstimate(t, standardEstimateBody)
	id := created.ID.String()

	t.Run("submit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Submit(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/submit", nil,
			map[string]string{"id": id}))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		dto := decodeEstimate(t, rr)
		assert.Equal(t, domain.EstimateStatusSubmitted, dto.Status)
		assert.NotNil(t, dto.SubmittedAt)
	})

	t.Run("locked after submit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Update(rr, newRequest(t, f.ctx, http.MethodPut, "/estimates/"+id, `{"title":"Changed"}`,
			map[string]string{"id": id}))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("invalid target status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.SetStatus(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/status", `{"status":"draft"}`,
			map[string]string{"id": id}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("estimator cannot approve", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctx := testutil.ContextWithUser(f.businessID, auth.RoleEstimator)
		f.estimates.SetStatus(rr, newRequest(t, ctx, http.MethodPost, "/estimates/"+id+"/status", `{"status":"approved"}`,
			map[string]string{"id": id}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("approve", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.SetStatus(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/status", `{"status":"approved"}`,
			map[string]string{"id": id}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.EstimateStatusApproved, decodeEstimate(t, rr).Status)
	})

	t.Run("duplicate approved estimate", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Duplicate(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/duplicate", nil,
			map[string]string{"id": id}))

		require.Equal(t, http.StatusCreated, rr.Code)
		dto := decodeEstimate(t, rr)
		assert.Equal(t, domain.EstimateStatusDraft, dto.Status)
		assert.Len(t, dto.LineItems, 2)
	})

	t.Run("cannot delete approved", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.estimates.Delete(rr, newRequest(t, f.ctx, http.MethodDelete, "/estimates/"+id, nil,
			map[string]string{"id": id}))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestEstimateHandler_SubmitWithoutSettings(t *testing.T) {
	f := setupHandlers(t)
	created := f.createEstimate(t, standardEstimateBody)

	rr := httptest.NewRecorder()
	f.estimates.Submit(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+created.ID.String()+"/submit", nil,
		map[string]string{"id": created.ID.String()}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestEstimateHandler_Delete(t *testing.T) {
	f := setupHandlers(t)
	created := f.createEstimate(t, `{"title":"Shed"}`)
	id := created.ID.String()

	rr := httptest.NewRecorder()
	f.estimates.Delete(rr, newRequest(t, f.ctx, http.MethodDelete, "/estimates/"+id, nil, map[string]string{"id": id}))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	f.estimates.GetByID(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates/"+id, nil, map[string]string{"id": id}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEstimateHandler_Calculate(t *testing.T) {
	f := setupHandlers(t)

	body := `{
		"lineItems": [
			{"id": "a", "type": "material", "category": "Lumber", "baseQuantity": "10", "wastePercentage": "0.1", "unitPrice": 5, "costPrice": 3},
			{"id": "b", "type": "labor", "category": "Labor", "baseQuantity": "abc", "unitPrice": 40, "hours": 2, "taxable": false}
		],
		"overallAdjustment": "",
		"settings": {"taxRate": 0.1, "minimumProfitMargin": 0.2, "subscriptionType": "Enterprise"}
	}`
	rr := httptest.NewRecorder()
	f.estimates.Calculate(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/calculate", body, nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var dto domain.CalculationDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	require.Len(t, dto.Items, 2)
	assert.InDelta(t, 11, dto.Items[0].Quantity, 1e-6)
	assert.InDelta(t, 55, dto.Items[0].Total, 1e-6)
	assert.InDelta(t, 0, dto.Items[1].Total, 1e-6)
	assert.InDelta(t, 55, dto.Totals.Subtotal, 1e-6)
	assert.InDelta(t, 5.5, dto.Totals.TaxAmount, 1e-6)
	require.NotNil(t, dto.Profitability)
	assert.Len(t, dto.Categories, 2)
}

func TestEstimateHandler_CategoriesAndExport(t *testing.T) {
	f := setupHandlers(t)
	testutil.CreateTestSettings(t, f.db, f.businessID)
	created := f.createEstimate(t, standardEstimateBody)
	id := created.ID.String()

	rr := httptest.NewRecorder()
	f.estimates.Categories(rr, newRequest(t, f.ctx, http.MethodGet, "/estimates/"+id+"/categories", nil,
		map[string]string{"id": id}))
	require.Equal(t, http.StatusOK, rr.Code)
	var categories []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)

	rr = httptest.NewRecorder()
	f.estimates.Export(rr, newRequest(t, f.ctx, http.MethodPost, "/estimates/"+id+"/export", nil,
		map[string]string{"id": id}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var export domain.EstimateExportDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &export))

	t.Run("download", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.exports.Download(rr, newRequest(t, f.ctx, http.MethodGet, "/exports/"+export.StoragePath, nil,
			map[string]string{"*": export.StoragePath}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), created.Number)
	})

	t.Run("download from other business", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctx := testutil.ContextWithUser(uuid.New())
		f.exports.Download(rr, newRequest(t, ctx, http.MethodGet, "/exports/"+export.StoragePath, nil,
			map[string]string{"*": export.StoragePath}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

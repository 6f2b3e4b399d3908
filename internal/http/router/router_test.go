package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/config"
	"github.com/FluxtonX/partner-sub002/internal/http/handler"
	"github.com/FluxtonX/partner-sub002/internal/http/middleware"
	"github.com/FluxtonX/partner-sub002/internal/http/router"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/FluxtonX/partner-sub002/internal/storage"
	"github.com/FluxtonX/partner-sub002/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-api-key"

func setupRouter(t *testing.T) http.Handler {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		App:  config.AppConfig{Name: "test", Environment: "development"},
		Auth: config.AuthConfig{JWTSecret: "secret", APIKey: testAPIKey},
		Server: config.ServerConfig{
			RequestTimeout: 5,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

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

	rt := router.NewRouter(
		cfg,
		logger,
		db,
		auth.NewMiddleware(cfg, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewEstimateHandler(estimateService, exportService, logger),
		handler.NewSettingsHandler(settingsService, logger),
		handler.NewExportHandler(exportService, logger),
	)
	return rt.Setup()
}

func do(t *testing.T, h http.Handler, method, target string, businessID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", testAPIKey)
	req.Header.Set("X-Business-ID", businessID.String())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := setupRouter(t)

	for _, path := range []string{"/health", "/health/db", "/health/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	h := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/estimates", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimates", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "API key without business is rejected")
}

func TestRouter_SwaggerDisabled(t *testing.T) {
	h := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_EstimateLifecycle(t *testing.T) {
	h := setupRouter(t)
	businessID := uuid.New()

	rec := do(t, h, http.MethodPut, "/api/v1/settings", businessID, map[string]interface{}{
		"taxRate":             0.1,
		"minimumProfitMargin": 0.2,
		"subscriptionType":    "Enterprise",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/estimates", businessID, map[string]interface{}{
		"title": "Bathroom",
		"lineItems": []map[string]interface{}{
			{"name": "Tiles", "type": "material", "baseQuantity": 10, "unitPrice": 10, "costPrice": 4},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     uuid.UUID `json:"id"`
		Number string    `json:"number"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "EST-000001", created.Number)
	assert.Equal(t, "draft", created.Status)

	base := "/api/v1/estimates/" + created.ID.String()

	rec = do(t, h, http.MethodGet, base+"/categories", businessID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/submit", businessID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/status", businessID, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, base, businessID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Another business cannot see the estimate
	rec = do(t, h, http.MethodGet, base, uuid.New(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package service_test

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/FluxtonX/partner-sub002/internal/storage"
	"github.com/FluxtonX/partner-sub002/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExportService_ExportAndDownload(t *testing.T) {
	f := setupEstimateService(t)
	testutil.CreateTestSettings(t, f.db, f.businessID)
	created := f.createStandard(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(f.svc, store, zap.NewNop())

	result, err := exports.Export(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.EstimateID)
	assert.True(t, strings.HasPrefix(result.StoragePath, service.ExportKeyPrefix(f.businessID)))
	assert.Contains(t, result.StoragePath, created.Number)
	assert.Positive(t, result.Size)

	reader, err := exports.Download(f.ctx, result.StoragePath)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	var snapshot service.EstimateSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, created.Number, snapshot.Estimate.Number)
	assert.InDelta(t, 1480, snapshot.Estimate.Totals.TotalAfterAdjustments, delta)
	require.NotNil(t, snapshot.Estimate.Profitability)
	assert.Len(t, snapshot.Categories, 2)
	assert.Equal(t, "Test User", snapshot.ExportedBy)
}

func TestExportService_Download_OtherBusiness(t *testing.T) {
	f := setupEstimateService(t)
	created := f.createStandard(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(f.svc, store, zap.NewNop())

	result, err := exports.Export(f.ctx, created.ID)
	require.NoError(t, err)

	_, err = exports.Download(testutil.ContextWithUser(uuid.New()), result.StoragePath)
	assert.ErrorIs(t, err, service.ErrExportNotFound)
}

func TestExportService_Download_InvalidKeys(t *testing.T) {
	f := setupEstimateService(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(f.svc, store, zap.NewNop())

	prefix := service.ExportKeyPrefix(f.businessID)
	for _, key := range []string{
		prefix + "../other/secret.json",
		prefix + "missing.json",
		"",
	} {
		_, err := exports.Download(f.ctx, key)
		assert.ErrorIs(t, err, service.ErrExportNotFound, "key %q", key)
	}
}

func TestExportService_Export_NotFound(t *testing.T) {
	f := setupEstimateService(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(f.svc, store, zap.NewNop())

	_, err = exports.Export(f.ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

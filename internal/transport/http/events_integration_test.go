package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/storage/postgres"
	"github.com/cimillas/eventtix/internal/testutil"
)

func TestEventCatalog_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)

	repo := postgres.NewEventRepository(pool)
	svc := app.NewCatalogService(repo, clock.NewFixed(time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)))

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	handler := NewRouter(RouterConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, Services{Catalog: svc})

	reqBody := []byte(`{"title":"Concert","venue":"Main Hall","starts_at":"2025-02-01T10:00:00Z","price":"12.5"}`)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBuffer(reqBody))
	req.Header.Set(userIDHeader, "organiser-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created eventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "12.50", created.Price)
	assert.Equal(t, "draft", created.Status)

	assert.Empty(t, listEvents(t, handler), "drafts hidden from the catalog")

	pubReq := httptest.NewRequest(http.MethodPost, "/events/"+created.ID+"/publish", nil)
	pubRec := httptest.NewRecorder()
	handler.ServeHTTP(pubRec, pubReq)
	require.Equal(t, http.StatusOK, pubRec.Code)

	events := listEvents(t, handler)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].ID)

	invalidReq := httptest.NewRequest(http.MethodGet, "/events/not-a-uuid", nil)
	invalidRec := httptest.NewRecorder()
	handler.ServeHTTP(invalidRec, invalidReq)
	require.Equal(t, http.StatusBadRequest, invalidRec.Code)

	var errResp errorResponse
	require.NoError(t, json.NewDecoder(invalidRec.Body).Decode(&errResp))
	assert.Equal(t, codeInvalidID, errResp.Code)
}

func listEvents(t *testing.T, handler http.Handler) []eventResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var events []eventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	return events
}

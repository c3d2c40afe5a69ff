package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidtags/internal/delivery/http/controllers"
	"rfidtags/internal/domain"
	"rfidtags/internal/ingest"
	"rfidtags/internal/metrics"
	"rfidtags/internal/services"
	"rfidtags/internal/testutil"
)

func newTestHandler(t *testing.T, store *testutil.MemStore) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := services.NewTagService(store, ingest.NewPipeline(store, logger, m), nil, logger, time.Second)
	mux := NewRouter(
		controllers.NewTagController(logger, svc, nil),
		controllers.NewHealthController(logger, svc),
		reg,
	)
	return NewHandler(mux, logger, m, []string{"https://ops.example.com"})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_LegacyPrefixes(t *testing.T) {
	store := testutil.NewMemStore()
	h := newTestHandler(t, store)

	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/api/rfid", `{"tag_uid":"L1"}`).Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/api/v1/uhf/tags", `{"epc":"U1"}`).Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/api/rfid/bulk", `{"tags":[{"epc":"B1"}]}`).Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/api/v1/uhf/tags/batch", `{"tags":["B2"]}`).Code)
	assert.Equal(t, 4, store.Len())

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/rfid/L1", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPut, "/api/v1/uhf/tags/U1", `{"status":"Lost"}`).Code)

	rr := serve(h, http.MethodGet, "/api/v1/uhf/tags", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"pagination"`)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodDelete, "/api/rfid/tag-id/L1", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodDelete, "/api/v1/uhf/tags/U1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodDelete, "/api/rfid/tag-id/L1", "").Code)

	tag, err := store.FindByKey(t.Context(), "B1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, tag.Status)
}

func TestRouter_LegacyDeleteByID(t *testing.T) {
	store := testutil.NewMemStore()
	h := newTestHandler(t, store)
	tag := store.Seed("EPC-X", domain.StatusAvailable)

	rr := serve(h, http.MethodDelete, "/api/rfid/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid ID. Must be a number")
	assert.Equal(t, 1, store.Len())

	rr = serve(h, http.MethodDelete, "/api/rfid/"+strconv.FormatInt(tag.ID+1, 10), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, http.MethodDelete, "/api/rfid/"+strconv.FormatInt(tag.ID, 10), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"epc":"EPC-X"`)
	assert.Equal(t, 0, store.Len())

	// /tags keeps deleting by EPC on the bare path.
	store.Seed("42", domain.StatusAvailable)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodDelete, "/tags/42", "").Code)
	assert.Equal(t, 0, store.Len())
}

func TestRouter_Ambient(t *testing.T) {
	h := newTestHandler(t, testutil.NewMemStore())

	rr := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/unknown", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)

	serve(h, http.MethodGet, "/tags", "")
	serve(h, http.MethodPost, "/tags", `{"epc":"M1"}`)
	rr = serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",route="GET /tags",status="200"} 1`)
	assert.Contains(t, rr.Body.String(), `rfid_ingest_items_total{outcome="created"} 1`)
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfidtags/internal/domain"
	"rfidtags/internal/ingest"
	"rfidtags/internal/services"
	"rfidtags/internal/testutil"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// envelope is the decoded response body.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    int             `json:"code"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
}

func newTestMux(store *testutil.MemStore) *http.ServeMux {
	pipeline := ingest.NewPipeline(store, testLogger, nil)
	svc := services.NewTagService(store, pipeline, nil, testLogger, 5*time.Second)
	return newMuxFor(svc)
}

func newMuxFor(svc domain.TagService) *http.ServeMux {
	c := NewTagController(testLogger, svc, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tags", c.ListTags)
	mux.HandleFunc("GET /tags/{key}", c.GetTag)
	mux.HandleFunc("POST /tags", c.CreateTags)
	mux.HandleFunc("POST /tags/batch", c.CreateBatch)
	mux.HandleFunc("PUT /tags/{key}", c.UpdateTag)
	mux.HandleFunc("DELETE /tags/{key}", c.DeleteTag)
	mux.HandleFunc("DELETE /tags/id/{id}", c.DeleteTagByID)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func decodeTag(t *testing.T, raw json.RawMessage) domain.Tag {
	t.Helper()
	var tag domain.Tag
	require.NoError(t, json.Unmarshal(raw, &tag))
	return tag
}

func decodeBatch(t *testing.T, raw json.RawMessage) domain.BatchResult {
	t.Helper()
	var res domain.BatchResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func TestCreateTags_Single(t *testing.T) {
	store := testutil.NewMemStore()
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPost, "/tags", "application/json", `{"epc":"E200-1","status":"reserved","rssi":-52}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "RFID tag with EPC 'E200-1' created successfully", env.Message)
	tag := decodeTag(t, env.Data)
	assert.Equal(t, "E200-1", tag.EPC)
	assert.Equal(t, domain.StatusReserved, tag.Status)
	require.NotNil(t, tag.RSSI)
	assert.Equal(t, "-52", *tag.RSSI)

	rr, env = do(t, mux, http.MethodGet, "/tags/E200-1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, tag.ID, decodeTag(t, env.Data).ID)
}

func TestCreateTags_SingleErrors(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("TAKEN", domain.StatusAssigned)
	mux := newTestMux(store)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{name: "duplicate", body: `{"epc":"TAKEN"}`, wantStatus: 409, wantError: "duplicate", wantMessage: "RFID tag with EPC 'TAKEN' already exists with status 'Assigned'"},
		{name: "missing key", body: `{"status":"Lost"}`, wantStatus: 400, wantError: "validation_failed", wantMessage: "EPC is required"},
		{name: "invalid status", body: `{"epc":"N","status":"Broken"}`, wantStatus: 400, wantError: "validation_failed"},
		{name: "unknown parent", body: `{"epc":"N","parent_tag_id":12345}`, wantStatus: 400, wantError: "validation_failed", wantMessage: "Invalid parent_tag_id: parent tag does not exist"},
		{name: "malformed text", contentType: "text/plain", body: `{"epc":`, wantStatus: 400, wantError: "invalid_json"},
		{name: "empty body", body: ``, wantStatus: 400, wantError: "bad_request"},
		{name: "scalar body", body: `true`, wantStatus: 400, wantError: "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := tt.contentType
			if ct == "" {
				ct = "application/json"
			}
			rr, env := do(t, mux, http.MethodPost, "/tags", ct, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
			assert.Equal(t, tt.wantStatus, env.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, env.Message)
			}
		})
	}
	assert.Equal(t, 1, store.Len())
}

func TestCreateTags_EncodedStringAndForm(t *testing.T) {
	store := testutil.NewMemStore()
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPost, "/tags", "application/json", `"{\"tag_uid\":\"ENC-1\"}"`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "ENC-1", decodeTag(t, env.Data).EPC)

	form := url.Values{"form_data": {"scanner-7", "FORM-1"}}
	rr, env = do(t, mux, http.MethodPost, "/tags", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "FORM-1", decodeTag(t, env.Data).EPC)
}

func TestCreateTags_Many(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("DUP", domain.StatusAvailable)
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPost, "/tags", "application/json",
		`[{"epc":"A"},{"status":"Lost"},{"epc":"DUP"},"B",{"uid":"C"}]`)
	require.Equal(t, http.StatusMultiStatus, rr.Code)
	assert.True(t, env.Success)
	res := decodeBatch(t, env.Data)
	assert.Equal(t, domain.BatchSummary{Total: 5, Created: 3, Duplicates: 1, Errors: 1}, res.Summary)
	assert.Equal(t, []string{"DUP"}, res.Duplicates)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, "Batch processed: 3 created, 1 duplicates, 1 errors", env.Message)

	rr, _ = do(t, mux, http.MethodPost, "/tags", "application/json", `[{"epc":"D"},{"epc":"E"}]`)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr, env = do(t, mux, http.MethodPost, "/tags", "application/json", `[{"epc":"D"},{"nope":1}]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)

	rr, _ = do(t, mux, http.MethodPost, "/tags", "application/json", `[]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, 6, store.Len())
}

func TestCreateBatch(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("DUP", domain.StatusAvailable)
	mux := newTestMux(store)

	body := `{"sessionId":"S-1","tags":[{"epc":"A","deviceId":"D1"},{"epc":"DUP"},{"epc":"B","session_id":"OWN"},{}]}`
	rr, env := do(t, mux, http.MethodPost, "/tags/batch", "application/json", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	res := decodeBatch(t, env.Data)
	assert.Equal(t, domain.BatchSummary{Total: 4, Created: 2, Duplicates: 1, Errors: 1}, res.Summary)
	require.Len(t, res.Created, 2)
	require.NotNil(t, res.Created[0].SessionID)
	assert.Equal(t, "S-1", *res.Created[0].SessionID)
	require.NotNil(t, res.Created[0].DeviceID)
	assert.Equal(t, "D1", *res.Created[0].DeviceID)
	assert.Equal(t, "OWN", *res.Created[1].SessionID)

	rr, env = do(t, mux, http.MethodPost, "/tags/batch", "application/json", `{"tags":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "tags must not be empty", env.Message)

	rr, _ = do(t, mux, http.MethodPost, "/tags/batch", "application/json", `{"sessionId":"S"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListTags(t *testing.T) {
	store := testutil.NewMemStore()
	for _, epc := range []string{"T1", "T2", "T3", "T4", "T5"} {
		store.Seed(epc, domain.StatusAvailable)
	}
	mux := newTestMux(store)

	decodeTags := func(raw json.RawMessage) []string {
		var tags []domain.Tag
		require.NoError(t, json.Unmarshal(raw, &tags))
		out := make([]string, len(tags))
		for i, tg := range tags {
			out[i] = tg.EPC
		}
		return out
	}

	rr, first := do(t, mux, http.MethodGet, "/tags?limit=2&offset=0", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	_, second := do(t, mux, http.MethodGet, "/tags?limit=2&offset=2", "", "")
	_, rest := do(t, mux, http.MethodGet, "/tags?limit=2&offset=4", "", "")

	assert.Equal(t, []string{"T5", "T4"}, decodeTags(first.Data))
	assert.Equal(t, []string{"T3", "T2"}, decodeTags(second.Data))
	assert.Equal(t, []string{"T1"}, decodeTags(rest.Data))
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 5, first.Total)

	rr, env := do(t, mux, http.MethodGet, "/tags?status=Broken", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "bad_request", env.Error)
}

func TestListTags_Page(t *testing.T) {
	store := testutil.NewMemStore()
	for _, epc := range []string{"T1", "T2", "T3"} {
		store.Seed(epc, domain.StatusAvailable)
	}
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodGet, "/tags?page=2&limit=2", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page TagPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Tags, 1)
	assert.Equal(t, "T1", page.Tags[0].EPC)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.Limit)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, "Retrieved 1 tags", env.Message)
}

func TestUpdateTag(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("E1", domain.StatusAvailable)
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPut, "/tags/E1", "application/json", `{"status":"Consumed","location":"Bin 3","count":"7"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	tag := decodeTag(t, env.Data)
	assert.Equal(t, domain.StatusConsumed, tag.Status)
	assert.Equal(t, "Bin 3", *tag.Location)
	assert.Equal(t, 7, tag.Count)
	assert.Equal(t, "E1", tag.EPC)

	rr, env = do(t, mux, http.MethodPut, "/tags/E1", "application/json", `{"location":null,"epc":"CHANGED"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	tag = decodeTag(t, env.Data)
	assert.Nil(t, tag.Location)
	assert.Equal(t, "E1", tag.EPC)
	assert.Equal(t, domain.StatusConsumed, tag.Status)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "no fields", target: "/tags/E1", body: `{"epc":"X"}`, wantStatus: 400, wantError: "bad_request"},
		{name: "invalid status", target: "/tags/E1", body: `{"status":"Gone"}`, wantStatus: 400, wantError: "validation_failed"},
		{name: "unknown location", target: "/tags/E1", body: `{"current_location_id":9}`, wantStatus: 400, wantError: "validation_failed"},
		{name: "malformed", target: "/tags/E1", body: `{"status"`, wantStatus: 400, wantError: "invalid_json"},
		{name: "missing tag", target: "/tags/NOPE", body: `{"status":"Lost"}`, wantStatus: 404, wantError: "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, mux, http.MethodPut, tt.target, "application/json", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantError, env.Error)
		})
	}
}

func TestUpdateTag_StatusOnlyLeavesOtherFields(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddLocation(4)
	parent := store.Seed("PARENT", domain.StatusAvailable)
	str := func(s string) *string { return &s }
	seeded, err := store.Insert(context.Background(), &domain.TagDraft{
		EPC:               "FULL",
		Status:            domain.StatusAssigned,
		ParentTagID:       &parent.ID,
		CurrentLocationID: func() *int64 { id := int64(4); return &id }(),
		RSSI:              str("-61"),
		Count:             9,
		DeviceID:          str("D-1"),
		SessionID:         str("S-1"),
		Location:          str("Dock 2"),
		ReaderID:          str("R-1"),
		Timestamp:         time.Date(2024, 12, 24, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPut, "/tags/FULL", "application/json", `{"status":"lost"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeTag(t, env.Data)

	rr, env = do(t, mux, http.MethodGet, "/tags/FULL", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	stored := decodeTag(t, env.Data)

	for _, got := range []domain.Tag{updated, stored} {
		assert.Equal(t, domain.StatusLost, got.Status)
		assert.Equal(t, seeded.ID, got.ID)
		assert.Equal(t, seeded.EPC, got.EPC)
		assert.Equal(t, seeded.ParentTagID, got.ParentTagID)
		assert.Equal(t, seeded.CurrentLocationID, got.CurrentLocationID)
		assert.Equal(t, seeded.RSSI, got.RSSI)
		assert.Equal(t, seeded.Count, got.Count)
		assert.Equal(t, seeded.DeviceID, got.DeviceID)
		assert.Equal(t, seeded.SessionID, got.SessionID)
		assert.Equal(t, seeded.Location, got.Location)
		assert.Equal(t, seeded.ReaderID, got.ReaderID)
		assert.True(t, seeded.Timestamp.Equal(got.Timestamp))
		assert.True(t, seeded.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, got.UpdatedAt.After(seeded.UpdatedAt), "updated_at %s not after %s", got.UpdatedAt, seeded.UpdatedAt)
	}
}

func TestTagCount_Range(t *testing.T) {
	store := testutil.NewMemStore()
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodPost, "/tags", "application/json", `{"epc":"HUGE","count":99999999999}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation_failed", env.Error)
	assert.Equal(t, "count must be between 1 and 2147483647", env.Message)
	assert.Equal(t, 0, store.Len())

	rr, env = do(t, mux, http.MethodPost, "/tags", "application/json", `{"epc":"ZERO","count":0}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, decodeTag(t, env.Data).Count)

	rr, env = do(t, mux, http.MethodPut, "/tags/ZERO", "application/json", `{"count":"3000000000"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation_failed", env.Error)

	rr, env = do(t, mux, http.MethodPut, "/tags/ZERO", "application/json", `{"count":2147483647}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2147483647, decodeTag(t, env.Data).Count)
}

func TestDeleteTags(t *testing.T) {
	store := testutil.NewMemStore()
	store.Seed("A", domain.StatusAvailable)
	b := store.Seed("B", domain.StatusAvailable)
	mux := newTestMux(store)

	rr, env := do(t, mux, http.MethodDelete, "/tags/A", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "A", decodeTag(t, env.Data).EPC)

	rr, env = do(t, mux, http.MethodDelete, "/tags/A", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "RFID tag with EPC 'A' not found", env.Message)

	rr, _ = do(t, mux, http.MethodGet, "/tags/A", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, env = do(t, mux, http.MethodDelete, "/tags/id/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid ID. Must be a number", env.Message)

	rr, env = do(t, mux, http.MethodDelete, "/tags/id/"+jsonInt(b.ID), "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "B", decodeTag(t, env.Data).EPC)

	rr, _ = do(t, mux, http.MethodDelete, "/tags/id/"+jsonInt(b.ID), "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 0, store.Len())
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// failingService fails every call with err.
type failingService struct {
	domain.TagService
	err error
}

func (f *failingService) List(ctx context.Context, _ domain.TagFilter) ([]*domain.Tag, int, error) {
	return nil, 0, f.err
}

func (f *failingService) CreateMany(ctx context.Context, _ []*domain.TagDraft) (*domain.BatchResult, error) {
	return nil, f.err
}

func TestStoreFailures(t *testing.T) {
	mux := newMuxFor(&failingService{err: errors.Join(domain.ErrStoreUnavailable, errors.New("connection refused"))})

	rr, env := do(t, mux, http.MethodGet, "/tags", "", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal_error", env.Error)

	rr, _ = do(t, mux, http.MethodPost, "/tags/batch", "application/json", `{"tags":[{"epc":"A"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

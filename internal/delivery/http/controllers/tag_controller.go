package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/tidwall/gjson"

	"rfidtags/internal/delivery/http/helpers"
	"rfidtags/internal/domain"
	"rfidtags/internal/ingest"
)

// maxBodyBytes bounds request bodies read by the tag handlers.
const maxBodyBytes = 10 << 20

// BatchRequest is the request body for POST /tags/batch.
type BatchRequest struct {
	Tags      []json.RawMessage `json:"tags" validate:"required,min=1" swaggertype:"array,object"`
	SessionID string            `json:"sessionId"`
}

// TagResponse is the success envelope for single tag responses.
type TagResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    *domain.Tag `json:"data"`
	Code    int         `json:"code,omitempty"`
}

// BatchResponse is the envelope for multi-item creates.
type BatchResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *domain.BatchResult `json:"data"`
	Code    int                 `json:"code"`
}

// TagListResponse documents the limit/offset listing.
type TagListResponse struct {
	Success bool          `json:"success"`
	Data    []*domain.Tag `json:"data"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
}

// TagPage is the data of the page based listing.
type TagPage struct {
	Tags       []*domain.Tag          `json:"tags"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// TagPageResponse documents the page based listing.
type TagPageResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    TagPage `json:"data"`
	Code    int     `json:"code"`
}

type TagController struct {
	Logger     *slog.Logger
	Service    domain.TagService
	Normalizer *ingest.Normalizer
}

func NewTagController(logger *slog.Logger, svc domain.TagService, normalizer *ingest.Normalizer) *TagController {
	if normalizer == nil {
		normalizer = ingest.NewNormalizer()
	}
	return &TagController{
		Logger:     logger,
		Service:    svc,
		Normalizer: normalizer,
	}
}

// ListTags godoc
// @Summary List tags
// @Description Lists tags newest first. With a page parameter the response is page based ({tags, pagination}); otherwise limit/offset apply (defaults 100/0).
// @Tags tags
// @Produce json
// @Param status query string false "Status filter (Available, Reserved, Assigned, Consumed, Lost, Damaged)"
// @Param limit query int false "Maximum rows (default 100, or 10 with page)"
// @Param offset query int false "Rows to skip (default 0)"
// @Param page query int false "1-based page number; switches to the page based response"
// @Success 200 {object} controllers.TagListResponse "without page; with page the body is controllers.TagPageResponse"
// @Failure 400 {object} helpers.APIResponse "error: bad_request"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags [get]
func (c *TagController) ListTags(w http.ResponseWriter, r *http.Request) {
	if helpers.HasPage(r) {
		c.ListTagPage(w, r)
		return
	}
	f := helpers.ParseTagFilter(r)
	tags, total, err := c.Service.List(r.Context(), f)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, helpers.ListResponse{
		Success: true,
		Data:    tags,
		Count:   len(tags),
		Total:   total,
	})
}

// ListTagPage serves the page based listing; legacy clients always get this shape.
func (c *TagController) ListTagPage(w http.ResponseWriter, r *http.Request) {
	p := helpers.ParsePagination(r)
	status := domain.Status(r.URL.Query().Get("status"))
	tags, total, err := c.Service.List(r.Context(), p.Filter(status))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, fmt.Sprintf("Retrieved %d tags", len(tags)), TagPage{
		Tags:       tags,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// GetTag godoc
// @Summary Get a tag by EPC
// @Tags tags
// @Produce json
// @Param key path string true "Tag EPC"
// @Success 200 {object} controllers.TagResponse
// @Failure 404 {object} helpers.APIResponse "error: not_found"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags/{key} [get]
func (c *TagController) GetTag(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	tag, err := c.Service.Get(r.Context(), key)
	if err != nil {
		c.writeError(w, r, notFoundAs(err, key))
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, "", tag)
}

// CreateTags godoc
// @Summary Create one or more tags
// @Description Accepts a single object, an array, a JSON-encoded string of either, or a urlencoded form. The EPC is taken from epc, tag_uid, uid, tag, the second element of form_data, or a bare string/number item. A single object yields 201, 400 or 409. A list yields 201 when every item was created, 207 on partial success and 400 when nothing was created.
// @Tags tags
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param tag body object true "Tag payload"
// @Success 201 {object} controllers.TagResponse "single object"
// @Success 207 {object} controllers.BatchResponse "list with partial success"
// @Failure 400 {object} helpers.APIResponse "error: invalid_json, bad_request or validation_failed"
// @Failure 409 {object} helpers.APIResponse "error: duplicate"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags [post]
func (c *TagController) CreateTags(w http.ResponseWriter, r *http.Request) {
	payload, err := c.readPayload(w, r)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	drafts, err := c.Normalizer.Normalize(payload)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if payload.IsSingular() && len(drafts) == 1 {
		tag, err := c.Service.CreateOne(r.Context(), drafts[0])
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusCreated, fmt.Sprintf("RFID tag with EPC '%s' created successfully", tag.EPC), tag)
		return
	}
	if len(drafts) == 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "at least one tag is required")
		return
	}
	result, err := c.Service.CreateMany(r.Context(), drafts)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	switch {
	case result.Summary.Created == 0:
		status = http.StatusBadRequest
	case result.Summary.Created < result.Summary.Total:
		status = http.StatusMultiStatus
	}
	helpers.WriteJSON(w, status, BatchResponse{
		Success: result.Summary.Created > 0,
		Message: batchMessage(result),
		Data:    result,
		Code:    status,
	})
}

// CreateBatch godoc
// @Summary Create tags in a batch
// @Description Creates every tag in one transaction. Duplicates and invalid items are reported per item and never abort the batch. sessionId fills items without a session id of their own.
// @Tags tags
// @Accept json
// @Produce json
// @Param batch body controllers.BatchRequest true "Tags and optional session id"
// @Success 201 {object} controllers.BatchResponse
// @Failure 400 {object} helpers.APIResponse "error: invalid_json or validation_failed"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags/batch [post]
func (c *TagController) CreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req BatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	items := make([]gjson.Result, len(req.Tags))
	for i, raw := range req.Tags {
		items[i] = gjson.ParseBytes(raw)
	}
	drafts, err := c.Normalizer.Normalize(ingest.Payload{Kind: ingest.PayloadMany, Many: items})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if req.SessionID != "" {
		for _, d := range drafts {
			if d.SessionID == nil {
				sid := req.SessionID
				d.SessionID = &sid
			}
		}
	}
	result, err := c.Service.CreateMany(r.Context(), drafts)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, BatchResponse{
		Success: true,
		Message: batchMessage(result),
		Data:    result,
		Code:    http.StatusCreated,
	})
}

// UpdateTag godoc
// @Summary Update a tag
// @Description Applies any subset of status, location, reader_id, rssi, count, device_id, session_id, parent_tag_id and current_location_id. JSON null clears a nullable field. The EPC cannot change.
// @Tags tags
// @Accept json
// @Produce json
// @Param key path string true "Tag EPC"
// @Param update body object true "Fields to change"
// @Success 200 {object} controllers.TagResponse
// @Failure 400 {object} helpers.APIResponse "error: invalid_json, bad_request or validation_failed"
// @Failure 404 {object} helpers.APIResponse "error: not_found"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags/{key} [put]
func (c *TagController) UpdateTag(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	u, err := ingest.ParseUpdate(body)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	tag, err := c.Service.Update(r.Context(), key, u)
	if err != nil {
		c.writeError(w, r, notFoundAs(err, key))
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, "RFID tag updated successfully", tag)
}

// DeleteTag godoc
// @Summary Delete a tag by EPC
// @Tags tags
// @Produce json
// @Param key path string true "Tag EPC"
// @Success 200 {object} controllers.TagResponse "data is the deleted record"
// @Failure 404 {object} helpers.APIResponse "error: not_found"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags/{key} [delete]
func (c *TagController) DeleteTag(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	tag, err := c.Service.DeleteByKey(r.Context(), key)
	if err != nil {
		c.writeError(w, r, notFoundAs(err, key))
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, fmt.Sprintf("RFID tag with EPC '%s' deleted successfully", tag.EPC), tag)
}

// DeleteTagByID godoc
// @Summary Delete a tag by database id
// @Tags tags
// @Produce json
// @Param id path int true "Tag id"
// @Success 200 {object} controllers.TagResponse "data is the deleted record"
// @Failure 400 {object} helpers.APIResponse "error: bad_request"
// @Failure 404 {object} helpers.APIResponse "error: not_found"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /tags/id/{id} [delete]
func (c *TagController) DeleteTagByID(w http.ResponseWriter, r *http.Request) {
	tag, err := c.Service.DeleteByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrInvalidArgument) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "Invalid ID. Must be a number")
		return
	}
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, "RFID tag deleted successfully", tag)
}

// readPayload reads the creation body as JSON, text or a urlencoded form.
func (c *TagController) readPayload(w http.ResponseWriter, r *http.Request) (ingest.Payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return ingest.Payload{}, &ingest.ParseError{Kind: ingest.InvalidPayload, Message: err.Error()}
		}
		return ingest.PayloadFromForm(r.PostForm)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ingest.Payload{}, &ingest.ParseError{Kind: ingest.InvalidPayload, Message: err.Error()}
	}
	return ingest.DecodePayload(body)
}

// notFoundError carries the lookup key into the 404 message.
type notFoundError struct {
	key string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("RFID tag with EPC '%s' not found", e.key)
}

func (e *notFoundError) Unwrap() error { return domain.ErrNotFound }

func notFoundAs(err error, key string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &notFoundError{key: key}
	}
	return err
}

func batchMessage(r *domain.BatchResult) string {
	return fmt.Sprintf("Batch processed: %d created, %d duplicates, %d errors",
		r.Summary.Created, r.Summary.Duplicates, r.Summary.Errors)
}

// writeError maps service errors to status codes. Unclassified errors are
// logged and reported as 500.
func (c *TagController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		parseErr *ingest.ParseError
		validErr *ingest.ValidationError
		nf       *notFoundError
	)
	switch {
	case errors.As(err, &parseErr):
		code := helpers.ErrCodeBadRequest
		if parseErr.Kind == ingest.InvalidJSON {
			code = helpers.ErrCodeInvalidJSON
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, code, parseErr.Error())
	case errors.As(err, &validErr):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, validErr.Error())
	case errors.Is(err, domain.ErrDuplicateKey):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.As(err, &nf):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, nf.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "RFID tag not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"rfidtags/internal/delivery/http/helpers"
	"rfidtags/internal/domain"
)

// ServiceVersion is reported by the index endpoint.
const ServiceVersion = "1.0.0"

// HealthStatus is the data of a successful health check.
type HealthStatus struct {
	Timestamp time.Time `json:"timestamp"`
}

// ServiceInfo is the data of the index endpoint.
type ServiceInfo struct {
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthController struct {
	Logger  *slog.Logger
	Service domain.TagService
	Now     func() time.Time
}

func NewHealthController(logger *slog.Logger, svc domain.TagService) *HealthController {
	return &HealthController{Logger: logger, Service: svc, Now: time.Now}
}

// Health godoc
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.timestamp is the check time"
// @Failure 500 {object} helpers.APIResponse "error: internal_error"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Health(r.Context()); err != nil {
		c.Logger.ErrorContext(r.Context(), "health check failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "Database connection failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, "Database connection is healthy", HealthStatus{Timestamp: c.Now().UTC()})
}

// Index godoc
// @Summary Service banner
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router / [get]
func (c *HealthController) Index(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, "RFID Tag Management API", ServiceInfo{
		Version: ServiceVersion,
		Endpoints: map[string]string{
			"GET /tags":               "List tags (status, limit, offset or page)",
			"GET /tags/{key}":         "Get a tag by EPC",
			"POST /tags":              "Create one or more tags",
			"POST /tags/batch":        "Create tags in one transaction with per-item outcomes",
			"PUT /tags/{key}":         "Update tag fields",
			"DELETE /tags/{key}":      "Delete a tag by EPC",
			"DELETE /tags/id/{id}":    "Delete a tag by database id",
			"GET /health":             "Database health check",
			"GET /metrics":            "Prometheus metrics",
			"GET /swagger/index.html": "API documentation",
		},
	})
}

// NotFound answers requests that match no route.
func (c *HealthController) NotFound(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "Endpoint not found")
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"rfidtags/internal/delivery/http/controllers"
	"rfidtags/internal/delivery/http/middleware"
	"rfidtags/internal/metrics"
)

// Route prefixes. Older clients use the legacy prefixes; every prefix reaches
// the same handlers.
const (
	tagsPrefix      = "/tags"
	legacyRFIDPath  = "/api/rfid"
	legacyUHFPrefix = "/api/v1/uhf/tags"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(tags *controllers.TagController, health *controllers.HealthController, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	for _, p := range []string{tagsPrefix, legacyRFIDPath} {
		mux.HandleFunc("GET "+p, tags.ListTags)
		mux.HandleFunc("GET "+p+"/{key}", tags.GetTag)
		mux.HandleFunc("POST "+p, tags.CreateTags)
		mux.HandleFunc("POST "+p+"/batch", tags.CreateBatch)
		mux.HandleFunc("PUT "+p+"/{key}", tags.UpdateTag)
		mux.HandleFunc("DELETE "+p+"/id/{id}", tags.DeleteTagByID)
	}
	mux.HandleFunc("DELETE "+tagsPrefix+"/{key}", tags.DeleteTag)

	// Legacy clients delete by database id on the bare path and by EPC under tag-id.
	mux.HandleFunc("POST "+legacyRFIDPath+"/bulk", tags.CreateBatch)
	mux.HandleFunc("DELETE "+legacyRFIDPath+"/{id}", tags.DeleteTagByID)
	mux.HandleFunc("DELETE "+legacyRFIDPath+"/tag-id/{key}", tags.DeleteTag)

	mux.HandleFunc("GET "+legacyUHFPrefix, tags.ListTagPage)
	mux.HandleFunc("GET "+legacyUHFPrefix+"/{key}", tags.GetTag)
	mux.HandleFunc("POST "+legacyUHFPrefix, tags.CreateTags)
	mux.HandleFunc("POST "+legacyUHFPrefix+"/batch", tags.CreateBatch)
	mux.HandleFunc("PUT "+legacyUHFPrefix+"/{key}", tags.UpdateTag)
	mux.HandleFunc("DELETE "+legacyUHFPrefix+"/{key}", tags.DeleteTag)

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /{$}", health.Index)
	mux.HandleFunc("/", health.NotFound)

	// Metrics
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps mux with the middleware chain: request id, access log,
// CORS and metrics (innermost, so the matched route pattern is visible).
func NewHandler(mux *http.ServeMux, logger *slog.Logger, m *metrics.Metrics, allowedOrigins []string) http.Handler {
	var h http.Handler = mux
	h = middleware.Metrics(m, h)
	h = middleware.CORS(allowedOrigins, h)
	h = middleware.LoggingMiddleware(logger, h)
	return middleware.RequestID(h)
}

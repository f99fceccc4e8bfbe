package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/config"
	"github.com/skypro1111/call-compliance-service/internal/metrics"
	"github.com/skypro1111/call-compliance-service/internal/pipeline"
)

const serviceVersion = "1.0.0"

// supportedExtensions lists the accepted upload formats
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".flac": true,
	".webm": true,
	".mp4":  true,
}

// HTTPServer provides the HTTP API for the compliance service. The pipeline
// may be nil when the service started without API keys; analysis requests are
// then rejected with 503 while the configuration endpoints stay available.
type HTTPServer struct {
	server        *http.Server
	logger        *slog.Logger
	config        *config.Config
	pipeline      *pipeline.Pipeline
	defaultConfig clientcfg.Config
	metrics       *metrics.Metrics
	startTime     time.Time
}

// NewHTTPServer creates the HTTP API server with all routes registered
func NewHTTPServer(cfg *config.Config, p *pipeline.Pipeline, defaultConfig clientcfg.Config, m *metrics.Metrics, logger *slog.Logger) *HTTPServer {
	h := &HTTPServer{
		logger:        logger,
		config:        cfg,
		pipeline:      p,
		defaultConfig: defaultConfig,
		metrics:       m,
		startTime:     time.Now(),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(corsAllowAll)

	router.Get("/", h.withMetrics("/", h.handleRoot))
	router.Get("/health", h.withMetrics("/health", h.handleHealth))
	router.Get("/config", h.withMetrics("/config", h.handleConfig))
	router.Get("/config/schema", h.withMetrics("/config/schema", h.handleConfigSchema))
	router.Post("/config/validate", h.withMetrics("/config/validate", h.handleConfigValidate))
	router.Post("/analyze", h.withMetrics("/analyze", h.handleAnalyze))
	router.Handle("/metrics", promhttp.Handler())

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.GetReadTimeout(),
		WriteTimeout: cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// corsAllowAll permits cross-origin requests from any origin
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Call Compliance Service",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"GET /":                 "API documentation",
			"GET /health":           "Service health check",
			"GET /config":           "Default client configuration template",
			"GET /config/schema":    "Client configuration schema",
			"POST /config/validate": "Validate a client configuration",
			"POST /analyze":         "Analyze a call recording",
			"GET /metrics":          "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}

// ready reports whether analysis requests can be served
func (h *HTTPServer) ready() bool {
	return h.pipeline != nil && h.pipeline.Ready()
}

// storeState describes the policy store state for health reporting
func (h *HTTPServer) storeState() string {
	if h.pipeline == nil {
		return "unconfigured"
	}
	return h.pipeline.StoreState().String()
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.ready() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "call-compliance-service",
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"policy_store": map[string]interface{}{
				"state": h.storeState(),
				"ready": h.ready(),
			},
			"api_keys_configured": h.config.HasAPIKeys(),
		},
	})
}

// handleConfig returns the default client configuration template
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.defaultConfig)
}

// handleConfigSchema documents every supported client configuration field
func (h *HTTPServer) handleConfigSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"description": "Client configuration schema",
		"fields": map[string]interface{}{
			"business_domain": map[string]interface{}{
				"type":        "string",
				"description": "The business domain for compliance context (e.g. 'Banking / Debt Recovery', 'Telecom')",
				"example":     "Banking / Debt Recovery",
			},
			"monitored_products": map[string]interface{}{
				"type":        "array of strings",
				"description": "Products or services whose mentions should be tracked in calls",
				"example":     []string{"Credit Card", "Personal Loan", "Home Loan"},
			},
			"active_policy_set": map[string]interface{}{
				"type":        "string",
				"description": "Identifier for the policy ruleset to apply",
				"example":     "RBI_Compliance_v2.1",
			},
			"risk_triggers": map[string]interface{}{
				"type":        "array of strings",
				"description": "Keywords/phrases that automatically flag a compliance risk when detected",
				"example":     []string{"Legal Threats", "Harassment", "Jail Mention", "Coercion"},
			},
			"custom_rules": map[string]interface{}{
				"type":        "array of objects",
				"description": "Custom policy rules specific to this client, beyond the standard clauses",
				"item_schema": map[string]string{
					"rule_id":     "string, unique identifier e.g. CUSTOM-01",
					"rule_name":   "string, short rule title",
					"description": "string, full rule description",
				},
				"example": []map[string]string{
					{
						"rule_id":     "CUSTOM-01",
						"rule_name":   "No Script Deviation",
						"description": "Agent must follow approved call script at all times.",
					},
				},
			},
		},
	})
}

// handleConfigValidate validates a client configuration JSON body and returns
// the issues along with the merged effective configuration.
func (h *HTTPServer) handleConfigValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	issues := clientcfg.Validate(raw)

	effective := h.defaultConfig
	if len(issues) == 0 {
		overrides, err := clientcfg.ParseOverrides(string(body))
		if err == nil {
			effective = clientcfg.Merge(h.defaultConfig, overrides)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":            len(issues) == 0,
		"issues":           issues,
		"effective_config": effective,
	})
}

// handleAnalyze implements the POST /analyze endpoint. The multipart form
// carries the recording in "audio_file", an optional "client_config" JSON
// string, and an optional RFC3339 "call_timestamp".
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		writeError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("service is not ready: policy store state %s", h.storeState()))
		return
	}

	maxBytes := int64(h.config.HTTP.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !supportedExtensions[ext] {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported audio format '%s'", ext))
		return
	}

	overrides, err := clientcfg.ParseOverrides(r.FormValue("client_config"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid client_config JSON: %v", err))
		return
	}

	callTimestamp := r.FormValue("call_timestamp")
	if callTimestamp != "" {
		if _, err := time.Parse(time.RFC3339, callTimestamp); err != nil {
			writeError(w, http.StatusBadRequest, "call_timestamp must be RFC3339")
			return
		}
	}

	audioPath, err := h.saveUpload(file, ext)
	if err != nil {
		h.logger.Error("failed to save upload", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to save uploaded audio")
		return
	}
	defer os.Remove(audioPath)

	doc, err := h.pipeline.Analyze(r.Context(), audioPath, overrides, callTimestamp)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotReady) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		h.logger.Error("analysis failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("analysis pipeline error: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// saveUpload writes the uploaded audio to a temp file and returns its path
func (h *HTTPServer) saveUpload(file io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp(h.config.Audio.TempDir, "vigilant_*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tmp.Name(), nil
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

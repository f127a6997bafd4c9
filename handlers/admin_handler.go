// handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/services"
	"go.uber.org/zap"
)

// Batch runs one ingestion batch. *services.BatchRunner implements it.
type Batch interface {
	Run(ctx context.Context, dir string, selection []string) (services.BatchSummary, error)
}

// Archive is the part of the store the admin surface reads. *database.Store implements it.
type Archive interface {
	Ping(ctx context.Context) error
	ListIngestLog(ctx context.Context) ([]models.IngestLogEntry, error)
}

// AdminHandler serves health, ingestion, and ingest-log endpoints. Only one ingestion
// runs at a time; the archive must not be written concurrently.
type AdminHandler struct {
	batch     Batch
	archive   Archive
	dir       string
	selection []string
	logger    *zap.Logger

	mu sync.Mutex
}

// NewAdminHandler returns a handler that ingests scans from dir. selection is the
// default file selection when a request names none.
func NewAdminHandler(batch Batch, archive Archive, dir string, selection []string, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{batch: batch, archive: archive, dir: dir, selection: selection, logger: logger}
}

// Register adds the routes to mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/admin/ingest", h.Ingest)
	mux.HandleFunc("/api/admin/ingest-log", h.IngestLog)
}

// Helper to respond with JSON
func (h *AdminHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", zap.Error(err))
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func (h *AdminHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.logger.Warn("api error", zap.Int("status", code), zap.String("message", message))
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// Health handles GET /api/health by pinging the archive.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	if err := h.archive.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database connection error"})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ingest handles POST /api/admin/ingest. It runs one batch synchronously and returns
// its summary, or 409 while another batch is running.
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	selection := req.Selection
	if len(selection) == 0 {
		selection = h.selection
	}

	if !h.mu.TryLock() {
		h.respondWithError(w, http.StatusConflict, "An ingestion is already running")
		return
	}
	defer h.mu.Unlock()

	summary, err := h.batch.Run(r.Context(), h.dir, selection)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Ingestion failed: "+err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// IngestLog handles GET /api/admin/ingest-log.
func (h *AdminHandler) IngestLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	entries, err := h.archive.ListIngestLog(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to read ingest log")
		return
	}
	if entries == nil {
		entries = []models.IngestLogEntry{}
	}
	h.respondWithJSON(w, http.StatusOK, entries)
}

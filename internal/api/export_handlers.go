package api

import (
	"context"
	"net/http"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/export"
)

// Exporter creates and reads note snapshots.
type Exporter interface {
	Create(ctx context.Context, ownerID int64) (*export.Receipt, error)
	Get(ctx context.Context, ownerID int64, id string) (*export.Snapshot, error)
}

// ExportHandler serves /api/exports.
type ExportHandler struct {
	exports Exporter
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exports Exporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create handles POST /api/exports.
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.exports.Create(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Export created successfully",
		"export":  receipt,
	})
}

// Get handles GET /api/exports/{id}.
func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.exports.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": snap})
}

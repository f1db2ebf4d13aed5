package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/export"
	"github.com/joseph-ayodele/biodata-tracker/internal/profiles"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves workbook exports and stored source documents.
type ExportHandler struct {
	svc      *export.Service
	profiles *profiles.Service
	logger   *slog.Logger
}

func NewExportHandler(svc *export.Service, profileSvc *profiles.Service, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{svc: svc, profiles: profileSvc, logger: logger}
}

func (h *ExportHandler) Register(r chi.Router) {
	r.Get("/export/profiles.xlsx", h.handleProfilesXLSX)
	r.Get("/profiles/{id}/document", h.handleSourceDocument)
}

func (h *ExportHandler) handleProfilesXLSX(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	xlsx, err := h.svc.ProfilesXLSX(r.Context(), status)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "status", status, "err", err)
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("profiles-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(xlsx)
}

func (h *ExportHandler) handleSourceDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validProfileID(id); err != nil {
		writeError(w, err)
		return
	}
	b, name, err := h.profiles.SourceDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(b))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		code = http.StatusNotFound
	}
	http.Error(w, err.Error(), code)
}

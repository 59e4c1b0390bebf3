package audit

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/export"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/frahmantamala/hr-registry/internal/transport"
	"github.com/frahmantamala/hr-registry/pkg/logger"
)

const (
	ExportFilename = "logs.xlsx"
	ExportSheet    = "Logs"
)

type ServiceAPI interface {
	List(ctx context.Context, session auth.Session) ([]Entry, error)
	Table(ctx context.Context, session auth.Session) (sheet.Table, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	entries, err := h.Service.List(r.Context(), session)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs": entries,
	})
}

func (h *Handler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	table, err := h.Service.Table(r.Context(), session)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Workbook(&buf, ExportSheet, table); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	export.Attach(w, ExportFilename)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.From(r.Context()).Error("failed to stream export", "error", err)
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
	}
	return session, ok
}

package employee

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/export"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/frahmantamala/hr-registry/internal/transport"
	"github.com/frahmantamala/hr-registry/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	DepartedExportFilename = "anciens.xlsx"
	DepartedWorksheetName  = "Anciens"
)

type ServiceAPI interface {
	Roster(ctx context.Context, session auth.Session) (Roster, error)
	Departed(ctx context.Context, session auth.Session) (sheet.Table, error)
	Hire(ctx context.Context, session auth.Session, dto HireDTO) (*Employee, error)
	Edit(ctx context.Context, session auth.Session, sel Selector, dto UpdateEmployeeDTO) ([]Employee, error)
	BulkEdit(ctx context.Context, session auth.Session, dto BulkEditDTO) ([]Employee, error)
	Depart(ctx context.Context, session auth.Session, sel Selector, dto DepartDTO) ([]Employee, error)
	Reintegrate(ctx context.Context, session auth.Session, sel Selector) ([]Employee, error)
	Delete(ctx context.Context, session auth.Session, sel Selector) (int, error)
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

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	roster, err := h.Service.Roster(r.Context(), session)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roster)
}

func (h *Handler) HireEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto HireDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	employee, err := h.Service.Hire(r.Context(), session, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, employee)
}

func (h *Handler) BulkEditActive(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto BulkEditDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.BulkEdit(r.Context(), session, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": updated,
	})
}

func (h *Handler) EditEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.Edit(r.Context(), session, selectorFromRequest(r), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": updated,
	})
}

func (h *Handler) DepartEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto DepartDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.Depart(r.Context(), session, selectorFromRequest(r), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": updated,
	})
}

func (h *Handler) ReintegrateEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.Reintegrate(r.Context(), session, selectorFromRequest(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": updated,
	})
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	removed, err := h.Service.Delete(r.Context(), session, selectorFromRequest(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// ExportDeparted streams the departed partition as anciens.xlsx.
func (h *Handler) ExportDeparted(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	table, err := h.Service.Departed(r.Context(), session)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Workbook(&buf, DepartedWorksheetName, table); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	export.Attach(w, DepartedExportFilename)
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

// selectorFromRequest reads {ref} as an ID, or as a name key with ?by=name.
func selectorFromRequest(r *http.Request) Selector {
	ref := chi.URLParam(r, "ref")
	// chi routes on RawPath when it is set, leaving the param escaped.
	if r.URL.RawPath != "" {
		if v, err := url.PathUnescape(ref); err == nil {
			ref = v
		}
	}
	if r.URL.Query().Get("by") == "name" {
		return ByName(ref)
	}
	return ByID(ref)
}

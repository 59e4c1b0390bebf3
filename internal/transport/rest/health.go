package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/hr-registry/internal/sheet"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	db        *sql.DB
	store     sheet.Store
	worksheet string
	backend   string
}

// NewHealthHandler pings db when it is non-nil and always checks the store
// through a read of worksheet.
func NewHealthHandler(db *sql.DB, store sheet.Store, worksheet, backend string) *HealthHandler {
	return &HealthHandler{db: db, store: store, worksheet: worksheet, backend: backend}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]CheckEntry, 2)
	if h.db != nil {
		components["database"] = checkComponent(func() error { return h.db.PingContext(ctx) }, nil)
	}
	if h.store != nil {
		components["store"] = checkComponent(func() error {
			_, err := h.store.Read(ctx, h.worksheet)
			// a fresh store has no worksheet yet but is reachable
			if errors.Is(err, sheet.ErrWorksheetMissing) {
				return nil
			}
			return err
		}, map[string]any{"backend": h.backend, "worksheet": h.worksheet})
	}

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		Components: components,
	}
	for _, entry := range components {
		if entry.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
		}
	}

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func checkComponent(check func() error, details map[string]any) CheckEntry {
	start := time.Now()
	err := check()

	entry := CheckEntry{
		Status:     HealthHealthy,
		Details:    details,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

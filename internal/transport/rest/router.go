package rest

import (
	"log/slog"

	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/frahmantamala/hr-registry/internal/transport/middleware"
	"github.com/frahmantamala/hr-registry/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	Employee *employee.Handler
	Audit    *audit.Handler
	OpenAPI  *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, origins []string, logger *slog.Logger) {
	router.Use(middleware.CORS(origins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.OpenAPI != nil {
		router.Method("GET", swagger.SpecPath, h.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Post("/auth/logout", h.Auth.Logout)
			pr.Get("/auth/me", h.Auth.Me)

			if h.Employee != nil {
				pr.Route("/employees", func(er chi.Router) {
					er.Get("/", h.Employee.ListEmployees)                         // GET /employees
					er.Post("/", h.Employee.HireEmployee)                         // POST /employees
					er.Put("/active", h.Employee.BulkEditActive)                  // PUT /employees/active
					er.Get("/departed/export", h.Employee.ExportDeparted)         // GET /employees/departed/export
					er.Patch("/{ref}", h.Employee.EditEmployee)                   // PATCH /employees/:ref
					er.Delete("/{ref}", h.Employee.DeleteEmployee)                // DELETE /employees/:ref
					er.Post("/{ref}/depart", h.Employee.DepartEmployee)           // POST /employees/:ref/depart
					er.Post("/{ref}/reintegrate", h.Employee.ReintegrateEmployee) // POST /employees/:ref/reintegrate
				})
			}

			if h.Audit != nil {
				pr.Get("/logs", h.Audit.ListLogs)
				pr.Get("/logs/export", h.Audit.ExportLogs)
			}
		})
	})
}

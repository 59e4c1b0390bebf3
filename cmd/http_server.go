package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/frahmantamala/hr-registry/api"
	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/core/events"
	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/frahmantamala/hr-registry/internal/transport/rest"
	"github.com/frahmantamala/hr-registry/internal/transport/swagger"
	"github.com/frahmantamala/hr-registry/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	Store    sheet.Store
	Bus      *events.EventBus
	Recorder *audit.Recorder
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "store", deps.Config.Store.Backend)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.shutdown()
			os.Exit(1)
		}
	}

	deps.shutdown()
	deps.Logger.Info("Server stopped")
}

// shutdown flushes pending audit entries before the store goes away.
func (d *Dependencies) shutdown() {
	d.Recorder.Close()
	if err := closeDB(d.DB); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) {
	var origins []string
	if deps.Config.Server.AllowedOrigins != "" {
		origins = strings.Split(deps.Config.Server.AllowedOrigins, ",")
	}
	rest.RegisterAllRoutes(deps.Router, deps.Handlers, origins, deps.Logger)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	store, db, err := openStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	bus := events.NewEventBus(lg)
	recorder := audit.NewRecorder(
		audit.NewLogger(store, config.Store.LogWorksheet, config.Store.Timeout, lg),
		config.Audit.QueueSize, lg)
	recorder.Subscribe(bus)

	directory := auth.LoadDirectory(config.Auth)
	if err := directory.Err(); err != nil {
		// logins are refused until the credential source is fixed
		lg.Error("credential directory unavailable", "error", err)
	} else {
		lg.Info("credential directory loaded", "users", directory.Len())
	}
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.SessionDuration)
	authService := auth.NewService(directory, tokens, bus, config.Security.BCryptCost, lg)

	repo := employee.NewRepository(store, config.Store.EmployeeWorksheet, config.Store.Timeout)
	employeeService := employee.NewService(repo, bus, lg)
	auditService := audit.NewService(store, config.Store.LogWorksheet, config.Store.Timeout)

	doc, err := swagger.Load(ctx, api.OpenAPI)
	if err != nil {
		recorder.Close()
		_ = closeDB(db)
		return nil, err
	}

	var sqlDB *sql.DB
	if db != nil {
		if sqlDB, err = db.DB(); err != nil {
			recorder.Close()
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Store:    store,
		Bus:      bus,
		Recorder: recorder,
		Router:   chi.NewRouter(),
		Handlers: rest.Handlers{
			Health:   rest.NewHealthHandler(sqlDB, store, config.Store.EmployeeWorksheet, config.Store.Backend),
			Auth:     auth.NewHandler(authService),
			Employee: employee.NewHandler(employeeService),
			Audit:    audit.NewHandler(auditService),
			OpenAPI:  doc,
		},
		Logger: lg,
	}, nil
}

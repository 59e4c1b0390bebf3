package cmd

import (
	"fmt"
	"time"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	sheetPostgres "github.com/frahmantamala/hr-registry/internal/sheet/postgres"
	"github.com/frahmantamala/hr-registry/internal/sheet/xlsx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// openStore builds the worksheet backend named by cfg.Store.Backend. db is
// nil unless the backend is the database.
func openStore(cfg *internal.Config) (store sheet.Store, db *gorm.DB, err error) {
	switch cfg.Store.Backend {
	case internal.StoreBackendMemory:
		return sheet.NewMemoryStore(), nil, nil
	case internal.StoreBackendXLSX:
		return xlsx.NewStore(cfg.Store.Path), nil, nil
	case internal.StoreBackendDatabase:
		db, err = initDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return sheetPostgres.NewStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// initDB opens the gorm connection and applies the pool settings. sqlite
// databases are migrated in place; postgres goes through the migrate command.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		if err := sheetPostgres.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	return db, nil
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

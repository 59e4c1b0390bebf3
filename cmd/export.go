package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/hr-registry/internal/audit"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/core/events"
	"github.com/frahmantamala/hr-registry/internal/employee"
	"github.com/frahmantamala/hr-registry/internal/export"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/frahmantamala/hr-registry/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportAs     string
)

var exportCmd = &cobra.Command{
	Use:       "export [departed|logs]",
	Short:     "Write the departed employees or the audit trail to an xlsx file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"departed", "logs"},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		store, db, err := openStore(cfg)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer closeDB(db)

		ctx := context.Background()
		operator := operatorSession(exportAs)
		var (
			table     sheet.Table
			sheetName string
			filename  string
		)
		switch args[0] {
		case "departed":
			lg := logger.LoggerWrapper()
			repo := employee.NewRepository(store, cfg.Store.EmployeeWorksheet, cfg.Store.Timeout)
			table, err = employee.NewService(repo, events.NewEventBus(lg), lg).Departed(ctx, operator)
			sheetName, filename = employee.DepartedWorksheetName, employee.DepartedExportFilename
		case "logs":
			table, err = audit.NewService(store, cfg.Store.LogWorksheet, cfg.Store.Timeout).Table(ctx, operator)
			sheetName, filename = audit.ExportSheet, audit.ExportFilename
		}
		if err != nil {
			log.Fatalf("failed to read %s: %v", args[0], err)
		}

		if exportOutput != "" {
			filename = exportOutput
		}
		if err := writeWorkbook(filename, sheetName, table); err != nil {
			log.Fatalf("failed to export %s: %v", args[0], err)
		}
		fmt.Printf("Exported %d rows to %s\n", len(table.Rows), filename)
	},
}

// operatorSession names the shell user running a CLI read; the CLI holds
// direct store credentials, so no token is issued.
func operatorSession(name string) auth.Session {
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "cli"
	}
	return auth.Session{Username: name}
}

func writeWorkbook(path, sheetName string, table sheet.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Workbook(f, sheetName, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (defaults to anciens.xlsx or logs.xlsx)")
	exportCmd.Flags().StringVar(&exportAs, "as", "", "operator name for the read (defaults to $USER)")
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	worksheetDatamodel "github.com/frahmantamala/hr-registry/internal/core/datamodel/worksheet"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 200

// Store keeps worksheets in two relational tables. It runs on postgres in
// production and on sqlite locally and in tests.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the worksheet tables; used for sqlite, postgres goes through goose.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&worksheetDatamodel.Worksheet{}, &worksheetDatamodel.Row{})
}

func (s *Store) Read(ctx context.Context, worksheet string) (sheet.Table, error) {
	db := s.db.WithContext(ctx)

	var ws worksheetDatamodel.Worksheet
	if err := db.Where("name = ?", worksheet).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sheet.Table{}, fmt.Errorf("%w: %s", sheet.ErrWorksheetMissing, worksheet)
		}
		return sheet.Table{}, sheet.Classify(ctx, err, sheet.ErrReadFailed)
	}

	var columns []string
	if err := json.Unmarshal([]byte(ws.Columns), &columns); err != nil {
		return sheet.Table{}, fmt.Errorf("%w: decode header of %s: %w", sheet.ErrReadFailed, worksheet, err)
	}

	var rows []worksheetDatamodel.Row
	if err := db.Where("worksheet = ?", worksheet).Order("position ASC").Find(&rows).Error; err != nil {
		return sheet.Table{}, sheet.Classify(ctx, err, sheet.ErrReadFailed)
	}

	table := sheet.NewTable(columns)
	for _, r := range rows {
		var cells []string
		if err := json.Unmarshal([]byte(r.Cells), &cells); err != nil {
			return sheet.Table{}, fmt.Errorf("%w: decode row %d of %s: %w", sheet.ErrReadFailed, r.Position, worksheet, err)
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}

// Replace swaps the header and every row of worksheet inside one transaction.
func (s *Store) Replace(ctx context.Context, worksheet string, table sheet.Table) error {
	header, err := json.Marshal(table.Columns)
	if err != nil {
		return fmt.Errorf("%w: encode header: %w", sheet.ErrWriteFailed, err)
	}

	rows := make([]worksheetDatamodel.Row, 0, len(table.Rows))
	for i, cells := range table.Rows {
		if cells == nil {
			cells = []string{}
		}
		encoded, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("%w: encode row %d: %w", sheet.ErrWriteFailed, i, err)
		}
		rows = append(rows, worksheetDatamodel.Row{
			Worksheet: worksheet,
			Position:  i,
			Cells:     string(encoded),
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ws := worksheetDatamodel.Worksheet{Name: worksheet, Columns: string(header)}
		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"header", "updated_at"}),
		}
		if err := tx.Clauses(upsert).Create(&ws).Error; err != nil {
			return err
		}
		if err := tx.Where("worksheet = ?", worksheet).Delete(&worksheetDatamodel.Row{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})

	return sheet.Classify(ctx, err, sheet.ErrWriteFailed)
}

// Package xlsx stores worksheets in a single local .xlsx workbook, so the
// registry can run against a spreadsheet file with no database at all.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Read(ctx context.Context, worksheet string) (sheet.Table, error) {
	if err := ctx.Err(); err != nil {
		return sheet.Table{}, sheet.Classify(ctx, err, sheet.ErrReadFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, order, err := s.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sheet.Table{}, fmt.Errorf("%w: %s", sheet.ErrWorksheetMissing, worksheet)
		}
		return sheet.Table{}, sheet.Classify(ctx, err, sheet.ErrReadFailed)
	}

	if !contains(order, worksheet) {
		return sheet.Table{}, fmt.Errorf("%w: %s", sheet.ErrWorksheetMissing, worksheet)
	}
	return toTable(book[worksheet]), nil
}

// Replace rewrites the workbook with worksheet swapped for table. Other
// worksheets are carried over untouched; the file is replaced by rename.
func (s *Store) Replace(ctx context.Context, worksheet string, table sheet.Table) error {
	if err := ctx.Err(); err != nil {
		return sheet.Classify(ctx, err, sheet.ErrWriteFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, order, err := s.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return sheet.Classify(ctx, err, sheet.ErrWriteFailed)
	}
	if book == nil {
		book = make(map[string][][]string)
	}
	if !contains(order, worksheet) {
		order = append(order, worksheet)
	}
	book[worksheet] = fromTable(table)

	if err := s.write(book, order); err != nil {
		return sheet.Classify(ctx, err, sheet.ErrWriteFailed)
	}
	return sheet.Classify(ctx, ctx.Err(), sheet.ErrWriteFailed)
}

func (s *Store) load() (map[string][][]string, []string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	order := f.GetSheetList()
	book := make(map[string][][]string, len(order))
	for _, name := range order {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read worksheet %s: %w", name, err)
		}
		book[name] = rows
	}
	return book, order, nil
}

func (s *Store) write(book map[string][][]string, order []string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			if name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, name); err != nil {
					return err
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		for r, row := range book[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return err
			}
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".registry-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func toTable(rows [][]string) sheet.Table {
	if len(rows) == 0 {
		return sheet.Table{}
	}
	table := sheet.NewTable(rows[0])
	for _, row := range rows[1:] {
		table.Append(row)
	}
	return table
}

func fromTable(t sheet.Table) [][]string {
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, t.Columns)
	rows = append(rows, t.Rows...)
	return rows
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

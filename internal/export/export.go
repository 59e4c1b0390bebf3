// Package export renders worksheet tables as downloadable .xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"net/http"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrExportFailed = internal.NewExternalError("export failed", internal.ErrCodeExportFailed, http.StatusInternalServerError)

// Workbook writes table as the single worksheet sheetName of a new workbook:
// the header row first, then the data rows in order.
func Workbook(w io.Writer, sheetName string, table sheet.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
	}

	if err := writeRow(f, sheetName, 1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Conform(table.Columns).Rows {
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// Attach sets the headers that make a browser download the workbook as filename.
func Attach(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func writeRow(f *excelize.File, sheetName string, line int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

package employee

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/sheet"
	"github.com/google/uuid"
)

// legacyNamespace seeds the ids of rows stored before the ID column existed.
var legacyNamespace = uuid.MustParse("6f1c7f44-3a55-4a86-9a43-8f6e6f0d2b51")

// Repository is the data access layer over the employee worksheet. Every
// call reads or replaces the whole worksheet; nothing is cached.
type Repository struct {
	store     sheet.Store
	worksheet string
	timeout   time.Duration
}

func NewRepository(store sheet.Store, worksheet string, timeout time.Duration) *Repository {
	if worksheet == "" {
		worksheet = internal.DefaultEmployeeWorksheet
	}
	return &Repository{
		store:     store,
		worksheet: worksheet,
		timeout:   timeout,
	}
}

// Load fetches the worksheet shaped to the canonical schema. A missing or
// empty worksheet yields an empty table. On a store failure the error is
// returned together with an empty canonical table.
func (r *Repository) Load(ctx context.Context) (sheet.Table, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.store.Read(ctx, r.worksheet)
	if err != nil {
		if errors.Is(err, sheet.ErrWorksheetMissing) {
			return sheet.NewTable(Columns), nil
		}
		return sheet.NewTable(Columns), fmt.Errorf("load %s: %w", r.worksheet, sheet.Classify(ctx, err, sheet.ErrReadFailed))
	}

	t := raw.Conform(Columns)
	idx := t.Index(ColID)
	for i, row := range t.Rows {
		if strings.TrimSpace(row[idx]) == "" {
			row[idx] = legacyID(i, row)
		}
	}
	return t, nil
}

// Save replaces the worksheet with t in a single store call. No retry.
func (r *Repository) Save(ctx context.Context, t sheet.Table) error {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Replace(ctx, r.worksheet, t.Conform(Columns)); err != nil {
		return fmt.Errorf("save %s: %w", r.worksheet, sheet.Classify(ctx, err, sheet.ErrWriteFailed))
	}
	return nil
}

func (r *Repository) LoadEmployees(ctx context.Context) ([]Employee, error) {
	t, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return FromTable(t), nil
}

func (r *Repository) SaveEmployees(ctx context.Context, employees []Employee) error {
	return r.Save(ctx, ToTable(employees))
}

// legacyID derives a stable id from a row's position and content so an
// unsaved legacy sheet yields the same ids on every load.
func legacyID(i int, row []string) string {
	name := strconv.Itoa(i) + "\x1f" + strings.Join(row, "\x1f")
	return uuid.NewSHA1(legacyNamespace, []byte(name)).String()
}

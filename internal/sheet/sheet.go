// Package sheet models the remote tabular store the registry is persisted in:
// a set of named worksheets, each holding a rectangular table of string cells
// that is only ever read or replaced as a whole.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/hr-registry/internal"
)

var (
	ErrUnavailable      = internal.NewExternalError("sheet: store unavailable", internal.ErrCodeStoreUnavailable, http.StatusServiceUnavailable)
	ErrReadFailed       = internal.NewExternalError("sheet: read failed", internal.ErrCodeStoreReadFailed, http.StatusBadGateway)
	ErrWriteFailed      = internal.NewExternalError("sheet: write failed", internal.ErrCodeStoreWriteFailed, http.StatusBadGateway)
	ErrWorksheetMissing = internal.NewNotFoundError("sheet: worksheet missing", internal.ErrCodeWorksheetMissing)
)

// Store is the whole-table contract every backend implements.
type Store interface {
	Read(ctx context.Context, worksheet string) (Table, error)
	Replace(ctx context.Context, worksheet string, table Table) error
}

// Classify maps a backend failure onto the store error taxonomy. Deadlines and
// cancellations are reported as ErrUnavailable, anything else as kind.
func Classify(ctx context.Context, err error, kind *internal.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrReadFailed) ||
		errors.Is(err, ErrWriteFailed) || errors.Is(err, ErrWorksheetMissing) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(ctx != nil && ctx.Err() != nil) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

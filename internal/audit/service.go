package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/auth"
	"github.com/frahmantamala/hr-registry/internal/sheet"
)

// Service is the read side of the activity log.
type Service struct {
	store     sheet.Store
	worksheet string
	timeout   time.Duration
}

func NewService(store sheet.Store, worksheet string, timeout time.Duration) *Service {
	if worksheet == "" {
		worksheet = internal.DefaultLogWorksheet
	}
	return &Service{store: store, worksheet: worksheet, timeout: timeout}
}

// Table returns the log in insertion order, canonical columns. A log that
// was never written is empty, not an error.
func (s *Service) Table(ctx context.Context, session auth.Session) (sheet.Table, error) {
	if !session.IsAuthenticated() {
		return sheet.Table{}, auth.ErrInvalidSession
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.store.Read(ctx, s.worksheet)
	if err != nil {
		if errors.Is(err, sheet.ErrWorksheetMissing) {
			return sheet.NewTable(Columns), nil
		}
		return sheet.Table{}, fmt.Errorf("read %s: %w", s.worksheet, sheet.Classify(ctx, err, sheet.ErrReadFailed))
	}
	return t.Conform(Columns), nil
}

func (s *Service) List(ctx context.Context, session auth.Session) ([]Entry, error) {
	t, err := s.Table(ctx, session)
	if err != nil {
		return nil, err
	}
	return FromTable(t), nil
}

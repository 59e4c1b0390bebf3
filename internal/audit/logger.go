package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/frahmantamala/hr-registry/internal/sheet"
)

// Logger appends entries to the log worksheet. It never returns an error:
// failures go to the operator log only.
type Logger struct {
	store     sheet.Store
	worksheet string
	timeout   time.Duration
	clock     Clock
	logger    *slog.Logger
}

func NewLogger(store sheet.Store, worksheet string, timeout time.Duration, logger *slog.Logger) *Logger {
	if worksheet == "" {
		worksheet = internal.DefaultLogWorksheet
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		store:     store,
		worksheet: worksheet,
		timeout:   timeout,
		clock:     realClock{},
		logger:    logger,
	}
}

// WithClock replaces the time source, for tests.
func (l *Logger) WithClock(c Clock) *Logger {
	l.clock = c
	return l
}

// Log records actor doing action, stamped with the current time.
func (l *Logger) Log(ctx context.Context, actor, action, details string) {
	l.Append(ctx, NewEntry(l.clock.Now(), actor, action, details))
}

// Append reads the log, adds entry at the end and writes the whole log back.
// A missing log starts empty. An unreadable log is left as is and the entry
// is dropped, so existing history is never overwritten.
func (l *Logger) Append(ctx context.Context, entry Entry) {
	ctx, cancel := internal.WithTimeout(ctx, l.timeout)
	defer cancel()

	current, err := l.store.Read(ctx, l.worksheet)
	switch {
	case errors.Is(err, sheet.ErrWorksheetMissing):
		current = sheet.NewTable(Columns)
	case err != nil:
		l.logger.Error("audit entry lost, log unreadable",
			"worksheet", l.worksheet,
			"username", entry.Username,
			"action", entry.Action,
			"error", err)
		return
	}

	t := current.Conform(Columns)
	t.Append(entry.Row())

	if err := l.store.Replace(ctx, l.worksheet, t); err != nil {
		l.logger.Error("audit entry lost",
			"worksheet", l.worksheet,
			"username", entry.Username,
			"action", entry.Action,
			"error", err)
	}
}

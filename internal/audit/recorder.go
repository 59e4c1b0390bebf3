package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/hr-registry/internal/core/events"
)

const DefaultQueueSize = 256

// Recorder feeds audit entries to a single writer goroutine through a
// bounded queue. Enqueueing never blocks; a full queue drops the entry.
type Recorder struct {
	logger *Logger
	log    *slog.Logger
	queue  chan Entry
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewRecorder(logger *Logger, size int, log *slog.Logger) *Recorder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		logger: logger,
		log:    log,
		queue:  make(chan Entry, size),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Subscribe wires the recorder to every action event published on bus.
func (r *Recorder) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeActionRecorded, r.Handle)
}

// Handle is the event bus handler for ActionRecordedEvent.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ActionRecordedEvent)
	if !ok {
		return fmt.Errorf("audit: unexpected event %T", event)
	}
	entry := NewEntry(e.OccurredAt(), e.Actor, e.Action, e.Details)
	if !r.Enqueue(entry) {
		return fmt.Errorf("audit: entry dropped for %s/%s", e.Actor, e.Action)
	}
	return nil
}

// Enqueue hands entry to the writer. It reports false when the recorder is
// closed or the queue is full.
func (r *Recorder) Enqueue(entry Entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.log.Error("audit entry dropped, recorder closed", "username", entry.Username, "action", entry.Action)
		return false
	}
	select {
	case r.queue <- entry:
		return true
	default:
		r.log.Error("audit entry dropped, queue full", "username", entry.Username, "action", entry.Action)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.logger.Append(context.Background(), entry)
	}
}

// Close stops accepting entries and waits until every queued entry has been
// written. It is safe to call more than once.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

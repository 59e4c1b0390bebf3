package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps worksheets in process memory. It backs the "memory" store
// backend and lets tests inject read and write failures.
type MemoryStore struct {
	mu         sync.Mutex
	worksheets map[string]Table
	readErr    map[string]error
	writeErr   map[string]error
	writes     map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		worksheets: make(map[string]Table),
		readErr:    make(map[string]error),
		writeErr:   make(map[string]error),
		writes:     make(map[string]int),
	}
}

func (m *MemoryStore) Read(ctx context.Context, worksheet string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, Classify(ctx, err, ErrReadFailed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readErr[worksheet]; err != nil {
		return Table{}, err
	}
	t, ok := m.worksheets[worksheet]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrWorksheetMissing, worksheet)
	}
	return t.Clone(), nil
}

func (m *MemoryStore) Replace(ctx context.Context, worksheet string, table Table) error {
	if err := ctx.Err(); err != nil {
		return Classify(ctx, err, ErrWriteFailed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeErr[worksheet]; err != nil {
		return err
	}
	m.worksheets[worksheet] = table.Clone()
	m.writes[worksheet]++
	return nil
}

// Put seeds a worksheet without counting it as a write.
func (m *MemoryStore) Put(worksheet string, table Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worksheets[worksheet] = table.Clone()
}

func (m *MemoryStore) FailReads(worksheet string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr[worksheet] = err
}

func (m *MemoryStore) FailWrites(worksheet string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr[worksheet] = err
}

// Writes reports how many successful Replace calls hit worksheet.
func (m *MemoryStore) Writes(worksheet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[worksheet]
}

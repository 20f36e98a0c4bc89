package audit

import (
	"context"
	"sync"
)

// Memory guarda los registros en memoria. Para dev y tests.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	m.mu.Lock()
	m.records = append(m.records, *rec)
	m.mu.Unlock()
	return nil
}

// Records devuelve una copia de lo registrado.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

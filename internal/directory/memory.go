package directory

import "context"

// Memory es un listado inmutable de entradas. El lookup es un scan lineal:
// gana la primera entrada que matchea.
type Memory struct {
	entries []Entry
}

func NewMemory(entries ...Entry) *Memory {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Memory{entries: cp}
}

func (m *Memory) Lookup(_ context.Context, key Key) (*Entry, error) {
	for i := range m.entries {
		if key.matches(&m.entries[i]) {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

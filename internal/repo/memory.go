package repo

import (
	"context"
	"sync"

	"trash-notify/internal/weekly"
)

// MemoryStore keeps records in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]weekly.Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]weekly.Record)}
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Get(_ context.Context, id string) (*weekly.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) Put(_ context.Context, rec *weekly.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = *rec
	return nil
}

func (m *MemoryStore) UpdateField(_ context.Context, id string, field Field, value any) error {
	if _, err := encodeField(field, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case FieldName:
		rec.Name = value.(string)
	case FieldState:
		rec.State = value.(weekly.DialogState)
	case FieldSetting:
		switch notes := value.(type) {
		case [weekly.Days]string:
			rec.Notes = notes
		case []string:
			rec.Notes = weekly.NormalizeNotes(notes)
		}
	}
	m.records[id] = rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) ListAll(context.Context) ([]weekly.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]weekly.Record, 0, len(m.records))
	for _, rec := range m.records {
		res = append(res, rec)
	}
	return res, nil
}

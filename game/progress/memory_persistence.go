package progress

import (
	"context"
	"sync"
)

// MemoryPersistence keeps the encoded record in memory. Progress is lost
// when the process exits.
type MemoryPersistence struct {
	mu    sync.RWMutex
	data  []byte
	saves int

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

// NewMemoryPersistence creates an empty in-memory persistence.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

// Load decodes the last saved record.
func (m *MemoryPersistence) Load(ctx context.Context) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, ErrNoSave
	}
	return DecodeRecord(m.data)
}

// Save encodes and keeps the record.
func (m *MemoryPersistence) Save(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

// SetRaw replaces the stored bytes, for loading hand-written records.
func (m *MemoryPersistence) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// Raw returns the stored bytes.
func (m *MemoryPersistence) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

// Saves returns how many saves succeeded.
func (m *MemoryPersistence) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

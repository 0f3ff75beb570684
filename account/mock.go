package account

import "sync"

// MemBackend keeps the record in memory, for tests and throwaway runs.
type MemBackend struct {
	sync.Mutex
	Backend

	data []byte

	// FailSave, when set, makes Save return this error.
	FailSave error
}

func (m *MemBackend) Load() ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	return m.data, nil
}

func (m *MemBackend) Save(data []byte) error {
	m.Lock()
	defer m.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.data = append([]byte(nil), data...)
	return nil
}

package wallet

import "sync"

// Store persists the last connected address across restarts.
type Store interface {
	LastAccount() (string, error)
	SetLastAccount(account string) error
	ClearLastAccount() error
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	account string
	// Err is returned by every call when set
	Err error
}

func (m *MemoryStore) LastAccount() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account, m.Err
}

func (m *MemoryStore) SetLastAccount(account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.account = account
	return nil
}

func (m *MemoryStore) ClearLastAccount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.account = ""
	return nil
}

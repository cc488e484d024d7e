package credstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

func NewMemory() Store { return &memoryStore{} }

func (m *memoryStore) Load(context.Context) (Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, false, nil
	}
	return *m.cred, true, nil
}

func (m *memoryStore) Save(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

func (m *memoryStore) Close() error { return nil }

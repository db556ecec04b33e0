package credstore

import (
	"context"
	"sync"

	"github.com/dmitrymomot/squadcart/core/session"
)

// Memory is an in-process Persister.
type Memory struct {
	mu    sync.RWMutex
	creds *session.Credentials
}

// NewMemory returns an empty Memory persister.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements session.Persister.
func (m *Memory) Load(context.Context) (session.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return session.Credentials{}, session.ErrNoCredentials
	}
	return *m.creds, nil
}

// Save implements session.Persister.
func (m *Memory) Save(_ context.Context, creds session.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &creds
	return nil
}

// Clear implements session.Persister.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/session"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return tok
}

// memPersister is a minimal in-memory Persister that counts calls.
type memPersister struct {
	mu     sync.Mutex
	creds  *session.Credentials
	loads  int
	clears int
}

func (p *memPersister) Load(context.Context) (session.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	if p.creds == nil {
		return session.Credentials{}, session.ErrNoCredentials
	}
	return *p.creds, nil
}

func (p *memPersister) Save(_ context.Context, c session.Credentials) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds = &c
	return nil
}

func (p *memPersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
	p.creds = nil
	return nil
}

func (p *memPersister) stored() *session.Credentials {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.creds == nil {
		return nil
	}
	c := *p.creds
	return &c
}

// mockPersister implements session.Persister with testify mocks.
type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Load(ctx context.Context) (session.Credentials, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Credentials), args.Error(1)
}

func (m *mockPersister) Save(ctx context.Context, c session.Credentials) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockPersister) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newStore(t *testing.T) (*session.Store, *memPersister, *memPersister) {
	t.Helper()
	durable, ephemeral := &memPersister{}, &memPersister{}
	store, err := session.New(session.WithDurable(durable), session.WithEphemeral(ephemeral))
	require.NoError(t, err)
	return store, durable, ephemeral
}

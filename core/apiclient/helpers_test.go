package apiclient_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/credstore"
	"github.com/dmitrymomot/squadcart/core/session"
)

func mintToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        sub,
		"company_id": "c-1",
		"role":       "admin",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"jti":        time.Now().UnixNano(),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return tok
}

type tiers struct {
	durable   *credstore.Memory
	ephemeral *credstore.Memory
}

func newStore(t *testing.T) (*session.Store, tiers) {
	t.Helper()
	tr := tiers{durable: credstore.NewMemory(), ephemeral: credstore.NewMemory()}
	store, err := session.New(session.WithDurable(tr.durable), session.WithEphemeral(tr.ephemeral))
	require.NoError(t, err)
	return store, tr
}

// fakeTokens is a static TokenSource.
type fakeTokens struct {
	access  string
	refresh string
}

func (f fakeTokens) AccessToken() string  { return f.access }
func (f fakeTokens) RefreshToken() string { return f.refresh }

// recorder captures the Authorization headers a handler sees.
type recorder struct {
	mu    sync.Mutex
	auths []string
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auths = append(r.auths, req.Header.Get("Authorization"))
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.auths...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// eventLog collects session events.
type eventLog struct {
	mu     sync.Mutex
	events []session.Event
}

func (l *eventLog) listen(e session.Event, _ session.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []session.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]session.Event(nil), l.events...)
}

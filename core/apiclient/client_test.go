package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/apiclient"
	"github.com/dmitrymomot/squadcart/core/cache"
	"github.com/dmitrymomot/squadcart/core/session"
)

// fakeBackend is a minimal dashboard API. Access tokens listed in valid are
// accepted; refresh hands out next.
type fakeBackend struct {
	mu      sync.Mutex
	valid   map[string]bool
	next    string
	nextRT  string
	refresh func(w http.ResponseWriter)

	refreshCalls atomic.Int32
	hits         map[string]int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{valid: map[string]bool{}, hits: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		b.mu.Lock()
		custom := b.refresh
		next, nextRT := b.next, b.nextRT
		if next != "" {
			b.valid[next] = true
		}
		b.mu.Unlock()

		if custom != nil {
			custom(w)
			return
		}
		data, _ := json.Marshal(map[string]any{
			"success": true,
			"data":    map[string]string{"accessToken": next, "refreshToken": nextRT},
		})
		writeJSON(w, http.StatusOK, string(data))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		tok := r.Header.Get("Authorization")
		ok := len(tok) > 7 && b.valid[tok[7:]]
		b.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, `{"message":"jwt expired"}`)
			return
		}
		if r.URL.Path == "/missing" {
			writeJSON(w, http.StatusNotFound, `{"error":{"message":"no such resource"}}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"path":%q,"token":%q}`, r.URL.Path, tok[7:]))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) accept(tokens ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tok := range tokens {
		b.valid[tok] = true
	}
}

func (b *fakeBackend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.valid, token)
}

func (b *fakeBackend) issue(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next, b.nextRT = access, refresh
}

func (b *fakeBackend) onRefresh(fn func(w http.ResponseWriter)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh = fn
}

func (b *fakeBackend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func newClient(t *testing.T, baseURL string, store *session.Store, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(baseURL, store, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := apiclient.New("http://api.test", nil)
	assert.ErrorIs(t, err, apiclient.ErrNoStore)

	store, _ := newStore(t)
	_, err = apiclient.New("", store)
	assert.ErrorIs(t, err, apiclient.ErrNoBaseURL)
}

func TestClient_RefreshUpdatesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, tr := newStore(t)
	c := newClient(t, srv.URL, store)

	t1, t2 := mintToken(t, "u-1"), mintToken(t, "u-1")
	require.NoError(t, store.Login(ctx, t1, "R1", true))
	backend.issue(t2, "R2")

	events := &eventLog{}
	store.Subscribe(events.listen)

	resp, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), t2)

	snap := store.Snapshot()
	assert.Equal(t, t2, snap.AccessToken)
	assert.Equal(t, "R2", snap.RefreshToken)
	assert.True(t, snap.RememberMe)
	assert.Equal(t, "u-1", snap.User.Subject())

	persisted, err := tr.durable.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2, persisted.AccessToken)
	assert.Equal(t, "R2", persisted.RefreshToken)

	assert.Equal(t, []session.Event{session.EventRefresh}, events.all())
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
}

func TestClient_RefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, tr := newStore(t)
	c := newClient(t, srv.URL, store)

	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))
	t2 := mintToken(t, "u-1")
	backend.issue(t2, "")

	_, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	require.NoError(t, err)

	assert.Equal(t, "R1", store.RefreshToken())
	persisted, err := tr.ephemeral.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2, persisted.AccessToken)
	assert.Equal(t, "R1", persisted.RefreshToken)
}

func TestClient_NoTokenLogsOutWithoutRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)

	events := &eventLog{}
	store.Subscribe(events.listen)

	resp, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	assert.True(t, apiclient.IsUnauthorized(err))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Zero(t, backend.refreshCalls.Load())
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, []session.Event{session.EventLogout}, events.all())
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	backend.onRefresh(func(w http.ResponseWriter) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})
	store, tr := newStore(t)
	c := newClient(t, srv.URL, store)

	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", true))

	resp, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, int32(3), backend.refreshCalls.Load())
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.AccessToken())

	_, err = tr.durable.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoCredentials)
	_, err = tr.ephemeral.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoCredentials)
}

func TestClient_MissingTokenInEnvelopeIsFatal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	backend.onRefresh(func(w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{}}`)
	})
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)

	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))

	_, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.False(t, store.IsAuthenticated())
}

func TestClient_UndecodableRefreshedTokenEndsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	backend.issue("not-a-jwt", "R2")
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)

	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))

	_, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	assert.ErrorIs(t, err, session.ErrDecodeFailed)
	assert.False(t, store.IsAuthenticated())
}

func TestClient_FailedRefreshDoesNotClobberNewLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, _ := newStore(t)
	fresh := mintToken(t, "u-2")

	// While the refresh is in flight another login replaces the session.
	refresher := apiclient.RefresherFunc(func(ctx context.Context, _ string) apiclient.RefreshOutcome {
		require.NoError(t, store.Login(ctx, fresh, "R9", false))
		return &apiclient.RefreshFailure{Reason: apiclient.ReasonRejected}
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{}`)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, store, apiclient.WithRefresher(refresher))
	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))

	resp, err := c.Do(ctx, apiclient.Request{Path: "/orders"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apiclient.ErrUnauthenticated, "the session was not ended")
	assert.True(t, apiclient.IsUnauthorized(err))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, fresh, store.AccessToken())
	assert.Equal(t, "R9", store.RefreshToken())
}

func TestClient_RefreshKeepsReplacedSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, _ := newStore(t)
	fresh := mintToken(t, "u-1")

	refresher := apiclient.RefresherFunc(func(ctx context.Context, refreshToken string) apiclient.RefreshOutcome {
		require.Equal(t, "R1", refreshToken)
		require.NoError(t, store.Login(ctx, fresh, "R2", true))
		return &apiclient.RefreshFailure{Reason: apiclient.ReasonRejected}
	})

	c := newClient(t, "http://api.test", store,
		apiclient.WithRefresher(refresher),
		apiclient.WithRefreshDedup(false),
	)
	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))

	require.NoError(t, c.Refresh(ctx))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, fresh, store.AccessToken())
	assert.Equal(t, "R2", store.RefreshToken())
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)

	tok := mintToken(t, "u-1")
	backend.accept(tok)
	require.NoError(t, store.Login(ctx, tok, "R1", false))

	resp, err := c.Do(ctx, apiclient.Request{Path: "/missing"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apiclient.ErrUnauthenticated)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no such resource", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, store.IsAuthenticated())
	assert.Zero(t, backend.refreshCalls.Load())
}

func TestClient_CacheResetScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store, apiclient.WithCache(cache.NewMemory()))

	userA := mintToken(t, "u-a")
	backend.accept(userA)
	require.NoError(t, store.Login(ctx, userA, "RA", false))

	first, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, backend.hitCount("GET /orders"))

	// Expire user A's token so the next uncached call goes through a refresh.
	renewed := mintToken(t, "u-a")
	backend.revoke(userA)
	backend.issue(renewed, "RA2")
	_, err = c.Query(ctx, "/products", cache.TagProducts)
	require.NoError(t, err)
	require.Equal(t, renewed, store.AccessToken())

	afterRefresh, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.True(t, afterRefresh.Cached, "a refresh must not reset the cache")
	assert.Equal(t, 1, backend.hitCount("GET /orders"))

	userB := mintToken(t, "u-b")
	backend.accept(userB)
	require.NoError(t, store.Login(ctx, userB, "RB", false))

	afterLogin, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.False(t, afterLogin.Cached, "a new login must reset the cache")
	assert.Contains(t, string(afterLogin.Body), userB)
	assert.Equal(t, 2, backend.hitCount("GET /orders"))
}

func TestClient_MutateInvalidatesTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store, apiclient.WithCache(cache.NewMemory()))

	tok := mintToken(t, "u-1")
	backend.accept(tok)
	require.NoError(t, store.Login(ctx, tok, "R1", false))

	_, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	_, err = c.Query(ctx, "/categories", cache.TagCategories)
	require.NoError(t, err)

	_, err = c.Mutate(ctx, http.MethodPost, "/orders", map[string]any{"sku": "A1"}, cache.TagOrders)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.hitCount("POST /orders"))

	orders, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.False(t, orders.Cached)

	categories, err := c.Query(ctx, "/categories", cache.TagCategories)
	require.NoError(t, err)
	assert.True(t, categories.Cached)
}

func TestClient_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tok := mintToken(t, "u-7")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			writeJSON(w, http.StatusBadRequest, `{"message":"login must be anonymous"}`)
			return
		}
		var body map[string]string
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)

		switch body["password"] {
		case "secret":
			writeJSON(w, http.StatusOK, fmt.Sprintf(
				`{"success":true,"data":{"accessToken":%q,"refreshToken":"R7","user":{"name":"Ada","email":"ada@example.com"}}}`, tok))
		case "locked":
			writeJSON(w, http.StatusOK, `{"success":false,"message":"account locked"}`)
		case "empty":
			writeJSON(w, http.StatusOK, `{"success":true,"data":{}}`)
		default:
			writeJSON(w, http.StatusUnauthorized, `{"message":"invalid credentials"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Run("success starts a remembered session", func(t *testing.T) {
		t.Parallel()
		store, tr := newStore(t)
		c := newClient(t, srv.URL, store, apiclient.WithCache(cache.NewMemory()))

		sess, err := c.Login(ctx, "ada@example.com", "secret", true)
		require.NoError(t, err)
		assert.True(t, sess.IsAuthenticated())
		assert.Equal(t, "u-7", sess.User.Subject())
		assert.Equal(t, "Ada", sess.User.String("name"))
		assert.Equal(t, "R7", sess.RefreshToken)

		persisted, err := tr.durable.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, tok, persisted.AccessToken)
		_, err = tr.ephemeral.Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoCredentials)
	})

	t.Run("bad password is an API error without refresh", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t)
		var refreshes atomic.Int32
		c := newClient(t, srv.URL, store, apiclient.WithRefresher(countingRefresher(&refreshes, apiclient.RefreshSuccess{})))

		_, err := c.Login(ctx, "ada@example.com", "wrong", false)
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "invalid credentials", apiErr.Message)
		assert.False(t, store.IsAuthenticated())
		assert.Zero(t, refreshes.Load())
	})

	t.Run("rejected envelope", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t)
		c := newClient(t, srv.URL, store)

		_, err := c.Login(ctx, "ada@example.com", "locked", false)
		assert.ErrorIs(t, err, apiclient.ErrRejected)
		assert.Contains(t, err.Error(), "account locked")
		assert.False(t, store.IsAuthenticated())
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		store, _ := newStore(t)
		c := newClient(t, srv.URL, store)

		_, err := c.Login(ctx, "ada@example.com", "empty", false)
		assert.ErrorIs(t, err, apiclient.ErrMalformedReply)
		assert.False(t, store.IsAuthenticated())
	})
}

func TestClient_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tok := mintToken(t, "u-1")

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+tok {
			writeJSON(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"user":{"name":"New Name","phone":"+100"}}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)
	require.NoError(t, store.Login(ctx, tok, "R1", false))

	user, err := c.UpdateProfile(ctx, map[string]any{"name": "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.String("name"))
	assert.Equal(t, "+100", user.String("phone"))
	assert.Equal(t, "u-1", user.Subject(), "existing claims survive a merge")
	assert.Equal(t, tok, store.AccessToken(), "tokens are untouched")
}

func TestClient_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store)

	require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", true))
	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Session().IsAuthenticated())
}

func TestClient_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("renews credentials", func(t *testing.T) {
		t.Parallel()
		backend, srv := newFakeBackend(t)
		store, _ := newStore(t)
		c := newClient(t, srv.URL, store)

		require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", true))
		t2 := mintToken(t, "u-1")
		backend.issue(t2, "R2")

		require.NoError(t, c.Refresh(ctx))
		assert.Equal(t, t2, store.AccessToken())
		assert.Equal(t, "R2", store.RefreshToken())
		assert.Equal(t, int32(1), backend.refreshCalls.Load())
	})

	t.Run("without refresh token ends the session", func(t *testing.T) {
		t.Parallel()
		backend, srv := newFakeBackend(t)
		store, _ := newStore(t)
		c := newClient(t, srv.URL, store)

		require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "", false))

		err := c.Refresh(ctx)
		assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
		assert.False(t, store.IsAuthenticated())
		assert.Zero(t, backend.refreshCalls.Load())
	})

	t.Run("rejected refresh ends the session", func(t *testing.T) {
		t.Parallel()
		backend, srv := newFakeBackend(t)
		backend.onRefresh(func(w http.ResponseWriter) {
			writeJSON(w, http.StatusOK, `{"success":false}`)
		})
		store, _ := newStore(t)
		c := newClient(t, srv.URL, store)

		require.NoError(t, store.Login(ctx, mintToken(t, "u-1"), "R1", false))

		err := c.Refresh(ctx)
		assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
		assert.False(t, store.IsAuthenticated())
		assert.Equal(t, int32(1), backend.refreshCalls.Load())
	})
}

func TestClient_LogoutResetsCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	store, _ := newStore(t)
	c := newClient(t, srv.URL, store, apiclient.WithCache(cache.NewMemory()))

	tok := mintToken(t, "u-1")
	backend.accept(tok)
	require.NoError(t, store.Login(ctx, tok, "R1", false))

	_, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	cached, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	require.True(t, cached.Cached)

	require.NoError(t, c.Logout(ctx))

	resp, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	require.NotNil(t, resp)
	assert.False(t, resp.Cached, "a logged-out client must not read cached data")
	assert.NotContains(t, string(resp.Body), tok)
	assert.Equal(t, 2, backend.hitCount("GET /orders"))

	// Logging back in as the same user starts from an empty cache too.
	require.NoError(t, store.Login(ctx, tok, "R1", false))
	again, err := c.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.False(t, again.Cached)
	assert.Equal(t, 3, backend.hitCount("GET /orders"))
}

func TestClient_CacheScopedToIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend, srv := newFakeBackend(t)
	shared := cache.NewMemory()

	storeA, _ := newStore(t)
	storeB, _ := newStore(t)
	tokA, tokB := mintToken(t, "u-a"), mintToken(t, "u-b")
	backend.accept(tokA)
	backend.accept(tokB)
	require.NoError(t, storeA.Login(ctx, tokA, "RA", true))
	require.NoError(t, storeB.Login(ctx, tokB, "RB", true))

	// Both clients share one cache, as two CLI profiles sharing Redis do.
	a := newClient(t, srv.URL, storeA, apiclient.WithCache(shared))
	b := newClient(t, srv.URL, storeB, apiclient.WithCache(shared))

	fromA, err := a.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.Contains(t, string(fromA.Body), tokA)

	fromB, err := b.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.False(t, fromB.Cached)
	assert.Contains(t, string(fromB.Body), tokB)
	assert.NotContains(t, string(fromB.Body), tokA)
	assert.Equal(t, 2, backend.hitCount("GET /orders"))

	againA, err := a.Query(ctx, "/orders", cache.TagOrders)
	require.NoError(t, err)
	assert.True(t, againA.Cached)
	assert.Equal(t, fromA.Body, againA.Body)
}

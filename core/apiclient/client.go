package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/squadcart/core/cache"
	"github.com/dmitrymomot/squadcart/core/logger"
	"github.com/dmitrymomot/squadcart/core/session"
)

// Backend endpoints used by the Client helpers.
const (
	LoginPath   = "/auth/login"
	ProfilePath = "/auth/profile"
)

// Client runs requests through the Pipeline and applies each Result to the
// session store. It also owns the response cache and resets it whenever a
// new identity logs in.
type Client struct {
	store    *session.Store
	pipeline *Pipeline
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	// epoch changes on every cache reset so a read started under one
	// identity is not cached under the next.
	epoch       atomic.Uint64
	unsubscribe func()
}

// New creates a Client for the API at baseURL.
func New(baseURL string, store *session.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	o := clientOptions{
		logger:      logger.Discard(),
		maxAttempts: DefaultMaxRefreshAttempts,
		dedup:       true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("apiclient: create cookie jar: %w", err)
		}
		o.httpClient = &http.Client{Timeout: 30 * time.Second, Jar: jar}
	}
	if o.refresher == nil {
		o.refresher = NewHTTPRefresher(baseURL,
			WithRefreshHTTPClient(o.httpClient),
			WithDeduplication(o.dedup),
		)
	}

	p, err := NewPipeline(baseURL, store, o.refresher,
		WithDoer(o.httpClient),
		WithMaxRefreshAttempts(o.maxAttempts),
		WithPipelineLogger(o.logger),
		WithPipelineMetrics(o.metrics),
		WithUserAgent(o.userAgent),
	)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:    store,
		pipeline: p,
		cache:    o.cache,
		cacheTTL: o.cacheTTL,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	c.unsubscribe = store.Subscribe(c.onSessionEvent)
	return c, nil
}

// NewFromConfig creates a Client from cfg. opts are applied after the
// configured values.
func NewFromConfig(cfg Config, store *session.Store, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: create cookie jar: %w", err)
	}

	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout, Jar: jar}),
		WithRefreshAttempts(cfg.RefreshMaxAttempts),
		WithRefreshDedup(cfg.RefreshDedup),
		WithCacheTTL(cfg.CacheTTL),
		WithClientUserAgent(cfg.UserAgent),
	}
	return New(cfg.BaseURL, store, append(base, opts...)...)
}

// Close detaches the client from the session store.
func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Session returns a snapshot of the current session.
func (c *Client) Session() session.Session {
	return c.store.Snapshot()
}

// onSessionEvent drops cached responses whenever the identity starts or
// ends. Refreshes keep the cache.
func (c *Client) onSessionEvent(e session.Event, _ session.Session) {
	if c.cache == nil || (e != session.EventLogin && e != session.EventLogout) {
		return
	}

	c.epoch.Add(1)
	if err := c.cache.Reset(context.Background()); err != nil {
		c.logger.Warn("failed to reset response cache",
			logger.Component("apiclient"),
			logger.Event(e.String()),
			logger.Error(err),
		)
		return
	}
	c.logger.Debug("response cache reset",
		logger.Component("apiclient"),
		logger.Event(e.String()),
	)
}

// Do sends req through the pipeline and applies the outcome to the session.
//
// Non-2xx responses are returned together with an *APIError. When the
// session had to be ended the error also matches ErrUnauthenticated. On a
// successful mutation the tags in req.Invalidates are dropped from the cache.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	res, err := c.pipeline.Execute(ctx, req)
	if aerr := c.apply(ctx, res); aerr != nil {
		return res.Response, errors.Join(aerr, res.Response.Err())
	}

	if err != nil {
		return res.Response, err
	}
	if err := res.Response.Err(); err != nil {
		return res.Response, err
	}

	if len(req.Invalidates) > 0 && c.cache != nil {
		if err := c.cache.InvalidateTags(ctx, req.Invalidates...); err != nil {
			c.logger.WarnContext(ctx, "failed to invalidate cached responses",
				logger.Component("apiclient"),
				logger.Tags(req.Invalidates),
				logger.Error(err),
			)
		}
	}
	return res.Response, nil
}

// Refresh renews the session's credentials without sending a request.
// The returned error matches ErrUnauthenticated when the session had to be
// ended. If the refresh failed after another caller replaced the session,
// the newer credentials are kept and nil is returned.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.pipeline.Renew(ctx)
	if aerr := c.apply(ctx, res); aerr != nil {
		return aerr
	}
	return err
}

// apply translates a pipeline Result into store mutations. It returns a
// non-nil error only when the session ended. A failed refresh for a session
// that was replaced in the meantime leaves the store alone and reports nothing;
// the caller then sees the original response.
func (c *Client) apply(ctx context.Context, res Result) error {
	switch res.Outcome {
	case OutcomeRefreshed:
		return c.applyRefresh(ctx, res)
	case OutcomeLoggedOut:
		ended, err := c.store.LogoutIfUnchanged(ctx, res.Previous)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to purge credentials after refresh failure",
				logger.Component("apiclient"),
				logger.Error(err),
			)
		}
		if !ended {
			c.logger.DebugContext(ctx, "refresh failed for a replaced session, keeping it",
				logger.Component("apiclient"),
				logger.Reason(string(res.Reason)),
			)
			return nil
		}
		return ErrUnauthenticated
	default:
		return nil
	}
}

func (c *Client) applyRefresh(ctx context.Context, res Result) error {
	err := c.store.ApplyRefresh(ctx, session.Refresh{
		Previous:     res.Previous,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrStaleRefresh):
		c.logger.DebugContext(ctx, "discarded refresh result for a replaced session",
			logger.Component("apiclient"),
		)
		return nil
	case errors.Is(err, session.ErrDecodeFailed):
		c.logger.WarnContext(ctx, "refreshed access token is undecodable, session ended",
			logger.Component("apiclient"),
			logger.Error(err),
		)
		return errors.Join(ErrUnauthenticated, err)
	default:
		c.logger.WarnContext(ctx, "failed to persist refreshed credentials",
			logger.Component("apiclient"),
			logger.Error(err),
		)
		return nil
	}
}

// Query performs a GET and caches successful bodies under the given tags.
// Entries are scoped to the signed-in identity; logged-out reads bypass the
// cache.
func (c *Client) Query(ctx context.Context, path string, tags ...cache.Tag) (*Response, error) {
	key, cacheable := c.cacheKey(path)

	if cacheable {
		body, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "response cache read failed",
				logger.Component("apiclient"),
				logger.Path(path),
				logger.Error(err),
			)
		case ok:
			c.metrics.observeCache(true)
			c.logger.DebugContext(ctx, "response cache lookup",
				logger.Component("apiclient"),
				logger.Path(path),
				logger.Result("hit"),
			)
			return &Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"application/json"}},
				Body:       body,
				Cached:     true,
			}, nil
		default:
			c.metrics.observeCache(false)
		}
	}

	epoch := c.epoch.Load()
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Tags: tags})
	if err != nil {
		return resp, err
	}

	if cacheable && c.epoch.Load() == epoch {
		if err := c.cache.Set(ctx, key, resp.Body, c.cacheTTL, tags...); err != nil {
			c.logger.WarnContext(ctx, "response cache write failed",
				logger.Component("apiclient"),
				logger.Path(path),
				logger.Error(err),
			)
		}
	}
	return resp, nil
}

// cacheKey derives the cache key for a GET of path from the current identity.
func (c *Client) cacheKey(path string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	sess := c.store.Snapshot()
	if !sess.IsAuthenticated() {
		return "", false
	}
	return sess.User.CompanyID() + "/" + sess.User.Subject() + " " + http.MethodGet + " " + path, true
}

// Mutate sends a non-GET request with an optional JSON body. On success the
// invalidated tags are dropped from the cache.
func (c *Client) Mutate(ctx context.Context, method, path string, body any, invalidates ...cache.Tag) (*Response, error) {
	return c.Do(ctx, Request{
		Method:      method,
		Path:        path,
		Body:        body,
		Invalidates: invalidates,
	})
}

type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
		User         map[string]any `json:"user"`
	} `json:"data"`
}

// Login authenticates with email and password and starts a session.
// rememberMe selects durable credential storage.
//
// A session that started but could not be persisted is returned together
// with an error matching session.ErrPersist.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (session.Session, error) {
	resp, err := c.pipeline.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   map[string]any{"email": email, "password": password},
	}, "")
	if err != nil {
		return session.Session{}, err
	}
	if err := resp.Err(); err != nil {
		return session.Session{}, err
	}

	var env loginEnvelope
	if err := resp.Decode(&env); err != nil {
		return session.Session{}, errors.Join(ErrMalformedReply, err)
	}
	if !env.Success {
		return session.Session{}, rejected(env.Message)
	}
	if env.Data == nil || env.Data.AccessToken == "" {
		return session.Session{}, fmt.Errorf("%w: missing access token", ErrMalformedReply)
	}

	err = c.store.Login(ctx, env.Data.AccessToken, env.Data.RefreshToken, rememberMe)
	if errors.Is(err, session.ErrDecodeFailed) {
		return session.Session{}, err
	}
	if len(env.Data.User) > 0 {
		if merr := c.store.MergeUser(session.Claims(env.Data.User)); merr != nil {
			err = errors.Join(err, merr)
		}
	}
	return c.store.Snapshot(), err
}

// UpdateProfile patches the current user's profile and merges the returned
// user (or, if the server echoes nothing, the submitted fields) into the
// session.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (session.Claims, error) {
	resp, err := c.Mutate(ctx, http.MethodPatch, ProfilePath, fields, cache.TagUsers)
	if err != nil {
		return nil, err
	}

	var env struct {
		Success *bool          `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	user := session.Claims(fields)
	if len(resp.Body) > 0 {
		if err := resp.Decode(&env); err != nil {
			return nil, errors.Join(ErrMalformedReply, err)
		}
		if env.Success != nil && !*env.Success {
			return nil, rejected(env.Message)
		}
		if nested, ok := env.Data["user"].(map[string]any); ok {
			user = nested
		} else if len(env.Data) > 0 {
			user = env.Data
		}
	}

	if err := c.store.MergeUser(user); err != nil {
		return nil, err
	}
	return c.store.Snapshot().User, nil
}

// Logout ends the local session.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Logout(ctx)
}

func rejected(msg string) error {
	if msg == "" {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

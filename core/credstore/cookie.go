package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/squadcart/core/cookie"
	"github.com/dmitrymomot/squadcart/core/session"
)

// DefaultCookieName is the jar entry holding the credentials.
const DefaultCookieName = "squadcart_session"

// CookieOption configures a Cookie persister.
type CookieOption func(*Cookie)

// WithCookieName overrides the jar entry name.
func WithCookieName(name string) CookieOption {
	return func(c *Cookie) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCookieMaxAge sets the lifetime of the stored credentials in seconds.
// Zero falls back to the jar defaults.
func WithCookieMaxAge(seconds int) CookieOption {
	return func(c *Cookie) {
		c.maxAge = seconds
	}
}

// Cookie persists credentials as a sealed cookie in a file-backed jar.
type Cookie struct {
	jar    *cookie.Jar
	name   string
	maxAge int
}

// NewCookie creates a durable persister on top of jar.
func NewCookie(jar *cookie.Jar, opts ...CookieOption) *Cookie {
	c := &Cookie{jar: jar, name: DefaultCookieName}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load implements session.Persister. Missing and expired cookies report
// session.ErrNoCredentials; tampered or corrupt ones return the jar error.
func (c *Cookie) Load(context.Context) (session.Credentials, error) {
	var creds session.Credentials
	err := c.jar.GetJSON(c.name, &creds)
	switch {
	case err == nil:
		return creds, nil
	case errors.Is(err, cookie.ErrCookieNotFound), errors.Is(err, cookie.ErrExpired):
		return session.Credentials{}, session.ErrNoCredentials
	default:
		return session.Credentials{}, fmt.Errorf("credstore: read cookie %q: %w", c.name, err)
	}
}

// Save implements session.Persister.
func (c *Cookie) Save(_ context.Context, creds session.Credentials) error {
	var opts []cookie.Option
	if c.maxAge != 0 {
		opts = append(opts, cookie.WithMaxAge(c.maxAge))
	}
	return c.jar.SetJSON(c.name, creds, opts...)
}

// Clear implements session.Persister.
func (c *Cookie) Clear(context.Context) error {
	return c.jar.Delete(c.name)
}

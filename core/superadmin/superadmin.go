package superadmin

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/squadcart/core/cookie"
)

// DefaultName is the jar entry holding the flag.
const DefaultName = "squadcart_superadmin"

const enabledValue = "1"

// Gate is a durable boolean flag for the secondary superadmin login. It is
// independent of the user session: logging out does not clear it.
type Gate struct {
	jar  *cookie.Jar
	name string
}

// Option configures a Gate.
type Option func(*Gate)

// WithName overrides DefaultName.
func WithName(name string) Option {
	return func(g *Gate) {
		if name != "" {
			g.name = name
		}
	}
}

// New creates a gate stored in jar.
func New(jar *cookie.Jar, opts ...Option) *Gate {
	g := &Gate{jar: jar, name: DefaultName}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enable sets the flag. It does not expire.
func (g *Gate) Enable() error {
	if err := g.jar.Set(g.name, enabledValue, cookie.WithSignedOnly(), cookie.WithMaxAge(0)); err != nil {
		return fmt.Errorf("superadmin: enable: %w", err)
	}
	return nil
}

// Disable clears the flag.
func (g *Gate) Disable() error {
	if err := g.jar.Delete(g.name); err != nil {
		return fmt.Errorf("superadmin: disable: %w", err)
	}
	return nil
}

// Enabled reports whether the flag is set. A missing flag is not an error;
// a tampered one reports false with the error.
func (g *Gate) Enabled() (bool, error) {
	v, err := g.jar.Get(g.name)
	switch {
	case err == nil:
		return v == enabledValue, nil
	case errors.Is(err, cookie.ErrCookieNotFound), errors.Is(err, cookie.ErrExpired):
		return false, nil
	default:
		return false, fmt.Errorf("superadmin: read flag: %w", err)
	}
}

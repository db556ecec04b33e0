package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/squadcart/core/apiclient"
	"github.com/dmitrymomot/squadcart/core/cache"
	"github.com/dmitrymomot/squadcart/core/cookie"
	"github.com/dmitrymomot/squadcart/core/credstore"
	"github.com/dmitrymomot/squadcart/core/session"
	"github.com/dmitrymomot/squadcart/core/superadmin"
	"github.com/dmitrymomot/squadcart/integration/database/redis"
)

const ephemeralCookieName = "squadcart_session_ephemeral"

// app holds the wired components for one CLI invocation.
type app struct {
	cfg      Config
	logger   *slog.Logger
	jar      *cookie.Jar
	store    *session.Store
	client   *apiclient.Client
	gate     *superadmin.Gate
	redis    *goredis.Client
	registry *prometheus.Registry
}

func newApp(ctx context.Context, cfg Config, log *slog.Logger) (*app, error) {
	jar, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		jar:      jar,
		gate:     superadmin.New(jar),
		registry: prometheus.NewRegistry(),
	}

	if cfg.needsRedis() {
		a.redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	durable, err := a.durablePersister()
	if err != nil {
		a.close()
		return nil, err
	}
	ephemeral, err := a.ephemeralPersister(jar)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store, err = session.New(
		session.WithDurable(durable),
		session.WithEphemeral(ephemeral),
		session.WithLogger(log),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store.Rehydrate(ctx)

	var shared goredis.UniversalClient
	if a.redis != nil {
		shared = a.redis
	}
	responses, err := cache.NewFromConfig(cfg.Cache, shared)
	if err != nil {
		a.close()
		return nil, err
	}

	metrics, err := apiclient.NewMetrics(a.registry)
	if err != nil {
		a.close()
		return nil, err
	}

	a.client, err = apiclient.NewFromConfig(cfg.API, a.store,
		apiclient.WithCache(responses),
		apiclient.WithLogger(log),
		apiclient.WithMetrics(metrics),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) durablePersister() (session.Persister, error) {
	switch a.cfg.CredentialsDriver {
	case "", credentialsCookie:
		return credstore.NewCookie(a.jar, credstore.WithCookieMaxAge(a.cfg.Cookie.MaxAge)), nil
	case credentialsRedis:
		return credstore.NewRedis(a.redis,
			credstore.WithRedisPrefix(a.cfg.Redis.KeyPrefix),
			credstore.WithRedisProfile(a.cfg.Profile),
			credstore.WithRedisTTL(time.Duration(a.cfg.Cookie.MaxAge)*time.Second),
		), nil
	default:
		return nil, fmt.Errorf("unknown credentials driver %q", a.cfg.CredentialsDriver)
	}
}

// ephemeralPersister stores non-remembered logins in a jar scoped to the
// parent shell, the closest thing a CLI has to a browser tab.
func (a *app) ephemeralPersister(durable *cookie.Jar) (session.Persister, error) {
	dir := a.cfg.EphemeralDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "squadcart-"+strconv.Itoa(os.Getppid()))
	}

	cfg := a.cfg.Cookie
	cfg.JarPath = filepath.Join(dir, "session.json")
	cfg.MaxAge = a.cfg.EphemeralMaxAge

	jar, err := cookie.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ephemeral jar: %w", err)
	}
	if jar.Path() == durable.Path() {
		return nil, errors.New("ephemeral and durable jars must differ")
	}
	return credstore.NewCookie(jar, credstore.WithCookieName(ephemeralCookieName)), nil
}

func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

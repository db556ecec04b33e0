package cli

import (
	"github.com/dmitrymomot/squadcart/core/apiclient"
	"github.com/dmitrymomot/squadcart/core/cache"
	"github.com/dmitrymomot/squadcart/core/cookie"
	"github.com/dmitrymomot/squadcart/integration/database/redis"
)

// Credential drivers for the durable tier.
const (
	credentialsCookie = "cookie"
	credentialsRedis  = "redis"
)

// Config is the full CLI configuration, read from the environment and an
// optional .env file.
type Config struct {
	API    apiclient.Config
	Cookie cookie.Config
	Cache  cache.Config
	Redis  redis.Config

	// CredentialsDriver selects the durable tier: cookie or redis.
	CredentialsDriver string `env:"CREDENTIALS_DRIVER" envDefault:"cookie"`
	// Profile names the stored credentials when several logins share Redis.
	Profile string `env:"SQUADCART_PROFILE" envDefault:"default"`
	// EphemeralDir holds credentials of logins without --remember. Empty
	// means a directory under the system temp dir tied to the parent shell.
	EphemeralDir string `env:"SESSION_EPHEMERAL_DIR"`
	// EphemeralMaxAge bounds a non-remembered login, in seconds.
	EphemeralMaxAge int `env:"SESSION_EPHEMERAL_MAX_AGE" envDefault:"43200"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func (c Config) needsRedis() bool {
	return c.CredentialsDriver == credentialsRedis || c.Cache.Driver == cache.DriverRedis
}

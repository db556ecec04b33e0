package apiclient

import "time"

// Config holds API client settings.
type Config struct {
	BaseURL            string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	Timeout            time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	RefreshMaxAttempts int           `env:"API_REFRESH_MAX_ATTEMPTS" envDefault:"3"`
	RefreshDedup       bool          `env:"API_REFRESH_DEDUP" envDefault:"true"`
	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	UserAgent          string        `env:"API_USER_AGENT" envDefault:"squadcart-cli"`
}

// DefaultConfig returns the defaults used when no environment is set.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "http://localhost:8080/api",
		Timeout:            30 * time.Second,
		RefreshMaxAttempts: DefaultMaxRefreshAttempts,
		RefreshDedup:       true,
		CacheTTL:           5 * time.Minute,
		UserAgent:          "squadcart-cli",
	}
}

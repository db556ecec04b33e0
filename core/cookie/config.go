package cookie

import (
	"path/filepath"
	"strings"
)

// Config provides environment-based configuration for the cookie jar.
type Config struct {
	// Secrets is a comma-separated list; the first one seals new values.
	Secrets string `env:"COOKIE_SECRETS" envDefault:""`
	// JarPath is the jar file location. Empty means <SESSION_DIR>/cookies.json.
	JarPath string `env:"COOKIE_JAR_PATH" envDefault:""`
	Dir     string `env:"SESSION_DIR" envDefault:".squadcart"`
	MaxAge  int    `env:"COOKIE_MAX_AGE" envDefault:"2592000"` // 30 days
	MaxSize int    `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
}

// DefaultConfig returns a Config with sensible defaults. Secrets must be set.
func DefaultConfig() Config {
	return Config{
		Dir:     ".squadcart",
		MaxAge:  30 * 24 * 60 * 60,
		MaxSize: MaxCookieSize,
	}
}

func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

func (c Config) jarPath() string {
	if c.JarPath != "" {
		return c.JarPath
	}
	dir := c.Dir
	if dir == "" {
		dir = ".squadcart"
	}
	return filepath.Join(dir, "cookies.json")
}

// NewFromConfig creates a Jar from configuration.
func NewFromConfig(cfg Config, opts ...JarOption) (*Jar, error) {
	codec, err := NewCodec(cfg.parseSecrets())
	if err != nil {
		return nil, err
	}

	configOpts := make([]JarOption, 0, len(opts)+2)
	if cfg.MaxSize > 0 {
		configOpts = append(configOpts, WithMaxSize(cfg.MaxSize))
	}
	if cfg.MaxAge != 0 {
		configOpts = append(configOpts, WithDefaults(WithMaxAge(cfg.MaxAge)))
	}
	configOpts = append(configOpts, opts...)

	return NewJar(cfg.jarPath(), codec, configOpts...)
}

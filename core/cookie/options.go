package cookie

import "time"

// Options configures a single cookie written to a Jar.
type Options struct {
	// MaxAge is the lifetime in seconds. Zero means no expiry; negative deletes.
	MaxAge int
	// SignedOnly stores the value HMAC-signed but not encrypted.
	SignedOnly bool
}

// Option is a functional option for configuring cookie options.
type Option func(*Options)

// WithMaxAge sets the cookie max-age in seconds.
// Negative values delete the cookie immediately.
func WithMaxAge(seconds int) Option {
	return func(o *Options) {
		o.MaxAge = seconds
	}
}

// WithSignedOnly stores the value readable but tamper-evident.
func WithSignedOnly() Option {
	return func(o *Options) {
		o.SignedOnly = true
	}
}

// applyOptions copies base and applies opts so shared defaults are never mutated.
func applyOptions(base Options, opts []Option) Options {
	result := base
	for _, opt := range opts {
		opt(&result)
	}
	return result
}

// JarOption configures a Jar.
type JarOption func(*Jar)

// WithMaxSize sets the maximum encoded size of a single cookie.
func WithMaxSize(size int) JarOption {
	return func(j *Jar) {
		if size > 0 {
			j.maxSize = size
		}
	}
}

// WithDefaults sets the options applied to every Set call before per-call options.
func WithDefaults(opts ...Option) JarOption {
	return func(j *Jar) {
		j.defaults = applyOptions(j.defaults, opts)
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) JarOption {
	return func(j *Jar) {
		if now != nil {
			j.now = now
		}
	}
}

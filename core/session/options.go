package session

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithDurable sets the persister used when RememberMe is true.
func WithDurable(p Persister) Option {
	return func(s *Store) {
		s.durable = p
	}
}

// WithEphemeral sets the persister used when RememberMe is false.
func WithEphemeral(p Persister) Option {
	return func(s *Store) {
		s.ephemeral = p
	}
}

// WithLogger sets the logger for persistence warnings and transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

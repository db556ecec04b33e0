package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/squadcart/core/logger"
)

// Store is the single source of truth for who is logged in and with which
// token. All mutations are serialized; readers get copies.
type Store struct {
	mu   sync.RWMutex
	sess Session

	durable   Persister
	ephemeral Persister
	logger    *slog.Logger

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New creates a logged-out store. Call Rehydrate to restore persisted state.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		logger:    logger.Discard(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.durable == nil {
		return nil, ErrNoDurable
	}
	if s.ephemeral == nil {
		return nil, ErrNoEphemeral
	}

	return s, nil
}

// Subscribe registers l for session transitions and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.clone()
}

// AccessToken returns the current access token or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AccessToken
}

// RefreshToken returns the current refresh token or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.RefreshToken
}

// IsAuthenticated reports whether a decoded access token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.IsAuthenticated()
}

// Login decodes accessToken and, on success, makes it the current session and
// persists the pair to the durable persister (rememberMe) or the ephemeral one.
// The other persister is cleared so only one holds credentials.
//
// On decode failure the store ends up logged out and ErrDecodeFailed is
// returned. A persistence failure is returned wrapped in ErrPersist while the
// in-memory session stays logged in.
func (s *Store) Login(ctx context.Context, accessToken, refreshToken string, rememberMe bool) error {
	claims, err := Decode(accessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "login rejected: undecodable access token",
			logger.Component("session"),
			logger.Error(err),
		)
		if lerr := s.Logout(ctx); lerr != nil {
			return errors.Join(ErrDecodeFailed, err, lerr)
		}
		return errors.Join(ErrDecodeFailed, err)
	}

	s.mu.Lock()
	s.sess = Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         claims,
		RememberMe:   rememberMe,
	}
	perr := s.persistLocked(ctx)
	snap := s.sess.clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session started",
		logger.Component("session"),
		logger.Event(EventLogin.String()),
		logger.UserID(claims.Subject()),
		slog.Bool("remember_me", rememberMe),
	)
	s.emit(EventLogin, snap)

	return perr
}

// Refresh describes a renewed credential pair obtained with Previous.
type Refresh struct {
	// Previous is the refresh token the renewal was requested with. If the
	// store no longer holds it, the result is discarded as stale.
	Previous     string
	AccessToken  string
	RefreshToken string // optional; the old one is kept when empty
}

// ApplyRefresh installs renewed credentials for the same identity. RememberMe
// is preserved and the active persister is rewritten. No EventLogin is fired,
// so identity-scoped caches survive.
//
// An undecodable access token logs the store out and returns ErrDecodeFailed.
// ErrStaleRefresh is returned, with no state change, when the session was
// replaced or cleared while the refresh was in flight.
func (s *Store) ApplyRefresh(ctx context.Context, r Refresh) error {
	claims, err := Decode(r.AccessToken)
	if err != nil {
		if _, lerr := s.LogoutIfUnchanged(ctx, r.Previous); lerr != nil {
			return errors.Join(ErrDecodeFailed, err, lerr)
		}
		return errors.Join(ErrDecodeFailed, err)
	}

	s.mu.Lock()
	if s.sess.RefreshToken != r.Previous {
		s.mu.Unlock()
		return ErrStaleRefresh
	}
	s.sess.AccessToken = r.AccessToken
	if r.RefreshToken != "" {
		s.sess.RefreshToken = r.RefreshToken
	}
	s.sess.User = claims
	perr := s.persistLocked(ctx)
	snap := s.sess.clone()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "session refreshed",
		logger.Component("session"),
		logger.Event(EventRefresh.String()),
		logger.UserID(claims.Subject()),
	)
	s.emit(EventRefresh, snap)

	return perr
}

// UpdateUser replaces the user claims without touching the tokens.
func (s *Store) UpdateUser(user Claims) error {
	return s.updateUser(func(Claims) Claims { return user.Clone() })
}

// MergeUser applies partial on top of the current user claims.
func (s *Store) MergeUser(partial Claims) error {
	return s.updateUser(func(cur Claims) Claims { return cur.Merge(partial) })
}

func (s *Store) updateUser(fn func(Claims) Claims) error {
	s.mu.Lock()
	if !s.sess.IsAuthenticated() {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	next := fn(s.sess.User)
	if next == nil {
		next = Claims{}
	}
	s.sess.User = next
	snap := s.sess.clone()
	s.mu.Unlock()

	s.emit(EventUserUpdated, snap)
	return nil
}

// Logout clears the session and purges both persisters. In-memory state is
// always cleared; persister errors are joined and returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	err := s.clearLocked(ctx)
	s.mu.Unlock()

	s.afterLogout(ctx, err)
	return err
}

// LogoutIfUnchanged logs out only while the store still holds refreshToken.
// It lets a request whose refresh failed end the session without clobbering
// credentials another request renewed in the meantime.
func (s *Store) LogoutIfUnchanged(ctx context.Context, refreshToken string) (bool, error) {
	s.mu.Lock()
	if s.sess.RefreshToken != refreshToken {
		s.mu.Unlock()
		return false, nil
	}
	err := s.clearLocked(ctx)
	s.mu.Unlock()

	s.afterLogout(ctx, err)
	return true, err
}

// Rehydrate rebuilds in-memory state from persisted credentials. The durable
// persister is read first. It performs no writes and fires no events, so
// calling it repeatedly yields the same state.
func (s *Store) Rehydrate(ctx context.Context) Session {
	creds, rememberMe, ok := s.loadPersisted(ctx)

	var next Session
	if ok {
		claims, err := Decode(creds.AccessToken)
		if err == nil {
			next = Session{
				AccessToken:  creds.AccessToken,
				RefreshToken: creds.RefreshToken,
				User:         claims,
				RememberMe:   rememberMe,
			}
		} else {
			s.logger.WarnContext(ctx, "persisted access token is undecodable",
				logger.Component("session"),
				logger.Error(err),
			)
		}
	}

	s.mu.Lock()
	s.sess = next
	snap := s.sess.clone()
	s.mu.Unlock()

	return snap
}

func (s *Store) loadPersisted(ctx context.Context) (Credentials, bool, bool) {
	for _, src := range []struct {
		p       Persister
		durable bool
	}{
		{s.durable, true},
		{s.ephemeral, false},
	} {
		creds, err := src.p.Load(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoCredentials) {
				s.logger.WarnContext(ctx, "failed to read persisted credentials",
					logger.Component("session"),
					slog.Bool("durable", src.durable),
					logger.Error(err),
				)
			}
			continue
		}
		if creds.AccessToken == "" {
			continue
		}
		return creds, src.durable, true
	}
	return Credentials{}, false, false
}

// persistLocked writes the current credentials to the active persister and
// clears the inactive one. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	active, inactive := s.ephemeral, s.durable
	if s.sess.RememberMe {
		active, inactive = s.durable, s.ephemeral
	}

	var errs []error
	if err := active.Save(ctx, s.sess.Credentials()); err != nil {
		errs = append(errs, err)
	}
	if err := inactive.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}

	s.logger.WarnContext(ctx, "failed to persist credentials",
		logger.Component("session"),
		logger.Errors(errs...),
	)
	return errors.Join(append([]error{ErrPersist}, errs...)...)
}

// clearLocked resets memory state and purges both persisters. Caller holds s.mu.
func (s *Store) clearLocked(ctx context.Context) error {
	s.sess = Session{}

	var errs []error
	if err := s.durable.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.ephemeral.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrPersist}, errs...)...)
}

func (s *Store) afterLogout(ctx context.Context, err error) {
	if err != nil {
		s.logger.WarnContext(ctx, "failed to purge persisted credentials",
			logger.Component("session"),
			logger.Error(err),
		)
	}
	s.logger.InfoContext(ctx, "session cleared",
		logger.Component("session"),
		logger.Event(EventLogout.String()),
	)
	s.emit(EventLogout, Session{})
}

func (s *Store) emit(e Event, snap Session) {
	s.lmu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.lmu.RUnlock()

	for _, l := range ls {
		l(e, snap.clone())
	}
}

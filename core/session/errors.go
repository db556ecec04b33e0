package session

import "errors"

var (
	// ErrEmptyToken is returned when an access token is required but empty.
	ErrEmptyToken = errors.New("session: empty access token")
	// ErrMalformedToken is returned when the token payload cannot be decoded.
	ErrMalformedToken = errors.New("session: malformed access token")
	// ErrDecodeFailed is returned by Login and ApplyRefresh when the access token
	// cannot be decoded. The store is logged out when this is returned.
	ErrDecodeFailed = errors.New("session: failed to decode access token")
	// ErrNotAuthenticated is returned by operations that need a logged-in session.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrNoCredentials is returned by a Persister when nothing is stored.
	ErrNoCredentials = errors.New("session: no persisted credentials")
	// ErrPersist wraps persistence failures. In-memory state is still updated.
	ErrPersist = errors.New("session: failed to persist credentials")
	// ErrStaleRefresh is returned by ApplyRefresh when the session changed
	// (logout, new login or a concurrent refresh) after the refresh started.
	ErrStaleRefresh = errors.New("session: refresh result is stale")
	// ErrNoDurable is returned by New when no durable persister is configured.
	ErrNoDurable = errors.New("session: durable persister is required")
	// ErrNoEphemeral is returned by New when no ephemeral persister is configured.
	ErrNoEphemeral = errors.New("session: ephemeral persister is required")
)

package session

import "context"

// Persister stores credentials outside process memory.
// Load returns ErrNoCredentials when nothing is stored.
// Implementations must be safe for concurrent use.
type Persister interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

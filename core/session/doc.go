// Package session holds the client-side authentication state of the
// SquadCart dashboard client: the current access token, the refresh token,
// the user claims decoded from the access token, and the "remember me" choice
// that selects where credentials are persisted.
//
// # Core Components
//
//   - Session: value snapshot with IsAuthenticated
//   - Claims: decoded JWT payload with Subject/CompanyID helpers
//   - Store: mutex-protected state plus Login, UpdateUser, MergeUser, Logout,
//     Rehydrate and ApplyRefresh
//   - Persister: durable and ephemeral credential backends (see core/credstore)
//
// # Basic Usage
//
//	store, err := session.New(
//		session.WithDurable(credstore.NewCookie(jar)),
//		session.WithEphemeral(credstore.NewMemory()),
//		session.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Restore whatever was persisted by a previous run. No network calls.
//	sess := store.Rehydrate(ctx)
//
//	if err := store.Login(ctx, access, refresh, true); errors.Is(err, session.ErrDecodeFailed) {
//		// treat as failed login; the store is logged out
//	}
//
// # Persistence
//
// Exactly one persister holds credentials at a time. Login with rememberMe
// writes the durable persister and clears the ephemeral one, and vice versa.
// Logout always clears both. Rehydrate reads the durable persister first.
//
// # Events
//
// Subscribe registers a Listener. EventLogin means the identity may have
// changed and identity-scoped caches must be reset. EventRefresh means the
// same identity renewed its credentials; caches stay valid.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Mutations, including persistence
// I/O, are serialized so readers never observe a token without its claims.
package session

// Package credstore provides session.Persister backends.
//
//   - Memory: ephemeral, process-scoped. Used when the user did not ask to be
//     remembered; credentials disappear when the process exits.
//   - Cookie: durable, a sealed cookie in a core/cookie Jar with a max-age.
//   - Redis: durable and shareable between processes, with a TTL.
//
// Each backend stores the complete session.Credentials value as one unit so a
// reader never sees an access token paired with a stale refresh token.
package credstore

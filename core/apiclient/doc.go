// Package apiclient talks to the SquadCart dashboard API on behalf of the
// current session.
//
// # Pipeline
//
// Every request goes through Pipeline.Execute, which attaches
// "Accept: application/json" and, when a token is held,
// "Authorization: Bearer <token>". A 401 starts the refresh cycle:
//
//  1. No refresh token: stop and report OutcomeLoggedOut with the original
//     response. No network call is made.
//  2. Otherwise POST /auth/refresh-token with {"refreshToken": "..."}, up to
//     three attempts. Transport errors and non-2xx replies are retried; an
//     envelope that is malformed, unsuccessful or missing the access token
//     ends the cycle at once.
//  3. On success the original request is replayed exactly once with the new
//     token and the replay's response is returned, whatever its status.
//
// The pipeline never mutates the session. It returns a Result, and Client
// applies it: OutcomeRefreshed updates the store's tokens, OutcomeLoggedOut
// clears the session unless another request renewed it meanwhile.
//
// Retry is the bounded retry combinator behind step 2 and is usable on its
// own:
//
//	v, err := apiclient.Retry(ctx, 3, op, func(err error) bool {
//		return errors.Is(err, errTransient)
//	})
//
// # Client
//
//	client, err := apiclient.NewFromConfig(cfg, store,
//		apiclient.WithCache(cache.NewMemory()),
//		apiclient.WithLogger(log),
//	)
//
//	sess, err := client.Login(ctx, email, password, rememberMe)
//
//	resp, err := client.Query(ctx, "/orders?page=1", cache.TagOrders)
//	if errors.Is(err, apiclient.ErrUnauthenticated) {
//		// session is gone; ask the user to log in again
//	}
//
//	_, err = client.Mutate(ctx, http.MethodPost, "/orders", order, cache.TagOrders)
//
// Query results are cached under their tags; a successful Mutate drops the
// tags it names. The cache is reset when a new login happens, never on a
// token refresh.
//
// Concurrent refreshes of the same refresh token share one network call
// unless disabled with WithRefreshDedup(false) or API_REFRESH_DEDUP=false.
package apiclient

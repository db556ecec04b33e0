// Package redis connects to Redis for the SquadCart client's shared backends:
// the durable credential persister (core/credstore) and the response cache
// (core/cache).
//
// Connect validates the URL, then pings with exponential backoff until Redis
// answers or the attempts run out:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  time.Second,
//		ConnectTimeout: 10 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Healthcheck wraps a ping for use in readiness checks:
//
//	if err := redis.Healthcheck(client)(ctx); err != nil {
//		// ErrHealthcheckFailed
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted. Errors are stable
// sentinels (ErrEmptyConnectionURL, ErrFailedToParseRedisConnString,
// ErrRedisNotReady, ErrHealthcheckFailed) joined with the go-redis cause.
//
// Configuration:
//
//	REDIS_URL              connection URL
//	REDIS_RETRY_ATTEMPTS   ping attempts (3)
//	REDIS_RETRY_INTERVAL   base backoff (5s), doubled per attempt
//	REDIS_CONNECT_TIMEOUT  overall deadline (30s)
//	REDIS_KEY_PREFIX       key namespace used by callers ("squadcart")
package redis

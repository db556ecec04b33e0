package cache

import "errors"

var (
	ErrUnknownDriver = errors.New("cache: unknown driver")
	ErrNoRedisClient = errors.New("cache: redis driver requires a client")
)

package cache

import "time"

const (
	ExpiryDefaultInMemory = 30 * time.Second
	ExpiryDefaultRedis    = 30 * time.Second
)

// Package cache holds short-lived flags shared between runs, such as the
// rate-limit block set after a wiki answers 429.
package cache

import (
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService is a key/value cache with expiring entries
type CacheService interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, expiration time.Duration) error
	Delete(key string) error
}

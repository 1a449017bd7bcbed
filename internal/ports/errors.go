package ports

import "errors"

// ErrNotFound is returned by repositories when the requested entity does not
// exist in durable storage.
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned by caches when the key is absent or its TTL has
// expired. A miss is an expected condition, not a failure.
var ErrCacheMiss = errors.New("cache miss")

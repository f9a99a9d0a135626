// Package cache holds JSON-encoded values keyed by string. It backs the
// table read cache and the enrichment memo.
package cache

import "context"

// Cache stores values as JSON so callers never share mutable state.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get decodes the value for key into dest and reports whether it was
	// present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// InvalidateAll is the NATS payload that clears every key.
const InvalidateAll = "ALL"

package domain

import "context"

// KVStore is durable, process-wide key/value state. The revision counter
// lives here, keyed by application identity.
type KVStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

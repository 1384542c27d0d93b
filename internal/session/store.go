package session

import "context"

// Store is the durable key-value storage used to keep the session across
// process restarts.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// StorageKey is the key the session is persisted under.
const StorageKey = "auth.session"

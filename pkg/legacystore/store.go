// Package legacystore abstracts the client-local key-value store that held
// editor session snapshots before server-side tab persistence. The bootstrap
// reads a single blob from it once per session and, when the blob says the
// migration already happened, removes the key as a one-time cleanup.
package legacystore

import "context"

// Store is the port the session bootstrap reads legacy snapshots through.
// Implementations must treat values as opaque strings; parsing is the
// caller's concern.
type Store interface {
	// Get returns the blob stored under key. The second return reports
	// whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Package session holds the placeholder-to-original mappings produced by
// masking, scoped to an opaque session identifier. The store is injectable:
// an in-memory map with TTL eviction is the default, Redis is available for
// multi-instance deployments. Entries are single-key inserts; no mutation
// spans more than one placeholder.
package session

import "context"

// Store persists a per-session mapping of placeholder token to original value.
type Store interface {
	// Record inserts one placeholder entry for the session, creating the
	// session implicitly if it does not exist yet.
	Record(ctx context.Context, sessionID, placeholder, original string) error

	// Mapping returns a copy of the session's placeholder mapping. The
	// second return value is false when the session is unknown or expired.
	Mapping(ctx context.Context, sessionID string) (map[string]string, bool, error)

	// Delete removes a session and its mapping. Deleting an unknown
	// session is a no-op.
	Delete(ctx context.Context, sessionID string) error

	// Close releases store resources.
	Close() error
}

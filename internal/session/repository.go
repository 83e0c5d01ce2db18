package session

import "context"

// Repository is a thin wrapper over a key-value store per §4.3. Writes are
// atomic per session (a JSON blob at a prefixed key, plus membership in
// the active-session set); a 24h TTL is refreshed on every write.
//
// Implementations must not return store-specific errors: absence is
// reported by returning (Session{}, false, nil) from FindByID, never an
// error.
type Repository interface {
	// Save persists s, refreshing its TTL, and updates the active index
	// membership to match s.Active.
	Save(ctx context.Context, s Session) error

	// FindByID returns the stored session, or ok=false if absent.
	FindByID(ctx context.Context, sessionID string) (Session, bool, error)

	// Exists reports whether sessionID has a stored record, regardless of
	// its active/inactive state.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// FindAllActiveSessionIDs returns the members of the active index.
	FindAllActiveSessionIDs(ctx context.Context) ([]string, error)

	// FindAllActiveSessions returns every session whose record exists and
	// is a member of the active index.
	FindAllActiveSessions(ctx context.Context) ([]Session, error)

	// FindAllInactiveSessions returns every stored session not in the
	// active index.
	FindAllInactiveSessions(ctx context.Context) ([]Session, error)

	// FindAll returns every stored session, active or not.
	FindAll(ctx context.Context) ([]Session, error)

	// DeleteByID removes the session record and its active-index entry,
	// if present. It is idempotent: deleting an absent id is not an error.
	DeleteByID(ctx context.Context, sessionID string) error

	// DeleteAll removes every session record named by ids and their
	// active-index entries. Returns the number actually removed.
	DeleteAll(ctx context.Context, ids []string) (int, error)

	// CleanupOrphanedSessions resolves drift between the active index and
	// the record store: ids present in the index but with no backing
	// record are removed from the index; records marked Active=true but
	// absent from the index are re-indexed. Returns the number of index
	// entries removed.
	CleanupOrphanedSessions(ctx context.Context) (int, error)

	// CleanupOldInactiveSessionsByTTL deletes inactive sessions whose
	// LastHeartbeat is older than maxAgeHours. Returns the number removed.
	CleanupOldInactiveSessionsByTTL(ctx context.Context, maxAgeHours float64) (int, error)
}

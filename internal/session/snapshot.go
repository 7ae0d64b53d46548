package session

import "context"

// snapshotVersion is the schema version of the persisted blob. Bump when a
// field is added so old stored values can still be read deliberately rather
// than by accident.
const snapshotVersion = 1

// Snapshot is the durable slice of a client's state: the signed-in hint and
// nothing else. The access token and profile are intentionally absent; the
// real credential lives in the backend's HTTP-only cookies, and the profile
// is re-derived from /auth/me on every fresh load.
type Snapshot struct {
	Version         int  `json:"version"`
	IsAuthenticated bool `json:"is_authenticated"`
}

// SnapshotRepository persists snapshots keyed by client id.
type SnapshotRepository interface {
	// Load returns the stored snapshot, or (nil, nil) when none exists.
	Load(ctx context.Context, clientID string) (*Snapshot, error)

	// Save stores the snapshot, replacing any previous value.
	Save(ctx context.Context, clientID string, snap Snapshot) error
}

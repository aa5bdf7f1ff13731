package digest

import (
	"context"
	"time"
)

// Entry is one cached summary. Hash is set by the content-hash discipline, ExpiresAt by the TTL
// discipline; each discipline ignores the other's field.
type Entry struct {
	Summary   Summary   `json:"summary"`
	Hash      string    `json:"hash,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Store is a subject-keyed summary cache. Get reports a miss as (Entry{}, false, nil); errors are
// reserved for an unavailable backend.
type Store interface {
	Get(ctx context.Context, subjectID string) (Entry, bool, error)
	Set(ctx context.Context, subjectID string, e Entry) error
	Invalidate(ctx context.Context, subjectID string) error
}

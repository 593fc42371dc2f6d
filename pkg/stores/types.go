package stores

import (
	"time"
)

// Snapshot is one persisted reference payload.
type Snapshot struct {
	// Name is the snapshot identifier, unique within the store.
	Name string `json:"name"`

	// Content is the recorded reference payload.
	Content string `json:"content"`

	// CreatedAt is when the reference was first recorded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the reference was last overwritten.
	UpdatedAt time.Time `json:"updated_at"`
}

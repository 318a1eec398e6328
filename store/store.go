package store

import (
	"context"
	"encoding/json"

	"driza/errs"
)

// Event is a push notification for a subscribed path. Value is the current
// snapshot of the subscribed path, nil when the path is absent. Delivery is
// at-least-once and ordered per subscription, never ordered across paths.
type Event struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Store is the path-addressable document store all services are built on.
// Paths are slash separated: a single segment addresses a collection, two
// segments a document, more a field inside a document. There is no
// cross-path atomicity; callers that need two paths to agree must sequence
// and compensate themselves.
type Store interface {
	// Get returns the JSON snapshot at path, or errs.ErrNotFound when the
	// path is absent. A collection path yields an object keyed by child id.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Set replaces the value at path, creating it if absent.
	Set(ctx context.Context, path string, value any) error

	// Update applies the given fields under path. A field key may itself be
	// a slash path; a nil value deletes the field (it never writes null).
	Update(ctx context.Context, path string, fields map[string]any) error

	// Remove deletes the subtree at path. Removing an absent path is a no-op.
	Remove(ctx context.Context, path string) error

	// Subscribe registers fn for snapshots of path. fn receives the current
	// snapshot immediately and again after every change under path, in write
	// order. The returned func stops future notifications only; it never
	// cancels an in-flight write.
	Subscribe(path string, fn func(Event)) (func(), error)
}

// Decode unmarshals a snapshot into dst, mapping an absent value to
// errs.ErrNotFound.
func Decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errs.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

package port

import "context"

// DedupCache remembers recently synchronized inventory items so the
// orchestrator can suppress the webhook loop its own writes cause.
type DedupCache interface {
	// WasRecentlyUpdated reports whether the item was marked within the
	// cache's TTL window.
	WasRecentlyUpdated(ctx context.Context, inventoryItemID string) (bool, error)

	// MarkUpdated inserts or overwrites the item's entry with the
	// current timestamp.
	MarkUpdated(ctx context.Context, inventoryItemID string) error
}

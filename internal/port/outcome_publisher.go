package port

import (
	"context"

	"github.com/hoangnm/variant-sync/internal/core/domain"
)

// OutcomePublisher records the per-member outcome batch of a completed
// sync so operators can detect partial-failure patterns.
type OutcomePublisher interface {
	PublishReport(ctx context.Context, report domain.SyncReport) error
}

// NoopPublisher discards reports; useful for tests/dev when no broker
// is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishReport(context.Context, domain.SyncReport) error { return nil }

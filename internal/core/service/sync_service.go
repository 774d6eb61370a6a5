package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/port"
)

var ErrInvalidEvent = errors.New("invalid inventory update event")

type familyResolver interface {
	ResolveFamily(ctx context.Context, inventoryItemID domain.ID) (*domain.VariantFamily, error)
}

type quantityPropagator interface {
	Propagate(ctx context.Context, family *domain.VariantFamily, originItemID, locationID domain.ID, available int) []domain.SyncOutcome
}

// SyncService orchestrates one inventory update event: validate, check
// the dedup window, resolve the variant family, propagate the quantity
// and mark what was written.
type SyncService struct {
	cache      port.DedupCache
	resolver   familyResolver
	propagator quantityPropagator
	publisher  port.OutcomePublisher
	logger     *zap.Logger
}

func NewSyncService(
	cache port.DedupCache,
	resolver familyResolver,
	propagator quantityPropagator,
	publisher port.OutcomePublisher,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		cache:      cache,
		resolver:   resolver,
		propagator: propagator,
		publisher:  publisher,
		logger:     logger,
	}
}

// HandleInventoryUpdate runs the full sync cycle for one webhook event.
// Partial propagation failures are reported, not returned as errors;
// validation and resolution failures are fatal to the request.
func (s *SyncService) HandleInventoryUpdate(ctx context.Context, event domain.InventoryUpdateEvent) (*domain.SyncReport, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	syncID := uuid.NewString()
	logger := s.logger.With(
		zap.String("sync_id", syncID),
		zap.String("inventory_item_id", string(event.InventoryItemID)),
		zap.String("location_id", string(event.LocationID)),
	)

	hit, err := s.cache.WasRecentlyUpdated(ctx, string(event.InventoryItemID))
	if err != nil {
		// the cache exists for loop suppression, not final-state
		// correctness; a broken cache must not block the sync
		logger.Warn("dedup check failed, treating as miss", zap.Error(err))
		hit = false
	}
	if hit {
		logger.Info("suppressed recently synchronized item")
		return &domain.SyncReport{
			SyncID:      syncID,
			LocationID:  event.LocationID,
			Available:   *event.Available,
			Deduped:     true,
			CompletedAt: time.Now(),
		}, nil
	}

	family, err := s.resolver.ResolveFamily(ctx, event.InventoryItemID)
	if err != nil {
		logger.Error("variant family resolution failed", zap.Error(err))
		return nil, err
	}

	outcomes := s.propagator.Propagate(ctx, family, event.InventoryItemID, event.LocationID, *event.Available)

	report := &domain.SyncReport{
		SyncID:      syncID,
		ProductID:   family.ProductID,
		LocationID:  event.LocationID,
		Available:   *event.Available,
		Attempted:   len(outcomes),
		Outcomes:    outcomes,
		CompletedAt: time.Now(),
	}
	for _, o := range outcomes {
		if o.OK {
			report.Succeeded++
		}
	}

	// The origin mark suppresses re-deliveries of this event; marks on
	// succeeded siblings suppress the webhooks our own writes trigger.
	s.markUpdated(ctx, logger, event.InventoryItemID)
	for _, o := range outcomes {
		if o.OK {
			s.markUpdated(ctx, logger, o.InventoryItemID)
		}
	}

	if err := s.publisher.PublishReport(ctx, *report); err != nil {
		logger.Warn("failed to publish sync report", zap.Error(err))
	}

	if failed := report.Failed(); len(failed) > 0 {
		logger.Warn("propagation completed with failures",
			zap.String("product_id", string(family.ProductID)),
			zap.Int("attempted", report.Attempted),
			zap.Int("succeeded", report.Succeeded),
			zap.Any("failed", failed))
	} else {
		logger.Info("propagation completed",
			zap.String("product_id", string(family.ProductID)),
			zap.Int("attempted", report.Attempted))
	}

	return report, nil
}

func (s *SyncService) markUpdated(ctx context.Context, logger *zap.Logger, inventoryItemID domain.ID) {
	if err := s.cache.MarkUpdated(ctx, string(inventoryItemID)); err != nil {
		logger.Warn("failed to mark item in dedup cache",
			zap.String("marked_item_id", string(inventoryItemID)),
			zap.Error(err))
	}
}

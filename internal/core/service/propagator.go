package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/port"
)

const (
	DefaultConcurrency = 2
	DefaultCallTimeout = 10 * time.Second

	retryBackoff = 500 * time.Millisecond
)

// temporary and throttled are matched structurally so the engine can
// classify gateway errors without depending on a concrete adapter.
type temporary interface{ Temporary() bool }
type throttled interface{ Throttled() bool }

func isTransient(err error) bool {
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func errorKind(err error) string {
	var t throttled
	if errors.As(err, &t) && t.Throttled() {
		return domain.ErrorKindThrottled
	}
	return domain.ErrorKindTransport
}

// Propagator fans the new quantity out to sibling inventory items. The
// limiter is shared across every in-flight event, so total outbound
// concurrency stays bounded no matter how many webhooks arrive at once.
type Propagator struct {
	gateway     port.CommerceGateway
	limiter     chan struct{}
	callTimeout time.Duration
	backoff     time.Duration
	logger      *zap.Logger
}

func NewPropagator(gateway port.CommerceGateway, concurrency int, callTimeout time.Duration, logger *zap.Logger) *Propagator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Propagator{
		gateway:     gateway,
		limiter:     make(chan struct{}, concurrency),
		callTimeout: callTimeout,
		backoff:     retryBackoff,
		logger:      logger,
	}
}

// Propagate issues one set-quantity call per family member other than
// the origin. Every target is attempted exactly once; a member failure
// is recorded in its outcome and never aborts the batch.
func (p *Propagator) Propagate(ctx context.Context, family *domain.VariantFamily, originItemID, locationID domain.ID, available int) []domain.SyncOutcome {
	targets := make([]domain.VariantRef, 0, len(family.Members))
	for _, m := range family.Members {
		if m.InventoryItemID == originItemID {
			continue
		}
		targets = append(targets, m)
	}

	outcomes := make([]domain.SyncOutcome, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, itemID domain.ID) {
			defer wg.Done()

			p.limiter <- struct{}{}
			defer func() { <-p.limiter }()

			outcomes[i] = p.setQuantity(ctx, itemID, locationID, available)
		}(i, target.InventoryItemID)
	}
	wg.Wait()

	return outcomes
}

func (p *Propagator) setQuantity(ctx context.Context, itemID, locationID domain.ID, available int) domain.SyncOutcome {
	userErrors, err := p.callOnce(ctx, itemID, locationID, available)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		// one bounded retry; backoff wraps the call, not the limiter,
		// and the held slot keeps overall pressure down while we wait
		p.logger.Debug("retrying transient upstream failure",
			zap.String("inventory_item_id", string(itemID)),
			zap.Error(err))
		time.Sleep(p.backoff)
		userErrors, err = p.callOnce(ctx, itemID, locationID, available)
	}

	if err != nil {
		return domain.SyncOutcome{
			InventoryItemID: itemID,
			ErrorKind:       errorKind(err),
			Detail:          err.Error(),
		}
	}

	if len(userErrors) > 0 {
		return domain.SyncOutcome{
			InventoryItemID: itemID,
			ErrorKind:       domain.ErrorKindUserError,
			Detail:          userErrors[0].Message,
		}
	}

	return domain.SyncOutcome{InventoryItemID: itemID, OK: true}
}

func (p *Propagator) callOnce(ctx context.Context, itemID, locationID domain.ID, available int) ([]port.UserError, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	return p.gateway.SetQuantity(callCtx, itemID, locationID, available)
}

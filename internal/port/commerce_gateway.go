package port

import (
	"context"
	"errors"

	"github.com/hoangnm/variant-sync/internal/core/domain"
)

// ErrItemNotFound means the inventory item has no owning variant or
// product upstream.
var ErrItemNotFound = errors.New("inventory item not found")

// UserError is an application-level rejection returned by the upstream
// mutation even when transport succeeds.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// CommerceGateway is the outbound surface against the commerce
// platform's Admin API.
type CommerceGateway interface {
	// ResolveOwningProduct maps an inventory item to the product owning
	// its variant. Returns ErrItemNotFound when no variant exists.
	ResolveOwningProduct(ctx context.Context, inventoryItemID domain.ID) (domain.ID, error)

	// ListVariants fetches one page of the product's variants. hasMore
	// reports whether variants beyond the page limit exist.
	ListVariants(ctx context.Context, productID domain.ID) (members []domain.VariantRef, hasMore bool, err error)

	// SetQuantity sets the available quantity for one inventory item at
	// one location. A non-empty userErrors slice means the platform
	// rejected the mutation despite a successful transport.
	SetQuantity(ctx context.Context, inventoryItemID, locationID domain.ID, quantity int) ([]UserError, error)
}

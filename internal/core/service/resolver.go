package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/port"
)

// ErrPaginationOverflow means the product has more variants than one
// page can return. Failing loudly beats silently leaving the overflow
// siblings unsynchronized.
var ErrPaginationOverflow = errors.New("variant pagination overflow")

// Resolver maps an inventory item to the full variant family of its
// owning product. Two lookups are unavoidable: inventory items and
// variants live in distinct upstream identifier spaces.
type Resolver struct {
	gateway port.CommerceGateway
}

func NewResolver(gateway port.CommerceGateway) *Resolver {
	return &Resolver{gateway: gateway}
}

// ResolveFamily returns the product's variants, origin included,
// de-duplicated by inventory item id in upstream order.
func (r *Resolver) ResolveFamily(ctx context.Context, inventoryItemID domain.ID) (*domain.VariantFamily, error) {
	productID, err := r.gateway.ResolveOwningProduct(ctx, inventoryItemID)
	if err != nil {
		return nil, fmt.Errorf("resolve family: %w", err)
	}

	members, hasMore, err := r.gateway.ListVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("resolve family: %w", err)
	}
	if hasMore {
		return nil, fmt.Errorf("product %s: %w", productID, ErrPaginationOverflow)
	}

	family := &domain.VariantFamily{
		ProductID: productID,
		Members:   make([]domain.VariantRef, 0, len(members)),
	}

	seen := make(map[domain.ID]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.InventoryItemID]; dup {
			continue
		}
		seen[m.InventoryItemID] = struct{}{}
		family.Members = append(family.Members, m)
	}

	return family, nil
}

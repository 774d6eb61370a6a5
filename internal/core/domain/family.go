package domain

// VariantRef links a product variant to the inventory item tracking
// its stock. The two live in distinct identifier spaces upstream.
type VariantRef struct {
	VariantID       ID `json:"variant_id"`
	InventoryItemID ID `json:"inventory_item_id"`
}

// VariantFamily is every variant of one product, including the variant
// that triggered the sync. Built fresh per resolution, never cached.
type VariantFamily struct {
	ProductID ID           `json:"product_id"`
	Members   []VariantRef `json:"members"`
}

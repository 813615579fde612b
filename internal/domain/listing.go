package domain

import "time"

// ActiveListing is the current state of one listed item.
// Corresponds to the active_listings table: at most one row per item id
// (several items can share an AssetKey). Upserted on listing/price_change,
// deleted on sale.
type ActiveListing struct {
	ItemID      string
	ItemName    *string
	Model       string
	Backdrop    *string // nil means no backdrop
	Pattern     *string
	Number      *int
	Price       float64
	ListedAt    time.Time
	LastUpdated time.Time
	Marketplace Marketplace
}

// AssetKey derives the tradable-class identity for this listing.
func (l *ActiveListing) AssetKey() AssetKey {
	return NewAssetKey(l.Model, l.Backdrop, l.Number)
}

package domain

import "time"

// EventKind represents the kind of an observed market action.
type EventKind string

const (
	EventSale        EventKind = "sale"
	EventListing     EventKind = "listing"
	EventPriceChange EventKind = "price_change"
)

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k EventKind) IsValid() bool {
	return k == EventSale || k == EventListing || k == EventPriceChange
}

// Marketplace identifies the marketplace an event was observed on.
type Marketplace string

const (
	MarketplacePortals  Marketplace = "portals"
	MarketplaceMrkt     Marketplace = "mrkt"
	MarketplaceTonnel   Marketplace = "tonnel"
	MarketplaceGetgems  Marketplace = "getgems"
	MarketplaceFragment Marketplace = "fragment"
	MarketplaceUnknown  Marketplace = "unknown"
)

// ItemURL returns the direct listing URL for an item on this marketplace.
func (m Marketplace) ItemURL(itemID string) string {
	switch m {
	case MarketplacePortals:
		return "https://t.me/portals/market?startapp=" + itemID
	case MarketplaceMrkt:
		return "https://t.me/mrkt/app?startapp=" + itemID
	case MarketplaceTonnel:
		return "https://t.me/TonnelMarketBot/market?startapp=" + itemID
	case MarketplaceGetgems:
		return "https://getgems.io/nft/" + itemID
	case MarketplaceFragment:
		return "https://fragment.com/gift/" + itemID
	default:
		return "https://t.me/nft/" + itemID
	}
}

// MarketEvent is one immutable observed market action.
// Corresponds to the append-only market_events table.
type MarketEvent struct {
	EventTime   time.Time   `json:"event_time"`
	Kind        EventKind   `json:"kind"`
	ItemID      string      `json:"item_id"`
	ItemName    *string     `json:"item_name,omitempty"`
	Model       string      `json:"model"`
	Backdrop    *string     `json:"backdrop,omitempty"` // nil means no backdrop
	Pattern     *string     `json:"pattern,omitempty"`
	Number      *int        `json:"number,omitempty"`
	Price       float64     `json:"price"`
	PriceOld    *float64    `json:"price_old,omitempty"` // previous price for price_change
	PhotoURL    *string     `json:"photo_url,omitempty"`
	Marketplace Marketplace `json:"marketplace"`
}

// AssetKey derives the tradable-class identity for this event.
func (e *MarketEvent) AssetKey() AssetKey {
	return NewAssetKey(e.Model, e.Backdrop, e.Number)
}

// IsBlackPack reports whether the event's backdrop belongs to the black pack set.
func (e *MarketEvent) IsBlackPack() bool {
	return IsBlackPackBackdrop(e.Backdrop)
}

// SaleRecord is the (time, price) pair of one sale, as consumed by analytics.
type SaleRecord struct {
	EventTime time.Time
	Price     float64
}

package domain

import "time"

// Alert is the pipeline's output: one scored, filtered buying opportunity
// for one user. Immutable once constructed; handed to a notifier as-is.
type Alert struct {
	AssetKey       string      `json:"asset_key"`
	ItemID         string      `json:"item_id"`
	ItemName       *string     `json:"item_name,omitempty"`
	Model          string      `json:"model"`
	Backdrop       *string     `json:"backdrop,omitempty"`
	Number         *int        `json:"number,omitempty"`
	Price          float64     `json:"price"`
	ProfitPct      float64     `json:"profit_pct"`      // one decimal
	ReferencePrice float64     `json:"reference_price"` // the ARP used
	ReferenceType  string      `json:"reference_type"`  // provenance label
	Hotness        float64     `json:"hotness"`         // 0..10
	LiquidityScore float64     `json:"liquidity_score"` // 0..10
	Confidence     Confidence  `json:"confidence"`
	FloorBlackPack *float64    `json:"floor_black_pack,omitempty"`
	FloorGeneral   *float64    `json:"floor_general,omitempty"`
	SalesQ25       *float64    `json:"sales_q25,omitempty"`
	SalesQ75       *float64    `json:"sales_q75,omitempty"`
	SalesMax       *float64    `json:"sales_max,omitempty"`
	Sales48h       int         `json:"sales_48h"`
	IsPriority     bool        `json:"is_priority"`
	PhotoURL       *string     `json:"photo_url,omitempty"`
	EventTime      time.Time   `json:"event_time"` // original market event time
	CreatedAt      time.Time   `json:"created_at"`
	EventKind      EventKind   `json:"event_kind"`
	Marketplace    Marketplace `json:"marketplace"`
}

// ItemURL returns the marketplace URL for the alerted item.
func (a *Alert) ItemURL() string {
	return a.Marketplace.ItemURL(a.ItemID)
}

package domain

import "time"

// Confidence classifies how much the analytics for an asset can be trusted,
// driven by sample size and liquidity.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

// String returns the string representation of Confidence.
func (c Confidence) String() string {
	return string(c)
}

// IsValid checks if the confidence is a valid value.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return true
	}
	return false
}

// Trend is the short-term sale price direction for an asset.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// String returns the string representation of Trend.
func (t Trend) String() string {
	return string(t)
}

// AssetAnalytics is a derived, cached market snapshot for one AssetKey.
// Corresponds to the asset_analytics table (upsert keyed by asset_key);
// also serialized as JSON into the analytics cache.
type AssetAnalytics struct {
	AssetKey       string     `json:"asset_key"`
	Floor1st       *float64   `json:"floor_1st,omitempty"` // cheapest active listing
	Floor2nd       *float64   `json:"floor_2nd,omitempty"`
	Floor3rd       *float64   `json:"floor_3rd,omitempty"`
	ListingsCount  int        `json:"listings_count"`
	Sales7d        int        `json:"sales_7d"`
	Sales30d       int        `json:"sales_30d"`
	PriceQ25       *float64   `json:"price_q25,omitempty"` // over 7d sales
	PriceQ50       *float64   `json:"price_q50,omitempty"`
	PriceQ75       *float64   `json:"price_q75,omitempty"`
	PriceMax       *float64   `json:"price_max,omitempty"`
	LiquidityScore float64    `json:"liquidity_score"` // 0..10, one decimal
	Confidence     Confidence `json:"confidence"`
	LastSaleAt     *time.Time `json:"last_sale_at,omitempty"`
	Trend          Trend      `json:"trend"`
	ComputedAt     time.Time  `json:"computed_at"`
}

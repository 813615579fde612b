// Package analytics computes rolling per-asset market analytics: floors,
// sale quantiles, liquidity, confidence, trend, the adaptive reference
// price and the hotness score.
package analytics

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// Config holds analytics tunables. Constants that are product heuristics
// rather than derived invariants live here.
type Config struct {
	CacheTTL time.Duration // analytics snapshot memoization window

	// Trend slope thresholds over the 10 most recent sale prices.
	TrendRiseThreshold float64
	TrendFallThreshold float64

	Hotness HotnessConfig
}

// HotnessConfig weights the hotness score components. Falling prices are
// scored as an opportunity, so their bonus exceeds the rising bonus.
type HotnessConfig struct {
	BuyWeight       float64 // per sale in the last hour
	BuyCap          float64 // cap on the sale component
	FallingBonus    float64
	RisingBonus     float64
	LiquidityWeight float64
	NewListingBonus float64 // when a listing appeared within 5 minutes
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:           60 * time.Second,
		TrendRiseThreshold: 0.5,
		TrendFallThreshold: -0.5,
		Hotness: HotnessConfig{
			BuyWeight:       5.0,
			BuyCap:          25.0,
			FallingBonus:    10.0,
			RisingBonus:     5.0,
			LiquidityWeight: 1.0,
			NewListingBonus: 15.0,
		},
	}
}

// Options wires the engine's dependencies.
type Options struct {
	Events    storage.EventStore
	Listings  storage.ListingStore
	Snapshots storage.AnalyticsStore
	History   storage.AnalyticsHistoryStore // optional archive, may be nil
	Cache     storage.Cache
	Config    Config

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Engine computes AssetAnalytics as a pure function of store contents,
// memoized in the cache. Safe for concurrent use; all state lives in the
// injected stores.
type Engine struct {
	events    storage.EventStore
	listings  storage.ListingStore
	snapshots storage.AnalyticsStore
	history   storage.AnalyticsHistoryStore
	cache     storage.Cache
	cfg       Config
	now       func() time.Time
}

// New creates an analytics engine.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		events:    opts.Events,
		listings:  opts.Listings,
		snapshots: opts.Snapshots,
		history:   opts.History,
		cache:     opts.Cache,
		cfg:       opts.Config,
		now:       now,
	}
}

// cacheKey formats the memoization key for an asset.
func cacheKey(assetKey string) string {
	return "analytics:" + assetKey
}

// Calculate computes or retrieves the cached analytics snapshot for an
// asset key. Returns an error wrapping domain.ErrInvalidKey on malformed
// input.
func (e *Engine) Calculate(ctx context.Context, assetKey string, forceRefresh bool) (*domain.AssetAnalytics, error) {
	if !forceRefresh {
		var cached domain.AssetAnalytics
		hit, err := e.cache.GetJSON(ctx, cacheKey(assetKey), &cached)
		if err != nil {
			log.Printf("[analytics] cache read failed for %s: %v", assetKey, err)
		} else if hit {
			return &cached, nil
		}
	}

	key, err := domain.ParseAssetKey(assetKey)
	if err != nil {
		return nil, err
	}

	now := e.now()

	prices, err := e.listings.PricesByAsset(ctx, key.Model, key.Backdrop)
	if err != nil {
		return nil, fmt.Errorf("get active listings: %w", err)
	}

	sales7d, err := e.events.SalesSince(ctx, key.Model, key.Backdrop, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("get 7d sales: %w", err)
	}
	sales30d, err := e.events.SalesSince(ctx, key.Model, key.Backdrop, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("get 30d sales: %w", err)
	}

	first, second, third := computeFloors(prices)
	q := computeQuantiles(sales7d)

	var lastSaleAt *time.Time
	if len(sales7d) > 0 {
		t := sales7d[0].EventTime
		lastSaleAt = &t
	}

	liquidity := computeLiquidity(len(sales7d), len(sales30d), len(prices), lastSaleAt, now)
	confidence := computeConfidence(len(sales7d), len(sales30d), liquidity, len(prices))
	trend := computeTrend(sales7d, e.cfg.TrendRiseThreshold, e.cfg.TrendFallThreshold)

	snapshot := &domain.AssetAnalytics{
		AssetKey:       assetKey,
		Floor1st:       first,
		Floor2nd:       second,
		Floor3rd:       third,
		ListingsCount:  len(prices),
		Sales7d:        len(sales7d),
		Sales30d:       len(sales30d),
		PriceQ25:       q.q25,
		PriceQ50:       q.q50,
		PriceQ75:       q.q75,
		PriceMax:       q.max,
		LiquidityScore: liquidity,
		Confidence:     confidence,
		LastSaleAt:     lastSaleAt,
		Trend:          trend,
		ComputedAt:     now,
	}

	if err := e.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist analytics: %w", err)
	}
	if e.history != nil {
		// Archive failures must not fail the evaluation.
		if err := e.history.Append(ctx, snapshot); err != nil {
			log.Printf("[analytics] history append failed for %s: %v", assetKey, err)
		}
	}
	if err := e.cache.SetJSON(ctx, cacheKey(assetKey), snapshot, e.cfg.CacheTTL); err != nil {
		log.Printf("[analytics] cache write failed for %s: %v", assetKey, err)
	}

	return snapshot, nil
}

// Invalidate drops the memoized snapshot for an asset key, forcing the
// next Calculate to recompute.
func (e *Engine) Invalidate(ctx context.Context, assetKey string) error {
	return e.cache.Delete(ctx, cacheKey(assetKey))
}

// ARP computes the Adaptive Reference Price: a blend of a floor component
// and a sales component, adjusted for liquidity and momentum. Returns nil
// when neither component is available.
func (e *Engine) ARP(a *domain.AssetAnalytics) *float64 {
	if a == nil {
		return nil
	}

	floorWeight := 0.6
	if a.LiquidityScore >= 5 {
		floorWeight = 0.4
	}
	salesWeight := 1.0 - floorWeight

	var floorComponent *float64
	switch {
	case a.Floor2nd != nil:
		floorComponent = a.Floor2nd
	case a.Floor1st != nil:
		// Single-listing uncertainty penalty.
		v := *a.Floor1st * 1.20
		floorComponent = &v
	case a.ListingsCount == 0 && a.PriceQ50 != nil:
		// No listings at all: fall back to the sales median.
		v := *a.PriceQ50 * 1.10
		floorComponent = &v
	}

	salesComponent := a.PriceQ50

	var arp float64
	switch {
	case floorComponent != nil && salesComponent != nil:
		arp = *floorComponent*floorWeight + *salesComponent*salesWeight
	case floorComponent != nil:
		arp = *floorComponent
	case salesComponent != nil:
		arp = *salesComponent
	default:
		return nil
	}

	// Illiquid assets demand a bigger discount.
	if a.LiquidityScore < 3 {
		arp *= 1.5
	} else if a.LiquidityScore < 5 {
		arp *= 1.2
	}

	switch a.Trend {
	case domain.TrendFalling:
		arp *= 0.95
	case domain.TrendRising:
		arp *= 1.05
	}

	arp = round2(arp)
	return &arp
}

// Hotness scores short-term activity for an asset on [0, 10]: recent buy
// pressure, momentum, liquidity, and a bonus for a brand-new listing.
func (e *Engine) Hotness(ctx context.Context, assetKey string, a *domain.AssetAnalytics) (float64, error) {
	key, err := domain.ParseAssetKey(assetKey)
	if err != nil {
		return 0, err
	}

	now := e.now()

	recentBuys, err := e.events.CountSince(ctx, domain.EventSale, key.Model, key.Backdrop, now.Add(-time.Hour))
	if err != nil {
		return 0, fmt.Errorf("count recent sales: %w", err)
	}

	newListings, err := e.events.CountSince(ctx, domain.EventListing, key.Model, key.Backdrop, now.Add(-5*time.Minute))
	if err != nil {
		return 0, fmt.Errorf("count new listings: %w", err)
	}

	h := e.cfg.Hotness
	score := math.Min(float64(recentBuys)*h.BuyWeight, h.BuyCap)

	switch a.Trend {
	case domain.TrendFalling:
		score += h.FallingBonus
	case domain.TrendRising:
		score += h.RisingBonus
	}

	score += a.LiquidityScore * h.LiquidityWeight

	if newListings > 0 {
		score += h.NewListingBonus
	}

	return round1(math.Min(score/5.0, 10.0)), nil
}

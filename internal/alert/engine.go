// Package alert decides which market events become user alerts. Every
// event is pushed through an ordered gate pipeline: filters first, then
// analytics-based quality checks, then delivery throttles. The first
// failing gate drops the event.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"gift-scanner/internal/analytics"
	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// Config holds delivery throttle settings.
type Config struct {
	CooldownSeconds  int   // per (user, asset) cooldown after an alert
	MaxAlertsPerHour int64 // per-user hourly cap
}

// DefaultConfig returns production throttle defaults.
func DefaultConfig() Config {
	return Config{
		CooldownSeconds:  120,
		MaxAlertsPerHour: 50,
	}
}

// Options configures an alert Engine.
type Options struct {
	Analytics *analytics.Engine
	Events    storage.EventStore
	Mutes     storage.MuteStore
	Cache     storage.Cache
	Config    Config
	Now       func() time.Time // defaults to time.Now
}

// Engine evaluates market events against one user's settings and emits
// alerts. Safe for concurrent use.
type Engine struct {
	analytics *analytics.Engine
	events    storage.EventStore
	mutes     storage.MuteStore
	cache     storage.Cache
	cfg       Config
	now       func() time.Time
}

// New creates an alert Engine from options.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		analytics: opts.Analytics,
		events:    opts.Events,
		mutes:     opts.Mutes,
		cache:     opts.Cache,
		cfg:       opts.Config,
		now:       now,
	}
}

func cooldownKey(userID int64, assetKey string) string {
	return fmt.Sprintf("cooldown:user:%d:asset:%s", userID, assetKey)
}

func rateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:alerts:%d:1h", userID)
}

// Evaluate runs the full gate pipeline for one event and one user.
// Returns (nil, nil) when any gate drops the event, and a non-nil error
// only on a storage or analytics failure.
func (e *Engine) Evaluate(ctx context.Context, event *domain.MarketEvent, settings *domain.UserSettings) (*domain.Alert, error) {
	// Sales never alert; they only feed analytics.
	if event.Kind != domain.EventListing && event.Kind != domain.EventPriceChange {
		return nil, nil
	}

	assetKey := event.AssetKey().String()
	now := e.now()

	muted, err := e.mutes.IsMuted(ctx, settings.UserID, assetKey, now)
	if err != nil {
		return nil, fmt.Errorf("check mute: %w", err)
	}
	if muted {
		return nil, nil
	}

	if !passesBasicFilters(event, settings) {
		return nil, nil
	}

	a, err := e.analytics.Calculate(ctx, assetKey, false)
	if err != nil {
		return nil, fmt.Errorf("calculate analytics: %w", err)
	}

	arp := e.analytics.ARP(a)
	if arp == nil || *arp <= 0 {
		return nil, nil
	}

	profitPct := (*arp - event.Price) / *arp * 100

	// Single listing means no second floor backs the reference. With low
	// confidence on top, only an outsized profit compensates.
	if a.ListingsCount == 1 && a.Confidence == domain.ConfidenceLow {
		if profitPct < 50 {
			return nil, nil
		}
	}

	// Very illiquid and low confidence: demand a larger margin.
	if a.LiquidityScore < 2 && a.Confidence == domain.ConfidenceLow {
		if profitPct < 35 {
			return nil, nil
		}
	}

	minProfit := settings.ProfitMin
	if a.LiquidityScore < 5 {
		minProfit *= 1.2
	}
	if profitPct < minProfit {
		return nil, nil
	}

	if err := e.checkAntiFP(ctx, event, a, profitPct, now); err != nil {
		if errors.Is(err, errDropped) {
			return nil, nil
		}
		return nil, err
	}

	hotness, err := e.analytics.Hotness(ctx, assetKey, a)
	if err != nil {
		return nil, fmt.Errorf("calculate hotness: %w", err)
	}

	if settings.Mode == domain.ModeSniper {
		switch {
		case a.Confidence == domain.ConfidenceLow:
			if profitPct < 30 {
				return nil, nil
			}
		case a.Confidence == domain.ConfidenceMedium:
			if profitPct < 20 {
				return nil, nil
			}
		default:
			if profitPct < 15 && hotness < 8 {
				return nil, nil
			}
		}
	}

	onCooldown, err := e.cache.Exists(ctx, cooldownKey(settings.UserID, assetKey))
	if err != nil {
		return nil, fmt.Errorf("check cooldown: %w", err)
	}
	if onCooldown {
		return nil, nil
	}

	count, err := e.cache.Counter(ctx, rateLimitKey(settings.UserID))
	if err != nil {
		return nil, fmt.Errorf("check rate limit: %w", err)
	}
	if count >= e.cfg.MaxAlertsPerHour {
		log.Printf("[alert] user %d rate limited", settings.UserID)
		return nil, nil
	}

	sales48h, err := e.events.CountSince(ctx, domain.EventSale, event.Model, event.Backdrop, now.Add(-48*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count 48h sales: %w", err)
	}

	var floorBlackPack *float64
	floorGeneral := a.Floor2nd
	if event.IsBlackPack() {
		floorBlackPack = a.Floor2nd
	}

	alert := &domain.Alert{
		AssetKey:       assetKey,
		ItemID:         event.ItemID,
		ItemName:       event.ItemName,
		Model:          event.Model,
		Backdrop:       event.Backdrop,
		Number:         event.Number,
		Price:          event.Price,
		ProfitPct:      round1(profitPct),
		ReferencePrice: *arp,
		ReferenceType:  referenceType(settings),
		Hotness:        hotness,
		LiquidityScore: a.LiquidityScore,
		Confidence:     a.Confidence,
		FloorBlackPack: floorBlackPack,
		FloorGeneral:   floorGeneral,
		SalesQ25:       a.PriceQ25,
		SalesQ75:       a.PriceQ75,
		SalesMax:       a.PriceMax,
		Sales48h:       sales48h,
		IsPriority:     hotness >= 7 || profitPct >= 25,
		PhotoURL:       event.PhotoURL,
		EventTime:      event.EventTime,
		CreatedAt:      now,
		EventKind:      event.Kind,
		Marketplace:    event.Marketplace,
	}

	// The cooldown marker doubles as the dedup lock: whoever writes it
	// first owns the alert, concurrent evaluations of the same asset drop.
	ttl := time.Duration(e.cfg.CooldownSeconds) * time.Second
	won, err := e.cache.SetNX(ctx, cooldownKey(settings.UserID, assetKey), "1", ttl)
	if err != nil {
		return nil, fmt.Errorf("set cooldown: %w", err)
	}
	if !won {
		return nil, nil
	}

	n, err := e.cache.Incr(ctx, rateLimitKey(settings.UserID))
	if err != nil {
		return nil, fmt.Errorf("increment rate limit: %w", err)
	}
	if n == 1 {
		if err := e.cache.Expire(ctx, rateLimitKey(settings.UserID), time.Hour); err != nil {
			return nil, fmt.Errorf("expire rate limit: %w", err)
		}
	}

	log.Printf("[alert] generated: %s | profit %.1f%% | hotness %.1f/10 | priority %v",
		assetKey, profitPct, hotness, alert.IsPriority)

	return alert, nil
}

func passesBasicFilters(event *domain.MarketEvent, settings *domain.UserSettings) bool {
	if settings.PriceMin != nil && event.Price < *settings.PriceMin {
		return false
	}
	if settings.PriceMax != nil && event.Price > *settings.PriceMax {
		return false
	}

	switch settings.BackgroundFilter {
	case domain.BackgroundNone:
		if event.Backdrop != nil {
			return false
		}
	case domain.BackgroundBlackPack:
		if !event.IsBlackPack() {
			return false
		}
	}
	return true
}

// errDropped marks an anti-false-positive rejection, as opposed to a
// storage failure.
var errDropped = errors.New("dropped")

func (e *Engine) checkAntiFP(ctx context.Context, event *domain.MarketEvent, a *domain.AssetAnalytics, profitPct float64, now time.Time) error {
	// Too good to be true on an illiquid asset.
	if profitPct > 70 && a.LiquidityScore < 4 {
		log.Printf("[alert] suspicious deal: %.1f%% profit on illiquid %s", profitPct, event.AssetKey())
		return errDropped
	}

	// Stale listings were likely already passed over by the market.
	if event.Kind == domain.EventListing {
		if now.Sub(event.EventTime) > 6*time.Hour {
			return errDropped
		}
	}

	// Rapid repricing smells like manipulation. The runner persists the
	// event before evaluating it, so the count includes the current change:
	// the third change inside an hour is already rejected.
	if event.Kind == domain.EventPriceChange {
		changes, err := e.events.CountSince(ctx, domain.EventPriceChange, event.Model, event.Backdrop, now.Add(-time.Hour))
		if err != nil {
			return fmt.Errorf("count price changes: %w", err)
		}
		if changes >= 3 {
			log.Printf("[alert] too many price changes: %d in 1h for %s", changes, event.AssetKey())
			return errDropped
		}
	}

	return nil
}

func referenceType(settings *domain.UserSettings) string {
	switch settings.BackgroundFilter {
	case domain.BackgroundBlackPack:
		return "2nd floor black_pack"
	case domain.BackgroundNone:
		return "2nd floor no_bg"
	default:
		return "2nd floor general"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

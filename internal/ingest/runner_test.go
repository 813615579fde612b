package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gift-scanner/internal/alert"
	"gift-scanner/internal/analytics"
	"gift-scanner/internal/domain"
	"gift-scanner/internal/observability"
	"gift-scanner/internal/storage/memory"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

// stubSource feeds a fixed channel of events.
type stubSource struct {
	ch chan *domain.MarketEvent
}

func newStubSource() *stubSource {
	return &stubSource{ch: make(chan *domain.MarketEvent, 100)}
}

func (s *stubSource) Subscribe(ctx context.Context) (<-chan *domain.MarketEvent, error) {
	return s.ch, nil
}

// stubNotifier records delivered alerts.
type stubNotifier struct {
	mu     sync.Mutex
	alerts map[int64][]*domain.Alert
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{alerts: make(map[int64][]*domain.Alert)}
}

func (n *stubNotifier) Notify(_ context.Context, userID int64, a *domain.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts[userID] = append(n.alerts[userID], a)
	return nil
}

func (n *stubNotifier) delivered(userID int64) []*domain.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alerts[userID]
}

type runnerFixture struct {
	runner   *Runner
	source   *stubSource
	notifier *stubNotifier
	events   *memory.EventStore
	listings *memory.ListingStore
	settings *memory.SettingsStore
	engine   *analytics.Engine
	metrics  *observability.Metrics
	now      time.Time
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	now := time.Now()

	events := memory.NewEventStore()
	listings := memory.NewListingStore()
	cache := memory.NewCache()
	settings := memory.NewSettingsStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "test")

	an := analytics.New(analytics.Options{
		Events:    events,
		Listings:  listings,
		Snapshots: memory.NewAnalyticsStore(),
		Cache:     cache,
		Config:    analytics.DefaultConfig(),
		Now:       func() time.Time { return now },
	})
	al := alert.New(alert.Options{
		Analytics: an,
		Events:    events,
		Mutes:     memory.NewMuteStore(),
		Cache:     cache,
		Config:    alert.DefaultConfig(),
		Now:       func() time.Time { return now },
	})

	source := newStubSource()
	notifier := newStubNotifier()
	runner := NewRunner(RunnerOptions{
		Source:    source,
		Events:    events,
		Listings:  listings,
		Settings:  settings,
		Analytics: an,
		Alerts:    al,
		Notifier:  notifier,
		Metrics:   metrics,
	})

	return &runnerFixture{
		runner: runner, source: source, notifier: notifier,
		events: events, listings: listings, settings: settings,
		engine: an, metrics: metrics, now: now,
	}
}

// seedDealAsset makes Nova:Black liquid enough to clear every quality gate
// and registers one active spam user.
func (f *runnerFixture) seedDealAsset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	black := strPtr("Black")

	for i, price := range []float64{100, 110, 120, 130} {
		err := f.listings.Upsert(ctx, &domain.ActiveListing{
			ItemID: string(rune('a' + i)), Model: "Nova", Backdrop: black, Price: price,
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		err := f.events.Insert(ctx, &domain.MarketEvent{
			EventTime: f.now.Add(-time.Duration(i+1) * time.Hour), Kind: domain.EventSale,
			ItemID: "s", Model: "Nova", Backdrop: black, Price: 100,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	active := &domain.UserSettings{
		UserID: 1, Mode: domain.ModeSpam, ProfitMin: 10,
		BackgroundFilter: domain.BackgroundAny, Active: true,
	}
	if err := f.settings.Upsert(ctx, active); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
}

// run drains the stub source until it closes.
func (f *runnerFixture) run(t *testing.T) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- f.runner.Run(context.Background()) }()

	close(f.source.ch)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_SaleRemovesListingAndRefreshesAnalytics(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()
	black := strPtr("Black")

	// A listing event creates the mirror row.
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now.Add(-time.Minute), Kind: domain.EventListing,
		ItemID: "item1", Model: "Nova", Backdrop: black, Price: 100,
		Marketplace: domain.MarketplacePortals,
	}
	// Selling the same item removes it again.
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now, Kind: domain.EventSale,
		ItemID: "item1", Model: "Nova", Backdrop: black, Price: 100,
		Marketplace: domain.MarketplacePortals,
	}
	f.run(t)

	prices, err := f.listings.PricesByAsset(ctx, "Nova", black)
	if err != nil {
		t.Fatalf("PricesByAsset: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("sold item must leave the listings mirror, got %v", prices)
	}

	// Both events were persisted and the snapshot reflects them.
	a, err := f.engine.Calculate(ctx, "Nova:Black", false)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if a.Sales7d != 1 || a.ListingsCount != 0 {
		t.Errorf("snapshot stale: sales7d=%d listings=%d", a.Sales7d, a.ListingsCount)
	}
}

func TestRunner_AlertsActiveUsersOnly(t *testing.T) {
	f := newRunnerFixture(t)
	f.seedDealAsset(t)
	ctx := context.Background()
	black := strPtr("Black")

	inactive := &domain.UserSettings{
		UserID: 2, Mode: domain.ModeSpam, ProfitMin: 10,
		BackgroundFilter: domain.BackgroundAny, Active: false,
	}
	if err := f.settings.Upsert(ctx, inactive); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}

	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now.Add(-time.Minute), Kind: domain.EventListing,
		ItemID: "deal", Model: "Nova", Backdrop: black, Price: 70,
		Marketplace: domain.MarketplacePortals,
	}
	f.run(t)

	got := f.notifier.delivered(1)
	if len(got) != 1 {
		t.Fatalf("expected 1 alert for the active user, got %d", len(got))
	}
	if got[0].AssetKey != "Nova:Black" || got[0].Price != 70 {
		t.Errorf("unexpected alert: %+v", got[0])
	}
	if len(f.notifier.delivered(2)) != 0 {
		t.Error("inactive user must not receive alerts")
	}
}

// repriceEvent builds a price change for the seeded deal item.
func (f *runnerFixture) repriceEvent(minutesAgo int, price float64) *domain.MarketEvent {
	return &domain.MarketEvent{
		EventTime: f.now.Add(-time.Duration(minutesAgo) * time.Minute), Kind: domain.EventPriceChange,
		ItemID: "deal", Model: "Nova", Backdrop: strPtr("Black"), Price: price,
		PriceOld: f64Ptr(price + 10), Marketplace: domain.MarketplacePortals,
	}
}

func TestRunner_SecondRepricingWithinHourAlerts(t *testing.T) {
	f := newRunnerFixture(t)
	f.seedDealAsset(t)

	// One quiet change before the deal: the deal is only the second change
	// the store has seen inside the hour.
	f.source.ch <- f.repriceEvent(30, 100)
	f.source.ch <- f.repriceEvent(1, 70)
	f.run(t)

	got := f.notifier.delivered(1)
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}
	if got[0].Price != 70 {
		t.Errorf("unexpected alert: %+v", got[0])
	}
}

func TestRunner_ThirdRepricingWithinHourRejected(t *testing.T) {
	f := newRunnerFixture(t)
	f.seedDealAsset(t)

	// The deal event is persisted before evaluation, so it is itself the
	// third change counted inside the hour.
	f.source.ch <- f.repriceEvent(30, 100)
	f.source.ch <- f.repriceEvent(20, 100)
	f.source.ch <- f.repriceEvent(1, 70)
	f.run(t)

	if got := f.notifier.delivered(1); len(got) != 0 {
		t.Errorf("third repricing within an hour must not alert, got %d", len(got))
	}
}

func TestRunner_RecordsMetrics(t *testing.T) {
	f := newRunnerFixture(t)
	f.seedDealAsset(t)

	// Missing model fails to apply; the deal listing alerts the active user.
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now, Kind: domain.EventListing, ItemID: "bad", Price: 10,
	}
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now.Add(-time.Minute), Kind: domain.EventListing,
		ItemID: "deal", Model: "Nova", Backdrop: strPtr("Black"), Price: 70,
		Marketplace: domain.MarketplacePortals,
	}
	f.run(t)

	if got := testutil.ToFloat64(f.metrics.EventsProcessed.WithLabelValues("listing")); got != 2 {
		t.Errorf("events processed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(f.metrics.EventsApplied); got != 1 {
		t.Errorf("events applied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.EventApplyErrors); got != 1 {
		t.Errorf("apply errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.AlertsEmitted); got != 1 {
		t.Errorf("alerts emitted = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(f.metrics.EvaluationLatency); got != 1 {
		t.Errorf("latency metric families = %d, want 1", got)
	}
}

func TestRunner_BadEventDoesNotStallStream(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	// Missing model: rejected by the event store.
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now, Kind: domain.EventListing, ItemID: "bad", Price: 10,
	}
	f.source.ch <- &domain.MarketEvent{
		EventTime: f.now, Kind: domain.EventListing, ItemID: "good",
		Model: "Nova", Price: 10, Marketplace: domain.MarketplaceMrkt,
	}
	f.run(t)

	prices, err := f.listings.PricesByAsset(ctx, "Nova", nil)
	if err != nil {
		t.Fatalf("PricesByAsset: %v", err)
	}
	if len(prices) != 1 {
		t.Errorf("later events must still be processed, got %v", prices)
	}
}

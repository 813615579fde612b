package ingest

import (
	"context"
	"log"
	"time"

	"gift-scanner/internal/alert"
	"gift-scanner/internal/analytics"
	"gift-scanner/internal/domain"
	"gift-scanner/internal/observability"
	"gift-scanner/internal/storage"
)

// Runner consumes the event stream: every event is persisted, mirrored
// into the active listings table, and then evaluated against each active
// user's settings.
type Runner struct {
	source    EventSource
	events    storage.EventStore
	listings  storage.ListingStore
	settings  storage.SettingsStore
	analytics *analytics.Engine
	alerts    *alert.Engine
	notifier  Notifier
	logger    *log.Logger
	metrics   *observability.Metrics
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source    EventSource
	Events    storage.EventStore
	Listings  storage.ListingStore
	Settings  storage.SettingsStore
	Analytics *analytics.Engine
	Alerts    *alert.Engine
	Notifier  Notifier
	Logger    *log.Logger
	Metrics   *observability.Metrics
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Runner{
		source:    opts.Source,
		events:    opts.Events,
		listings:  opts.Listings,
		settings:  opts.Settings,
		analytics: opts.Analytics,
		alerts:    opts.Alerts,
		notifier:  opts.Notifier,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run subscribes to the source and processes events until the context is
// cancelled or the stream closes.
func (r *Runner) Run(ctx context.Context) error {
	eventsCh, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.logger.Println("[ingest] subscribed to event feed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-eventsCh:
			if !ok {
				r.logger.Println("[ingest] event stream closed")
				return nil
			}
			r.process(ctx, e)
		}
	}
}

// process applies one event and evaluates it for every active user.
// Failures are logged, never fatal: a bad event must not stall the stream.
func (r *Runner) process(ctx context.Context, e *domain.MarketEvent) {
	r.metrics.EventsProcessed.WithLabelValues(string(e.Kind)).Inc()

	if err := r.apply(ctx, e); err != nil {
		r.metrics.EventApplyErrors.Inc()
		r.logger.Printf("[ingest] apply %s %s: %v", e.Kind, e.AssetKey(), err)
		return
	}
	r.metrics.EventsApplied.Inc()

	if e.Kind == domain.EventSale {
		return
	}

	users, err := r.settings.ListActive(ctx)
	if err != nil {
		r.logger.Printf("[ingest] list active users: %v", err)
		return
	}

	for _, u := range users {
		start := time.Now()
		a, err := r.alerts.Evaluate(ctx, e, u)
		r.metrics.EvaluationLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			r.metrics.EvaluationErrors.Inc()
			r.logger.Printf("[ingest] evaluate for user %d: %v", u.UserID, err)
			continue
		}
		if a == nil {
			r.metrics.AlertsSuppressed.Inc()
			continue
		}
		r.metrics.AlertsEmitted.Inc()
		if err := r.notifier.Notify(ctx, u.UserID, a); err != nil {
			r.metrics.NotifyErrors.Inc()
			r.logger.Printf("[ingest] notify user %d: %v", u.UserID, err)
		}
	}
}

// apply persists the event, updates the listings mirror and drops the
// asset's cached analytics so the next evaluation sees fresh state.
func (r *Runner) apply(ctx context.Context, e *domain.MarketEvent) error {
	if err := r.events.Insert(ctx, e); err != nil {
		return err
	}

	switch e.Kind {
	case domain.EventSale:
		if err := r.listings.Delete(ctx, e.ItemID); err != nil {
			return err
		}
	case domain.EventListing, domain.EventPriceChange:
		l := &domain.ActiveListing{
			ItemID:      e.ItemID,
			ItemName:    e.ItemName,
			Model:       e.Model,
			Backdrop:    e.Backdrop,
			Pattern:     e.Pattern,
			Number:      e.Number,
			Price:       e.Price,
			ListedAt:    e.EventTime,
			LastUpdated: e.EventTime,
			Marketplace: e.Marketplace,
		}
		if err := r.listings.Upsert(ctx, l); err != nil {
			return err
		}
	}

	return r.analytics.Invalidate(ctx, e.AssetKey().String())
}

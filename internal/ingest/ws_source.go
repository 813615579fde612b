package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"gift-scanner/internal/domain"
)

// WSConfig configures WebSocket feed behavior.
type WSConfig struct {
	// URL is the feed endpoint.
	URL string
	// HandshakeTimeout bounds the dial handshake.
	HandshakeTimeout time.Duration
	// ReconnectMin is the initial delay before a reconnect attempt.
	ReconnectMin time.Duration
	// ReconnectMax is the maximum delay between reconnect attempts.
	ReconnectMax time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig(url string) WSConfig {
	return WSConfig{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		ReconnectMin:     1 * time.Second,
		ReconnectMax:     1 * time.Minute,
	}
}

// WSSource streams market events from a marketplace WebSocket feed.
// Each text frame carries one JSON-encoded event. The source reconnects
// with exponential backoff and keeps running until the context ends.
type WSSource struct {
	cfg WSConfig
}

// NewWSSource creates a new WebSocket event source.
func NewWSSource(cfg WSConfig) *WSSource {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReconnectMin == 0 {
		cfg.ReconnectMin = 1 * time.Second
	}
	if cfg.ReconnectMax == 0 {
		cfg.ReconnectMax = 1 * time.Minute
	}
	return &WSSource{cfg: cfg}
}

// Compile-time interface check.
var _ EventSource = (*WSSource)(nil)

// Subscribe connects to the feed and returns the event channel. The first
// connection attempt must succeed; later disconnects trigger reconnects.
func (s *WSSource) Subscribe(ctx context.Context) (<-chan *domain.MarketEvent, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	events := make(chan *domain.MarketEvent, 100)

	go func() {
		defer close(events)

		for {
			err := s.readLoop(ctx, conn, events)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			log.Printf("[ws] connection lost: %v", err)

			conn = s.reconnect(ctx)
			if conn == nil {
				return
			}
		}
	}()

	return events, nil
}

// reconnect dials with exponential backoff until it succeeds or the
// context ends. Returns nil on shutdown.
func (s *WSSource) reconnect(ctx context.Context) *websocket.Conn {
	delay := s.cfg.ReconnectMin
	for {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}

		conn, err := s.dial(ctx)
		if err == nil {
			log.Printf("[ws] reconnected to %s", s.cfg.URL)
			return conn
		}

		log.Printf("[ws] reconnect failed: %v, retrying in %v", err, delay)
		delay *= 2
		if delay > s.cfg.ReconnectMax {
			delay = s.cfg.ReconnectMax
		}
	}
}

func (s *WSSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", s.cfg.URL, err)
	}
	return conn, nil
}

// readLoop decodes frames until the connection breaks or ctx ends.
func (s *WSSource) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- *domain.MarketEvent) error {
	// Unblock ReadMessage on shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var e domain.MarketEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			log.Printf("[ws] skipping malformed frame: %v", err)
			continue
		}
		if !e.Kind.IsValid() || e.Model == "" {
			log.Printf("[ws] skipping invalid event: kind=%q model=%q", e.Kind, e.Model)
			continue
		}

		select {
		case events <- &e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package poolstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"alphixcore/internal/model"
)

// StreamConfig tunes the websocket price stream.
type StreamConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ReadTimeout       time.Duration
	HandshakeTimeout  time.Duration
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// Stream consumes the metrics-only websocket channel and feeds prices
// into the Feed. It reconnects with a capped delay and marks the feed
// down while disconnected, which hands price authority back to the
// poller.
type Stream struct {
	endpoint string
	poolID   string
	cfg      StreamConfig
	feed     *Feed
	logger   *zap.Logger
}

func NewStream(endpoint, poolID string, cfg StreamConfig, feed *Feed, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		endpoint: endpoint,
		poolID:   model.CanonicalPoolID(poolID),
		cfg:      cfg,
		feed:     feed,
		logger:   logger,
	}
}

type priceMessage struct {
	PoolID string  `json:"poolId"`
	Price  float64 `json:"price"`
}

// Run consumes the stream until the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	delay := s.cfg.ReconnectDelay
	for {
		err := s.consume(ctx)
		s.feed.MarkStreamDown()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("price stream disconnected", zap.Duration("reconnect_in", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > s.cfg.MaxReconnectDelay {
			delay = s.cfg.MaxReconnectDelay
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.logger.Info("price stream connected", zap.String("pool", s.poolID))

	for {
		if s.cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
				return fmt.Errorf("set read deadline: %w", err)
			}
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}

		var msg priceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("decode stream message", zap.Error(err))
			continue
		}
		if model.CanonicalPoolID(msg.PoolID) != s.poolID || msg.Price <= 0 {
			continue
		}
		s.feed.ApplyStream(msg.Price)
	}
}

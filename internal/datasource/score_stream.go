package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
)

// ScoreUpdate is one live score message from the feed.
type ScoreUpdate struct {
	ExternalID string               `json:"external_id"`
	Sport      models.Sport         `json:"sport"`
	HomeScore  *int                 `json:"home_score"`
	AwayScore  *int                 `json:"away_score"`
	Status     models.MatchupStatus `json:"status"`
}

// ScoreHandler applies score updates. Errors are logged and the stream keeps
// reading.
type ScoreHandler interface {
	HandleScore(ctx context.Context, update ScoreUpdate) error
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int // 0 retries forever
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        0,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

type streamMessage struct {
	Op     string       `json:"op"`
	Score  *ScoreUpdate `json:"score,omitempty"`
	Error  string       `json:"error,omitempty"`
	Sports []string     `json:"sports,omitempty"`
}

const (
	opSubscribe = "subscribe"
	opScore     = "score"
	opHeartbeat = "heartbeat"
	opError     = "error"
)

// ScoreStream consumes the live score websocket and hands each update to a
// ScoreHandler, reconnecting with backoff when the connection drops.
type ScoreStream struct {
	url       string
	sports    []models.Sport
	handler   ScoreHandler
	reconnect ReconnectConfig
	dialer    *websocket.Dialer

	mu              sync.RWMutex
	connected       bool
	lastMessageTime time.Time

	logger *logrus.Entry
}

// NewScoreStream creates a new score stream client
func NewScoreStream(url string, sports []models.Sport, handler ScoreHandler, reconnect ReconnectConfig, logger *logrus.Logger) *ScoreStream {
	return &ScoreStream{
		url:       url,
		sports:    sports,
		handler:   handler,
		reconnect: reconnect,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:    logger.WithField("component", "score_stream"),
	}
}

// Run reads the stream until ctx is cancelled or reconnects are exhausted.
func (s *ScoreStream) Run(ctx context.Context) error {
	backoff := s.reconnect.InitialBackoff
	failures := 0

	for {
		received, err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			failures = 0
			backoff = s.reconnect.InitialBackoff
		}
		failures++
		if s.reconnect.MaxRetries > 0 && failures > s.reconnect.MaxRetries {
			return fmt.Errorf("score stream gave up after %d attempts: %w", failures, err)
		}

		s.logger.WithError(err).WithField("retry_in", backoff.String()).Warn("Score stream disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.reconnect.BackoffMultiplier)
		if s.reconnect.MaxBackoff > 0 && backoff > s.reconnect.MaxBackoff {
			backoff = s.reconnect.MaxBackoff
		}
	}
}

// session runs one connection. It reports whether any message arrived.
func (s *ScoreStream) session(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to connect to score stream: %w", err)
	}
	s.setConnected(true)
	defer s.setConnected(false)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	sub := streamMessage{Op: opSubscribe, Sports: make([]string, len(s.sports))}
	for i, sport := range s.sports {
		sub.Sports[i] = sport.String()
	}
	if err := conn.WriteJSON(sub); err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}
	s.logger.WithField("sports", sub.Sports).Info("Subscribed to score stream")

	received := false
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return received, errors.New("score stream closed by server")
			}
			return received, fmt.Errorf("failed to read score stream: %w", err)
		}
		received = true
		s.touch()
		s.dispatch(ctx, msg)
	}
}

func (s *ScoreStream) dispatch(ctx context.Context, msg streamMessage) {
	switch msg.Op {
	case opScore:
		if msg.Score == nil || msg.Score.ExternalID == "" {
			metrics.RecordScoreUpdate("invalid")
			s.logger.Warn("Score message without matchup id")
			return
		}
		metrics.RecordScoreUpdate(string(msg.Score.Status))
		if err := s.handler.HandleScore(ctx, *msg.Score); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"external_id": msg.Score.ExternalID,
				"status":      msg.Score.Status,
			}).Error("Failed to apply score update")
		}
	case opHeartbeat:
	case opError:
		s.logger.WithField("error", msg.Error).Warn("Score stream reported an error")
	default:
		s.logger.WithField("op", msg.Op).Debug("Ignoring score stream message")
	}
}

// IsConnected returns whether the stream is connected
func (s *ScoreStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// LastMessageTime returns the time of the last received message
func (s *ScoreStream) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

func (s *ScoreStream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *ScoreStream) touch() {
	s.mu.Lock()
	s.lastMessageTime = time.Now()
	s.mu.Unlock()
}

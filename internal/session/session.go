// Package session drives one live tracking run: dial the feed, classify
// each event, update line state, flag steam, assess edge, and expose a
// read-only snapshot for renderers.
package session

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"linetracker/internal/feed"
	"linetracker/internal/market"
	"linetracker/internal/oddsmath"
	"linetracker/internal/predictions"
)

// State is the aggregator's lifecycle phase.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Config holds the recognized tracker options.
type Config struct {
	SteamThreshold       float64
	ValueEdgeThreshold   float64
	ReconnectBackoff     time.Duration
	ReconnectBackoffMax  time.Duration
	MaxReconnectAttempts int
	// SessionDuration bounds the run; zero means unbounded.
	SessionDuration time.Duration
	Subscriptions   []feed.SubscriptionSpec
}

// Counters are the session's public tallies.
type Counters struct {
	TotalChanges uint64 `json:"total_changes"`
	SteamMoves   uint64 `json:"steam_moves"`
	ValueAlerts  uint64 `json:"value_alerts"`
	Malformed    uint64 `json:"malformed"`
	Filtered     uint64 `json:"filtered"`
}

// Snapshot is the read-only view handed to renderers and the HTTP layer.
type Snapshot struct {
	State     State
	Counters  Counters
	Records   []market.Record
	StartedAt time.Time
}

// Session owns its own store and counters; there are no process-wide
// singletons. One goroutine drives Run; Snapshot may be called from others.
type Session struct {
	dialer    feed.Dialer
	predicted predictions.Provider
	logger    *zap.Logger
	cfg       Config

	store     *market.Store
	detector  market.Detector
	observers []Observer

	mu        sync.RWMutex
	state     State
	counters  Counters
	startedAt time.Time
}

func New(dialer feed.Dialer, provider predictions.Provider, logger *zap.Logger, cfg Config) *Session {
	if cfg.ValueEdgeThreshold <= 0 {
		cfg.ValueEdgeThreshold = 0.05
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = time.Second
	}
	if cfg.ReconnectBackoffMax <= 0 {
		cfg.ReconnectBackoffMax = 30 * time.Second
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	return &Session{
		dialer:    dialer,
		predicted: provider,
		logger:    logger,
		cfg:       cfg,
		store:     market.NewStore(),
		detector:  market.NewDetector(cfg.SteamThreshold),
		state:     StateIdle,
	}
}

// Observe registers an observer. Not safe to call once Run has started.
func (s *Session) Observe(obs Observer) {
	if obs == nil {
		return
	}
	s.observers = append(s.observers, obs)
}

// Run drives the session until the context is cancelled, the optional
// duration elapses, a non-retryable error occurs, or the reconnect budget is
// exhausted. A successful reconnect keeps all counters and records; callers
// must tolerate current regressing to an older value across a reconnect,
// since no ordering holds between the two connections.
func (s *Session) Run(ctx context.Context) error {
	if s.cfg.SessionDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SessionDuration)
		defer cancel()
	}
	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	attempts := 0
	backoff := s.cfg.ReconnectBackoff
	s.setState(StateConnecting)

	for {
		conn, err := s.dialer.Connect(ctx, s.cfg.Subscriptions)
		if err != nil {
			var authErr *feed.AuthError
			var cfgErr *feed.ConfigError
			if errors.As(err, &authErr) || errors.As(err, &cfgErr) {
				s.setState(StateStopped)
				return err
			}
			if ctx.Err() != nil {
				s.setState(StateStopped)
				return ctx.Err()
			}
			if s.logger != nil {
				s.logger.Warn("feed connect failed", zap.Error(err), zap.Int("attempt", attempts+1))
			}
			attempts++
			if attempts > s.cfg.MaxReconnectAttempts {
				s.setState(StateStopped)
				return err
			}
			s.setState(StateReconnecting)
			if err := sleepWithJitter(ctx, backoff); err != nil {
				s.setState(StateStopped)
				return err
			}
			backoff = nextBackoff(backoff, s.cfg.ReconnectBackoffMax)
			s.setState(StateConnecting)
			continue
		}

		attempts = 0
		backoff = s.cfg.ReconnectBackoff
		s.setState(StateStreaming)

		streamErr := s.consume(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			// Explicit cancellation or duration expiry.
			s.setState(StateStopped)
			return nil
		}
		if streamErr != nil && s.logger != nil {
			s.logger.Warn("feed stream interrupted", zap.Error(streamErr))
		}
		attempts++
		if attempts > s.cfg.MaxReconnectAttempts {
			s.setState(StateStopped)
			return streamErr
		}
		s.setState(StateReconnecting)
		if err := sleepWithJitter(ctx, backoff); err != nil {
			s.setState(StateStopped)
			return nil
		}
		backoff = nextBackoff(backoff, s.cfg.ReconnectBackoffMax)
		s.setState(StateConnecting)
	}
}

// consume processes events one at a time until the connection ends. A nil
// return means the stream ended (io.EOF or context cancel); an
// *UpstreamError is returned so the caller logs it before reconnecting.
func (s *Session) consume(ctx context.Context, conn feed.Conn) error {
	for {
		ev, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			var upstream *feed.UpstreamError
			if errors.As(err, &upstream) {
				return upstream
			}
			return err
		}
		s.process(ev)
	}
}

func (s *Session) process(ev feed.RawEvent) {
	change, verdict := market.Classify(ev)
	switch verdict {
	case market.VerdictMalformed:
		s.mu.Lock()
		s.counters.Malformed++
		s.mu.Unlock()
		return
	case market.VerdictDerivative:
		s.mu.Lock()
		s.counters.Filtered++
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("derivative market filtered",
				zap.Int64("game_id", change.GameID),
				zap.String("market", string(change.Market)),
				zap.Int("period", change.Period),
			)
		}
		return
	}

	var prior *market.Record
	if rec, ok := s.store.Get(change.Key()); ok {
		prior = &rec
	}
	change.IsSteam = s.detector.IsSteam(*change, prior)

	rec := s.store.Apply(*change)

	s.mu.Lock()
	s.counters.TotalChanges++
	if change.IsSteam {
		s.counters.SteamMoves++
	}
	s.mu.Unlock()

	for _, obs := range s.observers {
		obs.OnLineChange(rec, *change)
	}
	if change.IsSteam {
		for _, obs := range s.observers {
			obs.OnSteamMove(rec, *change)
		}
	}
	s.assessEdge(rec, *change)
}

// assessEdge runs only when the caller supplied a probability for this
// key's side. An arithmetic failure here is a prediction-data bug and must
// not disturb session state.
func (s *Session) assessEdge(rec market.Record, change market.LineChange) {
	if s.predicted == nil || change.PriceA == nil {
		return
	}
	side := "over"
	if change.Team != nil {
		side = *change.Team
	}
	prob, ok := s.predicted.Probability(change.GameID, change.Market, side)
	if !ok {
		return
	}
	assessment, err := oddsmath.Assess(side, prob, *change.PriceA, s.cfg.ValueEdgeThreshold)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("edge assessment rejected",
				zap.Int64("game_id", change.GameID),
				zap.String("side", side),
				zap.Error(err),
			)
		}
		return
	}
	if !assessment.IsValueAlert {
		return
	}
	s.mu.Lock()
	s.counters.ValueAlerts++
	s.mu.Unlock()
	for _, obs := range s.observers {
		obs.OnValueAlert(change, assessment)
	}
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	if prev == next {
		return
	}
	if s.logger != nil {
		s.logger.Info("session state changed", zap.String("from", string(prev)), zap.String("to", string(next)))
	}
	for _, obs := range s.observers {
		obs.OnStateChange(prev, next)
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot copies the counters and full record set for external rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		State:     s.state,
		Counters:  s.counters,
		StartedAt: s.startedAt,
	}
	s.mu.RUnlock()
	snap.Records = s.store.All()
	return snap
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(base/2) + 1))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

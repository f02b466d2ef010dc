// Package session owns one play session: the game, the simulation loop,
// the request listener and the bridge between them.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/lunar-lander/internal/bridge"
	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("session: already running")
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("session: closed")
)

// EpisodeRecorder stores classified landings.
// This allows the session to record results without depending on the storage package.
type EpisodeRecorder interface {
	RecordEpisode(sessionID string, ep lander.EpisodeResult) error
}

// Option configures a Session.
type Option func(*Session)

// WithChannel attaches a controller channel. Without one the session only
// runs the simulation loop.
func WithChannel(ch transport.Channel) Option {
	return func(s *Session) {
		s.channel = ch
	}
}

// WithRecorder records every landing.
func WithRecorder(r EpisodeRecorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithLogger sets the parent logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBridgeOptions passes options through to the bridge.
func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(s *Session) {
		s.bridgeOpts = append(s.bridgeOpts, opts...)
	}
}

// WithStopOnChannelLoss makes Run return transport.ErrChannelLost when the
// controller channel goes away. By default the loop keeps running without
// a controller.
func WithStopOnChannelLoss() Option {
	return func(s *Session) {
		s.stopOnLoss = true
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session runs a game at a fixed tick rate and serves controller requests.
type Session struct {
	id       string
	cfg      config.LanderConfig
	game     *lander.Game
	bridge   *bridge.Bridge
	channel  transport.Channel
	recorder EpisodeRecorder
	logger   *log.Logger

	bridgeOpts []bridge.Option
	stopOnLoss bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	closed  bool
	lost    bool
	stopped chan struct{}

	episodes  int
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a session around game. Nothing runs until Run is called.
func New(cfg config.LanderConfig, game *lander.Game, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		game:    game,
		logger:  log.New(io.Discard),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = NewID()
	}
	s.logger = s.logger.WithPrefix("session").With("id", s.id)

	if s.channel != nil {
		s.bridge = bridge.New(game, s.channel, cfg.Bridge, s.logger, s.bridgeOpts...)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Game returns the simulated game.
func (s *Session) Game() *lander.Game {
	return s.game
}

// Episodes returns how many landings this session has classified.
func (s *Session) Episodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episodes
}

// Run drives the simulation loop and, when a channel is attached, the
// request listener. It blocks until ctx is cancelled or Close is called,
// then tears everything down in order: the bridge wakes any waiting
// request, the listener exits, and the channel is closed.
//
// With WithStopOnChannelLoss, losing the channel also stops the session and
// Run returns an error wrapping transport.ErrChannelLost.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	defer close(s.stopped)
	defer cancel()

	s.logger.Info("session started", "tick_rate", s.cfg.Session.TickRate, "controller", s.channel != nil)

	if s.channel != nil {
		s.wg.Add(1)
		go s.listen(ctx)
	}

	s.loop(ctx)

	if s.bridge != nil {
		s.bridge.Close()
	}
	s.wg.Wait()
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Warn("closing channel", "err", err)
		}
	}

	s.logger.Info("session stopped", "episodes", s.Episodes())
	// A transport torn down by the same cancellation is not a loss
	if s.stopOnLoss && s.ChannelLost() && parent.Err() == nil {
		return fmt.Errorf("session %s: %w", s.id, transport.ErrChannelLost)
	}
	return nil
}

// ChannelLost reports whether the controller channel went away while the
// session was running.
func (s *Session) ChannelLost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// Close stops a running session and waits for Run to return. Safe to call
// multiple times, and before Run.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		cancel := s.cancel
		running := s.running
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if s.bridge != nil {
			s.bridge.Close()
		}
		if running {
			<-s.stopped
			return
		}
		if s.channel != nil {
			s.channel.Close()
		}
	})
	return nil
}

func (s *Session) loop(ctx context.Context) {
	rate := s.cfg.Session.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Session) tick(ctx context.Context, now time.Time) {
	out := s.game.Tick(now)
	if out.Landed {
		s.record(out)
	}
	if s.bridge != nil {
		s.bridge.OnTick(ctx, s.game.Snapshot().Frame)
	}
}

func (s *Session) record(out lander.Outcome) {
	s.mu.Lock()
	s.episodes++
	s.mu.Unlock()

	ep := out.Episode
	s.logger.Info("landing",
		"result", ep.Result,
		"reason", ep.Reason,
		"speed", fmt.Sprintf("%.1f", ep.Speed),
		"wins", ep.WinsInARow,
	)

	if s.recorder == nil || !s.cfg.Session.RecordEpisodes {
		return
	}
	// Best effort: a storage failure never stops the loop
	if err := s.recorder.RecordEpisode(s.id, ep); err != nil {
		s.logger.Warn("recording episode failed", "err", err)
	}
}

func (s *Session) listen(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.channel.Done():
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("controller channel gone, listener stopping", "err", transport.ErrChannelLost)
			s.mu.Lock()
			s.lost = true
			cancel := s.cancel
			s.mu.Unlock()
			if s.stopOnLoss && cancel != nil {
				cancel()
			}
			return
		case data := <-s.channel.Inbound():
			req, err := protocol.Decode(data)
			if err != nil {
				s.logger.Warn("dropping request", "err", err)
				continue
			}
			if _, err := s.bridge.Handle(ctx, req); err != nil {
				if errors.Is(err, bridge.ErrClosed) || ctx.Err() != nil {
					return
				}
				s.logger.Warn("request failed", "err", err)
			}
		}
	}
}

// NewID creates an 8-character session identifier.
func NewID() string {
	b := make([]byte, 5) // 5 bytes = 40 bits = exactly 8 base32 chars
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return strings.ToLower(base32.StdEncoding.EncodeToString(b))
}

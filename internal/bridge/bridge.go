// Package bridge pairs controller requests with simulation ticks.
//
// A controller request is applied to the game immediately, then the caller
// waits until the simulation loop has run at least one more tick. The loop
// publishes exactly one observation for that request and hands it back to the
// waiting caller. The loop never blocks on a caller; a caller never waits
// longer than the rendezvous timeout.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

const tracerName = "github.com/vovakirdan/lunar-lander/internal/bridge"

var (
	// ErrRendezvousTimeout is returned when no tick picked up a request in time.
	ErrRendezvousTimeout = errors.New("bridge: rendezvous timeout")
	// ErrBusy is returned when the wait queue is full.
	ErrBusy = errors.New("bridge: too many requests in flight")
	// ErrClosed is returned by Handle after Close.
	ErrClosed = errors.New("bridge: closed")
	// ErrUnsupportedRequest is returned for request types the bridge cannot apply.
	ErrUnsupportedRequest = errors.New("bridge: unsupported request")
)

// Simulation is the part of the game the bridge drives.
type Simulation interface {
	Start()
	KeyDown(c core.Control) bool
	KeyUp(c core.Control) bool
	Snapshot() lander.Snapshot
}

// Publisher sends encoded observations to the controller.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bridge) {
		b.tracer = tp.Tracer(tracerName)
	}
}

type result struct {
	obs protocol.Observation
	err error
}

// ticket is one armed request. reply is buffered so the loop never blocks
// handing over the result.
type ticket struct {
	stamp uint64
	reply chan result
}

// Bridge is the rendezvous point between the request listener and the
// simulation loop. Requests are served one at a time in arrival order.
type Bridge struct {
	sim    Simulation
	pub    Publisher
	cfg    config.BridgeConfig
	logger *log.Logger
	tracer trace.Tracer

	admit chan struct{} // one slot per admitted caller, in flight or queued
	turn  chan struct{} // held by the caller whose ticket is armed

	mu      sync.Mutex
	pending *ticket
	closed  bool

	done chan struct{}
	once sync.Once
}

// New creates a bridge. Zero timeouts fall back to the defaults.
func New(sim Simulation, pub Publisher, cfg config.BridgeConfig, logger *log.Logger, opts ...Option) *Bridge {
	if cfg.RendezvousTimeout <= 0 {
		cfg.RendezvousTimeout = 5 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	if cfg.QueueLimit < 0 {
		cfg.QueueLimit = 0
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	b := &Bridge{
		sim:    sim,
		pub:    pub,
		cfg:    cfg,
		logger: logger.WithPrefix("bridge"),
		tracer: otel.Tracer(tracerName),
		admit:  make(chan struct{}, 1+cfg.QueueLimit),
		turn:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle applies req to the simulation and waits for the observation
// published after the next tick.
func (b *Bridge) Handle(ctx context.Context, req protocol.Request) (protocol.Observation, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.handle", trace.WithAttributes(requestAttributes(req)...))
	defer span.End()

	obs, err := b.handle(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return obs, err
	}
	span.SetAttributes(
		attribute.Bool("lander.done", obs.Done),
		attribute.Int("lander.reward", obs.Reward),
	)
	return obs, nil
}

func (b *Bridge) handle(ctx context.Context, req protocol.Request) (protocol.Observation, error) {
	switch req.(type) {
	case protocol.ResetRequest, protocol.StepRequest:
	default:
		return protocol.Observation{}, fmt.Errorf("%w: %T", ErrUnsupportedRequest, req)
	}

	select {
	case <-b.done:
		return protocol.Observation{}, ErrClosed
	default:
	}

	select {
	case b.admit <- struct{}{}:
	default:
		return protocol.Observation{}, ErrBusy
	}
	defer func() { <-b.admit }()

	select {
	case b.turn <- struct{}{}:
	case <-ctx.Done():
		return protocol.Observation{}, ctx.Err()
	case <-b.done:
		return protocol.Observation{}, ErrClosed
	}
	defer func() { <-b.turn }()

	b.apply(req)
	t := &ticket{
		stamp: b.sim.Snapshot().Frame,
		reply: make(chan result, 1),
	}
	if !b.arm(t) {
		return protocol.Observation{}, ErrClosed
	}

	timer := time.NewTimer(b.cfg.RendezvousTimeout)
	defer timer.Stop()

	var err error
	select {
	case r := <-t.reply:
		return r.obs, r.err
	case <-timer.C:
		err = ErrRendezvousTimeout
	case <-ctx.Done():
		err = ctx.Err()
	case <-b.done:
		err = ErrClosed
	}

	if b.disarm(t) {
		b.logger.Warn("request abandoned", "frame", t.stamp, "err", err)
		return protocol.Observation{}, err
	}
	// The loop already took the ticket and always replies.
	r := <-t.reply
	return r.obs, r.err
}

func (b *Bridge) apply(req protocol.Request) {
	switch r := req.(type) {
	case protocol.ResetRequest:
		b.sim.Start()
	case protocol.StepRequest:
		var handled bool
		if r.Release {
			handled = b.sim.KeyUp(r.Action)
		} else {
			handled = b.sim.KeyDown(r.Action)
		}
		b.logger.Debug("step applied", "action", r.Action, "release", r.Release, "handled", handled)
	}
}

func (b *Bridge) arm(t *ticket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.pending = t
	return true
}

// disarm clears t if it is still pending. It reports false when the loop has
// already taken it.
func (b *Bridge) disarm(t *ticket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != t {
		return false
	}
	b.pending = nil
	return true
}

// Pending reports whether a request is waiting for a tick.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

// OnTick is called by the simulation loop after every tick with the game's
// frame counter. If a request was applied before this frame, its observation
// is published and handed to the waiting caller.
func (b *Bridge) OnTick(ctx context.Context, frame uint64) {
	b.mu.Lock()
	t := b.pending
	if t == nil || frame <= t.stamp {
		b.mu.Unlock()
		return
	}
	b.pending = nil
	b.mu.Unlock()

	obs := protocol.ObservationFromSnapshot(b.sim.Snapshot())
	t.reply <- result{obs: obs, err: b.publish(ctx, obs)}
}

func (b *Bridge) publish(ctx context.Context, obs protocol.Observation) error {
	data, err := protocol.EncodeObservation(obs)
	if err != nil {
		return fmt.Errorf("bridge: encode observation: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.PublishTimeout)
	defer cancel()
	if err := b.pub.Publish(ctx, data); err != nil {
		b.logger.Error("publish failed", "err", err)
		if errors.Is(err, transport.ErrChannelLost) {
			return err
		}
		return fmt.Errorf("%w: %v", transport.ErrChannelLost, err)
	}
	return nil
}

// Close wakes every waiting caller with ErrClosed. Safe to call multiple
// times.
func (b *Bridge) Close() error {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.done)
	})
	return nil
}

func requestAttributes(req protocol.Request) []attribute.KeyValue {
	switch r := req.(type) {
	case protocol.ResetRequest:
		return []attribute.KeyValue{attribute.String("lander.request", "reset")}
	case protocol.StepRequest:
		return []attribute.KeyValue{
			attribute.String("lander.request", "step"),
			attribute.String("lander.action", r.Action.String()),
			attribute.Bool("lander.release", r.Release),
		}
	default:
		return []attribute.KeyValue{attribute.String("lander.request", fmt.Sprintf("%T", req))}
	}
}

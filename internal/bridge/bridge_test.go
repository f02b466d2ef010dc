package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// recorder is a Publisher that keeps every message.
type recorder struct {
	mu   sync.Mutex
	msgs [][]byte
	err  error
}

func (r *recorder) Publish(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, data)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type fixture struct {
	game *lander.Game
	pub  *recorder
	br   *Bridge
}

func newFixture(t *testing.T, cfg config.BridgeConfig, opts ...Option) *fixture {
	t.Helper()
	game := lander.New(config.DefaultLanderConfig(),
		lander.WithSeed(1),
		lander.WithClock(func() time.Time { return epoch }),
	)
	pub := &recorder{}
	br := New(game, pub, cfg, nil, opts...)
	t.Cleanup(func() { br.Close() })
	return &fixture{game: game, pub: pub, br: br}
}

// handleAsync runs Handle in a goroutine.
func (f *fixture) handleAsync(req protocol.Request) <-chan result {
	out := make(chan result, 1)
	go func() {
		obs, err := f.br.Handle(context.Background(), req)
		out <- result{obs: obs, err: err}
	}()
	return out
}

// tick runs one loop iteration at now.
func (f *fixture) tick(now time.Time) {
	f.game.Tick(now)
	f.br.OnTick(context.Background(), f.game.Snapshot().Frame)
}

func waitPending(t *testing.T, br *Bridge) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !br.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("request never armed")
		}
		time.Sleep(time.Millisecond)
	}
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("Handle did not return")
		return result{}
	}
}

// step drives one request through a single tick at now.
func (f *fixture) step(t *testing.T, req protocol.Request, now time.Time) protocol.Observation {
	t.Helper()
	ch := f.handleAsync(req)
	waitPending(t, f.br)
	f.tick(now)
	r := await(t, ch)
	if r.err != nil {
		t.Fatalf("Handle(%T) failed: %v", req, r.err)
	}
	return r.obs
}

func TestResetPublishesOnce(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})

	obs := f.step(t, protocol.ResetRequest{}, epoch)
	if f.pub.count() != 1 {
		t.Fatalf("published %d observations, expected 1", f.pub.count())
	}
	if obs.Done {
		t.Error("fresh episode should not be done")
	}
	if f.game.Snapshot().Mode != lander.ModeRunning {
		t.Error("reset should start the game")
	}

	// Further ticks with nothing pending publish nothing
	f.tick(epoch.Add(10 * time.Millisecond))
	f.tick(epoch.Add(20 * time.Millisecond))
	if f.pub.count() != 1 {
		t.Errorf("published %d observations after idle ticks, expected 1", f.pub.count())
	}
}

func TestPublishedObservationMatchesReply(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})
	obs := f.step(t, protocol.ResetRequest{}, epoch)

	wire, err := protocol.DecodeObservation(f.pub.msgs[0])
	if err != nil {
		t.Fatalf("DecodeObservation() failed: %v", err)
	}
	if wire != obs {
		t.Errorf("published %+v, replied %+v", wire, obs)
	}
}

func TestStepWaitsForNextFrame(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})
	f.step(t, protocol.ResetRequest{}, epoch)

	ch := f.handleAsync(protocol.StepRequest{Action: core.ControlFire})
	waitPending(t, f.br)

	// Same frame as the mutation: nothing may be published yet
	f.br.OnTick(context.Background(), f.game.Snapshot().Frame)
	if f.pub.count() != 1 || !f.br.Pending() {
		t.Fatal("observation published before a tick ran")
	}

	f.tick(epoch.Add(10 * time.Millisecond))
	if r := await(t, ch); r.err != nil {
		t.Fatalf("Handle() failed: %v", r.err)
	}
	if f.pub.count() != 2 {
		t.Errorf("published %d observations, expected 2", f.pub.count())
	}
}

func TestFireSlowsDescentComparedToNone(t *testing.T) {
	fire := newFixture(t, config.BridgeConfig{})
	none := newFixture(t, config.BridgeConfig{})

	fire.step(t, protocol.ResetRequest{}, epoch)
	none.step(t, protocol.ResetRequest{}, epoch)

	later := epoch.Add(600 * time.Millisecond)
	withFire := fire.step(t, protocol.StepRequest{Action: core.ControlFire}, later)
	withNone := none.step(t, protocol.StepRequest{Action: core.ControlNone}, later)

	if withFire.State.DY <= withNone.State.DY {
		t.Errorf("dy with FIRE = %v, with NONE = %v; expected FIRE to be larger", withFire.State.DY, withNone.State.DY)
	}
	if withFire.State.Fuel >= withNone.State.Fuel {
		t.Errorf("fuel with FIRE = %v, with NONE = %v; expected FIRE to burn fuel", withFire.State.Fuel, withNone.State.Fuel)
	}
}

func TestReleaseStopsEngine(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})
	f.step(t, protocol.ResetRequest{}, epoch)
	f.step(t, protocol.StepRequest{Action: core.ControlFire}, epoch.Add(200*time.Millisecond))
	if !f.game.Snapshot().EngineFiring {
		t.Fatal("FIRE should turn the engine on")
	}
	f.step(t, protocol.StepRequest{Action: core.ControlFire, Release: true}, epoch.Add(300*time.Millisecond))
	if f.game.Snapshot().EngineFiring {
		t.Error("releasing FIRE should turn the engine off")
	}
}

func TestTimeoutDisarmsTicket(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{RendezvousTimeout: 20 * time.Millisecond})

	_, err := f.br.Handle(context.Background(), protocol.ResetRequest{})
	if !errors.Is(err, ErrRendezvousTimeout) {
		t.Fatalf("Handle() = %v, expected ErrRendezvousTimeout", err)
	}
	if f.br.Pending() {
		t.Error("timed out request should be disarmed")
	}

	f.tick(epoch)
	if f.pub.count() != 0 {
		t.Errorf("abandoned request was published %d times", f.pub.count())
	}
}

func TestContextCancelDisarms(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan error, 1)
	go func() {
		_, err := f.br.Handle(ctx, protocol.ResetRequest{})
		out <- err
	}()
	waitPending(t, f.br)
	cancel()

	select {
	case err := <-out:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Handle() = %v, expected context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handle did not return after cancel")
	}
	if f.br.Pending() {
		t.Error("cancelled request should be disarmed")
	}
}

func TestBusyWhenQueueFull(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{QueueLimit: 0})

	first := f.handleAsync(protocol.ResetRequest{})
	waitPending(t, f.br)

	if _, err := f.br.Handle(context.Background(), protocol.StepRequest{Action: core.ControlFire}); !errors.Is(err, ErrBusy) {
		t.Errorf("second Handle() = %v, expected ErrBusy", err)
	}

	f.tick(epoch)
	if r := await(t, first); r.err != nil {
		t.Fatalf("first Handle() failed: %v", r.err)
	}
	if f.pub.count() != 1 {
		t.Errorf("published %d observations, expected 1", f.pub.count())
	}
}

func TestQueuedRequestsServedInTurn(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{QueueLimit: 1})

	first := f.handleAsync(protocol.ResetRequest{})
	waitPending(t, f.br)
	second := f.handleAsync(protocol.StepRequest{Action: core.ControlFire})

	f.tick(epoch)
	if r := await(t, first); r.err != nil {
		t.Fatalf("first Handle() failed: %v", r.err)
	}

	waitPending(t, f.br)
	f.tick(epoch.Add(200 * time.Millisecond))
	if r := await(t, second); r.err != nil {
		t.Fatalf("second Handle() failed: %v", r.err)
	}
	if f.pub.count() != 2 {
		t.Errorf("published %d observations, expected one per request", f.pub.count())
	}
}

func TestCloseUnblocksWaiter(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})

	ch := f.handleAsync(protocol.ResetRequest{})
	waitPending(t, f.br)
	f.br.Close()

	if r := await(t, ch); !errors.Is(r.err, ErrClosed) {
		t.Errorf("Handle() = %v, expected ErrClosed", r.err)
	}
	if _, err := f.br.Handle(context.Background(), protocol.ResetRequest{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Handle() after Close = %v, expected ErrClosed", err)
	}
}

func TestUnsupportedRequest(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})

	_, err := f.br.Handle(context.Background(), nil)
	if !errors.Is(err, ErrUnsupportedRequest) {
		t.Errorf("Handle(nil) = %v, expected ErrUnsupportedRequest", err)
	}
	if f.br.Pending() {
		t.Error("unsupported request must not arm a ticket")
	}
}

func TestPublishFailureReportsChannelLost(t *testing.T) {
	f := newFixture(t, config.BridgeConfig{})
	f.pub.err = errors.New("broker gone")

	ch := f.handleAsync(protocol.ResetRequest{})
	waitPending(t, f.br)
	f.tick(epoch)

	if r := await(t, ch); !errors.Is(r.err, transport.ErrChannelLost) {
		t.Errorf("Handle() = %v, expected ErrChannelLost", r.err)
	}
}

func TestHandleRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	f := newFixture(t, config.BridgeConfig{RendezvousTimeout: 10 * time.Millisecond}, WithTracerProvider(tp))

	f.br.Handle(context.Background(), protocol.StepRequest{Action: core.ControlLeft})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, expected 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "bridge.handle" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("span status = %v, expected error after timeout", span.Status().Code)
	}
	var action string
	for _, kv := range span.Attributes() {
		if kv.Key == "lander.action" {
			action = kv.Value.AsString()
		}
	}
	if action != core.ControlLeft.String() {
		t.Errorf("lander.action = %q, expected %q", action, core.ControlLeft.String())
	}
}

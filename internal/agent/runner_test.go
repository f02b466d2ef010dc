package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/session"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

// startServer runs a session on one end of a memory pair and returns the
// other end. Gravity is cranked up so free fall lands within a second.
func startServer(t *testing.T) transport.Channel {
	t.Helper()
	cfg := config.DefaultLanderConfig()
	cfg.Session.TickRate = 200
	cfg.Session.StartDelay = time.Millisecond
	cfg.Session.Seed = 3
	cfg.Physics.Gravity = 2000

	server, client := transport.NewMemoryPair(16)
	s := session.New(cfg, lander.New(cfg), session.WithChannel(server))
	go s.Run(context.Background())
	t.Cleanup(func() { s.Close() })
	return client
}

func TestRunnerReset(t *testing.T) {
	r := NewRunner(startServer(t), 2*time.Second, nil)

	obs, err := r.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if obs.Done {
		t.Error("fresh episode reported done")
	}
	if obs.State.Fuel <= 0 {
		t.Errorf("fresh episode fuel = %v", obs.State.Fuel)
	}
}

func TestRunEpisodeIdleCrashes(t *testing.T) {
	r := NewRunner(startServer(t), 2*time.Second, nil)

	sum, err := r.RunEpisode(context.Background(), Idle{}, 5000)
	if err != nil {
		t.Fatalf("RunEpisode() failed: %v", err)
	}
	if !sum.Done {
		t.Fatalf("free fall did not finish in %d steps", sum.Steps)
	}
	if sum.Won() || sum.Reward != 0 {
		t.Errorf("free fall at high gravity should lose, got reward %d", sum.Reward)
	}
	if sum.Steps == 0 {
		t.Error("expected at least one step")
	}
}

func TestRunEpisodeMaxSteps(t *testing.T) {
	r := NewRunner(startServer(t), 2*time.Second, nil)

	sum, err := r.RunEpisode(context.Background(), NewRandom(1), 1)
	if err != nil {
		t.Fatalf("RunEpisode() failed: %v", err)
	}
	if sum.Steps != 1 {
		t.Errorf("Steps = %d, expected 1", sum.Steps)
	}
}

func TestRunnerTimeout(t *testing.T) {
	// Nobody serves the other end
	_, client := transport.NewMemoryPair(4)
	defer client.Close()
	r := NewRunner(client, 20*time.Millisecond, nil)

	_, err := r.Step(context.Background(), protocol.StepRequest{})
	if !errors.Is(err, ErrResponseTimeout) {
		t.Errorf("Step() = %v, expected ErrResponseTimeout", err)
	}
}

func TestRunnerClosedChannel(t *testing.T) {
	server, client := transport.NewMemoryPair(4)
	server.Close()
	r := NewRunner(client, time.Second, nil)

	if _, err := r.Reset(context.Background()); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Reset() = %v, expected ErrClosed", err)
	}
}

func TestRunnerSkipsStaleAndForeignMessages(t *testing.T) {
	server, client := transport.NewMemoryPair(8)
	defer client.Close()
	r := NewRunner(client, time.Second, nil)

	ctx := context.Background()
	stale, _ := protocol.EncodeObservation(protocol.Observation{Reward: 7})
	server.Publish(ctx, stale)

	go func() {
		<-server.Inbound()
		server.Publish(ctx, []byte(`{"type":"RESET_REQUEST"}`))
		fresh, _ := protocol.EncodeObservation(protocol.Observation{Done: true})
		server.Publish(ctx, fresh)
	}()

	obs, err := r.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if obs.Reward == 7 || !obs.Done {
		t.Errorf("got %+v, expected the fresh observation", obs)
	}
}

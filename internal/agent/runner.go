// Package agent drives a remote lander session from the controller side:
// built-in policies plus a runner that speaks the Reset/Step protocol over
// any transport channel.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/registry"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

// ErrResponseTimeout is returned when no observation arrives in time.
var ErrResponseTimeout = errors.New("agent: response timeout")

// Runner sends requests and waits for the matching observation.
// It is not safe for concurrent use: the protocol is strictly one request,
// one observation.
type Runner struct {
	ch      transport.Channel
	timeout time.Duration
	logger  *log.Logger
}

// Summary describes one finished episode.
type Summary struct {
	Steps  int
	Reward int
	Done   bool // false when maxSteps ran out first
	Final  protocol.Observation
}

// Won reports whether the episode ended on the pad.
func (s Summary) Won() bool {
	return s.Done && s.Final.Reward > 0
}

// NewRunner creates a runner on ch.
func NewRunner(ch transport.Channel, timeout time.Duration, logger *log.Logger) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{ch: ch, timeout: timeout, logger: logger.WithPrefix("agent")}
}

// Reset starts a new episode and returns its first observation.
func (r *Runner) Reset(ctx context.Context) (protocol.Observation, error) {
	data, err := protocol.EncodeReset()
	if err != nil {
		return protocol.Observation{}, err
	}
	return r.roundTrip(ctx, data)
}

// Step sends one control and returns the resulting observation.
func (r *Runner) Step(ctx context.Context, req protocol.StepRequest) (protocol.Observation, error) {
	data, err := protocol.EncodeStep(req)
	if err != nil {
		return protocol.Observation{}, err
	}
	return r.roundTrip(ctx, data)
}

// RunEpisode resets the session and lets p fly until the episode is done or
// maxSteps requests were sent. maxSteps <= 0 means no limit.
func (r *Runner) RunEpisode(ctx context.Context, p registry.Policy, maxSteps int) (Summary, error) {
	obs, err := r.Reset(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("agent: reset: %w", err)
	}
	p.Reset()

	sum := Summary{Final: obs}
	for maxSteps <= 0 || sum.Steps < maxSteps {
		if obs.Done {
			break
		}
		req := p.Act(obs)
		obs, err = r.Step(ctx, req)
		if err != nil {
			return sum, fmt.Errorf("agent: step %d: %w", sum.Steps+1, err)
		}
		sum.Steps++
		sum.Reward += obs.Reward
		sum.Final = obs
	}
	sum.Done = obs.Done

	r.logger.Debug("episode finished", "policy", p.Name(), "steps", sum.Steps, "reward", sum.Reward, "done", sum.Done)
	return sum, nil
}

func (r *Runner) roundTrip(ctx context.Context, data []byte) (protocol.Observation, error) {
	r.drain()
	if err := r.ch.Publish(ctx, data); err != nil {
		return protocol.Observation{}, err
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-r.ch.Inbound():
			obs, err := protocol.DecodeObservation(msg)
			if err != nil {
				r.logger.Warn("ignoring message", "err", err)
				continue
			}
			return obs, nil
		case <-r.ch.Done():
			return protocol.Observation{}, transport.ErrChannelLost
		case <-timer.C:
			return protocol.Observation{}, ErrResponseTimeout
		case <-ctx.Done():
			return protocol.Observation{}, ctx.Err()
		}
	}
}

// drain discards observations left over from abandoned requests.
func (r *Runner) drain() {
	for {
		select {
		case msg := <-r.ch.Inbound():
			r.logger.Debug("discarding stale message", "bytes", len(msg))
		default:
			return
		}
	}
}

// Package transport carries raw protocol messages between the simulation
// and an external controller. Implementations: an in-process pair, a
// websocket server and client, and an MQTT client.
package transport

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

var (
	// ErrChannelLost reports that the peer or broker went away.
	ErrChannelLost = errors.New("transport: channel lost")
	// ErrClosed reports use of a channel after Close.
	ErrClosed = errors.New("transport: channel closed")
)

// Channel is a bidirectional message pipe.
//
// Inbound delivers every message received from the other side; it is never
// closed, readers select on Done as well. Done closes when the channel is
// closed locally or lost.
type Channel interface {
	Inbound() <-chan []byte
	Publish(ctx context.Context, data []byte) error
	Done() <-chan struct{}
	Close() error
}

// inboundBuffer is the per-channel receive buffer.
const inboundBuffer = 64

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}

// deliver pushes msg into ch without blocking. When the buffer is full the
// oldest message is dropped to make room.
func deliver(ch chan []byte, msg []byte) (dropped bool) {
	select {
	case ch <- msg:
		return false
	default:
	}
	select {
	case <-ch:
		dropped = true
	default:
	}
	select {
	case ch <- msg:
	default:
		dropped = true
	}
	return dropped
}

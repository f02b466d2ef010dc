package transport

import (
	"context"
	"sync"
)

// Memory is one end of an in-process channel pair. Used by tests and by
// agents running inside the same process as the simulation.
type Memory struct {
	inbound chan []byte
	peer    *Memory
	link    *memoryLink
}

type memoryLink struct {
	done chan struct{}
	once sync.Once
}

// NewMemoryPair creates two linked endpoints. What one publishes the other
// receives. Closing either end closes both.
func NewMemoryPair(buffer int) (*Memory, *Memory) {
	if buffer < 1 {
		buffer = inboundBuffer
	}
	link := &memoryLink{done: make(chan struct{})}
	a := &Memory{inbound: make(chan []byte, buffer), link: link}
	b := &Memory{inbound: make(chan []byte, buffer), link: link}
	a.peer, b.peer = b, a
	return a, b
}

// Inbound returns messages published by the peer.
func (m *Memory) Inbound() <-chan []byte {
	return m.inbound
}

// Publish hands a copy of data to the peer. If the peer's buffer is full the
// oldest undelivered message is dropped.
func (m *Memory) Publish(ctx context.Context, data []byte) error {
	select {
	case <-m.link.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := make([]byte, len(data))
	copy(msg, data)
	deliver(m.peer.inbound, msg)
	return nil
}

// Done closes when either end is closed.
func (m *Memory) Done() <-chan struct{} {
	return m.link.done
}

// Close shuts both ends. Safe to call multiple times.
func (m *Memory) Close() error {
	m.link.once.Do(func() {
		close(m.link.done)
	})
	return nil
}

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vovakirdan/lunar-lander/internal/config"
)

// Side selects which topic an MQTT endpoint listens on.
type Side int

const (
	// SideSimulation subscribes to requests and publishes observations.
	SideSimulation Side = iota
	// SideAgent subscribes to observations and publishes requests.
	SideAgent
)

func (s Side) topics(cfg config.MQTTConfig) (sub, pub string) {
	if s == SideAgent {
		return cfg.ObservationTopic, cfg.RequestTopic
	}
	return cfg.RequestTopic, cfg.ObservationTopic
}

// MQTT is a Channel over a broker. One topic carries requests, the other
// carries observations; both use the configured QoS.
type MQTT struct {
	client   mqtt.Client
	logger   *log.Logger
	pubTopic string
	qos      byte

	inbound chan []byte

	done chan struct{}
	once sync.Once
}

// DialMQTT connects to the broker and subscribes to the topic for side.
// Reconnects are disabled: losing the broker closes Done.
func DialMQTT(ctx context.Context, cfg config.MQTTConfig, side Side, logger *log.Logger) (*MQTT, error) {
	logger = orDiscard(logger).WithPrefix("mqtt")
	sub, pub := side.topics(cfg)

	clientID := cfg.ClientID
	if side == SideAgent {
		clientID += "-agent"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	m := &MQTT{
		logger:   logger,
		pubTopic: pub,
		qos:      cfg.QoS,
		inbound:  make(chan []byte, inboundBuffer),
		done:     make(chan struct{}),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("connection lost", "broker", cfg.Broker, "err", err)
			m.shutdown()
		})
	m.client = mqtt.NewClient(opts)

	if err := wait(ctx, m.client.Connect(), timeout); err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", cfg.Broker, err)
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		data := make([]byte, len(payload))
		copy(data, payload)
		if deliver(m.inbound, data) {
			logger.Warn("inbound buffer full, dropped oldest message", "topic", msg.Topic())
		}
	}
	if err := wait(ctx, m.client.Subscribe(sub, cfg.QoS, handler), timeout); err != nil {
		m.client.Disconnect(250)
		return nil, fmt.Errorf("transport: subscribe %s: %w", sub, err)
	}

	logger.Info("connected", "broker", cfg.Broker, "client", clientID, "sub", sub, "pub", pub, "qos", cfg.QoS)
	return m, nil
}

// wait blocks until tok completes, ctx ends or timeout passes.
func wait(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
}

// Inbound returns payloads received on the subscribed topic.
func (m *MQTT) Inbound() <-chan []byte {
	return m.inbound
}

// Publish sends data on the outbound topic and waits for the broker to
// acknowledge it at the configured QoS.
func (m *MQTT) Publish(ctx context.Context, data []byte) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	if !m.client.IsConnectionOpen() {
		return fmt.Errorf("%w: broker not connected", ErrChannelLost)
	}

	tok := m.client.Publish(m.pubTopic, m.qos, false, data)
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("%w: %v", ErrChannelLost, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// Done closes when the client disconnects or loses the broker.
func (m *MQTT) Done() <-chan struct{} {
	return m.done
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	select {
	case <-m.done:
	default:
		m.client.Disconnect(250)
	}
	m.shutdown()
	return nil
}

func (m *MQTT) shutdown() {
	m.once.Do(func() {
		close(m.done)
	})
}

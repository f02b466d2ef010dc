package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/session"
	"github.com/vovakirdan/lunar-lander/internal/storage"
	"github.com/vovakirdan/lunar-lander/internal/transport"
)

// Transport kinds accepted by --transport.
const (
	transportNone      = "none"
	transportWebsocket = "websocket"
	transportMQTT      = "mqtt"
	transportLocal     = "local" // agent only: in-process simulation
)

// openSimulationChannel attaches the simulation side of a transport.
// A nil channel means no controller can attach.
func openSimulationChannel(ctx context.Context, cfg config.LanderConfig, kind string, logger *log.Logger) (transport.Channel, error) {
	switch kind {
	case "", transportNone:
		return nil, nil
	case transportWebsocket:
		srv := transport.NewWebsocketServer(cfg.Transport.Websocket, logger)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("websocket server stopped", "error", err)
			}
		}()
		return srv, nil
	case transportMQTT:
		m, err := transport.DialMQTT(ctx, cfg.Transport.MQTT, transport.SideSimulation, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want none, websocket or mqtt)", kind)
	}
}

// openAgentChannel attaches the controller side. The local kind starts an
// in-process session on a memory pair; its cleanup closes that session.
func openAgentChannel(ctx context.Context, cfg config.LanderConfig, kind, url string, store *storage.Store, logger *log.Logger) (transport.Channel, func(), error) {
	switch kind {
	case transportWebsocket:
		if url == "" {
			url = cfg.Transport.Websocket.URL
		}
		c, err := transport.DialWebsocket(ctx, url, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	case transportMQTT:
		m, err := transport.DialMQTT(ctx, cfg.Transport.MQTT, transport.SideAgent, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	case "", transportNone, transportLocal:
		server, client := transport.NewMemoryPair(64)
		opts := []session.Option{session.WithChannel(server), session.WithLogger(logger)}
		if store != nil {
			opts = append(opts, session.WithRecorder(store))
		}
		sess := session.New(cfg, lander.New(cfg), opts...)
		go func() {
			if err := sess.Run(ctx); err != nil {
				logger.Error("local session stopped", "error", err)
			}
		}()
		return client, func() { sess.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q (want local, websocket or mqtt)", kind)
	}
}

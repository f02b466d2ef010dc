package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/lunar-lander/internal/config"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	clientSendSize = 256
)

// WebsocketServer accepts controller connections. Every connected controller
// feeds the same inbound stream and receives every published observation.
type WebsocketServer struct {
	addr     string
	path     string
	logger   *log.Logger
	upgrader websocket.Upgrader

	inbound chan []byte

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	done chan struct{}
	once sync.Once
}

// wsClient is a single connected controller.
type wsClient struct {
	server *WebsocketServer
	conn   *websocket.Conn
	send   chan []byte // Buffered outbound messages
}

// NewWebsocketServer creates a server for the configured address and path.
// It does not listen until ListenAndServe is called; tests mount Handler
// directly.
func NewWebsocketServer(cfg config.WebsocketConfig, logger *log.Logger) *WebsocketServer {
	path := cfg.Path
	if path == "" {
		path = "/ws"
	}
	return &WebsocketServer{
		addr:   cfg.Addr,
		path:   path,
		logger: orDiscard(logger).WithPrefix("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		inbound: make(chan []byte, inboundBuffer),
		clients: make(map[*wsClient]struct{}),
		done:    make(chan struct{}),
	}
}

// Handler returns the HTTP handler that upgrades controller connections.
func (s *WebsocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveWs)
	return mux
}

// ListenAndServe serves until ctx is cancelled or the server is closed.
// If the listener cannot be opened the server is closed, so Done fires.
func (s *WebsocketServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr, "path", s.path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("transport: websocket listen: %w", err)
	case <-ctx.Done():
	case <-s.done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("transport: websocket shutdown: %w", err)
	}
	return nil
}

func (s *WebsocketServer) serveWs(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.done:
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &wsClient{server: s, conn: conn, send: make(chan []byte, clientSendSize)}
	s.register(c)
	s.logger.Info("controller connected", "remote", conn.RemoteAddr())

	go c.writePump()
	go c.readPump()
}

func (s *WebsocketServer) register(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *WebsocketServer) unregister(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected controllers.
func (s *WebsocketServer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Inbound returns frames received from any controller.
func (s *WebsocketServer) Inbound() <-chan []byte {
	return s.inbound
}

// Publish broadcasts data to every connected controller. A controller whose
// send buffer is full is disconnected.
func (s *WebsocketServer) Publish(ctx context.Context, data []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return fmt.Errorf("%w: no controller connected", ErrChannelLost)
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("controller too slow, dropping", "remote", c.conn.RemoteAddr())
			delete(s.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Done closes when the server is closed.
func (s *WebsocketServer) Done() <-chan struct{} {
	return s.done
}

// Close disconnects every controller. Safe to call multiple times.
func (s *WebsocketServer) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for c := range s.clients {
			delete(s.clients, c)
			close(c.send)
		}
		s.mu.Unlock()
	})
	return nil
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.server.logger.Warn("read failed", "remote", c.conn.RemoteAddr(), "err", err)
			} else {
				c.server.logger.Info("controller disconnected", "remote", c.conn.RemoteAddr())
			}
			return
		}
		select {
		case <-c.server.done:
			return
		default:
		}
		if deliver(c.server.inbound, message) {
			c.server.logger.Warn("inbound buffer full, dropped oldest message")
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	// Range stops when the server closes c.send
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// WebsocketClient is the controller side of a websocket connection.
type WebsocketClient struct {
	conn   *websocket.Conn
	logger *log.Logger

	inbound chan []byte

	writeMu sync.Mutex

	done chan struct{}
	once sync.Once
}

// DialWebsocket connects to a simulation server.
func DialWebsocket(ctx context.Context, url string, logger *log.Logger) (*WebsocketClient, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	c := &WebsocketClient{
		conn:    conn,
		logger:  orDiscard(logger).WithPrefix("ws-client"),
		inbound: make(chan []byte, inboundBuffer),
		done:    make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	go c.readPump()
	return c, nil
}

func (c *WebsocketClient) readPump() {
	defer c.shutdown()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("connection lost", "err", err)
			}
			return
		}
		deliver(c.inbound, message)
	}
}

// Inbound returns frames received from the server.
func (c *WebsocketClient) Inbound() <-chan []byte {
	return c.inbound
}

// Publish writes one text frame. The write deadline follows ctx when set.
func (c *WebsocketClient) Publish(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelLost, err)
	}
	return nil
}

// Done closes when the connection ends for any reason.
func (c *WebsocketClient) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down.
func (c *WebsocketClient) Close() error {
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.shutdown()
	return nil
}

func (c *WebsocketClient) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

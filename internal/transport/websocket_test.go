package transport

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/config"
)

func newTestServer(t *testing.T) (*WebsocketServer, string) {
	t.Helper()
	srv := NewWebsocketServer(config.WebsocketConfig{Path: "/ws"}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitForClients(t *testing.T, srv *WebsocketServer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, expected %d", srv.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	srv, url := newTestServer(t)
	ctx := context.Background()

	client, err := DialWebsocket(ctx, url, nil)
	if err != nil {
		t.Fatalf("DialWebsocket() failed: %v", err)
	}
	defer client.Close()
	waitForClients(t, srv, 1)

	if err := client.Publish(ctx, []byte(`{"type":"reset"}`)); err != nil {
		t.Fatalf("client Publish() failed: %v", err)
	}
	select {
	case msg := <-srv.Inbound():
		if string(msg) != `{"type":"reset"}` {
			t.Errorf("server got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive request")
	}

	if err := srv.Publish(ctx, []byte(`{"done":false}`)); err != nil {
		t.Fatalf("server Publish() failed: %v", err)
	}
	select {
	case msg := <-client.Inbound():
		if string(msg) != `{"done":false}` {
			t.Errorf("client got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive observation")
	}
}

func TestWebsocketPublishWithoutClients(t *testing.T) {
	srv, _ := newTestServer(t)
	err := srv.Publish(context.Background(), []byte("x"))
	if !errors.Is(err, ErrChannelLost) {
		t.Errorf("Publish with no clients = %v, expected ErrChannelLost", err)
	}
}

func TestWebsocketServerCloseEndsClient(t *testing.T) {
	srv, url := newTestServer(t)

	client, err := DialWebsocket(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("DialWebsocket() failed: %v", err)
	}
	defer client.Close()
	waitForClients(t, srv, 1)

	srv.Close()
	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client should notice the server closing")
	}
	if err := srv.Publish(context.Background(), []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, expected ErrClosed", err)
	}
}

func TestWebsocketClientDisconnectUnregisters(t *testing.T) {
	srv, url := newTestServer(t)

	client, err := DialWebsocket(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("DialWebsocket() failed: %v", err)
	}
	waitForClients(t, srv, 1)

	client.Close()
	waitForClients(t, srv, 0)
}

func TestDialWebsocketBadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := DialWebsocket(ctx, "ws://127.0.0.1:1/ws", nil); err == nil {
		t.Error("expected dial error")
	}
}

func TestWebsocketListenFailureClosesServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() failed: %v", err)
	}
	defer ln.Close()

	srv := NewWebsocketServer(config.WebsocketConfig{Addr: ln.Addr().String(), Path: "/ws"}, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(context.Background()) }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("ListenAndServe() on a bound port returned nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe() did not return on a bound port")
	}
	select {
	case <-srv.Done():
	default:
		t.Error("Done still open after the listener failed")
	}
}

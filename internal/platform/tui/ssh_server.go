package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/session"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

// SSHServer hosts one lander session per SSH connection.
type SSHServer struct {
	cfg      config.LanderConfig
	server   *ssh.Server
	store    *storage.Store
	sessions *session.Registry
	logger   *log.Logger
}

// NewSSHServer creates the server. store may be nil, in which case landings
// are not recorded and saving is disabled.
func NewSSHServer(cfg config.LanderConfig, store *storage.Store, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "lander-ssh",
		})
	}

	srv := &SSHServer{
		cfg:      cfg,
		store:    store,
		sessions: session.NewRegistry(),
		logger:   logger,
	}

	hostKeyPath, err := resolveHostKeyPath(cfg.SSH.HostKeyPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.SSH.Addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.SSH.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.sessionMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

func resolveHostKeyPath(path string) (string, error) {
	if path == "" {
		path = "~/.lander/host_key"
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}

// sessionKey links an SSH connection to its lander session.
type sessionKey struct{}

// sessionMiddleware owns the lander session for the lifetime of the
// connection: it starts the loop before the UI and tears it down after.
func (s *SSHServer) sessionMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		game := lander.New(s.cfg, lander.WithSeed(time.Now().UnixNano()))
		opts := []session.Option{session.WithLogger(s.logger)}
		if s.store != nil {
			opts = append(opts, session.WithRecorder(s.store))
		}
		sess := session.New(s.cfg, game, opts...)
		s.sessions.Register(sess)
		sshSession.Context().SetValue(sessionKey{}, sess)

		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"session", sess.ID(),
			"active", s.sessions.Count(),
		)

		ctx, cancel := context.WithCancel(sshSession.Context())
		go func() {
			if err := sess.Run(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
				s.logger.Warn("session loop stopped", "session", sess.ID(), "error", err)
			}
		}()

		next(sshSession)

		cancel()
		sess.Close()
		s.sessions.Unregister(sess.ID())
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"session", sess.ID(),
			"episodes", sess.Episodes(),
		)
	}
}

// teaHandler creates the play screen for the connection's session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}
	sess, ok := sshSession.Context().Value(sessionKey{}).(*session.Session)
	if !ok {
		s.logger.Error("connection has no lander session", "user", sshSession.User())
		return nil, nil
	}

	model := NewPlayModel(PlayOptions{
		Game: sess.Game(),
		Runtime: core.RuntimeConfig{
			ScreenW:  pty.Window.Width,
			ScreenH:  pty.Window.Height,
			TickRate: s.cfg.TUI.FPS,
		},
		Store:      s.store,
		Slot:       "ssh-" + sshSession.User(),
		HoldWindow: s.cfg.TUI.HoldWindow,
		SessionID:  sess.ID(),
	})
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.cfg.SSH.Addr)

	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, ssh.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown stops accepting connections and closes every live session.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.sessions.CloseAll()
	return s.server.Shutdown(ctx)
}

// Sessions exposes the live session registry.
func (s *SSHServer) Sessions() *session.Registry {
	return s.sessions
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.cfg.SSH.Addr
}

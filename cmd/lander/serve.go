package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/session"
	"github.com/vovakirdan/lunar-lander/internal/storage"
	"github.com/vovakirdan/lunar-lander/internal/telemetry"
)

var (
	flagServeTransport  string
	flagServeDifficulty string
	flagSaveOnExit      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a headless environment for agents",
	Long: `Run the simulation without a screen and let one controller drive it
over websocket or MQTT.

Each RESET_REQUEST starts a new episode; each STEP_REQUEST applies one
control and is answered after the next simulation tick. Landings are
recorded to the database. If the controller transport fails or the
broker connection drops, serve exits with a non-zero status.

Tracing is enabled by setting LANDER_OTEL_ENDPOINT.

Examples:
  lander serve
  lander serve --transport mqtt
  lander serve --difficulty easy --save-on-exit training`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeTransport, "transport", "", "Controller transport: websocket, mqtt (default: config value)")
	serveCmd.Flags().StringVar(&flagServeDifficulty, "difficulty", "", "Difficulty preset: easy, medium, hard")
	serveCmd.Flags().StringVar(&flagSaveOnExit, "save-on-exit", "", "Save the final state to this slot on shutdown")
}

func runServe(_ *cobra.Command, _ []string) {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	cfg, err := loadConfig()
	exitOnError("loading config", err)
	exitOnError("selecting difficulty", applyDifficulty(&cfg, flagServeDifficulty))
	logger := newLogger(os.Stderr)

	kind := flagServeTransport
	if kind == "" {
		kind = cfg.Transport.Kind
	}
	if kind == "" || kind == transportNone {
		fmt.Fprintln(os.Stderr, "Error: serve needs a transport (websocket or mqtt)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "lander-serve")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	if err := serveEnvironment(ctx, cfg, kind, store, flagSaveOnExit, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
	}
}

// serveEnvironment runs one headless session until ctx is cancelled or the
// controller channel is lost, then saves the final state to saveSlot.
// A lost channel is returned as an error wrapping transport.ErrChannelLost.
func serveEnvironment(ctx context.Context, cfg config.LanderConfig, kind string, store *storage.Store, saveSlot string, logger *log.Logger) error {
	ch, err := openSimulationChannel(ctx, cfg, kind, logger)
	if err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}

	game := lander.New(cfg)
	opts := []session.Option{
		session.WithChannel(ch),
		session.WithLogger(logger),
		session.WithStopOnChannelLoss(),
	}
	if store != nil {
		opts = append(opts, session.WithRecorder(store))
	}
	sess := session.New(cfg, game, opts...)

	logger.Info("environment ready", "transport", kind, "session", sess.ID(), "difficulty", cfg.Difficulty)
	runErr := sess.Run(ctx)

	if saveSlot != "" {
		saveFinalState(store, saveSlot, game, logger)
	}

	if runErr != nil {
		return fmt.Errorf("running session: %w", runErr)
	}
	return nil
}

func saveFinalState(store *storage.Store, slot string, game *lander.Game, logger *log.Logger) {
	if store == nil {
		logger.Error("cannot save without a database", "slot", slot)
		return
	}
	if err := store.SaveState(slot, game.Save()); err != nil {
		logger.Error("saving final state", "slot", slot, "error", err)
		return
	}
	logger.Info("final state saved", "slot", slot)
}

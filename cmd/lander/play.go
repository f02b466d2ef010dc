package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/platform/tui"
	"github.com/vovakirdan/lunar-lander/internal/session"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

var (
	flagDifficulty    string
	flagResume        string
	flagSlot          string
	flagPlayTransport string
	flagLogFile       string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Fly the lander in your terminal",
	Long: `Start a lander session in the terminal.

Controls:
  Left/A, Right/D  - Rotate while held
  Space/F          - Fire the main engine while held
  S/Enter, Up/W    - Start or resume (Up pauses while flying)
  P/Esc            - Pause
  1, 2, 3          - Easy, medium, hard from the next start
  Ctrl+S           - Save to the slot
  ?                - Full help
  Q/Ctrl+C         - Quit

Land with the speed under the pad's limit and the nose within its angle.
Coming down upside down fast enough is a jump to hyperspace, which also
counts as a win.

With --transport an external controller can drive the same session while
you watch.

Examples:
  lander play
  lander play --difficulty hard
  lander play --resume default
  lander play --transport websocket --log-file lander.log`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, medium, hard")
	playCmd.Flags().StringVar(&flagResume, "resume", "", "Resume from a save slot")
	playCmd.Flags().StringVar(&flagSlot, "slot", "", "Save slot for Ctrl+S (default: the resumed slot or \"default\")")
	playCmd.Flags().StringVar(&flagPlayTransport, "transport", transportNone, "Controller transport: none, websocket, mqtt")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (default: discard)")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)
	exitOnError("selecting difficulty", applyDifficulty(&cfg, flagDifficulty))

	// Logs would corrupt the screen, so they go to a file or nowhere
	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		exitOnError("opening log file", err)
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut)

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	game := lander.New(cfg)
	slot := flagSlot
	if flagResume != "" {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: cannot resume without a database")
			os.Exit(1)
		}
		p, err := store.LoadState(flagResume)
		if errors.Is(err, storage.ErrNoSave) {
			fmt.Fprintf(os.Stderr, "Error: no save in slot %q\n", flagResume)
			fmt.Fprintln(os.Stderr, "Run 'lander saves' to see saved slots.")
			os.Exit(1)
		}
		exitOnError("loading save", err)
		game.Restore(p)
		if slot == "" {
			slot = flagResume
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runtime := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: cfg.TUI.FPS,
		Seed:     cfg.Session.Seed,
	}
	if err := playGame(ctx, cfg, game, store, slot, flagPlayTransport, runtime, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		os.Exit(1)
	}
}

// playGame runs a session for game behind the play screen until the pilot
// quits. With a transport kind other than none, a controller can attach.
func playGame(ctx context.Context, cfg config.LanderConfig, game *lander.Game, store *storage.Store, slot, kind string, runtime core.RuntimeConfig, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := openSimulationChannel(ctx, cfg, kind, logger)
	if err != nil {
		return err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if ch != nil {
		opts = append(opts, session.WithChannel(ch))
	}
	if store != nil {
		opts = append(opts, session.WithRecorder(store))
	}
	sess := session.New(cfg, game, opts...)
	go func() {
		if err := sess.Run(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
			logger.Error("session stopped", "error", err)
		}
	}()
	defer sess.Close()

	return tui.RunPlay(tui.PlayOptions{
		Game:       game,
		Runtime:    runtime,
		Store:      store,
		Slot:       slot,
		HoldWindow: cfg.TUI.HoldWindow,
		SessionID:  sess.ID(),
	})
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with a launcher menu",
	Long: `Start the lander with a launcher: pick a difficulty, resume a save slot
or browse the landing history. Quitting a game returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Select
  Q/Esc        - Quit

Examples:
  lander menu
  lander menu --fps 30`,
	Args: cobra.NoArgs,
	Run:  runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)
	logger := newLogger(io.Discard)

	store := openStore(cfg, logger)
	if store == nil {
		fmt.Fprintln(os.Stderr, "Warning: no database, landings will not be recorded")
	} else {
		defer store.Close()
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	runtime := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: cfg.TUI.FPS,
		Seed:     cfg.Session.Seed,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	current := lander.DifficultyFromPreset(cfg.Difficulty)
	for ctx.Err() == nil {
		result, err := tui.RunMenu(store, runtime, current)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		runtime = result.Config
		if result.Quit {
			break
		}

		item := result.Item
		if item.Action == tui.MenuHistory {
			if err := tui.RunHistory(store, runtime.ScreenW, runtime.ScreenH); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		}

		game := lander.New(cfg)
		slot := tui.DefaultSlot
		switch item.Action {
		case tui.MenuNewGame:
			current = item.Difficulty
			game.SetDifficulty(item.Difficulty)
		case tui.MenuResume:
			p, err := store.LoadState(item.Slot)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading save: %v\n", err)
				continue
			}
			game.Restore(p)
			slot = item.Slot
		}

		if err := playGame(ctx, cfg, game, store, slot, transportNone, runtime, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		}
	}
}

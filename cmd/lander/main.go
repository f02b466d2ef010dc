// lander is a lunar lander simulation with a terminal front end and a
// Reset/Step environment protocol for external controllers.
//
// Usage:
//
//	lander play              - Fly the lander in your terminal
//	lander menu              - Launcher: new game, resume, history
//	lander serve             - Run a headless environment for agents
//	lander ssh               - Host the game over SSH, one session per user
//	lander agent <policy>    - Fly a built-in policy against a server
//	lander policies          - List built-in policies
//	lander history           - Show recorded landings
//	lander saves             - List or delete save slots
//
// Global flags:
//
//	--config <path>     - Lander config YAML
//	--db <path>         - SQLite database (default: ~/.lander/lander.db)
//	--seed <value>      - RNG seed for reproducible episodes
//	--fps <rate>        - Terminal redraw rate
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/storage"

	// Register built-in policies
	_ "github.com/vovakirdan/lunar-lander/internal/agent"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagFPS      int
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lander",
	Short: "Lunar Lander - land softly, upright, on the pad",
	Long: `Lunar Lander is a small physics game: bring the lander down on the pad
slowly enough and upright enough, before the fuel runs out.

The same simulation can be driven by an external controller over websocket
or MQTT, one RESET_REQUEST or STEP_REQUEST at a time, each answered with an
OBSERVATION_RESPONSE.

Examples:
  lander play
  lander play --difficulty hard --transport websocket
  lander serve --transport mqtt
  lander agent hover --episodes 5
  lander ssh --addr :2222`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a lander config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the SQLite database (default ~/.lander/lander.db)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Terminal redraw rate (0 = config value)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(policiesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(savesCmd)
}

// loadConfig loads the config and applies the global flags on top.
func loadConfig() (config.LanderConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagSeed != 0 {
		cfg.Session.Seed = flagSeed
	}
	if flagFPS > 0 {
		cfg.TUI.FPS = flagFPS
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = config.DefaultDBPath()
	}
	return cfg, nil
}

// applyDifficulty overrides the configured preset when name is set.
func applyDifficulty(cfg *config.LanderConfig, name string) error {
	if name == "" {
		return nil
	}
	preset, err := config.ParseDifficulty(name)
	if err != nil {
		return err
	}
	config.ApplyPreset(cfg, preset)
	return nil
}

// newLogger writes leveled, timestamped logs to w.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "lander",
	})
	if level, err := log.ParseLevel(flagLogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
	}
	return logger
}

// openStore opens the database. Interactive commands keep going without it.
func openStore(cfg config.LanderConfig, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open database", "path", cfg.Storage.DBPath, "error", err)
		return nil
	}
	return store
}

// exitOnError prints err the way every command reports failures and exits.
func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	os.Exit(1)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/lunar-lander/internal/agent"
	"github.com/vovakirdan/lunar-lander/internal/registry"
)

var (
	flagEpisodes       int
	flagMaxSteps       int
	flagAgentTransport string
	flagAgentURL       string
	flagAgentTimeout   time.Duration
)

var agentCmd = &cobra.Command{
	Use:   "agent <policy>",
	Short: "Fly a built-in policy",
	Long: `Run a registered policy through the Reset/Step protocol and print the
reward of every episode.

Transports:
  local      - In-process simulation (default)
  websocket  - Connect to 'lander serve' or 'lander play --transport websocket'
  mqtt       - Talk through the configured MQTT broker

Examples:
  lander agent hover
  lander agent random --episodes 20 --seed 7
  lander agent hover --transport websocket --url ws://localhost:8765/ws`,
	Args: cobra.ExactArgs(1),
	Run:  runAgent,
}

func init() {
	agentCmd.Flags().IntVar(&flagEpisodes, "episodes", 1, "Number of episodes to fly")
	agentCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 10000, "Give up on an episode after this many steps")
	agentCmd.Flags().StringVar(&flagAgentTransport, "transport", "", "local, websocket or mqtt")
	agentCmd.Flags().StringVar(&flagAgentURL, "url", "", "Websocket URL (default: config value)")
	agentCmd.Flags().DurationVar(&flagAgentTimeout, "timeout", 0, "Wait this long for each observation (default: rendezvous timeout + 1s)")
}

func runAgent(_ *cobra.Command, args []string) {
	name := args[0]
	if !registry.Exists(name) {
		fmt.Fprintf(os.Stderr, "Error: unknown policy %q\n", name)
		fmt.Fprintln(os.Stderr, "Run 'lander policies' to see available policies.")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	exitOnError("loading config", err)
	logger := newLogger(os.Stderr)

	seed := cfg.Session.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	policy, err := registry.Create(name, seed)
	exitOnError("creating policy", err)

	kind := flagAgentTransport
	if kind == "" {
		kind = transportLocal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	ch, cleanup, err := openAgentChannel(ctx, cfg, kind, flagAgentURL, store, logger)
	exitOnError("connecting", err)
	defer cleanup()

	timeout := flagAgentTimeout
	if timeout <= 0 {
		timeout = cfg.Bridge.RendezvousTimeout + time.Second
	}
	runner := agent.NewRunner(ch, timeout, logger)

	fmt.Printf("Flying %q for %d episode(s) over %s\n\n", policy.Name(), flagEpisodes, kind)
	wins := 0
	for i := 1; i <= flagEpisodes; i++ {
		sum, err := runner.RunEpisode(ctx, policy, flagMaxSteps)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("Interrupted.")
				break
			}
			cleanup()
			exitOnError(fmt.Sprintf("in episode %d", i), err)
		}
		if sum.Won() {
			wins++
		}
		fmt.Printf("  episode %3d  steps %6d  reward %d  %s\n", i, sum.Steps, sum.Reward, describe(sum))
	}
	fmt.Printf("\n%d of %d landed.\n", wins, flagEpisodes)
}

// describe summarizes how an episode ended.
func describe(sum agent.Summary) string {
	if !sum.Done {
		return "gave up"
	}
	s := sum.Final.State
	return fmt.Sprintf("fuel %.1f  wins in a row %d", s.Fuel, s.WinsInARow)
}

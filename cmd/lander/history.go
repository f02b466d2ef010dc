package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/lunar-lander/internal/platform/tui"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

var (
	flagHistoryLimit int
	flagHistoryTUI   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded landings",
	Long: `Display the most recent landings and totals per difficulty.

Examples:
  lander history
  lander history --limit 50
  lander history --tui`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of landings to show")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse the history interactively")
}

func runHistory(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)

	store, err := storage.Open(cfg.Storage.DBPath)
	exitOnError("opening database", err)
	defer store.Close()

	if flagHistoryTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunHistory(store, width, height); err != nil {
			store.Close()
			exitOnError("showing history", err)
		}
		return
	}

	episodes, err := store.RecentEpisodes(flagHistoryLimit)
	if err != nil {
		store.Close()
		exitOnError("retrieving landings", err)
	}
	stats, err := store.Stats()
	if err != nil {
		store.Close()
		exitOnError("retrieving totals", err)
	}

	if len(episodes) == 0 {
		fmt.Println("No landings recorded yet.")
		fmt.Println("Run 'lander play' to make some history!")
		return
	}

	fmt.Println("Recent landings")
	fmt.Println()
	fmt.Printf("  %-16s  %-6s  %-10s  %-9s  %6s  %6s  %6s\n", "When", "Level", "Result", "Reason", "Speed", "Fuel", "Streak")
	fmt.Printf("  %-16s  %-6s  %-10s  %-9s  %6s  %6s  %6s\n", "----", "-----", "------", "------", "-----", "----", "------")
	for _, e := range episodes {
		reason := string(e.Reason)
		if reason == "" {
			reason = "-"
		}
		fmt.Printf("  %-16s  %-6s  %-10s  %-9s  %6.1f  %6.1f  %6d\n",
			e.At.Local().Format("2006-01-02 15:04"),
			e.Difficulty, e.Result, reason, e.Speed, e.FuelLeft, e.WinsInARow)
	}

	fmt.Println()
	fmt.Println("Totals")
	fmt.Println()
	fmt.Printf("  %-6s  %6s  %5s  %6s  %11s  %8s\n", "Level", "Played", "Won", "Lost", "Best streak", "Avg fuel")
	for _, s := range stats {
		fmt.Printf("  %-6s  %6d  %5d  %6d  %11d  %8.1f\n",
			s.Difficulty, s.Episodes, s.Wins, s.Losses, s.BestStreak, s.AvgFuelLeft)
	}
}

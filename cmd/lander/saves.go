package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/lunar-lander/internal/storage"
)

var flagDeleteSlot string

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List or delete save slots",
	Long: `List the saved lander states, newest first, or delete one.

Examples:
  lander saves
  lander saves --delete default`,
	Args: cobra.NoArgs,
	Run:  runSaves,
}

func init() {
	savesCmd.Flags().StringVar(&flagDeleteSlot, "delete", "", "Delete this slot")
}

func runSaves(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)

	store, err := storage.Open(cfg.Storage.DBPath)
	exitOnError("opening database", err)
	defer store.Close()

	if flagDeleteSlot != "" {
		err := store.DeleteSave(flagDeleteSlot)
		if errors.Is(err, storage.ErrNoSave) {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error: no save in slot %q\n", flagDeleteSlot)
			os.Exit(1)
		}
		if err != nil {
			store.Close()
			exitOnError("deleting save", err)
		}
		fmt.Printf("Deleted slot %q.\n", flagDeleteSlot)
		return
	}

	saves, err := store.ListSaves()
	if err != nil {
		store.Close()
		exitOnError("listing saves", err)
	}
	if len(saves) == 0 {
		fmt.Println("No saved games.")
		return
	}

	fmt.Printf("  %-20s  %-6s  %6s  %s\n", "Slot", "Level", "Streak", "Saved")
	fmt.Printf("  %-20s  %-6s  %6s  %s\n", "----", "-----", "------", "-----")
	for _, s := range saves {
		fmt.Printf("  %-20s  %-6s  %6d  %s\n", s.Slot, s.Difficulty, s.WinsInARow, s.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Println("Run 'lander play --resume <slot>' to continue.")
}

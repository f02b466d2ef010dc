package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/registry"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List built-in policies",
	Long: `Shows every policy that 'lander agent' can fly, and the action codes
an external controller sends in STEP_REQUEST.`,
	Run:   runPolicies,
}

func runPolicies(_ *cobra.Command, _ []string) {
	policies := registry.List()

	if len(policies) == 0 {
		fmt.Println("No policies available.")
		return
	}

	fmt.Println("Available policies:")
	fmt.Println()

	maxNameLen := 4 // "Name" header
	for _, p := range policies {
		if len(p.Name) > maxNameLen {
			maxNameLen = len(p.Name)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxNameLen, "Name", "Description")
	fmt.Printf("  %-*s  %s\n", maxNameLen, "----", "-----------")
	for _, p := range policies {
		fmt.Printf("  %-*s  %s\n", maxNameLen, p.Name, p.Description)
	}

	fmt.Println()
	fmt.Println("Step actions: " + actionTable())
	fmt.Println()
	fmt.Println("Run 'lander agent <name>' to fly one.")
}

// actionTable lists the STEP_REQUEST action codes in wire order.
func actionTable() string {
	parts := make([]string, 0, len(core.Controls()))
	for _, c := range core.Controls() {
		parts = append(parts, fmt.Sprintf("%d=%s", int(c), c))
	}
	return strings.Join(parts, " ")
}

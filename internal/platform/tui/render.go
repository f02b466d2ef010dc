package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:      lipgloss.NewStyle(),
	core.ColorRed:          lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:        lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:         lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorCyan:         lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:        lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorOrange:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one escape sequence.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// renderHeader draws the title bar: difficulty, streak and attitude.
func renderHeader(snap lander.Snapshot, sessionID, status string) string {
	angle := fmt.Sprintf("angle %3.0f°", snap.Heading)
	if snap.Mode == lander.ModeRunning && snap.GoalAngle > 0 && !uprightEnough(snap) {
		angle = warnStyle.Render(angle)
	} else {
		angle = labelStyle.Render(angle)
	}

	parts := []string{
		titleStyle.Render("LUNAR LANDER"),
		labelStyle.Render(snap.Difficulty.String()),
		labelStyle.Render(fmt.Sprintf("wins %d", snap.WinsInARow)),
		angle,
	}
	if sessionID != "" {
		parts = append(parts, labelStyle.Render("session "+sessionID))
	}
	if status != "" {
		parts = append(parts, statusStyle.Render(status))
	}
	return strings.Join(parts, "  ")
}

func uprightEnough(snap lander.Snapshot) bool {
	h := core.WrapDegrees(snap.Heading)
	g := float64(snap.GoalAngle)
	return h <= g || h >= 360-g
}

// renderGauges draws the fuel and speed bars. The speed label turns red
// above the pad's touchdown limit.
func renderGauges(snap lander.Snapshot, fuel, speed progress.Model) string {
	fuelLabel := labelStyle.Render(fmt.Sprintf("fuel %5.1f ", snap.Fuel))

	v := snap.Speed()
	speedLabel := fmt.Sprintf("  speed %5.1f ", v)
	if snap.GoalSpeed > 0 && v > float64(snap.GoalSpeed) {
		speedLabel = warnStyle.Render(speedLabel)
	} else {
		speedLabel = okStyle.Render(speedLabel)
	}

	return fuelLabel + fuel.ViewAs(ratio(snap.Fuel, snap.FuelMax)) +
		speedLabel + speed.ViewAs(ratio(v, snap.SpeedMax))
}

func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return core.ClampF(v/limit, 0, 1)
}

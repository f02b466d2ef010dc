package lander

import (
	"fmt"
	"math"

	"github.com/vovakirdan/lunar-lander/internal/core"
)

// Visual characters for rendering
const (
	GroundChar  = '▁'
	PadChar     = '▀'
	FlameChar   = '*'
	CrashedChar = 'X'
	StarChar    = '.'
)

// headingGlyphs maps eight 45° sectors, starting at straight up and going
// clockwise, to an arrow pointing the way the nose points.
var headingGlyphs = [8]rune{'▲', '◥', '▶', '◢', '▼', '◣', '◀', '◤'}

// HeadingGlyph returns the arrow for a heading in degrees.
func HeadingGlyph(heading float64) rune {
	sector := int(math.Floor(core.WrapDegrees(heading+22.5)/45)) % 8
	return headingGlyphs[sector]
}

// Render draws the playfield for snap onto dst. The whole screen is used as
// the canvas; the bottom row is the ground.
func Render(dst *core.Screen, snap Snapshot) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()
	if w <= 0 || h <= 0 {
		return
	}
	v := core.NewViewport(float64(snap.CanvasWidth), float64(snap.CanvasHeight), w, h)

	drawStars(dst, w, h-1)

	ground := h - 1
	dst.DrawHLine(0, ground, w, GroundChar, core.ColorGray)
	if snap.GoalWidth > 0 {
		padColor := core.ColorGreen
		if snap.Mode == ModeLose && snap.Message == ReasonOffPad {
			padColor = core.ColorYellow
		}
		padX := core.Clamp(v.Col(float64(snap.GoalX)), 0, w-1)
		dst.DrawHLine(padX, ground, v.Span(float64(snap.GoalWidth)), PadChar, padColor)
	}

	col := v.Col(snap.X)
	row := core.Clamp(v.Row(snap.Y), 0, ground-1)
	switch {
	case snap.Mode == ModeLose:
		dst.SetColored(col, row, CrashedChar, core.ColorBrightRed)
	default:
		dst.SetColored(col, row, HeadingGlyph(snap.Heading), core.ColorWhite)
		if snap.EngineFiring {
			fx, fy := flameOffset(snap.Heading)
			dst.SetColored(col+fx, row+fy, FlameChar, core.ColorOrange)
		}
	}

	drawStatus(dst, snap)
}

// flameOffset returns the cell behind the nose.
func flameOffset(heading float64) (int, int) {
	rad := heading * math.Pi / 180
	dx := -int(math.Round(math.Sin(rad)))
	dy := int(math.Round(math.Cos(rad)))
	return dx, dy
}

// drawStars scatters a fixed starfield. Positions derive from the cell
// index so the field stays put between frames.
func drawStars(dst *core.Screen, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x*7919+y*104729)%97 == 0 {
				dst.SetColored(x, y, StarChar, core.ColorGray)
			}
		}
	}
}

// StatusText returns the overlay message for a non-running mode, or "" while
// the lander is flying.
func StatusText(snap Snapshot) string {
	switch snap.Mode {
	case ModeReady:
		return "Press S or Up to start"
	case ModePause:
		return "Paused. Press S or Up to resume"
	case ModeLose:
		if txt := snap.Message.Text(); txt != "" {
			return txt + ". Game over"
		}
		return "Game over"
	case ModeWin:
		return fmt.Sprintf("Success! %d in a row", snap.WinsInARow)
	default:
		return ""
	}
}

func drawStatus(dst *core.Screen, snap Snapshot) {
	msg := StatusText(snap)
	if msg == "" {
		return
	}
	color := core.ColorYellow
	switch snap.Mode {
	case ModeLose:
		color = core.ColorBrightRed
	case ModeWin:
		color = core.ColorBrightGreen
	}
	y := dst.Height() / 2
	w := len([]rune(msg)) + 4
	box := core.NewRect((dst.Width()-w)/2, y-1, w, 3)
	bounds := core.NewRect(0, 0, dst.Width(), dst.Height()-1)
	fits := bounds.Contains(box.X, box.Y) && bounds.Contains(box.Right()-1, box.Bottom()-1)
	framed := snap.Mode == ModeReady || snap.Mode == ModePause
	if framed && fits {
		dst.DrawRect(box, ' ')
		dst.DrawBox(box)
	}
	dst.DrawTextCentered(y, msg, color)
}

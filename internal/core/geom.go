// Package core holds the terminal-independent building blocks shared by the
// lander simulation and its front ends: control codes, the character screen
// buffer, colors and small geometry helpers. Nothing here imports Bubble Tea.
package core

import "math"

// Rect is an axis-aligned box in screen cells.
type Rect struct {
	X, Y int
	W, H int
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains reports whether the cell (x, y) is inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Viewport maps world coordinates (canvas units, y growing upwards from the
// ground) onto a character grid (y growing downwards from the top row).
type Viewport struct {
	WorldW, WorldH float64
	Cols, Rows     int
}

// NewViewport creates a viewport for a world of the given size rendered into
// cols x rows cells. Degenerate sizes are clamped to one.
func NewViewport(worldW, worldH float64, cols, rows int) Viewport {
	return Viewport{
		WorldW: math.Max(worldW, 1),
		WorldH: math.Max(worldH, 1),
		Cols:   Max(cols, 1),
		Rows:   Max(rows, 1),
	}
}

// Col converts a world x into a column index.
func (v Viewport) Col(x float64) int {
	return int(math.Floor(x / v.WorldW * float64(v.Cols)))
}

// Row converts a world y (altitude) into a row index.
func (v Viewport) Row(y float64) int {
	return v.Rows - 1 - int(math.Floor(y/v.WorldH*float64(v.Rows)))
}

// Span converts a world width into a cell count, never less than one.
func (v Viewport) Span(w float64) int {
	return Max(1, int(math.Round(w/v.WorldW*float64(v.Cols))))
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampF restricts a float64 value to be within [lo, hi].
func ClampF(val, lo, hi float64) float64 {
	return math.Min(math.Max(val, lo), hi)
}

// Min returns the smaller of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// WrapDegrees normalizes an angle into [0, 360).
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -tiny + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

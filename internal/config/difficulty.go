package config

import (
	"fmt"
	"strings"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyMedium DifficultyPreset = "medium"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty converts a user supplied name into a preset.
// "normal" is accepted as an alias for medium.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "", "medium", "normal":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, medium or hard)", s)
	}
}

// Ratio is an integer fraction. Integer fields are scaled with truncating
// division so results match the classic game exactly.
type Ratio struct {
	Num, Den int
}

var one = Ratio{1, 1}

// Int scales an integer value.
func (r Ratio) Int(v int) int {
	return v * r.Num / r.Den
}

// Float scales a floating point value.
func (r Ratio) Float(v float64) float64 {
	return v * float64(r.Num) / float64(r.Den)
}

// DifficultyScale lists the multipliers a preset applies when a game starts.
type DifficultyScale struct {
	Fuel      Ratio
	GoalWidth Ratio
	GoalSpeed Ratio
	GoalAngle Ratio
	SpeedInit Ratio
}

// ScaleForPreset returns the start-of-game multipliers for a preset.
// Medium is the identity.
func ScaleForPreset(preset DifficultyPreset) DifficultyScale {
	switch preset {
	case DifficultyEasy:
		return DifficultyScale{
			Fuel:      Ratio{3, 2},
			GoalWidth: Ratio{4, 3},
			GoalSpeed: Ratio{3, 2},
			GoalAngle: Ratio{4, 3},
			SpeedInit: Ratio{3, 4},
		}
	case DifficultyHard:
		return DifficultyScale{
			Fuel:      Ratio{7, 8},
			GoalWidth: Ratio{3, 4},
			GoalSpeed: Ratio{7, 8},
			GoalAngle: one,
			SpeedInit: Ratio{4, 3},
		}
	default:
		return DifficultyScale{one, one, one, one, one}
	}
}

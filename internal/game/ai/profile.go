// Package ai implements the utility-scored decision engine for
// computer-controlled actors. Every available skill × target combination is
// scored by pluggable scorers; the best combination wins, with
// difficulty-driven mistake injection for lower tiers.
package ai

import "fmt"

// Difficulty selects the decision profile for a battle.
type Difficulty int

const (
	VeryEasy Difficulty = iota
	Easy
	Normal
	Hard
	VeryHard
)

// String returns the config/display name of the Difficulty.
func (d Difficulty) String() string {
	switch d {
	case VeryEasy:
		return "very_easy"
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	case VeryHard:
		return "very_hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty maps a config name to its Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "very_easy":
		return VeryEasy, nil
	case "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	case "very_hard":
		return VeryHard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Profile tunes decision quality and personality for one difficulty tier.
// Profiles are read at construction and never mutated at runtime.
type Profile struct {
	// MistakeChance is the probability [0,1] of a deliberately suboptimal
	// (but still valid) decision.
	MistakeChance float64
	// DifficultyModifier scales utility scores; exposed to scorers.
	DifficultyModifier float64
	// Personality weights applied to the matching scorer families.
	Aggressiveness float64
	Defensiveness  float64
	Tactical       float64
}

// DefaultProfiles returns the built-in per-tier profiles.
func DefaultProfiles() map[Difficulty]Profile {
	return map[Difficulty]Profile{
		VeryEasy: {MistakeChance: 0.40, DifficultyModifier: 0.6, Aggressiveness: 1.0, Defensiveness: 0.4, Tactical: 0.2},
		Easy:     {MistakeChance: 0.25, DifficultyModifier: 0.8, Aggressiveness: 1.0, Defensiveness: 0.6, Tactical: 0.4},
		Normal:   {MistakeChance: 0.10, DifficultyModifier: 1.0, Aggressiveness: 1.0, Defensiveness: 0.8, Tactical: 0.7},
		Hard:     {MistakeChance: 0.04, DifficultyModifier: 1.15, Aggressiveness: 1.1, Defensiveness: 1.0, Tactical: 1.0},
		VeryHard: {MistakeChance: 0.0, DifficultyModifier: 1.3, Aggressiveness: 1.2, Defensiveness: 1.1, Tactical: 1.2},
	}
}

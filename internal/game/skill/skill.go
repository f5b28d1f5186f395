// Package skill defines the immutable skill data model and its YAML registry.
// Skills are loaded once at startup and are read-only during battle.
package skill

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Category identifies what a skill does when dispatched.
type Category int

const (
	CategoryAttack Category = iota
	CategoryBuff
	CategoryDebuff
	CategoryHeal
)

// String returns the YAML/display name of the Category.
func (c Category) String() string {
	switch c {
	case CategoryAttack:
		return "attack"
	case CategoryBuff:
		return "buff"
	case CategoryDebuff:
		return "debuff"
	case CategoryHeal:
		return "heal"
	default:
		return "unknown"
	}
}

// UnmarshalYAML parses a Category from its string form.
func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "attack":
		*c = CategoryAttack
	case "buff":
		*c = CategoryBuff
	case "debuff":
		*c = CategoryDebuff
	case "heal":
		*c = CategoryHeal
	default:
		return fmt.Errorf("unknown skill category %q", s)
	}
	return nil
}

// TargetMode identifies the target cardinality of a skill.
type TargetMode int

const (
	TargetSingle TargetMode = iota
	TargetAoE
	TargetSelf
	TargetAllAllies
	TargetRandom
)

// String returns the YAML/display name of the TargetMode.
func (m TargetMode) String() string {
	switch m {
	case TargetSingle:
		return "single"
	case TargetAoE:
		return "aoe"
	case TargetSelf:
		return "self"
	case TargetAllAllies:
		return "all_allies"
	case TargetRandom:
		return "random"
	default:
		return "unknown"
	}
}

// UnmarshalYAML parses a TargetMode from its string form.
func (m *TargetMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "single":
		*m = TargetSingle
	case "aoe":
		*m = TargetAoE
	case "self":
		*m = TargetSelf
	case "all_allies":
		*m = TargetAllAllies
	case "random":
		*m = TargetRandom
	default:
		return fmt.Errorf("unknown target mode %q", s)
	}
	return nil
}

// Skill is the static definition of one skill, loaded from YAML.
// Definitions are immutable after load; the core never mutates them.
type Skill struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	Category         Category   `yaml:"category"`
	APCost           int        `yaml:"ap_cost"`
	BaseValue        int        `yaml:"base_value"` // base damage or heal amount
	DamageMultiplier float64    `yaml:"damage_multiplier"`
	CritBonus        float64    `yaml:"crit_bonus"`
	Target           TargetMode `yaml:"target"`

	// EffectID optionally references a status-effect definition applied on
	// hit (attacks) or on cast (buffs/debuffs). Empty means no effect.
	EffectID string `yaml:"effect_id"`
	// EffectIntensity scales the referenced effect; 0 means 1.0.
	EffectIntensity float64 `yaml:"effect_intensity"`
	// EffectDuration overrides the effect's default duration; 0 keeps it.
	EffectDuration int `yaml:"effect_duration"`
}

// Validate checks required fields and numeric sanity.
//
// Postcondition: nil return guarantees non-empty ID and Name, APCost >= 0,
// and a positive DamageMultiplier for attack skills.
func (s *Skill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("skill: ID must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", s.ID)
	}
	if s.APCost < 0 {
		return fmt.Errorf("skill %q: ap_cost must not be negative", s.ID)
	}
	if s.Category == CategoryAttack && s.DamageMultiplier <= 0 {
		return fmt.Errorf("skill %q: attack skills need damage_multiplier > 0", s.ID)
	}
	if (s.Category == CategoryBuff || s.Category == CategoryDebuff) && s.EffectID == "" {
		return fmt.Errorf("skill %q: buff/debuff skills must reference an effect_id", s.ID)
	}
	return nil
}

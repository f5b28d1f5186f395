// Package status implements the per-actor status-effect engine: timed
// effect instances with stacking policies, per-turn ticks, damage hooks,
// and stat-modifier derivation.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hexforge/battlecore/internal/game/stat"
)

// Kind identifies the behavioural type of an effect. Two instances of the
// same Kind on one actor interact through the definition's stacking policy.
type Kind string

const (
	KindPoison           Kind = "poison"
	KindBurn             Kind = "burn"
	KindBleed            Kind = "bleed"
	KindRegeneration     Kind = "regeneration"
	KindAttackBoost      Kind = "attack_boost"
	KindWeakness         Kind = "weakness"
	KindBerserk          Kind = "berserk"
	KindDefenseBoost     Kind = "defense_boost"
	KindDefenseReduction Kind = "defense_reduction"
	KindVulnerability    Kind = "vulnerability"
	KindFreeze           Kind = "freeze"
	KindShield           Kind = "shield"
	KindInvulnerability  Kind = "invulnerability"
	KindStun             Kind = "stun"
	KindSilence          Kind = "silence"
	KindMarked           Kind = "marked"
)

// Category groups effects for queries and resistance rules. Crowd-control
// effects get a defense-derived resistance bonus on application.
type Category string

const (
	CategoryBuff           Category = "buff"
	CategoryDebuff         Category = "debuff"
	CategoryDamageOverTime Category = "damage_over_time"
	CategoryCrowdControl   Category = "crowd_control"
)

// StackPolicy governs how a newly applied effect interacts with an
// already-active instance of the same Kind.
type StackPolicy string

const (
	PolicyIgnore            StackPolicy = "ignore"
	PolicyRefreshDuration   StackPolicy = "refresh_duration"
	PolicyAdditiveDuration  StackPolicy = "additive_duration"
	PolicyMaxDuration       StackPolicy = "max_duration"
	PolicyAddStack          StackPolicy = "add_stack"
	PolicyIndependentStacks StackPolicy = "independent_stacks"
)

// StatModDef describes the stat modifier an effect derives while active.
// The modifier is revoked through the same expiry path as the effect.
type StatModDef struct {
	Stat     string  `yaml:"stat"`      // "attack", "defense", "magic", "speed", "crit_chance"
	Op       string  `yaml:"op"`        // "base_addition", "percentage_bonus", "multiplicative", "final_override"
	Value    float64 `yaml:"value"`
	Priority int     `yaml:"priority"`
}

// StatType maps the YAML stat name to its stat.Type.
func (d StatModDef) StatType() (stat.Type, error) {
	switch d.Stat {
	case "attack":
		return stat.Attack, nil
	case "defense":
		return stat.Defense, nil
	case "magic":
		return stat.Magic, nil
	case "speed":
		return stat.Speed, nil
	case "crit_chance":
		return stat.CritChance, nil
	default:
		return 0, fmt.Errorf("unknown stat %q", d.Stat)
	}
}

// Operation maps the YAML op name to its stat.Operation.
func (d StatModDef) Operation() (stat.Operation, error) {
	switch d.Op {
	case "base_addition":
		return stat.BaseAddition, nil
	case "percentage_bonus":
		return stat.PercentageBonus, nil
	case "multiplicative":
		return stat.Multiplicative, nil
	case "final_override":
		return stat.FinalOverride, nil
	default:
		return 0, fmt.Errorf("unknown modifier op %q", d.Op)
	}
}

// EffectDef is the static definition of a status effect, loaded from YAML.
type EffectDef struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Kind     Kind        `yaml:"kind"`
	Category Category    `yaml:"category"`
	Policy   StackPolicy `yaml:"policy"`
	// MaxStacks is the stack cap; values < 1 are treated as 1 (unstackable).
	MaxStacks int `yaml:"max_stacks"`
	// BaseValue is the per-stack magnitude: tick damage/heal for DoT kinds,
	// a percentage for boost/weakness kinds, absorb amount for shields.
	BaseValue float64 `yaml:"base_value"`
	// DurationTurns is the default duration; overridable at apply time.
	DurationTurns int `yaml:"duration_turns"`
	// BaseResistance is the percentage chance [0,100] the target resists.
	BaseResistance float64 `yaml:"base_resistance"`
	// Dispellable effects are removed by DispelAll.
	Dispellable bool `yaml:"dispellable"`
	// PersistsThroughDeath effects survive ClearAll.
	PersistsThroughDeath bool `yaml:"persists_through_death"`
	// StatMod, when present, derives a stat modifier while the effect is active.
	StatMod *StatModDef `yaml:"stat_mod"`
}

// Validate checks required fields and cross-field constraints.
//
// Postcondition: nil return guarantees non-empty ID, Kind, and Policy, a
// resistance in [0,100], and a parseable StatMod when one is present.
func (d *EffectDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("effect: ID must not be empty")
	}
	if d.Kind == "" {
		return fmt.Errorf("effect %q: kind must not be empty", d.ID)
	}
	switch d.Policy {
	case PolicyIgnore, PolicyRefreshDuration, PolicyAdditiveDuration,
		PolicyMaxDuration, PolicyAddStack, PolicyIndependentStacks:
	default:
		return fmt.Errorf("effect %q: unknown stacking policy %q", d.ID, d.Policy)
	}
	if d.BaseResistance < 0 || d.BaseResistance > 100 {
		return fmt.Errorf("effect %q: base_resistance must be in [0,100], got %v", d.ID, d.BaseResistance)
	}
	if d.StatMod != nil {
		if _, err := d.StatMod.StatType(); err != nil {
			return fmt.Errorf("effect %q: %w", d.ID, err)
		}
		if _, err := d.StatMod.Operation(); err != nil {
			return fmt.Errorf("effect %q: %w", d.ID, err)
		}
	}
	return nil
}

// Registry holds all known EffectDefs keyed by ID.
type Registry struct {
	defs map[string]*EffectDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*EffectDef)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *EffectDef) {
	r.defs[def.ID] = def
}

// Get returns the EffectDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*EffectDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered EffectDefs.
func (r *Registry) All() []*EffectDef {
	out := make([]*EffectDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as an EffectDef,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def EffectDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}

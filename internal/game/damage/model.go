// Package damage implements the stateless multi-stage damage formula.
// Every stage feeds the next in a strict order; the provenance of each
// stage is available through ComputeInfo for log/UI consumers.
package damage

import (
	"math"

	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
)

// Combatant is the subset of the actor contract the model needs.
// Using a local interface avoids a circular import with the actor package.
type Combatant interface {
	Name() string
	ResolvedStat(t stat.Type) int
	Status() *status.Engine
	CritChance() float64
}

// Context bundles everything needed to compute one damage event.
type Context struct {
	Attacker   Combatant
	Target     Combatant
	Skill      *skill.Skill
	BaseDamage int
	IsCritical bool
}

// Result is the outcome of one damage computation.
type Result struct {
	Final      int
	IsCritical bool
}

// Info carries the per-stage provenance of a computation for external
// observers. It is decoupled from the core numeric path: the pipeline only
// needs Result.
type Info struct {
	Result
	Base             int
	StatBonus        int // attacker attack added, post safety clamp
	SkillAdjusted    int // after the skill damage multiplier
	StatusAdjusted   int // after outgoing/incoming effect hooks
	DefenseReduction int // target defense subtracted
}

// Model computes damage. It is stateless apart from its configuration and
// safe to share across battles.
type Model struct {
	src            rng.Source
	logger         *zap.Logger
	critMultiplier float64
	safetyCeiling  int
	// itemModifier and relicModifier are reserved extension points;
	// identity until equipment systems land.
	itemModifier  func(dmg float64, ctx Context) float64
	relicModifier func(dmg float64, ctx Context) float64
}

// NewModel creates a Model.
//
// Precondition: src and logger must be non-nil; critMultiplier > 0;
// safetyCeiling > 0.
func NewModel(src rng.Source, logger *zap.Logger, critMultiplier float64, safetyCeiling int) *Model {
	identity := func(dmg float64, _ Context) float64 { return dmg }
	return &Model{
		src:            src,
		logger:         logger,
		critMultiplier: critMultiplier,
		safetyCeiling:  safetyCeiling,
		itemModifier:   identity,
		relicModifier:  identity,
	}
}

// Compute runs the full damage pipeline for ctx.
//
// Precondition: ctx.Attacker, ctx.Target, and ctx.Skill must be non-nil.
// Postcondition: Result.Final >= 1.
func (m *Model) Compute(ctx Context) Result {
	return m.ComputeInfo(ctx).Result
}

// ComputeInfo runs the same pipeline as Compute and additionally returns
// per-stage provenance.
//
// Stages, strictly ordered:
//  1. base damage
//  2. + attacker Attack, saturating-clamped at the safety ceiling
//  3. × skill damage multiplier, rounded
//  4. × item modifier (identity)
//  5. × relic modifier (identity)
//  6. attacker outgoing hooks, then target incoming hooks
//  7. × critical multiplier when ctx.IsCritical
//  8. − target Defense, floored at 1
//  9. final clamp max(1, damage)
func (m *Model) ComputeInfo(ctx Context) Info {
	info := Info{Base: ctx.BaseDamage}
	dmg := float64(ctx.BaseDamage)

	attack := ctx.Attacker.ResolvedStat(stat.Attack)
	dmg += float64(attack)
	if dmg > float64(m.safetyCeiling) {
		m.logger.Warn("damage clamped at safety ceiling",
			zap.String("attacker", ctx.Attacker.Name()),
			zap.Float64("raw", dmg),
			zap.Int("ceiling", m.safetyCeiling),
		)
		dmg = float64(m.safetyCeiling)
	}
	info.StatBonus = int(dmg) - ctx.BaseDamage

	dmg = math.Round(dmg * ctx.Skill.DamageMultiplier)
	info.SkillAdjusted = int(dmg)

	dmg = m.itemModifier(dmg, ctx)
	dmg = m.relicModifier(dmg, ctx)

	// Attacker buffs compound before target mitigation.
	dmg = ctx.Attacker.Status().ModifyOutgoingDamage(dmg)
	dmg = ctx.Target.Status().ModifyIncomingDamage(dmg)
	info.StatusAdjusted = int(math.Round(dmg))

	if ctx.IsCritical {
		dmg *= m.critMultiplier + ctx.Skill.CritBonus
	}

	defense := ctx.Target.ResolvedStat(stat.Defense)
	info.DefenseReduction = defense
	dmg -= float64(defense)
	if dmg < 1 {
		dmg = 1
	}

	final := int(math.Round(dmg))
	if final < 1 {
		final = 1
	}
	info.Final = final
	info.IsCritical = ctx.IsCritical
	return info
}

// RollCritical rolls the attacker's critical chance.
//
// Postcondition: returns true with probability attacker.CritChance().
func (m *Model) RollCritical(attacker Combatant) bool {
	return m.src.Float64() < attacker.CritChance()
}

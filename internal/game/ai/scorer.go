package ai

import (
	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
)

// ScoringContext is the snapshot handed to every scorer for one decision.
type ScoringContext struct {
	Actor   *actor.Actor
	Allies  []*actor.Actor
	Enemies []*actor.Actor
	Turn    int
	Profile Profile
}

// SkillScorer rates how attractive using sk on target is, before weighting.
type SkillScorer interface {
	Name() string
	Score(ctx *ScoringContext, sk *skill.Skill, target *actor.Actor) float64
}

// TargetScorer rates how attractive target is, independent of skill choice.
type TargetScorer interface {
	Name() string
	Score(ctx *ScoringContext, target *actor.Actor) float64
}

// damagePotentialScorer favours attack skills by estimated damage output
// relative to the target's remaining HP, scaled by aggressiveness.
type damagePotentialScorer struct{}

func (damagePotentialScorer) Name() string { return "damage_potential" }

func (damagePotentialScorer) Score(ctx *ScoringContext, sk *skill.Skill, target *actor.Actor) float64 {
	if sk.Category != skill.CategoryAttack {
		return 0
	}
	raw := float64(sk.BaseValue+ctx.Actor.ResolvedStat(stat.Attack))*sk.DamageMultiplier -
		float64(target.ResolvedStat(stat.Defense))
	if raw < 1 {
		raw = 1
	}
	score := raw / float64(max(1, target.CurrentHP()))
	// A likely kill is worth a flat bonus on top of the ratio.
	if int(raw) >= target.CurrentHP() {
		score += 1.0
	}
	return score * ctx.Profile.Aggressiveness
}

// healValueScorer favours heal skills by the fraction of missing HP they
// would restore on the target, scaled by defensiveness.
type healValueScorer struct{}

func (healValueScorer) Name() string { return "heal_value" }

func (healValueScorer) Score(ctx *ScoringContext, sk *skill.Skill, target *actor.Actor) float64 {
	if sk.Category != skill.CategoryHeal {
		return 0
	}
	missing := target.MaxHP() - target.CurrentHP()
	if missing <= 0 {
		return 0
	}
	amount := sk.BaseValue + ctx.Actor.ResolvedStat(stat.Magic)
	if amount > missing {
		amount = missing
	}
	return float64(amount) / float64(target.MaxHP()) * 2 * ctx.Profile.Defensiveness
}

// statusValueScorer favours skills that would put a new effect on the
// target, scaled by the tactical weight. Re-applying an effect the target
// already carries is worth little.
type statusValueScorer struct {
	effects *status.Registry
}

func (statusValueScorer) Name() string { return "status_value" }

func (s statusValueScorer) Score(ctx *ScoringContext, sk *skill.Skill, target *actor.Actor) float64 {
	if sk.EffectID == "" {
		return 0
	}
	def, ok := s.effects.Get(sk.EffectID)
	if !ok {
		return 0
	}
	if target.Status().HasKind(def.Kind) {
		return 0.1 * ctx.Profile.Tactical
	}
	return 1.0 * ctx.Profile.Tactical
}

// lowHPBias favours targets closest to death.
type lowHPBias struct{}

func (lowHPBias) Name() string { return "low_hp_bias" }

func (lowHPBias) Score(_ *ScoringContext, target *actor.Actor) float64 {
	if target.MaxHP() <= 0 {
		return 0
	}
	return 1 - float64(target.CurrentHP())/float64(target.MaxHP())
}

// markedBias favours targets carrying the marked effect.
type markedBias struct{}

func (markedBias) Name() string { return "marked_bias" }

func (markedBias) Score(_ *ScoringContext, target *actor.Actor) float64 {
	if target.Status().HasKind(status.KindMarked) {
		return 1
	}
	return 0
}

// noShieldBias favours targets without an active shield.
type noShieldBias struct{}

func (noShieldBias) Name() string { return "no_shield_bias" }

func (noShieldBias) Score(_ *ScoringContext, target *actor.Actor) float64 {
	if target.Status().HasKind(status.KindShield) {
		return 0
	}
	return 1
}

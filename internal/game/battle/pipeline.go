package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/ap"
	"github.com/hexforge/battlecore/internal/game/damage"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
)

// Result is the structured outcome of one skill execution. Validation
// failures are results, never errors: the worst outcome of a bad request is
// "this one requested action did not happen".
type Result struct {
	Success  bool
	Targets  []*actor.Actor
	Amounts  []int  // damage dealt or HP healed, parallel to Targets
	Critical []bool // parallel to Targets; always false for non-attacks
	Reason   string
}

func failure(reason string) Result {
	return Result{Reason: reason}
}

// PhaseController lets the pipeline flag the orchestrator's transient
// Resolving sub-state around a dispatch. The returned restore function puts
// the phase back only if the battle is still active.
type PhaseController interface {
	EnterResolving() (restore func())
}

// Pipeline validates a requested skill use, consumes action points,
// dispatches by skill category, and returns a structured result. One
// Pipeline serves one battle.
type Pipeline struct {
	model   *damage.Model
	effects *status.Registry
	logger  *zap.Logger
	bus     *Bus
	phase   PhaseController
}

// NewPipeline creates a Pipeline.
//
// Precondition: model, effects, logger, and bus must be non-nil.
func NewPipeline(model *damage.Model, effects *status.Registry, logger *zap.Logger, bus *Bus) *Pipeline {
	return &Pipeline{
		model:   model,
		effects: effects,
		logger:  logger,
		bus:     bus,
	}
}

// SetPhaseController wires the orchestrator's Resolving flagging. May be
// nil, in which case dispatch runs without a phase guard.
func (p *Pipeline) SetPhaseController(pc PhaseController) { p.phase = pc }

// Execute runs the full pipeline for one skill use. pool is the acting
// side's action-point pool; pass nil for sides that do not spend AP.
//
// Steps: precondition validation (no side effects on failure), AP
// consumption, target filtering (AP refunded when no valid target remains),
// then category dispatch. Panics during dispatch are recovered into a
// failure result and the phase is restored.
func (p *Pipeline) Execute(user *actor.Actor, sk *skill.Skill, targets []*actor.Actor, pool *ap.Pool) (result Result) {
	if user == nil {
		return failure("no actor")
	}
	if sk == nil {
		return failure("no skill")
	}
	if !user.IsAlive() {
		return failure("actor is dead")
	}
	if len(targets) == 0 {
		return failure("no targets specified")
	}

	if pool != nil && sk.APCost > 0 {
		if !pool.Consume(sk.APCost) {
			return failure(fmt.Sprintf("insufficient action points: need %d, have %d", sk.APCost, pool.Current()))
		}
	}

	valid := targets[:0:0]
	for _, t := range targets {
		if t != nil && t.IsAlive() {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		// Refund: a skill that cannot touch anything must not cost AP.
		if pool != nil && sk.APCost > 0 {
			pool.Grant(sk.APCost)
		}
		return failure("no valid targets")
	}

	var restore func()
	if p.phase != nil {
		restore = p.phase.EnterResolving()
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("skill dispatch panicked",
				zap.String("actor", user.Name()),
				zap.String("skill", sk.ID),
				zap.Any("panic", r),
			)
			result = failure(fmt.Sprintf("internal error: %v", r))
		}
		if restore != nil {
			restore()
		}
	}()

	switch sk.Category {
	case skill.CategoryAttack:
		result = p.dispatchAttack(user, sk, valid)
	case skill.CategoryHeal:
		result = p.dispatchHeal(user, sk, valid)
	case skill.CategoryBuff, skill.CategoryDebuff:
		result = p.dispatchStatus(user, sk, valid)
	default:
		result = failure(fmt.Sprintf("unknown skill category %d", sk.Category))
	}
	return result
}

// dispatchAttack rolls a critical per target, computes and applies damage,
// then attempts to apply the skill's attached status effect.
func (p *Pipeline) dispatchAttack(user *actor.Actor, sk *skill.Skill, targets []*actor.Actor) Result {
	res := Result{
		Success:  true,
		Targets:  targets,
		Amounts:  make([]int, len(targets)),
		Critical: make([]bool, len(targets)),
	}
	names := make([]string, len(targets))

	for i, target := range targets {
		isCrit := p.model.RollCritical(user)
		dmg := p.model.Compute(damage.Context{
			Attacker:   user,
			Target:     target,
			Skill:      sk,
			BaseDamage: sk.BaseValue,
			IsCritical: isCrit,
		})
		target.TakeDamage(dmg.Final)
		res.Amounts[i] = dmg.Final
		res.Critical[i] = isCrit
		names[i] = target.Name()

		if !target.IsAlive() {
			target.Status().ClearAll()
			p.bus.Publish(ActorDiedEvent{Actor: target.Name()})
		} else if sk.EffectID != "" {
			p.applyAttachedEffect(user, sk, target)
		}
	}

	p.bus.Publish(ActionResultEvent{
		Actor:    user.Name(),
		SkillID:  sk.ID,
		Targets:  names,
		Amounts:  res.Amounts,
		Critical: res.Critical,
	})
	return res
}

// dispatchHeal restores base value + caster Magic per target, capped at max HP.
func (p *Pipeline) dispatchHeal(user *actor.Actor, sk *skill.Skill, targets []*actor.Actor) Result {
	res := Result{
		Success:  true,
		Targets:  targets,
		Amounts:  make([]int, len(targets)),
		Critical: make([]bool, len(targets)),
	}
	names := make([]string, len(targets))

	amount := sk.BaseValue + user.ResolvedStat(stat.Magic)
	for i, target := range targets {
		before := target.CurrentHP()
		target.Heal(amount)
		res.Amounts[i] = target.CurrentHP() - before
		names[i] = target.Name()
	}

	p.bus.Publish(ActionResultEvent{
		Actor:   user.Name(),
		SkillID: sk.ID,
		Targets: names,
		Amounts: res.Amounts,
		Healing: true,
	})
	return res
}

// dispatchStatus applies the skill's attached effect to every target.
// Buff/debuff skills must reference an explicit effect definition; there is
// no name-based fallback.
func (p *Pipeline) dispatchStatus(user *actor.Actor, sk *skill.Skill, targets []*actor.Actor) Result {
	if sk.EffectID == "" {
		return failure(fmt.Sprintf("skill %q has no effect definition", sk.ID))
	}
	if _, ok := p.effects.Get(sk.EffectID); !ok {
		return failure(fmt.Sprintf("skill %q references unknown effect %q", sk.ID, sk.EffectID))
	}

	res := Result{
		Success:  true,
		Targets:  targets,
		Amounts:  make([]int, len(targets)),
		Critical: make([]bool, len(targets)),
	}
	names := make([]string, len(targets))
	for i, target := range targets {
		p.applyAttachedEffect(user, sk, target)
		names[i] = target.Name()
	}

	p.bus.Publish(ActionResultEvent{
		Actor:   user.Name(),
		SkillID: sk.ID,
		Targets: names,
		Amounts: res.Amounts,
	})
	return res
}

// applyAttachedEffect resolves and applies the skill's effect reference.
// A resisted or policy-rejected application is an outcome, not an error.
func (p *Pipeline) applyAttachedEffect(user *actor.Actor, sk *skill.Skill, target *actor.Actor) {
	def, ok := p.effects.Get(sk.EffectID)
	if !ok {
		p.logger.Warn("skill references unknown effect",
			zap.String("skill", sk.ID),
			zap.String("effect", sk.EffectID),
		)
		return
	}
	target.Status().Apply(def, user.Name(), sk.ID, sk.EffectIntensity, sk.EffectDuration)
}

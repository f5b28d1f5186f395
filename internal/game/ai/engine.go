package ai

import (
	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/status"
)

// weightedSkillScorer pairs a scorer with its contribution weight.
type weightedSkillScorer struct {
	scorer SkillScorer
	weight float64
}

type weightedTargetScorer struct {
	scorer TargetScorer
	weight float64
}

// Engine decides actions for computer-controlled actors by scoring every
// available skill × valid target combination. One Engine serves one battle;
// it is driven only by the orchestrator's thread of control, but its action
// pool tolerates concurrent access.
type Engine struct {
	profile Profile
	pool    *ActionPool
	src     rng.Source
	logger  *zap.Logger

	skillScorers  []weightedSkillScorer
	targetScorers []weightedTargetScorer
}

// NewEngine creates an Engine with the built-in scorer set: damage
// potential, heal value, and status value skill scorers; low-HP, marked,
// and no-shield target biases.
//
// Precondition: pool, effects, src, and logger must be non-nil.
func NewEngine(profile Profile, pool *ActionPool, effects *status.Registry, src rng.Source, logger *zap.Logger) *Engine {
	e := &Engine{
		profile: profile,
		pool:    pool,
		src:     src,
		logger:  logger,
	}
	e.RegisterSkillScorer(damagePotentialScorer{}, 1.0)
	e.RegisterSkillScorer(healValueScorer{}, 1.0)
	e.RegisterSkillScorer(statusValueScorer{effects: effects}, 0.8)
	e.RegisterTargetScorer(lowHPBias{}, 0.6)
	e.RegisterTargetScorer(markedBias{}, 0.5)
	e.RegisterTargetScorer(noShieldBias{}, 0.3)
	return e
}

// RegisterSkillScorer adds a skill scorer with the given weight.
func (e *Engine) RegisterSkillScorer(s SkillScorer, weight float64) {
	e.skillScorers = append(e.skillScorers, weightedSkillScorer{scorer: s, weight: weight})
}

// RegisterTargetScorer adds a target scorer with the given weight.
func (e *Engine) RegisterTargetScorer(s TargetScorer, weight float64) {
	e.targetScorers = append(e.targetScorers, weightedTargetScorer{scorer: s, weight: weight})
}

// Pool returns the engine's action pool; callers release actions through it.
func (e *Engine) Pool() *ActionPool { return e.pool }

// Decide picks a skill and target set for a. allies must include a itself.
// Returns nil when the actor cannot act (stunned, frozen, silenced), has no
// usable skill/target combination, or the action pool is exhausted.
//
// Postcondition: a non-nil return is leased from the pool and must be
// released exactly once by the caller, whether or not it is executed.
func (e *Engine) Decide(a *actor.Actor, allies, enemies []*actor.Actor, turn int) *Action {
	if a == nil || !a.IsAlive() {
		return nil
	}
	st := a.Status()
	if st.HasKind(status.KindStun) || st.HasKind(status.KindFreeze) || st.HasKind(status.KindSilence) {
		e.logger.Debug("actor cannot act", zap.String("actor", a.Name()))
		return nil
	}
	skills := a.AvailableSkills()
	if len(skills) == 0 {
		return nil
	}

	ctx := &ScoringContext{
		Actor:   a,
		Allies:  allies,
		Enemies: enemies,
		Turn:    turn,
		Profile: e.profile,
	}

	if e.profile.MistakeChance > 0 && e.src.Float64() < e.profile.MistakeChance {
		return e.decideMistake(ctx, skills)
	}
	return e.decideBest(ctx, skills)
}

// decideMistake picks the first available skill and a uniformly random
// living target. Deliberately suboptimal, still valid.
func (e *Engine) decideMistake(ctx *ScoringContext, skills []*skill.Skill) *Action {
	sk := skills[0]
	candidates := e.validTargets(ctx, sk)
	if len(candidates) == 0 {
		candidates = e.crossSideTargets(ctx, sk)
	}
	if len(candidates) == 0 {
		return nil
	}
	primary := candidates[e.src.Intn(len(candidates))]

	act, ok := e.pool.Get()
	if !ok {
		e.logger.Warn("action pool exhausted", zap.String("actor", ctx.Actor.Name()))
		return nil
	}
	act.Actor = ctx.Actor
	act.Skill = sk
	act.PrimaryTarget = primary
	act.Targets = e.expandTargets(act.Targets, ctx, sk, primary, candidates)
	act.Reason = "mistake"
	return act
}

// decideBest scores every skill × target combination and returns the best;
// ties keep the first-encountered combination (stable).
func (e *Engine) decideBest(ctx *ScoringContext, skills []*skill.Skill) *Action {
	var (
		bestSkill      *skill.Skill
		bestTarget     *actor.Actor
		bestCandidates []*actor.Actor
		bestScore      float64
		bestBreakdown  = make(map[string]float64)
		found          bool
	)

	scratch := make(map[string]float64)
	for _, sk := range skills {
		candidates := e.validTargets(ctx, sk)
		for _, target := range candidates {
			clear(scratch)
			score := 0.0
			for _, ws := range e.skillScorers {
				c := ws.scorer.Score(ctx, sk, target) * ws.weight
				if c != 0 {
					scratch[ws.scorer.Name()] = c
				}
				score += c
			}
			for _, wt := range e.targetScorers {
				c := wt.scorer.Score(ctx, target) * wt.weight
				if c != 0 {
					scratch[wt.scorer.Name()] = c
				}
				score += c
			}
			if !found || score > bestScore {
				found = true
				bestScore = score
				bestSkill = sk
				bestTarget = target
				bestCandidates = candidates
				clear(bestBreakdown)
				for k, v := range scratch {
					bestBreakdown[k] = v
				}
			}
		}
	}

	if !found {
		return nil
	}

	act, ok := e.pool.Get()
	if !ok {
		e.logger.Warn("action pool exhausted", zap.String("actor", ctx.Actor.Name()))
		return nil
	}
	act.Actor = ctx.Actor
	act.Skill = bestSkill
	act.PrimaryTarget = bestTarget
	act.Targets = e.expandTargets(act.Targets, ctx, bestSkill, bestTarget, bestCandidates)
	act.UtilityScore = bestScore * e.profile.DifficultyModifier
	for k, v := range bestBreakdown {
		act.Breakdown[k] = v
	}
	act.Reason = "best utility"
	return act
}

// validTargets returns living targets on the side the skill applies to:
// enemies for attacks and debuffs, allies (including self) for heals and
// buffs, the actor alone for self-targeted skills.
func (e *Engine) validTargets(ctx *ScoringContext, sk *skill.Skill) []*actor.Actor {
	if sk.Target == skill.TargetSelf {
		if ctx.Actor.IsAlive() {
			return []*actor.Actor{ctx.Actor}
		}
		return nil
	}
	switch sk.Category {
	case skill.CategoryAttack, skill.CategoryDebuff:
		return living(ctx.Enemies)
	default:
		return living(ctx.Allies)
	}
}

// crossSideTargets returns living targets from the opposite side of the
// skill's normal one; used only by the mistake path when the normal side
// has no living members.
func (e *Engine) crossSideTargets(ctx *ScoringContext, sk *skill.Skill) []*actor.Actor {
	switch sk.Category {
	case skill.CategoryAttack, skill.CategoryDebuff:
		return living(ctx.Allies)
	default:
		return living(ctx.Enemies)
	}
}

// expandTargets fills dst with the full target list for the skill's
// cardinality, reusing the pooled action's backing slice.
func (e *Engine) expandTargets(dst []*actor.Actor, ctx *ScoringContext, sk *skill.Skill, primary *actor.Actor, candidates []*actor.Actor) []*actor.Actor {
	dst = dst[:0]
	switch sk.Target {
	case skill.TargetAoE:
		dst = append(dst, candidates...)
	case skill.TargetSelf:
		dst = append(dst, ctx.Actor)
	case skill.TargetAllAllies:
		dst = append(dst, living(ctx.Allies)...)
	case skill.TargetRandom:
		dst = append(dst, candidates[e.src.Intn(len(candidates))])
	default: // TargetSingle
		dst = append(dst, primary)
	}
	return dst
}

func living(actors []*actor.Actor) []*actor.Actor {
	var out []*actor.Actor
	for _, a := range actors {
		if a != nil && a.IsAlive() {
			out = append(out, a)
		}
	}
	return out
}

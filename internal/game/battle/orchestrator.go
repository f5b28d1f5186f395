package battle

import (
	"errors"

	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/ai"
	"github.com/hexforge/battlecore/internal/game/ap"
	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
)

// Orchestrator is the top-level turn/phase state machine. It owns the
// rosters, the player side's action-point pool, and drives the AI engine
// and the skill pipeline each turn.
//
// The design is single-threaded and turn-sequential: the player phase idles
// awaiting TryUseSkill / TryRerollSkill / EndTurn calls, and the enemy
// phase runs synchronously inside EndTurn. It is an explicitly constructed
// context object: multiple battles can coexist, each with its own
// Orchestrator.
type Orchestrator struct {
	logger   *zap.Logger
	bus      *Bus
	src      rng.Source
	pipeline *Pipeline
	aiEngine *ai.Engine
	pool     *ap.Pool

	players []*actor.Actor
	enemies []*actor.Actor

	state   State
	turn    int
	outcome Outcome

	rerolled map[*actor.Actor]bool
}

// NewOrchestrator creates an Orchestrator and wires itself into the
// pipeline as its phase controller.
//
// Precondition: all arguments must be non-nil.
func NewOrchestrator(pipeline *Pipeline, aiEngine *ai.Engine, pool *ap.Pool, src rng.Source, bus *Bus, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		logger:   logger,
		bus:      bus,
		src:      src,
		pipeline: pipeline,
		aiEngine: aiEngine,
		pool:     pool,
		state:    NotStarted,
		rerolled: make(map[*actor.Actor]bool),
	}
	pipeline.SetPhaseController(o)
	pool.OnChange(func(current, max int) {
		bus.Publish(APChangedEvent{Current: current, Max: max})
	})
	return o
}

// State returns the current battle phase.
func (o *Orchestrator) State() State { return o.state }

// Turn returns the current turn number; turns count from 1 and increment
// when play returns to the player side.
func (o *Orchestrator) Turn() int { return o.turn }

// Outcome returns the terminal result, or OutcomeNone while the battle runs.
func (o *Orchestrator) Outcome() Outcome { return o.outcome }

// Pool returns the player side's action-point pool.
func (o *Orchestrator) Pool() *ap.Pool { return o.pool }

// StartBattle prepares both rosters and enters the first player turn.
// Restarting is allowed from NotStarted or BattleEnd.
//
// Precondition: both rosters must be non-empty.
func (o *Orchestrator) StartBattle(players, enemies []*actor.Actor) error {
	if o.state != NotStarted && o.state != BattleEnd {
		return errors.New("battle already in progress")
	}
	if len(players) == 0 || len(enemies) == 0 {
		return errors.New("both rosters must have at least one actor")
	}

	o.players = players
	o.enemies = enemies
	o.turn = 1
	o.outcome = OutcomeNone
	o.rerolled = make(map[*actor.Actor]bool)

	for _, a := range append(append([]*actor.Actor{}, players...), enemies...) {
		a.PrepareForBattle()
		o.wireActor(a)
	}

	o.setState(PlayerTurn)
	o.startTurn(true)
	o.logger.Info("battle started",
		zap.Int("players", len(players)),
		zap.Int("enemies", len(enemies)),
	)
	return nil
}

// wireActor routes an actor's status and stat notifications onto the bus.
// Both sinks are set-replace, so rewiring the same actor on a restart does
// not duplicate deliveries.
func (o *Orchestrator) wireActor(a *actor.Actor) {
	a.Status().SetNotifier(func(ev status.Event) {
		o.bus.Publish(StatusEvent{Event: ev})
	})
	name := a.Name()
	a.Stats().SetListener(func(t stat.Type, oldValue, newValue int) {
		o.bus.Publish(StatChangedEvent{Actor: name, Stat: t.String(), Old: oldValue, New: newValue})
	})
}

// EnterResolving flags the transient Resolving sub-state for one dispatch.
// The returned restore function reinstates the prior phase only while the
// battle is still active.
func (o *Orchestrator) EnterResolving() func() {
	prev := o.state
	if prev == BattleEnd {
		return func() {}
	}
	o.state = Resolving
	return func() {
		if o.state == Resolving {
			o.state = prev
		}
	}
}

// TryUseSkill executes a skill for a player-side actor during the player
// turn, charging the shared AP pool. The turn auto-ends when AP reaches 0.
//
// Postcondition: returns true iff the skill executed successfully.
func (o *Orchestrator) TryUseSkill(user *actor.Actor, sk *skill.Skill, targets []*actor.Actor) bool {
	if o.state != PlayerTurn {
		return false
	}
	if !o.onSide(user, o.players) {
		o.logger.Warn("skill use rejected: actor not on player side",
			zap.String("actor", safeName(user)))
		return false
	}

	res := o.pipeline.Execute(user, sk, targets, o.pool)
	if !res.Success {
		o.logger.Debug("skill use failed",
			zap.String("actor", safeName(user)),
			zap.String("reason", res.Reason),
		)
	}

	if o.checkBattleEnd() {
		return res.Success
	}
	if o.state == PlayerTurn && o.pool.Current() == 0 {
		o.EndTurn()
	}
	return res.Success
}

// TryRerollSkill redraws the actor's skill hand once per player turn. The
// reroll sub-phase does not change resource state.
func (o *Orchestrator) TryRerollSkill(a *actor.Actor) bool {
	if o.state != PlayerTurn || a == nil || !a.IsAlive() || !o.onSide(a, o.players) {
		return false
	}
	if o.rerolled[a] {
		return false
	}

	o.setState(PlayerSkillReroll)
	a.RerollHand(o.src)
	o.rerolled[a] = true
	o.setState(PlayerTurn)
	return true
}

// EndTurn ends the player turn: turn-end status processing for all living
// actors on both sides, then the enemy turn runs to completion, then play
// returns to the player side with an incremented turn counter. Battle-end
// detection short-circuits the sequencing at every step.
func (o *Orchestrator) EndTurn() {
	if o.state != PlayerTurn && o.state != PlayerSkillReroll {
		return
	}

	o.processTurnEndAll()
	if o.checkBattleEnd() {
		return
	}

	o.setState(EnemyTurn)
	o.startTurn(false)
	o.runEnemyTurn()
	if o.state == BattleEnd {
		return
	}

	o.processTurnEndAll()
	if o.checkBattleEnd() {
		return
	}

	o.turn++
	o.rerolled = make(map[*actor.Actor]bool)
	o.setState(PlayerTurn)
	o.startTurn(true)
}

// startTurn runs turn-start status processing for the acting side, resets
// the AP pool for the player side (the enemy side does not use AP), and
// publishes a turn-changed notification.
func (o *Orchestrator) startTurn(playerSide bool) {
	side := o.enemies
	if playerSide {
		side = o.players
	}
	for _, a := range side {
		if a.IsAlive() {
			a.Status().ProcessTurnStart()
		}
	}
	if playerSide {
		o.pool.ResetForTurn(countLiving(o.players))
	}
	o.bus.Publish(TurnChangedEvent{Turn: o.turn, State: o.state})
}

// runEnemyTurn iterates living enemies in fixed roster order. Each gets one
// AI decision, executed through the pipeline when valid; the pooled action
// is always released, whatever the outcome. No action available means the
// enemy skips without penalty.
func (o *Orchestrator) runEnemyTurn() {
	for _, enemy := range o.enemies {
		if o.state == BattleEnd {
			return
		}
		if !enemy.IsAlive() {
			continue
		}

		// Decide refuses stunned/frozen/silenced actors itself.
		act := o.aiEngine.Decide(enemy, o.enemies, o.players, o.turn)
		if act == nil {
			continue
		}
		if act.Valid() {
			res := o.pipeline.Execute(enemy, act.Skill, act.Targets, nil)
			if !res.Success {
				o.logger.Debug("enemy action failed",
					zap.String("actor", enemy.Name()),
					zap.String("reason", res.Reason),
				)
			}
		}
		o.aiEngine.Pool().Release(act)
		o.checkBattleEnd()
	}
}

// processTurnEndAll applies turn-end status processing (ticks, expiry) to
// every living actor on both sides.
func (o *Orchestrator) processTurnEndAll() {
	for _, a := range o.players {
		if a.IsAlive() {
			a.Status().ProcessTurnEnd()
			a.Stats().TickDurations()
			if !a.IsAlive() {
				a.Status().ClearAll()
				o.bus.Publish(ActorDiedEvent{Actor: a.Name()})
			}
		}
	}
	for _, a := range o.enemies {
		if a.IsAlive() {
			a.Status().ProcessTurnEnd()
			a.Stats().TickDurations()
			if !a.IsAlive() {
				a.Status().ClearAll()
				o.bus.Publish(ActorDiedEvent{Actor: a.Name()})
			}
		}
	}
}

// checkBattleEnd evaluates the end conditions. Simultaneous extinction is a
// draw and is checked first; all enemies dead is a victory; all players
// dead is a defeat. Once ended, the battle is inert until restarted.
func (o *Orchestrator) checkBattleEnd() bool {
	if o.state == BattleEnd {
		return true
	}
	playersAlive := countLiving(o.players)
	enemiesAlive := countLiving(o.enemies)

	switch {
	case playersAlive == 0 && enemiesAlive == 0:
		o.outcome = OutcomeDraw
	case enemiesAlive == 0:
		o.outcome = OutcomeVictory
	case playersAlive == 0:
		o.outcome = OutcomeDefeat
	default:
		return false
	}

	o.setState(BattleEnd)
	o.bus.Publish(BattleEndedEvent{Outcome: o.outcome, Turn: o.turn})
	o.logger.Info("battle ended",
		zap.String("outcome", o.outcome.String()),
		zap.Int("turn", o.turn),
	)
	return true
}

func (o *Orchestrator) setState(next State) {
	if o.state == next {
		return
	}
	prev := o.state
	o.state = next
	o.bus.Publish(StateChangedEvent{From: prev, To: next})
}

func (o *Orchestrator) onSide(a *actor.Actor, side []*actor.Actor) bool {
	for _, s := range side {
		if s == a {
			return true
		}
	}
	return false
}

func countLiving(actors []*actor.Actor) int {
	n := 0
	for _, a := range actors {
		if a.IsAlive() {
			n++
		}
	}
	return n
}

func safeName(a *actor.Actor) string {
	if a == nil {
		return "<nil>"
	}
	return a.Name()
}

package status

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/stat"
)

// crowdControlResistCap bounds the defense-derived resistance bonus that
// crowd-control effects receive on application.
const crowdControlResistCap = 50.0

// Owner is the subset of the actor contract the engine needs.
// Using a local interface avoids a circular import with the actor package.
type Owner interface {
	Name() string
	IsAlive() bool
	TakeDamage(amount int)
	Heal(amount int)
	Stats() *stat.Resolver
}

// EventKind identifies a status-effect notification.
type EventKind int

const (
	EventApplied EventKind = iota
	EventRefreshed
	EventStacked
	EventRemoved
	EventResisted
	EventDispelled
	EventShieldBroken
	EventTicked
	EventStunned
)

// Event is one fire-and-forget status notification.
type Event struct {
	Kind           EventKind
	Actor          string
	EffectID       string
	EffectKind     Kind
	InstanceID     string
	Stacks         int
	RemainingTurns int
	// Amount carries tick damage/healing or shield absorption.
	Amount int
}

// Notifier receives status events; nil notifiers are ignored.
type Notifier func(Event)

// Instance is one active effect on the owning actor.
//
// Invariant: Stacks is in [1, max(1, Def.MaxStacks)]; RemainingTurns >= 0;
// the instance is removed (and any derived stat modifier revoked) exactly
// when RemainingTurns reaches 0 after a tick, or when dispelled/cleared.
type Instance struct {
	Def            *EffectDef
	SourceActor    string
	Source         string
	RemainingTurns int
	Stacks         int
	Intensity      float64
	ID             string

	// shieldRemaining is the absorb budget left on shield instances.
	shieldRemaining float64
}

// Engine tracks the active effects on one actor. It is owned exclusively by
// that actor and mutated only by the orchestrator/pipeline thread of control;
// it is not safe for concurrent use.
type Engine struct {
	owner  Owner
	src    rng.Source
	logger *zap.Logger
	notify Notifier

	active []*Instance
	byKind map[Kind][]*Instance
	byID   map[string]*Instance
}

// NewEngine creates an empty Engine for owner.
//
// Precondition: owner, src, and logger must be non-nil.
func NewEngine(owner Owner, src rng.Source, logger *zap.Logger) *Engine {
	return &Engine{
		owner:  owner,
		src:    src,
		logger: logger,
		byKind: make(map[Kind][]*Instance),
		byID:   make(map[string]*Instance),
	}
}

// SetNotifier installs the event sink. Pass nil to silence notifications.
func (e *Engine) SetNotifier(n Notifier) { e.notify = n }

func (e *Engine) emit(ev Event) {
	if e.notify == nil {
		return
	}
	ev.Actor = e.owner.Name()
	e.notify(ev)
}

// Apply attempts to put def on the owner. intensity scales the effect's
// per-stack magnitude (values <= 0 mean 1.0); customDuration overrides the
// definition default when > 0.
//
// The application first rolls against the effect's resistance (base
// resistance plus, for crowd-control effects, a defense-derived bonus capped
// at +50). On resist it emits EventResisted and returns false. If an effect
// of the same Kind is already active, the definition's stacking policy
// decides the outcome; otherwise a new instance is registered and any
// derived stat modifier is applied through the owner's resolver.
//
// Postcondition: returns true iff the effect is active (new, refreshed, or
// stacked) after the call; false never mutates effect state.
func (e *Engine) Apply(def *EffectDef, sourceActor, source string, intensity float64, customDuration int) bool {
	if def == nil {
		e.logger.Warn("status apply rejected: nil definition",
			zap.String("actor", e.owner.Name()))
		return false
	}
	duration := def.DurationTurns
	if customDuration > 0 {
		duration = customDuration
	}
	if duration < 1 {
		e.logger.Warn("status apply rejected: non-positive duration",
			zap.String("actor", e.owner.Name()),
			zap.String("effect", def.ID))
		return false
	}
	if intensity <= 0 {
		intensity = 1.0
	}

	resistance := def.BaseResistance
	if def.Category == CategoryCrowdControl {
		bonus := float64(e.owner.Stats().FinalStat(stat.Defense)) / 4
		if bonus > crowdControlResistCap {
			bonus = crowdControlResistCap
		}
		resistance += bonus
	}
	if resistance > 0 && e.src.Float64()*100 < resistance {
		e.emit(Event{Kind: EventResisted, EffectID: def.ID, EffectKind: def.Kind})
		return false
	}

	if def.Policy != PolicyIndependentStacks {
		if existing := e.FindByKind(def.Kind); existing != nil {
			return e.applyToExisting(existing, def, duration)
		}
	}

	inst := &Instance{
		Def:            def,
		SourceActor:    sourceActor,
		Source:         source,
		RemainingTurns: duration,
		Stacks:         1,
		Intensity:      intensity,
		ID:             uuid.NewString(),
	}
	if def.Kind == KindShield {
		inst.shieldRemaining = def.BaseValue * intensity
	}

	e.active = append(e.active, inst)
	e.byKind[def.Kind] = append(e.byKind[def.Kind], inst)
	e.byID[inst.ID] = inst

	if def.StatMod != nil {
		e.applyStatMod(inst)
	}

	e.emit(Event{
		Kind:           EventApplied,
		EffectID:       def.ID,
		EffectKind:     def.Kind,
		InstanceID:     inst.ID,
		Stacks:         inst.Stacks,
		RemainingTurns: inst.RemainingTurns,
	})
	return true
}

// applyToExisting dispatches a re-application by the definition's policy.
func (e *Engine) applyToExisting(existing *Instance, def *EffectDef, duration int) bool {
	switch def.Policy {
	case PolicyIgnore:
		e.logger.Debug("status apply ignored by policy",
			zap.String("actor", e.owner.Name()),
			zap.String("effect", def.ID))
		return false

	case PolicyRefreshDuration:
		existing.RemainingTurns = duration

	case PolicyAdditiveDuration:
		existing.RemainingTurns += duration

	case PolicyMaxDuration:
		if duration > existing.RemainingTurns {
			existing.RemainingTurns = duration
		}

	case PolicyAddStack:
		maxStacks := def.MaxStacks
		if maxStacks < 1 {
			maxStacks = 1
		}
		if existing.Stacks < maxStacks {
			existing.Stacks++
			if def.Kind == KindShield {
				existing.shieldRemaining += def.BaseValue * existing.Intensity
			}
			e.emit(Event{
				Kind:           EventStacked,
				EffectID:       def.ID,
				EffectKind:     def.Kind,
				InstanceID:     existing.ID,
				Stacks:         existing.Stacks,
				RemainingTurns: existing.RemainingTurns,
			})
			return true
		}
		// Unstackable or already at cap: fall back to a duration refresh.
		existing.RemainingTurns = duration
	}

	e.emit(Event{
		Kind:           EventRefreshed,
		EffectID:       def.ID,
		EffectKind:     def.Kind,
		InstanceID:     existing.ID,
		Stacks:         existing.Stacks,
		RemainingTurns: existing.RemainingTurns,
	})
	return true
}

// applyStatMod derives and applies the definition's stat modifier, keyed so
// that instance removal revokes it.
func (e *Engine) applyStatMod(inst *Instance) {
	statType, err := inst.Def.StatMod.StatType()
	if err != nil {
		e.logger.Warn("status stat modifier skipped", zap.Error(err))
		return
	}
	op, err := inst.Def.StatMod.Operation()
	if err != nil {
		e.logger.Warn("status stat modifier skipped", zap.Error(err))
		return
	}
	e.owner.Stats().AddModifier(statType, stat.Modifier{
		Value:         inst.Def.StatMod.Value * inst.Intensity,
		Op:            op,
		Priority:      inst.Def.StatMod.Priority,
		Source:        modifierSource(inst),
		DurationTurns: -1, // expiry is owned by the effect instance
	})
}

// modifierSource is the resolver source key tying a stat modifier to its
// effect instance.
func modifierSource(inst *Instance) string {
	return "status:" + inst.ID
}

// remove unregisters inst from all indexes, revokes its derived stat
// modifier, and emits an event of the given kind.
func (e *Engine) remove(inst *Instance, kind EventKind) {
	for i, a := range e.active {
		if a == inst {
			e.active = append(e.active[:i], e.active[i+1:]...)
			break
		}
	}
	byKind := e.byKind[inst.Def.Kind]
	for i, a := range byKind {
		if a == inst {
			e.byKind[inst.Def.Kind] = append(byKind[:i], byKind[i+1:]...)
			break
		}
	}
	delete(e.byID, inst.ID)

	if inst.Def.StatMod != nil {
		e.owner.Stats().RemoveBySource(modifierSource(inst))
	}

	e.emit(Event{
		Kind:       kind,
		EffectID:   inst.Def.ID,
		EffectKind: inst.Def.Kind,
		InstanceID: inst.ID,
		Stacks:     inst.Stacks,
	})
}

// ProcessTurnStart runs start-of-turn bookkeeping and reports whether the
// owner is prevented from acting this turn (stunned or frozen).
func (e *Engine) ProcessTurnStart() bool {
	stunned := e.HasKind(KindStun) || e.HasKind(KindFreeze)
	if stunned {
		e.emit(Event{Kind: EventStunned})
	}
	return stunned
}

// ProcessTurnEnd applies tick effects, decrements remaining turns, and
// removes expired instances (revoking their stat modifiers).
//
// Tick amounts are round(value × intensity × stacks). Poison, burn, and
// bleed damage the owner; regeneration heals.
func (e *Engine) ProcessTurnEnd() {
	// Snapshot: ticks and expiry mutate the active list.
	snapshot := make([]*Instance, len(e.active))
	copy(snapshot, e.active)

	for _, inst := range snapshot {
		if _, still := e.byID[inst.ID]; !still {
			continue
		}
		amount := int(math.Round(inst.Def.BaseValue * inst.Intensity * float64(inst.Stacks)))
		switch inst.Def.Kind {
		case KindPoison, KindBurn, KindBleed:
			if amount > 0 {
				e.owner.TakeDamage(amount)
				e.emit(Event{
					Kind:       EventTicked,
					EffectID:   inst.Def.ID,
					EffectKind: inst.Def.Kind,
					InstanceID: inst.ID,
					Stacks:     inst.Stacks,
					Amount:     amount,
				})
			}
		case KindRegeneration:
			if amount > 0 {
				e.owner.Heal(amount)
				e.emit(Event{
					Kind:       EventTicked,
					EffectID:   inst.Def.ID,
					EffectKind: inst.Def.Kind,
					InstanceID: inst.ID,
					Stacks:     inst.Stacks,
					Amount:     amount,
				})
			}
		}

		inst.RemainingTurns--
		if inst.RemainingTurns <= 0 {
			e.remove(inst, EventRemoved)
		}
	}
}

// ModifyOutgoingDamage folds the owner's outgoing-damage effects into base.
// Attack boosts multiply up, weakness multiplies down, berserk is a fixed
// ×1.5. The result is floored at 0.
func (e *Engine) ModifyOutgoingDamage(base float64) float64 {
	dmg := base
	for _, inst := range e.active {
		v := inst.Def.BaseValue * inst.Intensity * float64(inst.Stacks)
		switch inst.Def.Kind {
		case KindAttackBoost:
			dmg *= 1 + v/100
		case KindWeakness:
			dmg *= 1 - v/100
		case KindBerserk:
			dmg *= 1.5
		}
	}
	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// ModifyIncomingDamage folds the owner's incoming-damage effects into base.
// Invulnerability zeroes the hit outright. Defense boosts reduce, defense
// reduction and vulnerability increase, burn adds 10% per stack, freeze adds
// a fixed 30%. Shields then absorb up to their stored value, consuming
// stacks or breaking entirely. The result is floored at 0.
func (e *Engine) ModifyIncomingDamage(base float64) float64 {
	if e.HasKind(KindInvulnerability) {
		return 0
	}

	dmg := base
	for _, inst := range e.active {
		v := inst.Def.BaseValue * inst.Intensity * float64(inst.Stacks)
		switch inst.Def.Kind {
		case KindDefenseBoost:
			dmg *= 1 - v/100
		case KindDefenseReduction, KindVulnerability:
			dmg *= 1 + v/100
		case KindBurn:
			dmg *= 1 + 0.10*float64(inst.Stacks)
		case KindFreeze:
			dmg *= 1.30
		}
	}

	if shield := e.FindByKind(KindShield); shield != nil && dmg > 0 {
		absorbed := math.Min(shield.shieldRemaining, dmg)
		dmg -= absorbed
		shield.shieldRemaining -= absorbed
		if shield.shieldRemaining <= 0 {
			e.remove(shield, EventShieldBroken)
		} else {
			perStack := shield.Def.BaseValue * shield.Intensity
			if perStack > 0 {
				stacks := int(math.Ceil(shield.shieldRemaining / perStack))
				if stacks < 1 {
					stacks = 1
				}
				shield.Stacks = stacks
			}
			e.emit(Event{
				Kind:       EventTicked,
				EffectID:   shield.Def.ID,
				EffectKind: KindShield,
				InstanceID: shield.ID,
				Stacks:     shield.Stacks,
				Amount:     int(math.Round(absorbed)),
			})
		}
	}

	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// HasKind reports whether any instance of kind is active.
func (e *Engine) HasKind(kind Kind) bool {
	return len(e.byKind[kind]) > 0
}

// HasCategory reports whether any active effect belongs to category.
func (e *Engine) HasCategory(category Category) bool {
	for _, inst := range e.active {
		if inst.Def.Category == category {
			return true
		}
	}
	return false
}

// FindByKind returns the first active instance of kind, or nil.
func (e *Engine) FindByKind(kind Kind) *Instance {
	if list := e.byKind[kind]; len(list) > 0 {
		return list[0]
	}
	return nil
}

// FindByID returns the instance with the given id, or nil.
func (e *Engine) FindByID(id string) *Instance {
	return e.byID[id]
}

// StackCount returns the stack count of the first active instance of kind,
// or 0 if none is active.
func (e *Engine) StackCount(kind Kind) int {
	if inst := e.FindByKind(kind); inst != nil {
		return inst.Stacks
	}
	return 0
}

// ActiveCount returns the number of active instances.
func (e *Engine) ActiveCount() int { return len(e.active) }

// ClearAll removes every active effect except those flagged to persist
// through death, revoking derived stat modifiers.
func (e *Engine) ClearAll() {
	snapshot := make([]*Instance, len(e.active))
	copy(snapshot, e.active)
	for _, inst := range snapshot {
		if inst.Def.PersistsThroughDeath {
			continue
		}
		e.remove(inst, EventRemoved)
	}
}

// DispelAll removes only dispellable effects.
func (e *Engine) DispelAll() {
	snapshot := make([]*Instance, len(e.active))
	copy(snapshot, e.active)
	for _, inst := range snapshot {
		if !inst.Def.Dispellable {
			continue
		}
		e.remove(inst, EventDispelled)
	}
}

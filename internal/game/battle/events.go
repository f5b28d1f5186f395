// Package battle implements the top-level battle orchestration: the
// turn/phase state machine, the skill-execution pipeline, and the
// notification surface exposed to UI/logging collaborators.
package battle

import (
	"github.com/hexforge/battlecore/internal/game/status"
)

// State is the battle phase. Exactly one value is current per battle.
type State int

const (
	NotStarted State = iota
	PlayerTurn
	PlayerSkillReroll
	EnemyTurn
	Resolving
	BattleEnd
)

// String returns the human-readable name of the State.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case PlayerTurn:
		return "player_turn"
	case PlayerSkillReroll:
		return "player_skill_reroll"
	case EnemyTurn:
		return "enemy_turn"
	case Resolving:
		return "resolving"
	case BattleEnd:
		return "battle_end"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a battle.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
	OutcomeDraw
)

// String returns the human-readable name of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeDraw:
		return "draw"
	default:
		return "none"
	}
}

// Event is one fire-and-forget notification. The core does not depend on
// whether anything is listening.
type Event interface {
	eventName() string
}

// StateChangedEvent reports a battle-phase transition.
type StateChangedEvent struct {
	From State
	To   State
}

func (StateChangedEvent) eventName() string { return "state_changed" }

// TurnChangedEvent reports a new turn beginning for a side.
type TurnChangedEvent struct {
	Turn  int
	State State
}

func (TurnChangedEvent) eventName() string { return "turn_changed" }

// APChangedEvent reports a change to the player side's action-point pool.
type APChangedEvent struct {
	Current int
	Max     int
}

func (APChangedEvent) eventName() string { return "ap_changed" }

// ActionResultEvent reports one executed skill with its per-target payload.
// The arrays are parallel and position-agnostic: observers match entries by
// index, not by roster position.
type ActionResultEvent struct {
	Actor    string
	SkillID  string
	Targets  []string
	Amounts  []int
	Critical []bool
	Healing  bool
}

func (ActionResultEvent) eventName() string { return "action_result" }

// ActorDiedEvent reports a death.
type ActorDiedEvent struct {
	Actor string
}

func (ActorDiedEvent) eventName() string { return "actor_died" }

// StatusEvent wraps a status-effect notification
// (applied/refreshed/stacked/removed/resisted/dispelled/shield-broken).
type StatusEvent struct {
	status.Event
}

func (StatusEvent) eventName() string { return "status" }

// StatChangedEvent reports a derived-stat change on an actor.
type StatChangedEvent struct {
	Actor string
	Stat  string
	Old   int
	New   int
}

func (StatChangedEvent) eventName() string { return "stat_changed" }

// BattleEndedEvent reports the terminal outcome.
type BattleEndedEvent struct {
	Outcome Outcome
	Turn    int
}

func (BattleEndedEvent) eventName() string { return "battle_ended" }

// Subscriber receives published events.
type Subscriber func(Event)

type subscription struct {
	id int
	fn Subscriber
}

// Bus is a callback-list event channel with an explicit unsubscribe
// contract. It is driven only by the orchestrator's thread of control and
// is not safe for concurrent use.
type Bus struct {
	subs   []subscription
	nextID int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{nextID: 1}
}

// Subscribe registers fn and returns an id for Unsubscribe.
func (b *Bus) Subscribe(fn Subscriber) int {
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes the subscription with the given id. Unknown ids are
// a no-op.
func (b *Bus) Unsubscribe(id int) {
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every subscriber in registration order.
// A snapshot is taken first so subscribers may unsubscribe during delivery.
func (b *Bus) Publish(ev Event) {
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	for _, s := range snapshot {
		s.fn(ev)
	}
}

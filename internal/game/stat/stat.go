// Package stat implements the layered stat-modifier resolver.
// A derived stat starts from an actor's base value and folds an ordered
// set of modifiers over it; application order is strictly by operation
// rank, then priority.
package stat

// Type identifies one derived stat.
type Type int

const (
	Attack Type = iota
	Defense
	Magic
	Speed
	CritChance // stored as an integer percentage, e.g. 15 = 15%
)

// String returns the human-readable name of the stat Type.
func (t Type) String() string {
	switch t {
	case Attack:
		return "attack"
	case Defense:
		return "defense"
	case Magic:
		return "magic"
	case Speed:
		return "speed"
	case CritChance:
		return "crit_chance"
	default:
		return "unknown"
	}
}

// Operation identifies how a modifier combines with the running total.
// The declaration order is the application rank: all BaseAddition
// modifiers apply before any PercentageBonus, and so on.
type Operation int

const (
	BaseAddition   Operation = iota // running += value
	PercentageBonus                 // running *= 1 + value/100
	Multiplicative                  // running *= value
	FinalOverride                   // running = value
)

// String returns the human-readable name of the Operation.
func (o Operation) String() string {
	switch o {
	case BaseAddition:
		return "base_addition"
	case PercentageBonus:
		return "percentage_bonus"
	case Multiplicative:
		return "multiplicative"
	case FinalOverride:
		return "final_override"
	default:
		return "unknown"
	}
}

// Modifier is one layered adjustment to a derived stat.
//
// Invariant: two modifiers with equal Operation are ordered by Priority;
// equal (Operation, Priority) pairs keep insertion order.
type Modifier struct {
	Value float64
	Op    Operation
	// Priority orders modifiers within the same Operation rank; lower first.
	Priority int
	// Source identifies who granted the modifier; RemoveBySource revokes by it.
	Source string
	// DurationTurns is the remaining turn count; -1 means until revoked.
	DurationTurns int
}

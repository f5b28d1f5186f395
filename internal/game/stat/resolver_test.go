package stat_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/hexforge/battlecore/internal/game/stat"
)

func newResolver() *stat.Resolver {
	return stat.NewResolver(map[stat.Type]int{
		stat.Attack:  100,
		stat.Defense: 50,
	})
}

// TestFinalStat_NoModifiers: base value is returned unchanged.
func TestFinalStat_NoModifiers(t *testing.T) {
	r := newResolver()
	if got := r.FinalStat(stat.Attack); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
	if got := r.FinalStat(stat.Magic); got != 0 {
		t.Errorf("expected 0 for unset stat, got %d", got)
	}
}

// TestFinalStat_OperationOrder: a PercentageBonus inserted before a
// BaseAddition still applies after it. Base 100, +10 base, +20% → 132.
func TestFinalStat_OperationOrder(t *testing.T) {
	r := newResolver()
	if !r.AddModifier(stat.Attack, stat.Modifier{Value: 20, Op: stat.PercentageBonus, Source: "ring", DurationTurns: -1}) {
		t.Fatal("AddModifier ring failed")
	}
	if !r.AddModifier(stat.Attack, stat.Modifier{Value: 10, Op: stat.BaseAddition, Source: "sword", DurationTurns: -1}) {
		t.Fatal("AddModifier sword failed")
	}
	if got := r.FinalStat(stat.Attack); got != 132 {
		t.Errorf("expected 132, got %d", got)
	}
}

// TestFinalStat_FinalOverride: FinalOverride replaces the running total
// regardless of earlier modifiers.
func TestFinalStat_FinalOverride(t *testing.T) {
	r := newResolver()
	r.AddModifier(stat.Attack, stat.Modifier{Value: 50, Op: stat.BaseAddition, Source: "a", DurationTurns: -1})
	r.AddModifier(stat.Attack, stat.Modifier{Value: 7, Op: stat.FinalOverride, Source: "curse", DurationTurns: -1})
	if got := r.FinalStat(stat.Attack); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

// TestFinalStat_Multiplicative: multiplies the running total.
func TestFinalStat_Multiplicative(t *testing.T) {
	r := newResolver()
	r.AddModifier(stat.Defense, stat.Modifier{Value: 1.5, Op: stat.Multiplicative, Source: "stance", DurationTurns: -1})
	if got := r.FinalStat(stat.Defense); got != 75 {
		t.Errorf("expected 75, got %d", got)
	}
}

// TestAddModifier_DuplicateSourceRejected: same source may not apply twice
// to the same stat without an explicit remove.
func TestAddModifier_DuplicateSourceRejected(t *testing.T) {
	r := newResolver()
	m := stat.Modifier{Value: 10, Op: stat.BaseAddition, Source: "blessing", DurationTurns: -1}
	if !r.AddModifier(stat.Attack, m) {
		t.Fatal("first AddModifier failed")
	}
	if r.AddModifier(stat.Attack, m) {
		t.Error("duplicate source should be rejected")
	}
	if got := r.FinalStat(stat.Attack); got != 110 {
		t.Errorf("expected 110, got %d", got)
	}

	r.RemoveBySource("blessing")
	if got := r.FinalStat(stat.Attack); got != 100 {
		t.Errorf("expected 100 after remove, got %d", got)
	}
	if !r.AddModifier(stat.Attack, m) {
		t.Error("re-add after remove should succeed")
	}
}

// TestSetListener_NotifiesOldAndNew: the listener receives the old and new
// values on add and on remove.
func TestSetListener_NotifiesOldAndNew(t *testing.T) {
	r := newResolver()
	type change struct{ old, new int }
	var changes []change
	r.SetListener(func(tp stat.Type, oldValue, newValue int) {
		if tp == stat.Attack {
			changes = append(changes, change{oldValue, newValue})
		}
	})

	r.AddModifier(stat.Attack, stat.Modifier{Value: 25, Op: stat.BaseAddition, Source: "buff", DurationTurns: -1})
	r.RemoveBySource("buff")

	if len(changes) != 2 {
		t.Fatalf("expected 2 change notifications, got %d", len(changes))
	}
	if changes[0].old != 100 || changes[0].new != 125 {
		t.Errorf("add change: expected 100→125, got %d→%d", changes[0].old, changes[0].new)
	}
	if changes[1].old != 125 || changes[1].new != 100 {
		t.Errorf("remove change: expected 125→100, got %d→%d", changes[1].old, changes[1].new)
	}
}

// TestSetListener_ReplacesPrevious: installing a second listener replaces
// the first, so repeated wiring never multiplies notifications.
func TestSetListener_ReplacesPrevious(t *testing.T) {
	r := newResolver()
	var first, second int
	r.SetListener(func(stat.Type, int, int) { first++ })
	r.SetListener(func(stat.Type, int, int) { second++ })

	r.AddModifier(stat.Attack, stat.Modifier{Value: 10, Op: stat.BaseAddition, Source: "buff", DurationTurns: -1})

	if first != 0 {
		t.Errorf("replaced listener ran %d times, want 0", first)
	}
	if second != 1 {
		t.Errorf("active listener ran %d times, want 1", second)
	}

	r.SetListener(nil)
	r.RemoveBySource("buff") // must not panic with a nil listener
}

// TestTickDurations_ExpiresTimedModifiers: a 2-turn modifier survives one
// tick and is removed on the second; permanent modifiers are untouched.
func TestTickDurations_ExpiresTimedModifiers(t *testing.T) {
	r := newResolver()
	r.AddModifier(stat.Attack, stat.Modifier{Value: 10, Op: stat.BaseAddition, Source: "temp", DurationTurns: 2})
	r.AddModifier(stat.Attack, stat.Modifier{Value: 5, Op: stat.BaseAddition, Source: "perm", DurationTurns: -1})

	if expired := r.TickDurations(); len(expired) != 0 {
		t.Fatalf("expected no expiry on first tick, got %v", expired)
	}
	if got := r.FinalStat(stat.Attack); got != 115 {
		t.Errorf("expected 115 after first tick, got %d", got)
	}

	expired := r.TickDurations()
	if len(expired) != 1 || expired[0] != "temp" {
		t.Fatalf("expected [temp] expired, got %v", expired)
	}
	if got := r.FinalStat(stat.Attack); got != 105 {
		t.Errorf("expected 105 after expiry, got %d", got)
	}
}

// TestPropertyFinalStat_InsertionOrderIrrelevant: for any pair of modifiers,
// the derived value is independent of insertion order.
func TestPropertyFinalStat_InsertionOrderIrrelevant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(1, 500).Draw(rt, "base")
		add := rapid.IntRange(-50, 50).Draw(rt, "add")
		pct := rapid.IntRange(-50, 100).Draw(rt, "pct")

		m1 := stat.Modifier{Value: float64(add), Op: stat.BaseAddition, Source: "m1", DurationTurns: -1}
		m2 := stat.Modifier{Value: float64(pct), Op: stat.PercentageBonus, Source: "m2", DurationTurns: -1}

		a := stat.NewResolver(map[stat.Type]int{stat.Attack: base})
		a.AddModifier(stat.Attack, m1)
		a.AddModifier(stat.Attack, m2)

		b := stat.NewResolver(map[stat.Type]int{stat.Attack: base})
		b.AddModifier(stat.Attack, m2)
		b.AddModifier(stat.Attack, m1)

		if a.FinalStat(stat.Attack) != b.FinalStat(stat.Attack) {
			rt.Errorf("order-dependent result: %d vs %d", a.FinalStat(stat.Attack), b.FinalStat(stat.Attack))
		}
	})
}

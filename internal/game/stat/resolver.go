package stat

import (
	"math"
	"sort"
)

// ChangeListener is notified after a mutation changes any derived stat.
type ChangeListener func(t Type, oldValue, newValue int)

// Resolver computes derived stats for one actor from base values plus an
// ordered per-stat modifier collection. It is not safe for concurrent use;
// the owning actor serialises access.
type Resolver struct {
	base      map[Type]int
	modifiers map[Type][]Modifier
	listener  ChangeListener
}

// NewResolver creates a Resolver seeded with the given base values.
// Missing stats default to base 0.
//
// Postcondition: FinalStat(t) == base[t] for every t until a modifier is added.
func NewResolver(base map[Type]int) *Resolver {
	b := make(map[Type]int, len(base))
	for t, v := range base {
		b[t] = v
	}
	return &Resolver{
		base:      b,
		modifiers: make(map[Type][]Modifier),
	}
}

// SetListener installs the listener invoked after every stat-affecting
// mutation. A second call replaces the first; pass nil to silence
// notifications. Replacement keeps rewiring idempotent across battle
// restarts.
func (r *Resolver) SetListener(l ChangeListener) {
	r.listener = l
}

// Base returns the unmodified base value for t.
func (r *Resolver) Base(t Type) int {
	return r.base[t]
}

// SetBase replaces the base value for t and notifies listeners if the
// derived value changed.
func (r *Resolver) SetBase(t Type, value int) {
	old := r.FinalStat(t)
	r.base[t] = value
	r.notify(t, old)
}

// FinalStat computes the derived value for t: the base value with all
// active modifiers folded in (operation rank, then priority), rounded to
// the nearest integer.
//
// Postcondition: with no modifiers, returns the base value unchanged.
func (r *Resolver) FinalStat(t Type) int {
	base := r.base[t]
	mods := r.modifiers[t]
	if len(mods) == 0 {
		return base
	}

	sorted := make([]Modifier, len(mods))
	copy(sorted, mods)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Op != sorted[j].Op {
			return sorted[i].Op < sorted[j].Op
		}
		return sorted[i].Priority < sorted[j].Priority
	})

	running := float64(base)
	for _, m := range sorted {
		switch m.Op {
		case BaseAddition:
			running += m.Value
		case PercentageBonus:
			// Scales the current running total, not the original base.
			running *= 1 + m.Value/100
		case Multiplicative:
			running *= m.Value
		case FinalOverride:
			running = m.Value
		}
	}
	return int(math.Round(running))
}

// AddModifier attaches m to stat t. A second modifier from the same Source
// on the same stat is rejected; callers must RemoveBySource first.
//
// Postcondition: on true, FinalStat(t) reflects m and listeners were
// notified with the old and new values; on false, state is unchanged.
func (r *Resolver) AddModifier(t Type, m Modifier) bool {
	for _, existing := range r.modifiers[t] {
		if existing.Source == m.Source {
			return false
		}
	}
	old := r.FinalStat(t)
	r.modifiers[t] = append(r.modifiers[t], m)
	r.notify(t, old)
	return true
}

// RemoveBySource revokes every modifier granted by source, across all stats.
//
// Postcondition: no remaining modifier has the given Source; listeners are
// notified once per stat whose derived value changed.
func (r *Resolver) RemoveBySource(source string) {
	for t, mods := range r.modifiers {
		kept := mods[:0]
		removed := false
		old := r.FinalStat(t)
		for _, m := range mods {
			if m.Source == source {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		if removed {
			r.modifiers[t] = kept
			r.notify(t, old)
		}
	}
}

// TickDurations decrements DurationTurns on every timed modifier and
// removes those that reach zero. Modifiers with DurationTurns < 0 are
// untouched. Returns the sources of removed modifiers (deduplicated).
func (r *Resolver) TickDurations() []string {
	seen := make(map[string]struct{})
	var expired []string
	for t, mods := range r.modifiers {
		kept := mods[:0]
		old := r.FinalStat(t)
		changed := false
		for _, m := range mods {
			if m.DurationTurns < 0 {
				kept = append(kept, m)
				continue
			}
			m.DurationTurns--
			if m.DurationTurns <= 0 {
				changed = true
				if _, dup := seen[m.Source]; !dup {
					seen[m.Source] = struct{}{}
					expired = append(expired, m.Source)
				}
				continue
			}
			kept = append(kept, m)
		}
		if changed {
			r.modifiers[t] = kept
			r.notify(t, old)
		} else {
			r.modifiers[t] = kept
		}
	}
	return expired
}

// ModifierCount returns the number of active modifiers on stat t.
func (r *Resolver) ModifierCount(t Type) int {
	return len(r.modifiers[t])
}

func (r *Resolver) notify(t Type, oldValue int) {
	newValue := r.FinalStat(t)
	if newValue == oldValue || r.listener == nil {
		return
	}
	r.listener(t, oldValue, newValue)
}

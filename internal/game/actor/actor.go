// Package actor defines the combat actor: identity, hit points, derived
// stats, an owned status-effect engine, and an owned skill pool.
package actor

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
)

// Actor is one participant in a battle. Created at battle setup and reset
// via PrepareForBattle; not safe for concurrent use.
type Actor struct {
	id        string
	name      string
	maxHP     int
	currentHP int
	alive     bool

	stats    *stat.Resolver
	statusEn *status.Engine

	pool []*skill.Skill
	hand []*skill.Skill // nil means the whole pool is available
}

// New creates an Actor with the given base stats and skill pool, at full HP.
//
// Precondition: maxHP > 0; src and logger must be non-nil.
// Postcondition: IsAlive() is true; Stats() and Status() are non-nil.
func New(name string, maxHP int, base map[stat.Type]int, skills []*skill.Skill, src rng.Source, logger *zap.Logger) *Actor {
	a := &Actor{
		id:        uuid.NewString(),
		name:      name,
		maxHP:     maxHP,
		currentHP: maxHP,
		alive:     true,
		stats:     stat.NewResolver(base),
		pool:      skills,
	}
	a.statusEn = status.NewEngine(a, src, logger.With(zap.String("actor", name)))
	return a
}

// ID returns the actor's unique id.
func (a *Actor) ID() string { return a.id }

// Name returns the actor's display name.
func (a *Actor) Name() string { return a.name }

// IsAlive reports whether the actor can still act and be targeted.
func (a *Actor) IsAlive() bool { return a.alive }

// CurrentHP returns the actor's current hit points.
func (a *Actor) CurrentHP() int { return a.currentHP }

// MaxHP returns the actor's maximum hit points.
func (a *Actor) MaxHP() int { return a.maxHP }

// TakeDamage reduces current HP by amount, flooring at zero. Reaching zero
// marks the actor dead. Negative amounts are ignored.
//
// Postcondition: CurrentHP() >= 0; IsAlive() is false iff CurrentHP() == 0.
func (a *Actor) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	a.currentHP -= amount
	if a.currentHP <= 0 {
		a.currentHP = 0
		a.alive = false
	}
}

// Heal raises current HP by amount, capped at MaxHP. Dead actors and
// non-positive amounts are ignored.
func (a *Actor) Heal(amount int) {
	if amount <= 0 || !a.alive {
		return
	}
	a.currentHP += amount
	if a.currentHP > a.maxHP {
		a.currentHP = a.maxHP
	}
}

// Stats returns the actor's stat resolver.
func (a *Actor) Stats() *stat.Resolver { return a.stats }

// Status returns the actor's status-effect engine.
func (a *Actor) Status() *status.Engine { return a.statusEn }

// ResolvedStat returns the derived value of t with all modifiers applied.
func (a *Actor) ResolvedStat(t stat.Type) int {
	return a.stats.FinalStat(t)
}

// CritChance returns the actor's critical-hit probability in [0, 1],
// derived from the CritChance stat (stored as a percentage).
func (a *Actor) CritChance() float64 {
	c := float64(a.stats.FinalStat(stat.CritChance)) / 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// SkillPool returns the actor's full skill pool.
func (a *Actor) SkillPool() []*skill.Skill { return a.pool }

// AvailableSkills returns the skills the actor can currently use: the drawn
// hand when one exists, otherwise the whole pool.
func (a *Actor) AvailableSkills() []*skill.Skill {
	if a.hand != nil {
		return a.hand
	}
	return a.pool
}

// DrawHand draws n skills from the pool uniformly without replacement.
// Drawing n >= len(pool) makes the whole pool available.
//
// Precondition: src must be non-nil; n > 0.
func (a *Actor) DrawHand(src rng.Source, n int) {
	if n >= len(a.pool) {
		a.hand = a.pool
		return
	}
	indexes := make([]int, len(a.pool))
	for i := range indexes {
		indexes[i] = i
	}
	// Partial Fisher-Yates: only the first n positions are needed.
	for i := 0; i < n; i++ {
		j := i + src.Intn(len(indexes)-i)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	hand := make([]*skill.Skill, n)
	for i := 0; i < n; i++ {
		hand[i] = a.pool[indexes[i]]
	}
	a.hand = hand
}

// RerollHand redraws the current hand with the same size. A no-op when no
// hand has been drawn.
func (a *Actor) RerollHand(src rng.Source) {
	if a.hand == nil || len(a.hand) >= len(a.pool) {
		return
	}
	a.DrawHand(src, len(a.hand))
}

// PrepareForBattle restores full HP, revives the actor, clears status
// effects (except those that persist through death), and discards any
// drawn hand.
func (a *Actor) PrepareForBattle() {
	a.currentHP = a.maxHP
	a.alive = true
	a.hand = nil
	a.statusEn.ClearAll()
}

package ai

import (
	"sync"

	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/skill"
)

// Action is one decided action for a computer-controlled actor. Actions are
// drawn from a fixed-capacity pool, cleared and reused; callers must release
// every action (including invalid ones) exactly once.
type Action struct {
	Actor         *actor.Actor
	Skill         *skill.Skill
	PrimaryTarget *actor.Actor
	Targets       []*actor.Actor
	UtilityScore  float64
	// Breakdown maps scorer names to their weighted contributions.
	Breakdown map[string]float64
	Reason    string

	leased bool
}

// Valid reports whether the action names both a skill and at least one target.
func (a *Action) Valid() bool {
	return a != nil && a.Skill != nil && len(a.Targets) > 0
}

func (a *Action) reset() {
	a.Actor = nil
	a.Skill = nil
	a.PrimaryTarget = nil
	a.Targets = a.Targets[:0]
	a.UtilityScore = 0
	a.Reason = ""
	for k := range a.Breakdown {
		delete(a.Breakdown, k)
	}
}

// ActionPool is a fixed-capacity pool of reusable Actions. It is guarded by
// a mutex even though the primary design is single-threaded, so a future
// multi-threaded evaluator can share it safely.
//
// Invariant: TotalCount() == ActiveCount() + InactiveCount() across any
// sequence of Get/Release calls.
type ActionPool struct {
	mu     sync.Mutex
	free   []*Action
	total  int
	active int
}

// NewActionPool creates a pool with exactly capacity preallocated actions.
//
// Precondition: capacity > 0.
func NewActionPool(capacity int) *ActionPool {
	p := &ActionPool{
		free:  make([]*Action, 0, capacity),
		total: capacity,
	}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, &Action{
			Targets:   make([]*actor.Actor, 0, 8),
			Breakdown: make(map[string]float64),
		})
	}
	return p
}

// Get leases an action from the pool. Returns (nil, false) when the pool is
// exhausted; callers treat that as "no action available".
func (p *ActionPool) Get() (*Action, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return nil, false
	}
	a := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	a.leased = true
	p.active++
	return a, true
}

// Release clears a and returns it to the pool. Releasing nil or an action
// that is not currently leased is a no-op, so double-release cannot corrupt
// the pool's accounting.
func (p *ActionPool) Release(a *Action) {
	if a == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !a.leased {
		return
	}
	a.leased = false
	a.reset()
	p.free = append(p.free, a)
	p.active--
}

// TotalCount returns the fixed pool capacity.
func (p *ActionPool) TotalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// ActiveCount returns the number of currently leased actions.
func (p *ActionPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// InactiveCount returns the number of actions available for lease.
func (p *ActionPool) InactiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

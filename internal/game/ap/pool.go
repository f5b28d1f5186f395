// Package ap implements the shared per-turn action-point pool.
// One pool serves one side of the battle; only the player side uses it.
package ap

// AP formula constants: max = max(MinimumAP, BaseAP + aliveCount).
const (
	BaseAP    = 1
	MinimumAP = 2
)

// ChangeListener is notified after every change to current or max.
type ChangeListener func(current, max int)

// Pool tracks the action points available to one side for the current turn.
//
// Invariant: 0 <= current <= max at all times.
type Pool struct {
	base      int
	minimum   int
	current   int
	max       int
	listeners []ChangeListener
}

// NewPool creates an empty Pool with the default formula constants; call
// ResetForTurn before consuming.
func NewPool() *Pool {
	return &Pool{base: BaseAP, minimum: MinimumAP}
}

// NewPoolSized creates a Pool with custom formula constants, read from
// configuration at construction time.
//
// Precondition: base >= 0 and minimum >= 1.
func NewPoolSized(base, minimum int) *Pool {
	return &Pool{base: base, minimum: minimum}
}

// OnChange registers a listener invoked after every mutation.
func (p *Pool) OnChange(l ChangeListener) {
	p.listeners = append(p.listeners, l)
}

// Current returns the remaining action points.
func (p *Pool) Current() int { return p.current }

// Max returns this turn's action-point budget.
func (p *Pool) Max() int { return p.max }

// ResetForTurn sizes the pool for a side with aliveCount living members and
// refills it.
//
// Postcondition: Max() == max(MinimumAP, BaseAP+aliveCount) and
// Current() == Max().
func (p *Pool) ResetForTurn(aliveCount int) {
	max := p.base + aliveCount
	if max < p.minimum {
		max = p.minimum
	}
	p.max = max
	p.current = max
	p.notify()
}

// Consume spends n points. It fails without state change when n <= 0 or
// fewer than n points remain.
//
// Postcondition: on true, Current() decreased by exactly n; on false,
// state is unchanged.
func (p *Pool) Consume(n int) bool {
	if n <= 0 || p.current < n {
		return false
	}
	p.current -= n
	p.notify()
	return true
}

// Grant returns n points to the pool (refunded or cancelled actions),
// capped at Max. Non-positive n is ignored.
func (p *Pool) Grant(n int) {
	if n <= 0 {
		return
	}
	p.current += n
	if p.current > p.max {
		p.current = p.max
	}
	p.notify()
}

// HasEnough reports whether n points can be consumed right now.
func (p *Pool) HasEnough(n int) bool {
	return n > 0 && p.current >= n
}

func (p *Pool) notify() {
	for _, l := range p.listeners {
		l(p.current, p.max)
	}
}

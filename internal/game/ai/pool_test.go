package ai

import (
	"testing"

	"pgregory.net/rapid"
)

func TestActionPoolGetRelease(t *testing.T) {
	p := NewActionPool(2)
	if p.TotalCount() != 2 || p.InactiveCount() != 2 || p.ActiveCount() != 0 {
		t.Fatalf("fresh pool counts = %d/%d/%d", p.TotalCount(), p.ActiveCount(), p.InactiveCount())
	}

	a, ok := p.Get()
	if !ok || a == nil {
		t.Fatal("Get failed on fresh pool")
	}
	if p.ActiveCount() != 1 || p.InactiveCount() != 1 {
		t.Fatalf("after Get: active=%d inactive=%d", p.ActiveCount(), p.InactiveCount())
	}

	p.Release(a)
	if p.ActiveCount() != 0 || p.InactiveCount() != 2 {
		t.Fatalf("after Release: active=%d inactive=%d", p.ActiveCount(), p.InactiveCount())
	}
}

func TestActionPoolExhaustion(t *testing.T) {
	p := NewActionPool(1)
	a, _ := p.Get()
	if _, ok := p.Get(); ok {
		t.Fatal("Get succeeded on an exhausted pool")
	}
	p.Release(a)
	if _, ok := p.Get(); !ok {
		t.Fatal("Get failed after a release")
	}
}

func TestActionPoolDoubleReleaseIsNoOp(t *testing.T) {
	p := NewActionPool(2)
	a, _ := p.Get()
	p.Release(a)
	p.Release(a)
	p.Release(nil)
	if p.ActiveCount() != 0 || p.InactiveCount() != 2 {
		t.Fatalf("double release corrupted counts: active=%d inactive=%d",
			p.ActiveCount(), p.InactiveCount())
	}
}

func TestActionResetOnRelease(t *testing.T) {
	p := NewActionPool(1)
	a, _ := p.Get()
	a.UtilityScore = 42
	a.Reason = "best utility"
	a.Breakdown["x"] = 1
	p.Release(a)

	b, _ := p.Get()
	if b.UtilityScore != 0 || b.Reason != "" || len(b.Breakdown) != 0 || len(b.Targets) != 0 {
		t.Fatal("released action not cleared before reuse")
	}
}

// Conservation: total == active + inactive under any Get/Release sequence.
func TestActionPoolConservationRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 16).Draw(t, "capacity")
		p := NewActionPool(capacity)
		var leased []*Action

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "get") {
				if a, ok := p.Get(); ok {
					leased = append(leased, a)
				}
			} else if len(leased) > 0 {
				idx := rapid.IntRange(0, len(leased)-1).Draw(t, "idx")
				p.Release(leased[idx])
				leased = append(leased[:idx], leased[idx+1:]...)
			}

			if p.TotalCount() != p.ActiveCount()+p.InactiveCount() {
				t.Fatalf("conservation violated: total=%d active=%d inactive=%d",
					p.TotalCount(), p.ActiveCount(), p.InactiveCount())
			}
			if p.ActiveCount() != len(leased) {
				t.Fatalf("active=%d but %d leased", p.ActiveCount(), len(leased))
			}
		}
	})
}

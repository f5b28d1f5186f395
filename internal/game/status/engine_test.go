package status

import (
	"testing"

	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/stat"
)

// fakeOwner is a minimal Owner for engine tests.
type fakeOwner struct {
	name  string
	hp    int
	maxHP int
	stats *stat.Resolver
}

func newFakeOwner(hp int, defense int) *fakeOwner {
	return &fakeOwner{
		name:  "subject",
		hp:    hp,
		maxHP: hp,
		stats: stat.NewResolver(map[stat.Type]int{stat.Defense: defense}),
	}
}

func (o *fakeOwner) Name() string          { return o.name }
func (o *fakeOwner) IsAlive() bool         { return o.hp > 0 }
func (o *fakeOwner) Stats() *stat.Resolver { return o.stats }

func (o *fakeOwner) TakeDamage(amount int) {
	o.hp -= amount
	if o.hp < 0 {
		o.hp = 0
	}
}

func (o *fakeOwner) Heal(amount int) {
	o.hp += amount
	if o.hp > o.maxHP {
		o.hp = o.maxHP
	}
}

// fixedSrc returns queued floats, then 0.99 (never resists, never crits).
type fixedSrc struct {
	floats []float64
}

func (f *fixedSrc) Float64() float64 {
	if len(f.floats) == 0 {
		return 0.99
	}
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}

func (f *fixedSrc) Intn(n int) int { return 0 }

func newTestEngine(hp, defense int) (*Engine, *fakeOwner) {
	owner := newFakeOwner(hp, defense)
	return NewEngine(owner, &fixedSrc{}, zap.NewNop()), owner
}

func poisonDef() *EffectDef {
	return &EffectDef{
		ID: "poison", Kind: KindPoison, Category: CategoryDamageOverTime,
		Policy: PolicyAddStack, MaxStacks: 5, BaseValue: 5, DurationTurns: 3,
		Dispellable: true,
	}
}

func TestApplyRegistersInstance(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	if !e.Apply(poisonDef(), "attacker", "dart", 1.0, 0) {
		t.Fatal("Apply returned false")
	}
	if !e.HasKind(KindPoison) {
		t.Fatal("poison not active")
	}
	if e.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", e.ActiveCount())
	}
	inst := e.FindByKind(KindPoison)
	if inst.RemainingTurns != 3 || inst.Stacks != 1 {
		t.Fatalf("instance = %d turns / %d stacks, want 3/1", inst.RemainingTurns, inst.Stacks)
	}
	if e.FindByID(inst.ID) != inst {
		t.Fatal("FindByID does not return the instance")
	}
}

func TestApplyRejectsNonPositiveDuration(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	def := poisonDef()
	def.DurationTurns = 0
	if e.Apply(def, "attacker", "dart", 1.0, 0) {
		t.Fatal("Apply accepted zero duration")
	}
	if e.ActiveCount() != 0 {
		t.Fatal("rejected apply left state behind")
	}
}

func TestApplyCustomDurationOverrides(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	e.Apply(poisonDef(), "attacker", "dart", 1.0, 7)
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 7 {
		t.Fatalf("RemainingTurns = %d, want 7", got)
	}
}

func TestApplyResistanceRoll(t *testing.T) {
	def := poisonDef()
	def.BaseResistance = 40

	owner := newFakeOwner(100, 0)
	// First roll 0.30 (30 < 40: resist), second 0.50 (50 >= 40: lands).
	e := NewEngine(owner, &fixedSrc{floats: []float64{0.30, 0.50}}, zap.NewNop())

	var resisted bool
	e.SetNotifier(func(ev Event) {
		if ev.Kind == EventResisted {
			resisted = true
		}
	})

	if e.Apply(def, "attacker", "dart", 1.0, 0) {
		t.Fatal("first apply should have been resisted")
	}
	if !resisted {
		t.Fatal("no EventResisted emitted")
	}
	if !e.Apply(def, "attacker", "dart", 1.0, 0) {
		t.Fatal("second apply should have landed")
	}
}

func TestCrowdControlResistanceGetsDefenseBonus(t *testing.T) {
	stun := &EffectDef{
		ID: "stun", Kind: KindStun, Category: CategoryCrowdControl,
		Policy: PolicyRefreshDuration, DurationTurns: 1, BaseResistance: 10,
	}
	// Defense 80 gives +20 resistance: total 30. A roll of 0.25 resists.
	owner := newFakeOwner(100, 80)
	e := NewEngine(owner, &fixedSrc{floats: []float64{0.25}}, zap.NewNop())
	if e.Apply(stun, "attacker", "bash", 1.0, 0) {
		t.Fatal("stun should have been resisted by the defense bonus")
	}
}

func TestCrowdControlDefenseBonusCapped(t *testing.T) {
	stun := &EffectDef{
		ID: "stun", Kind: KindStun, Category: CategoryCrowdControl,
		Policy: PolicyRefreshDuration, DurationTurns: 1,
	}
	// Defense 1000 would give +250 uncapped; the cap holds it at 50, so a
	// roll of 0.60 still lands.
	owner := newFakeOwner(100, 1000)
	e := NewEngine(owner, &fixedSrc{floats: []float64{0.60}}, zap.NewNop())
	if !e.Apply(stun, "attacker", "bash", 1.0, 0) {
		t.Fatal("stun should have landed past the capped resistance")
	}
}

func TestPolicyIgnore(t *testing.T) {
	def := poisonDef()
	def.Policy = PolicyIgnore
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	if e.Apply(def, "a", "s", 1.0, 9) {
		t.Fatal("second apply should be ignored")
	}
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 3 {
		t.Fatalf("RemainingTurns = %d, want untouched 3", got)
	}
}

func TestPolicyRefreshDuration(t *testing.T) {
	def := poisonDef()
	def.Policy = PolicyRefreshDuration
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	e.ProcessTurnEnd() // 3 -> 2
	if !e.Apply(def, "a", "s", 1.0, 3) {
		t.Fatal("refresh apply failed")
	}
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 3 {
		t.Fatalf("RemainingTurns = %d, want refreshed 3", got)
	}
	if e.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", e.ActiveCount())
	}
}

func TestPolicyAdditiveDuration(t *testing.T) {
	def := poisonDef()
	def.Policy = PolicyAdditiveDuration
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	e.Apply(def, "a", "s", 1.0, 2)
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 5 {
		t.Fatalf("RemainingTurns = %d, want 3+2=5", got)
	}
}

func TestPolicyMaxDuration(t *testing.T) {
	def := poisonDef()
	def.Policy = PolicyMaxDuration
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	e.Apply(def, "a", "s", 1.0, 2)
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 3 {
		t.Fatalf("RemainingTurns = %d, want max(3,2)=3", got)
	}
	e.Apply(def, "a", "s", 1.0, 6)
	if got := e.FindByKind(KindPoison).RemainingTurns; got != 6 {
		t.Fatalf("RemainingTurns = %d, want max(3,6)=6", got)
	}
}

func TestPolicyAddStackCapsAtMax(t *testing.T) {
	def := poisonDef() // PolicyAddStack, MaxStacks 5
	e, _ := newTestEngine(100, 0)
	for i := 0; i < 8; i++ {
		e.Apply(def, "a", "s", 1.0, 3)
	}
	if got := e.StackCount(KindPoison); got != 5 {
		t.Fatalf("StackCount = %d, want cap 5", got)
	}
	if e.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", e.ActiveCount())
	}
}

func TestPolicyAddStackAtCapRefreshesDuration(t *testing.T) {
	def := poisonDef()
	def.MaxStacks = 1
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	e.ProcessTurnEnd() // tick, 3 -> 2
	e.Apply(def, "a", "s", 1.0, 3)
	inst := e.FindByKind(KindPoison)
	if inst.Stacks != 1 {
		t.Fatalf("Stacks = %d, want 1", inst.Stacks)
	}
	if inst.RemainingTurns != 3 {
		t.Fatalf("RemainingTurns = %d, want refreshed 3", inst.RemainingTurns)
	}
}

func TestPolicyIndependentStacks(t *testing.T) {
	def := poisonDef()
	def.Policy = PolicyIndependentStacks
	e, _ := newTestEngine(100, 0)
	e.Apply(def, "a", "s", 1.0, 3)
	e.Apply(def, "b", "s", 1.0, 2)
	if e.ActiveCount() != 2 {
		t.Fatalf("ActiveCount = %d, want 2 independent instances", e.ActiveCount())
	}
}

func TestProcessTurnEndTicksAndExpires(t *testing.T) {
	e, owner := newTestEngine(100, 0)
	e.Apply(poisonDef(), "a", "s", 1.0, 2) // 5 damage per turn

	e.ProcessTurnEnd()
	if owner.hp != 95 {
		t.Fatalf("hp = %d after first tick, want 95", owner.hp)
	}
	e.ProcessTurnEnd()
	if owner.hp != 90 {
		t.Fatalf("hp = %d after second tick, want 90", owner.hp)
	}
	if e.HasKind(KindPoison) {
		t.Fatal("poison not removed at 0 remaining turns")
	}
}

func TestTickScalesWithStacksAndIntensity(t *testing.T) {
	e, owner := newTestEngine(100, 0)
	def := poisonDef()
	e.Apply(def, "a", "s", 2.0, 3)
	e.Apply(def, "a", "s", 2.0, 3) // stack to 2

	e.ProcessTurnEnd()
	// round(5 * 2.0 intensity * 2 stacks) = 20
	if owner.hp != 80 {
		t.Fatalf("hp = %d, want 80", owner.hp)
	}
}

func TestRegenerationHeals(t *testing.T) {
	e, owner := newTestEngine(100, 0)
	owner.hp = 50
	regen := &EffectDef{
		ID: "regen", Kind: KindRegeneration, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, BaseValue: 8, DurationTurns: 3,
	}
	e.Apply(regen, "a", "s", 1.0, 0)
	e.ProcessTurnEnd()
	if owner.hp != 58 {
		t.Fatalf("hp = %d, want 58", owner.hp)
	}
}

func TestProcessTurnStartReportsStun(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	if e.ProcessTurnStart() {
		t.Fatal("clean actor reported stunned")
	}
	stun := &EffectDef{
		ID: "stun", Kind: KindStun, Category: CategoryCrowdControl,
		Policy: PolicyRefreshDuration, DurationTurns: 1,
	}
	e.Apply(stun, "a", "s", 1.0, 0)

	var stunnedEvent bool
	e.SetNotifier(func(ev Event) {
		if ev.Kind == EventStunned {
			stunnedEvent = true
		}
	})
	if !e.ProcessTurnStart() {
		t.Fatal("stunned actor not reported")
	}
	if !stunnedEvent {
		t.Fatal("no EventStunned emitted")
	}
}

func TestModifyOutgoingDamage(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	boost := &EffectDef{
		ID: "rage", Kind: KindAttackBoost, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, BaseValue: 25, DurationTurns: 3,
	}
	e.Apply(boost, "a", "s", 1.0, 0)
	if got := e.ModifyOutgoingDamage(100); got != 125 {
		t.Fatalf("boosted damage = %v, want 125", got)
	}

	weak := &EffectDef{
		ID: "weak", Kind: KindWeakness, Category: CategoryDebuff,
		Policy: PolicyRefreshDuration, BaseValue: 20, DurationTurns: 3,
	}
	e.Apply(weak, "a", "s", 1.0, 0)
	// 100 * 1.25 * 0.80 = 100
	if got := e.ModifyOutgoingDamage(100); got != 100 {
		t.Fatalf("boosted+weakened damage = %v, want 100", got)
	}
}

func TestModifyIncomingDamageInvulnerability(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	inv := &EffectDef{
		ID: "inv", Kind: KindInvulnerability, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, DurationTurns: 1,
	}
	e.Apply(inv, "a", "s", 1.0, 0)
	if got := e.ModifyIncomingDamage(500); got != 0 {
		t.Fatalf("invulnerable damage = %v, want 0", got)
	}
}

func TestModifyIncomingDamageDefenseBoost(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	guard := &EffectDef{
		ID: "guard", Kind: KindDefenseBoost, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, BaseValue: 30, DurationTurns: 2,
	}
	e.Apply(guard, "a", "s", 1.0, 0)
	if got := e.ModifyIncomingDamage(100); got != 70 {
		t.Fatalf("guarded damage = %v, want 70", got)
	}
}

func TestShieldAbsorbsAndConsumesStacks(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	shield := &EffectDef{
		ID: "shield", Kind: KindShield, Category: CategoryBuff,
		Policy: PolicyAddStack, MaxStacks: 3, BaseValue: 20, DurationTurns: 3,
	}
	e.Apply(shield, "a", "s", 1.0, 0)
	e.Apply(shield, "a", "s", 1.0, 0) // 2 stacks, 40 absorb

	if got := e.ModifyIncomingDamage(25); got != 0 {
		t.Fatalf("shielded damage = %v, want fully absorbed 0", got)
	}
	// 15 absorb left: ceil(15/20) = 1 stack.
	if got := e.StackCount(KindShield); got != 1 {
		t.Fatalf("shield stacks = %d, want 1", got)
	}
}

func TestShieldBreaksAndOverflows(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	shield := &EffectDef{
		ID: "shield", Kind: KindShield, Category: CategoryBuff,
		Policy: PolicyAddStack, MaxStacks: 3, BaseValue: 20, DurationTurns: 3,
	}
	e.Apply(shield, "a", "s", 1.0, 0)

	var broken bool
	e.SetNotifier(func(ev Event) {
		if ev.Kind == EventShieldBroken {
			broken = true
		}
	})
	if got := e.ModifyIncomingDamage(50); got != 30 {
		t.Fatalf("overflow damage = %v, want 30", got)
	}
	if !broken {
		t.Fatal("no EventShieldBroken emitted")
	}
	if e.HasKind(KindShield) {
		t.Fatal("broken shield still active")
	}
}

func TestStatModAppliedAndRevoked(t *testing.T) {
	e, owner := newTestEngine(100, 10)
	buff := &EffectDef{
		ID: "fortify", Kind: KindDefenseBoost, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, DurationTurns: 1,
		StatMod: &StatModDef{Stat: "defense", Op: "base_addition", Value: 15},
	}
	e.Apply(buff, "a", "s", 1.0, 0)
	if got := owner.stats.FinalStat(stat.Defense); got != 25 {
		t.Fatalf("defense = %d with buff, want 25", got)
	}

	e.ProcessTurnEnd() // expires
	if got := owner.stats.FinalStat(stat.Defense); got != 10 {
		t.Fatalf("defense = %d after expiry, want 10", got)
	}
}

func TestStatModScalesWithIntensity(t *testing.T) {
	e, owner := newTestEngine(100, 10)
	buff := &EffectDef{
		ID: "fortify", Kind: KindDefenseBoost, Category: CategoryBuff,
		Policy: PolicyRefreshDuration, DurationTurns: 2,
		StatMod: &StatModDef{Stat: "defense", Op: "base_addition", Value: 10},
	}
	e.Apply(buff, "a", "s", 2.0, 0)
	if got := owner.stats.FinalStat(stat.Defense); got != 30 {
		t.Fatalf("defense = %d, want 10 + 10*2.0 = 30", got)
	}
}

func TestClearAllSkipsPersistent(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	e.Apply(poisonDef(), "a", "s", 1.0, 0)
	curse := &EffectDef{
		ID: "curse", Kind: KindMarked, Category: CategoryDebuff,
		Policy: PolicyRefreshDuration, DurationTurns: 5, PersistsThroughDeath: true,
	}
	e.Apply(curse, "a", "s", 1.0, 0)

	e.ClearAll()
	if e.HasKind(KindPoison) {
		t.Fatal("poison survived ClearAll")
	}
	if !e.HasKind(KindMarked) {
		t.Fatal("persistent effect removed by ClearAll")
	}
}

func TestDispelAllRemovesOnlyDispellable(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	e.Apply(poisonDef(), "a", "s", 1.0, 0) // dispellable
	stun := &EffectDef{
		ID: "stun", Kind: KindStun, Category: CategoryCrowdControl,
		Policy: PolicyRefreshDuration, DurationTurns: 2, Dispellable: false,
	}
	e.Apply(stun, "a", "s", 1.0, 0)

	var dispelled bool
	e.SetNotifier(func(ev Event) {
		if ev.Kind == EventDispelled {
			dispelled = true
		}
	})
	e.DispelAll()
	if e.HasKind(KindPoison) {
		t.Fatal("dispellable poison survived DispelAll")
	}
	if !e.HasKind(KindStun) {
		t.Fatal("non-dispellable stun removed by DispelAll")
	}
	if !dispelled {
		t.Fatal("no EventDispelled emitted")
	}
}

func TestHasCategory(t *testing.T) {
	e, _ := newTestEngine(100, 0)
	e.Apply(poisonDef(), "a", "s", 1.0, 0)
	if !e.HasCategory(CategoryDamageOverTime) {
		t.Fatal("HasCategory(damage_over_time) false")
	}
	if e.HasCategory(CategoryBuff) {
		t.Fatal("HasCategory(buff) true with only poison active")
	}
}

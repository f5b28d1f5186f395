package ai

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/skill"
)

// scriptInstructionLimit caps Lua opcodes per scorer call so a hostile or
// buggy script cannot stall a decision.
const scriptInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's main loop calls Done() once per
// opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func newCountingContext(limit int) context.Context {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}
}

// LuaSkillScorer is a SkillScorer whose scoring function is user-supplied
// Lua. The script must define `score(ctx)` taking a table with actor,
// target, and skill fields and returning a number. Script errors score 0.
//
// The VM is sandboxed: only base/table/string/math are loaded, file and
// load globals are stripped, and execution is opcode-limited.
type LuaSkillScorer struct {
	name   string
	logger *zap.Logger

	mu sync.Mutex
	l  *lua.LState
}

// NewLuaSkillScorer compiles source into a sandboxed VM and verifies it
// defines a global `score` function.
//
// Precondition: logger must be non-nil.
func NewLuaSkillScorer(name, source string, logger *zap.Logger) (*LuaSkillScorer, error) {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(l)
	lua.OpenTable(l)
	lua.OpenString(l)
	lua.OpenMath(l)
	for _, g := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		l.SetGlobal(g, lua.LNil)
	}
	l.SetContext(newCountingContext(scriptInstructionLimit))

	if err := l.DoString(source); err != nil {
		l.Close()
		return nil, fmt.Errorf("ai: loading lua scorer %q: %w", name, err)
	}
	if l.GetGlobal("score").Type() != lua.LTFunction {
		l.Close()
		return nil, fmt.Errorf("ai: lua scorer %q does not define score()", name)
	}
	return &LuaSkillScorer{name: name, logger: logger, l: l}, nil
}

// Name returns the scorer's registered name.
func (s *LuaSkillScorer) Name() string { return s.name }

// Score calls the script's score(ctx) function. Errors and non-numeric
// returns are treated as 0 so a broken script never blocks a decision.
func (s *LuaSkillScorer) Score(ctx *ScoringContext, sk *skill.Skill, target *actor.Actor) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fresh opcode budget per call; a prior over-limit call must not
	// poison later ones.
	s.l.SetContext(newCountingContext(scriptInstructionLimit))

	tbl := s.l.NewTable()
	s.l.SetField(tbl, "actor_hp", lua.LNumber(ctx.Actor.CurrentHP()))
	s.l.SetField(tbl, "actor_max_hp", lua.LNumber(ctx.Actor.MaxHP()))
	s.l.SetField(tbl, "target_hp", lua.LNumber(target.CurrentHP()))
	s.l.SetField(tbl, "target_max_hp", lua.LNumber(target.MaxHP()))
	s.l.SetField(tbl, "turn", lua.LNumber(ctx.Turn))
	s.l.SetField(tbl, "skill_id", lua.LString(sk.ID))
	s.l.SetField(tbl, "skill_category", lua.LString(sk.Category.String()))
	s.l.SetField(tbl, "skill_ap_cost", lua.LNumber(sk.APCost))
	s.l.SetField(tbl, "skill_base_value", lua.LNumber(sk.BaseValue))

	err := s.l.CallByParam(lua.P{
		Fn:      s.l.GetGlobal("score"),
		NRet:    1,
		Protect: true,
	}, tbl)
	if err != nil {
		s.logger.Warn("lua scorer failed", zap.String("scorer", s.name), zap.Error(err))
		return 0
	}
	ret := s.l.Get(-1)
	s.l.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// Close releases the underlying Lua VM.
func (s *LuaSkillScorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.Close()
}

// Package main provides the battlesim binary: it loads configuration and
// definition data, assembles a battle, and runs it to completion with a
// trivial player policy, logging every notification.
package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/hexforge/battlecore/internal/config"
	"github.com/hexforge/battlecore/internal/game/actor"
	"github.com/hexforge/battlecore/internal/game/ai"
	"github.com/hexforge/battlecore/internal/game/ap"
	"github.com/hexforge/battlecore/internal/game/battle"
	"github.com/hexforge/battlecore/internal/game/damage"
	"github.com/hexforge/battlecore/internal/game/rng"
	"github.com/hexforge/battlecore/internal/game/skill"
	"github.com/hexforge/battlecore/internal/game/stat"
	"github.com/hexforge/battlecore/internal/game/status"
	"github.com/hexforge/battlecore/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	maxTurns := flag.Int("max-turns", 50, "abort the simulation after this many turns")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := rng.NewLoggedSource(rng.NewCryptoSource(), logger)

	skills, err := skill.LoadDirectory(cfg.Data.SkillsDir)
	if err != nil {
		logger.Fatal("loading skills", zap.Error(err))
	}
	effects, err := status.LoadDirectory(cfg.Data.EffectsDir)
	if err != nil {
		logger.Fatal("loading effects", zap.Error(err))
	}
	logger.Info("definitions loaded",
		zap.Int("skills", len(skills.All())),
		zap.Int("effects", len(effects.All())),
	)

	difficulty, err := ai.ParseDifficulty(cfg.AI.Difficulty)
	if err != nil {
		logger.Fatal("parsing difficulty", zap.Error(err))
	}
	profiles := ai.DefaultProfiles()
	if p, ok := cfg.AI.Profiles[cfg.AI.Difficulty]; ok {
		profiles[difficulty] = ai.Profile{
			MistakeChance:      p.MistakeChance,
			DifficultyModifier: p.DifficultyModifier,
			Aggressiveness:     p.Aggressiveness,
			Defensiveness:      p.Defensiveness,
			Tactical:           p.Tactical,
		}
	}

	bus := battle.NewBus()
	bus.Subscribe(func(ev battle.Event) {
		logger.Info("battle event", zap.Any("event", ev))
	})

	pool := ap.NewPoolSized(cfg.Battle.BaseAP, cfg.Battle.MinimumAP)
	model := damage.NewModel(src, logger, cfg.Battle.CritMultiplier, cfg.Battle.DamageCeiling)
	pipeline := battle.NewPipeline(model, effects, logger, bus)
	actionPool := ai.NewActionPool(cfg.Battle.ActionPoolSize)
	aiEngine := ai.NewEngine(profiles[difficulty], actionPool, effects, src, logger)
	orch := battle.NewOrchestrator(pipeline, aiEngine, pool, src, bus, logger)

	players := []*actor.Actor{
		actor.New("Warden", 120, map[stat.Type]int{
			stat.Attack: 50, stat.Defense: 12, stat.Magic: 8, stat.Speed: 10, stat.CritChance: 15,
		}, skills.All(), src, logger),
	}
	enemies := []*actor.Actor{
		actor.New("Husk", 90, map[stat.Type]int{
			stat.Attack: 30, stat.Defense: 10, stat.Magic: 4, stat.Speed: 8, stat.CritChance: 5,
		}, skills.All(), src, logger),
		actor.New("Ravager", 110, map[stat.Type]int{
			stat.Attack: 38, stat.Defense: 14, stat.Magic: 2, stat.Speed: 6, stat.CritChance: 10,
		}, skills.All(), src, logger),
	}

	if err := orch.StartBattle(players, enemies); err != nil {
		logger.Fatal("starting battle", zap.Error(err))
	}

	// Trivial player policy: spend AP on the first affordable skill
	// against the first living enemy, then end the turn.
	playerAI := ai.NewEngine(profiles[difficulty], actionPool, effects, src, logger)
	for orch.State() != battle.BattleEnd && orch.Turn() <= *maxTurns {
		for orch.State() == battle.PlayerTurn {
			act := playerAI.Decide(players[0], players, enemies, orch.Turn())
			if act == nil || !act.Valid() {
				playerAI.Pool().Release(act)
				orch.EndTurn()
				break
			}
			used := orch.TryUseSkill(act.Actor, act.Skill, act.Targets)
			playerAI.Pool().Release(act)
			if !used {
				orch.EndTurn()
			}
		}
	}

	logger.Info("simulation finished",
		zap.String("outcome", orch.Outcome().String()),
		zap.Int("turns", orch.Turn()),
	)
}

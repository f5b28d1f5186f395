// Package config provides Viper-based configuration loading for the combat core.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// BattleConfig holds the numeric constants of the combat core. All values
// are read at construction time and never mutated during a battle.
type BattleConfig struct {
	// BaseAP and MinimumAP feed the pool formula max(MinimumAP, BaseAP+alive).
	BaseAP    int `mapstructure:"base_ap"`
	MinimumAP int `mapstructure:"minimum_ap"`
	// CritMultiplier scales damage on a critical hit.
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	// DamageCeiling is the saturating clamp applied after the attack stat.
	DamageCeiling int `mapstructure:"damage_ceiling"`
	// ActionPoolSize is the fixed capacity of the AI action pool.
	ActionPoolSize int `mapstructure:"action_pool_size"`
}

// ProfileConfig tunes one AI difficulty tier.
type ProfileConfig struct {
	MistakeChance      float64 `mapstructure:"mistake_chance"`
	DifficultyModifier float64 `mapstructure:"difficulty_modifier"`
	Aggressiveness     float64 `mapstructure:"aggressiveness"`
	Defensiveness      float64 `mapstructure:"defensiveness"`
	Tactical           float64 `mapstructure:"tactical"`
}

// AIConfig selects the active difficulty and its per-tier profiles.
type AIConfig struct {
	// Difficulty is one of "very_easy", "easy", "normal", "hard", "very_hard".
	Difficulty string                   `mapstructure:"difficulty"`
	Profiles   map[string]ProfileConfig `mapstructure:"profiles"`
}

// DataConfig points at the definition directories.
type DataConfig struct {
	// SkillsDir holds one YAML skill definition per file.
	SkillsDir string `mapstructure:"skills_dir"`
	// EffectsDir holds one YAML status-effect definition per file.
	EffectsDir string `mapstructure:"effects_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Battle  BattleConfig  `mapstructure:"battle"`
	AI      AIConfig      `mapstructure:"ai"`
	Data    DataConfig    `mapstructure:"data"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.BaseAP < 0 {
		errs = append(errs, fmt.Sprintf("battle.base_ap must be >= 0, got %d", b.BaseAP))
	}
	if b.MinimumAP < 1 {
		errs = append(errs, fmt.Sprintf("battle.minimum_ap must be >= 1, got %d", b.MinimumAP))
	}
	if b.CritMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("battle.crit_multiplier must be > 0, got %v", b.CritMultiplier))
	}
	if b.DamageCeiling < 1 {
		errs = append(errs, fmt.Sprintf("battle.damage_ceiling must be >= 1, got %d", b.DamageCeiling))
	}
	if b.ActionPoolSize < 1 {
		errs = append(errs, fmt.Sprintf("battle.action_pool_size must be >= 1, got %d", b.ActionPoolSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	validTiers := map[string]bool{
		"very_easy": true, "easy": true, "normal": true, "hard": true, "very_hard": true,
	}
	if !validTiers[a.Difficulty] {
		return fmt.Errorf("ai.difficulty must be one of [very_easy, easy, normal, hard, very_hard], got %q", a.Difficulty)
	}
	var errs []string
	for tier, p := range a.Profiles {
		if !validTiers[tier] {
			errs = append(errs, fmt.Sprintf("ai.profiles: unknown tier %q", tier))
			continue
		}
		if p.MistakeChance < 0 || p.MistakeChance > 1 {
			errs = append(errs, fmt.Sprintf("ai.profiles.%s.mistake_chance must be in [0,1], got %v", tier, p.MistakeChance))
		}
		if p.DifficultyModifier <= 0 {
			errs = append(errs, fmt.Sprintf("ai.profiles.%s.difficulty_modifier must be > 0, got %v", tier, p.DifficultyModifier))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BATTLECORE_ prefix
	v.SetEnvPrefix("BATTLECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("battle.base_ap", 1)
	v.SetDefault("battle.minimum_ap", 2)
	v.SetDefault("battle.crit_multiplier", 2.0)
	v.SetDefault("battle.damage_ceiling", 100000)
	v.SetDefault("battle.action_pool_size", 32)

	v.SetDefault("ai.difficulty", "normal")

	v.SetDefault("data.skills_dir", "data/skills")
	v.SetDefault("data.effects_dir", "data/effects")
}

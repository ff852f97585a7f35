// Package config loads simulation configuration from YAML, layering an
// optional user file over embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the simulation and its surfaces. Secrets
// (admin key, LLM key) are deliberately absent; those come from the
// environment only.
type Config struct {
	Sim        SimConfig        `yaml:"sim"`
	Generation GenerationConfig `yaml:"generation"`
	Fields     FieldsConfig     `yaml:"fields"`
	Agent      AgentConfig      `yaml:"agent"`
	Loop       LoopConfig       `yaml:"loop"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SimConfig holds world creation parameters.
type SimConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"` // 0 picks a time-based seed

	NumAgents     int     `yaml:"num_agents"`
	InitEnergyMin float64 `yaml:"init_energy_min"`
	InitEnergyMax float64 `yaml:"init_energy_max"`
	InitTemp      float64 `yaml:"init_temp"`

	FoodPatches     int    `yaml:"food_patches"`
	TemperatureMode string `yaml:"temperature_mode"` // gaussian | noise
}

// GenerationConfig holds terrain generation parameters.
type GenerationConfig struct {
	TempBaseMax    float64 `yaml:"temp_base_max"`
	TempSpot1      float64 `yaml:"temp_spot1"`
	TempSpot2      float64 `yaml:"temp_spot2"`
	PatchAmountMin float64 `yaml:"patch_amount_min"`
	PatchAmountMax float64 `yaml:"patch_amount_max"`
}

// FieldsConfig holds the per-tick decay factors of the volatile fields.
type FieldsConfig struct {
	ScentDecay  float64 `yaml:"scent_decay"`
	SharedDecay float64 `yaml:"shared_decay"`
}

// AgentConfig holds the physiological and decision parameters shared by
// all agents.
type AgentConfig struct {
	Metabolism     float64 `yaml:"metabolism"`
	MaxEnergy      float64 `yaml:"max_energy"`
	CriticalEnergy float64 `yaml:"critical_energy"`
	FoodIntake     float64 `yaml:"food_intake"`
	IdealTemp      float64 `yaml:"ideal_temp"`
	SignalDuration float64 `yaml:"signal_duration"`

	SocialWeight      float64 `yaml:"social_weight"`
	WeightTemp        float64 `yaml:"weight_temp"`
	WeightEnergy      float64 `yaml:"weight_energy"`
	WeightEpistemic   float64 `yaml:"weight_epistemic"`
	ExplorationFactor float64 `yaml:"exploration_factor"`
	BetaBase          float64 `yaml:"beta_base"`
	BetaMax           float64 `yaml:"beta_max"`

	Inertia        float64 `yaml:"inertia"`
	AffectRate     float64 `yaml:"affect_rate"`
	AffectCoupling float64 `yaml:"affect_coupling"`
	MemoryDecay    float64 `yaml:"memory_decay"`
}

// LoopConfig holds the background tick loop settings.
type LoopConfig struct {
	IntervalMS  int    `yaml:"interval_ms"`
	MaxTicks    uint64 `yaml:"max_ticks"` // 0 runs forever
	StartPaused bool   `yaml:"start_paused"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	DropRatePerMin   int    `yaml:"drop_rate_per_min"` // food drops allowed per client per minute
	ShutdownGraceSec int    `yaml:"shutdown_grace_sec"`
}

// TelemetryConfig holds the run recorder settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DBPath      string `yaml:"db_path"`
	CSVPath     string `yaml:"csv_path"` // empty disables the CSV export
	FlushEvery  int    `yaml:"flush_every"`
	HistorySize int    `yaml:"history_size"`
}

// Load reads configuration from a YAML file layered over the embedded
// defaults and validates the result. An empty path uses defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct so the file only overrides the
		// fields it mentions.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded values for internal consistency.
func (c *Config) Validate() error {
	if c.Sim.Width <= 0 || c.Sim.Height <= 0 {
		return fmt.Errorf("sim: grid %dx%d must be positive in both dimensions", c.Sim.Width, c.Sim.Height)
	}
	if c.Sim.NumAgents < 0 {
		return fmt.Errorf("sim: num_agents %d must not be negative", c.Sim.NumAgents)
	}
	if c.Sim.InitEnergyMin <= 0 || c.Sim.InitEnergyMax <= c.Sim.InitEnergyMin {
		return fmt.Errorf("sim: init energy range [%v,%v) is malformed", c.Sim.InitEnergyMin, c.Sim.InitEnergyMax)
	}
	if c.Sim.InitEnergyMax > c.Agent.MaxEnergy {
		return fmt.Errorf("sim: init_energy_max %v exceeds agent max_energy %v", c.Sim.InitEnergyMax, c.Agent.MaxEnergy)
	}
	if c.Sim.FoodPatches < 0 {
		return fmt.Errorf("sim: food_patches %d must not be negative", c.Sim.FoodPatches)
	}
	switch c.Sim.TemperatureMode {
	case "gaussian", "noise":
	default:
		return fmt.Errorf("sim: temperature_mode %q is not gaussian or noise", c.Sim.TemperatureMode)
	}

	if c.Generation.PatchAmountMin <= 0 || c.Generation.PatchAmountMax <= c.Generation.PatchAmountMin {
		return fmt.Errorf("generation: patch amount range [%v,%v) is malformed", c.Generation.PatchAmountMin, c.Generation.PatchAmountMax)
	}

	for name, d := range map[string]float64{
		"fields.scent_decay":  c.Fields.ScentDecay,
		"fields.shared_decay": c.Fields.SharedDecay,
		"agent.memory_decay":  c.Agent.MemoryDecay,
	} {
		if d <= 0 || d >= 1 {
			return fmt.Errorf("%s %v must lie strictly between 0 and 1", name, d)
		}
	}

	a := c.Agent
	if a.Metabolism <= 0 {
		return fmt.Errorf("agent: metabolism %v must be positive", a.Metabolism)
	}
	if a.MaxEnergy <= 0 || a.CriticalEnergy < 0 || a.CriticalEnergy > a.MaxEnergy {
		return fmt.Errorf("agent: energy thresholds critical=%v max=%v are malformed", a.CriticalEnergy, a.MaxEnergy)
	}
	if a.FoodIntake <= 0 {
		return fmt.Errorf("agent: food_intake %v must be positive", a.FoodIntake)
	}
	if a.SignalDuration < 0 {
		return fmt.Errorf("agent: signal_duration %v must not be negative", a.SignalDuration)
	}
	if a.BetaBase <= 0 || a.BetaMax < a.BetaBase {
		return fmt.Errorf("agent: precision range base=%v max=%v is malformed", a.BetaBase, a.BetaMax)
	}
	if a.Inertia < 0 || a.Inertia > 1 {
		return fmt.Errorf("agent: inertia %v must lie in [0,1]", a.Inertia)
	}
	if a.AffectRate < 0 || a.AffectRate > 1 {
		return fmt.Errorf("agent: affect_rate %v must lie in [0,1]", a.AffectRate)
	}

	if c.Loop.IntervalMS < 0 {
		return fmt.Errorf("loop: interval_ms %d must not be negative", c.Loop.IntervalMS)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server: addr must not be empty")
	}
	if c.Server.DropRatePerMin <= 0 {
		return fmt.Errorf("server: drop rate %d/min must be positive", c.Server.DropRatePerMin)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.DBPath == "" {
			return fmt.Errorf("telemetry: db_path must be set when telemetry is enabled")
		}
		if c.Telemetry.FlushEvery <= 0 {
			return fmt.Errorf("telemetry: flush_every %d must be positive", c.Telemetry.FlushEvery)
		}
		if c.Telemetry.HistorySize <= 0 {
			return fmt.Errorf("telemetry: history_size %d must be positive", c.Telemetry.HistorySize)
		}
	}
	return nil
}

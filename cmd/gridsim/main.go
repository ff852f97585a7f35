// Command gridsim runs the grid-world colony simulation: the tick loop,
// the HTTP/websocket surface, and telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/grid-world/internal/agents"
	"github.com/talgya/grid-world/internal/api"
	"github.com/talgya/grid-world/internal/config"
	"github.com/talgya/grid-world/internal/engine"
	"github.com/talgya/grid-world/internal/telemetry"
	"github.com/talgya/grid-world/internal/world"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed (overrides config; 0 = time-based)")
	interval := flag.Duration("interval", 0, "Tick interval (overrides config)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (overrides config; 0 = unlimited)")
	out := flag.String("out", "", "CSV export path (overrides config)")
	headless := flag.Bool("headless", false, "Run without the HTTP server (requires a tick limit)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI overrides.
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *seed != 0 {
		cfg.Sim.Seed = *seed
	}
	if *headless {
		cfg.Loop.IntervalMS = 0
	}
	if *interval > 0 {
		cfg.Loop.IntervalMS = int(interval.Milliseconds())
	}
	if *maxTicks > 0 {
		cfg.Loop.MaxTicks = *maxTicks
	}
	if *out != "" {
		cfg.Telemetry.CSVPath = *out
	}
	if *headless && cfg.Loop.MaxTicks == 0 {
		slog.Error("headless mode needs a tick limit (-max-ticks or loop.max_ticks)")
		os.Exit(1)
	}

	// Resolve the seed here so telemetry and logs record the one actually used.
	if cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = time.Now().UnixNano()
	}

	// ── World ─────────────────────────────────────────────────────────
	w := engine.NewWorld(engineConfig(cfg))
	sim := engine.NewGuarded(w)
	loop := engine.NewLoop(sim, time.Duration(cfg.Loop.IntervalMS)*time.Millisecond, cfg.Loop.MaxTicks)

	st := sim.Snapshot()
	slog.Info("world ready",
		"grid", fmt.Sprintf("%dx%d", cfg.Sim.Width, cfg.Sim.Height),
		"agents", st.Alive,
		"food_patches", cfg.Sim.FoodPatches,
		"seed", cfg.Sim.Seed,
	)

	// ── Telemetry ─────────────────────────────────────────────────────
	var recorder *telemetry.Recorder
	var history api.HistorySource
	if cfg.Telemetry.Enabled {
		recorder, err = telemetry.OpenRecorder(cfg.Telemetry.DBPath, cfg.Sim.Seed, cfg.Telemetry.FlushEvery)
		if err != nil {
			slog.Error("failed to open telemetry store", "error", err)
			os.Exit(1)
		}
		defer recorder.Close()
		history = recorder
	}

	exporter, err := telemetry.NewExporter(cfg.Telemetry.CSVPath)
	if err != nil {
		slog.Error("failed to open CSV export", "path", cfg.Telemetry.CSVPath, "error", err)
		os.Exit(1)
	}
	defer exporter.Close()

	// ── HTTP surface ──────────────────────────────────────────────────
	var hub *api.Hub
	var server *api.Server
	if !*headless {
		hub = api.NewHub(sim)

		adminKey := os.Getenv("GRIDWORLD_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("GRIDWORLD_ADMIN_KEY not set — loop control endpoints will be disabled")
		}

		server = &api.Server{
			Sim:       sim,
			Loop:      loop,
			History:   history,
			Hub:       hub,
			AdminKey:  adminKey,
			DropLimit: api.NewRateLimiter(cfg.Server.DropRatePerMin, time.Minute),
		}
		server.Start(cfg.Server.Addr)
		slog.Info("API listening", "addr", cfg.Server.Addr)
	}

	// ── Tick hook ─────────────────────────────────────────────────────
	loop.OnTick = func(tick uint64) {
		snap := sim.Snapshot()
		ts := telemetry.FromState(snap)
		if recorder != nil {
			if err := recorder.Record(ts); err != nil {
				slog.Error("telemetry record failed", "tick", tick, "error", err)
			}
		}
		if err := exporter.Write(ts); err != nil {
			slog.Error("csv write failed", "tick", tick, "error", err)
		}
		if hub != nil {
			hub.Broadcast(snap)
		}
	}

	// ── Run ───────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		loop.Stop()
	}()

	if cfg.Loop.StartPaused {
		loop.Pause()
		slog.Info("starting paused, resume via the control API")
	}

	fmt.Printf("Grid world is alive: %d agents foraging on a %dx%d grid.\n",
		st.Alive, cfg.Sim.Width, cfg.Sim.Height)
	if !*headless {
		fmt.Printf("API: http://localhost%s/api/state\n", cfg.Server.Addr)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	loop.Run()

	// ── Shutdown ──────────────────────────────────────────────────────
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownGraceSec)*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
		cancel()
		hub.CloseAll()
	}

	if recorder != nil {
		if rows, err := recorder.History(cfg.Telemetry.HistorySize); err == nil && len(rows) > 0 {
			fmt.Println("Run summary:", telemetry.Summarize(rows))
		}
	}

	fmt.Println("Simulation stopped.")
}

// engineConfig maps the YAML configuration onto the engine's build config.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Width:  cfg.Sim.Width,
		Height: cfg.Sim.Height,
		Seed:   cfg.Sim.Seed,

		NumAgents:     cfg.Sim.NumAgents,
		InitEnergyMin: cfg.Sim.InitEnergyMin,
		InitEnergyMax: cfg.Sim.InitEnergyMax,
		InitTemp:      cfg.Sim.InitTemp,

		FoodPatches:     cfg.Sim.FoodPatches,
		TemperatureMode: cfg.Sim.TemperatureMode,
		Gen: world.GenParams{
			TempBaseMax:    cfg.Generation.TempBaseMax,
			TempSpot1:      cfg.Generation.TempSpot1,
			TempSpot2:      cfg.Generation.TempSpot2,
			PatchAmountMin: cfg.Generation.PatchAmountMin,
			PatchAmountMax: cfg.Generation.PatchAmountMax,
		},

		ScentDecay:  cfg.Fields.ScentDecay,
		SharedDecay: cfg.Fields.SharedDecay,

		Agent: agents.Params{
			Metabolism:     cfg.Agent.Metabolism,
			MaxEnergy:      cfg.Agent.MaxEnergy,
			CriticalEnergy: cfg.Agent.CriticalEnergy,
			FoodIntake:     cfg.Agent.FoodIntake,
			IdealTemp:      cfg.Agent.IdealTemp,
			SignalDuration: cfg.Agent.SignalDuration,

			SocialWeight:      cfg.Agent.SocialWeight,
			WeightTemp:        cfg.Agent.WeightTemp,
			WeightEnergy:      cfg.Agent.WeightEnergy,
			WeightEpistemic:   cfg.Agent.WeightEpistemic,
			ExplorationFactor: cfg.Agent.ExplorationFactor,
			BetaBase:          cfg.Agent.BetaBase,
			BetaMax:           cfg.Agent.BetaMax,

			Inertia:        cfg.Agent.Inertia,
			AffectRate:     cfg.Agent.AffectRate,
			AffectCoupling: cfg.Agent.AffectCoupling,
			MemoryDecay:    cfg.Agent.MemoryDecay,
		},
	}
}

// Command overseer runs the autonomous caretaker for a grid-world
// colony. It polls the simulation API, asks Claude Haiku where food is
// needed (or falls back to a deterministic policy without a key), and
// posts food drops through the public surface.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/grid-world/internal/llm"
	"github.com/talgya/grid-world/internal/overseer"
)

func main() {
	apiURL := flag.String("api", "http://localhost:5000", "Base URL of the simulation API")
	interval := flag.Duration("interval", 10*time.Second, "Time between overseer cycles")
	amount := flag.Float64("amount", 30.0, "Food size for fallback drops")
	memoryPath := flag.String("memory", "", "Cycle memory file (empty = overseer_memory.json)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	client := llm.NewClient(os.Getenv("ANTHROPIC_API_KEY"))
	if client.Enabled() {
		slog.Info("model-backed decisions enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — using the deterministic fallback policy")
	}

	slog.Info("overseer starting", "api", *apiURL, "interval", *interval)

	ov := &overseer.Overseer{
		Observer:   overseer.NewObserver(*apiURL),
		Actor:      overseer.NewActor(*apiURL),
		Client:     client,
		Memory:     overseer.LoadMemory(*memoryPath),
		DropAmount: *amount,
	}

	// The simulation may still be starting; wait until its API answers.
	waitForAPI(*apiURL)

	runCycle(ov)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(ov)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Overseer stopped.")
			return
		}
	}
}

func runCycle(ov *overseer.Overseer) {
	if err := ov.RunCycle(); err != nil {
		slog.Error("cycle failed", "error", err)
	}
}

// waitForAPI polls the state endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/state")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				slog.Info("simulation API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("simulation API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("simulation not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

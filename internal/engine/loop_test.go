package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func smallConfig() Config {
	cfg := testConfig(8)
	cfg.Width, cfg.Height = 10, 10
	cfg.NumAgents = 3
	cfg.FoodPatches = 0
	return cfg
}

func TestLoopStopsAtTickLimit(t *testing.T) {
	g := NewGuarded(NewWorld(smallConfig()))
	loop := NewLoop(g, 0, 50)

	var fired int64
	loop.OnTick = func(uint64) { atomic.AddInt64(&fired, 1) }

	go loop.Run()
	select {
	case <-loop.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not finish at its tick limit")
	}

	if got := g.Snapshot().Tick; got != 50 {
		t.Errorf("tick = %d at shutdown, want 50", got)
	}
	if n := atomic.LoadInt64(&fired); n != 50 {
		t.Errorf("OnTick fired %d times, want 50", n)
	}
}

func TestLoopPauseHoldsTheWorldStill(t *testing.T) {
	g := NewGuarded(NewWorld(smallConfig()))
	loop := NewLoop(g, time.Millisecond, 0)

	go loop.Run()
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()

	deadline := time.After(5 * time.Second)
	for g.Snapshot().Tick < 5 {
		select {
		case <-deadline:
			t.Fatal("loop never started ticking")
		case <-time.After(time.Millisecond):
		}
	}

	loop.Pause()
	if !loop.Paused() {
		t.Fatal("Paused() = false right after Pause()")
	}
	time.Sleep(20 * time.Millisecond) // let any in-flight tick land
	before := g.Snapshot().Tick
	time.Sleep(60 * time.Millisecond)
	if after := g.Snapshot().Tick; after != before {
		t.Errorf("world advanced from %d to %d while paused", before, after)
	}

	loop.Resume()
	deadline = time.After(5 * time.Second)
	for g.Snapshot().Tick == before {
		select {
		case <-deadline:
			t.Fatal("world stayed frozen after Resume()")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestLoopStopIsIdempotent(t *testing.T) {
	g := NewGuarded(NewWorld(smallConfig()))
	loop := NewLoop(g, time.Millisecond, 0)

	go loop.Run()
	loop.Stop()
	loop.Stop()
	select {
	case <-loop.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit after Stop")
	}
}

func TestLoopSpeedGuards(t *testing.T) {
	g := NewGuarded(NewWorld(smallConfig()))
	loop := NewLoop(g, time.Millisecond, 0)

	if got := loop.Speed(); got != 1.0 {
		t.Errorf("default speed = %v, want 1.0", got)
	}
	loop.SetSpeed(4)
	if got := loop.Speed(); got != 4 {
		t.Errorf("speed = %v after SetSpeed(4)", got)
	}
	loop.SetSpeed(0)
	loop.SetSpeed(-2)
	if got := loop.Speed(); got != 4 {
		t.Errorf("speed = %v, non-positive values should be ignored", got)
	}
}

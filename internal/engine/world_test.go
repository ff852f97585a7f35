package engine

import (
	"reflect"
	"sync"
	"testing"

	"github.com/talgya/grid-world/internal/agents"
	"github.com/talgya/grid-world/internal/world"
)

func testConfig(seed int64) Config {
	return Config{
		Width:  40,
		Height: 40,
		Seed:   seed,

		NumAgents:     10,
		InitEnergyMin: 40,
		InitEnergyMax: 95,
		InitTemp:      10,

		FoodPatches:     1,
		TemperatureMode: TempGaussian,
		Gen: world.GenParams{
			TempBaseMax:    28,
			TempSpot1:      14,
			TempSpot2:      12,
			PatchAmountMin: 30,
			PatchAmountMax: 80,
		},

		ScentDecay:  0.94,
		SharedDecay: 0.90,

		Agent: agents.DefaultParams(),
	}
}

func TestNewWorldSpawn(t *testing.T) {
	cfg := testConfig(42)
	w := NewWorld(cfg)
	st := w.Snapshot()

	if st.Tick != 0 || st.Dead != 0 {
		t.Errorf("fresh world: tick %d dead %d, want 0 and 0", st.Tick, st.Dead)
	}
	if st.Alive != cfg.NumAgents || len(st.Agents) != cfg.NumAgents {
		t.Fatalf("alive = %d with %d snapshots, want %d", st.Alive, len(st.Agents), cfg.NumAgents)
	}

	ids := map[int]bool{}
	for _, a := range st.Agents {
		if a.X < 0 || a.X >= cfg.Width || a.Y < 0 || a.Y >= cfg.Height {
			t.Errorf("agent %d spawned off-grid at (%d,%d)", a.ID, a.X, a.Y)
		}
		if a.Energy < cfg.InitEnergyMin || a.Energy >= cfg.InitEnergyMax {
			t.Errorf("agent %d birth energy %v outside [%v,%v)", a.ID, a.Energy, cfg.InitEnergyMin, cfg.InitEnergyMax)
		}
		if a.Temp != cfg.InitTemp {
			t.Errorf("agent %d birth temperature %v, want %v", a.ID, a.Temp, cfg.InitTemp)
		}
		if ids[a.ID] {
			t.Errorf("duplicate agent id %d", a.ID)
		}
		ids[a.ID] = true
	}
}

func TestRunsReproducibleUnderSeed(t *testing.T) {
	a := NewWorld(testConfig(1234))
	b := NewWorld(testConfig(1234))

	for tick := 0; tick < 30; tick++ {
		a.Advance()
		b.Advance()
		sa, sb := a.Snapshot(), b.Snapshot()
		if !reflect.DeepEqual(sa, sb) {
			t.Fatalf("tick %d: same seed diverged\n a: %+v\n b: %+v", tick+1, sa, sb)
		}
	}
}

func TestAdvanceCountsTicks(t *testing.T) {
	w := NewWorld(testConfig(7))
	for i := 1; i <= 5; i++ {
		w.Advance()
		if w.Tick() != uint64(i) {
			t.Fatalf("after %d advances Tick() = %d", i, w.Tick())
		}
	}
}

func TestDyingAgentsLeaveTheSameTick(t *testing.T) {
	cfg := testConfig(5)
	cfg.InitEnergyMin = 0.05
	cfg.InitEnergyMax = 0.1 // below one metabolism step: everyone dies at once
	w := NewWorld(cfg)

	w.Advance()
	st := w.Snapshot()

	if st.Alive != 0 || len(st.Agents) != 0 {
		t.Errorf("alive = %d (%d snapshots), want 0 after mass starvation", st.Alive, len(st.Agents))
	}
	if st.Dead != cfg.NumAgents {
		t.Errorf("dead = %d, want %d", st.Dead, cfg.NumAgents)
	}

	w.Advance()
	if got := w.Snapshot().Dead; got != cfg.NumAgents {
		t.Errorf("dead drifted to %d on an empty world", got)
	}
}

func TestStarvationRunInvariants(t *testing.T) {
	cfg := testConfig(99)
	cfg.FoodPatches = 0 // nothing to eat, population must waste away
	p := cfg.Agent
	w := NewWorld(cfg)

	prevDead := 0
	for tick := 0; tick < 700; tick++ {
		w.Advance()
		st := w.Snapshot()

		if st.Alive+st.Dead != cfg.NumAgents {
			t.Fatalf("tick %d: alive %d + dead %d != %d", st.Tick, st.Alive, st.Dead, cfg.NumAgents)
		}
		if st.Dead < prevDead {
			t.Fatalf("tick %d: dead count fell from %d to %d", st.Tick, prevDead, st.Dead)
		}
		prevDead = st.Dead

		for _, a := range st.Agents {
			if a.Energy < 0 || a.Energy > p.MaxEnergy {
				t.Fatalf("tick %d: agent %d energy %v out of bounds", st.Tick, a.ID, a.Energy)
			}
			if a.Precision < 0.5 || a.Precision > p.BetaMax {
				t.Fatalf("tick %d: agent %d precision %v out of bounds", st.Tick, a.ID, a.Precision)
			}
		}

		if tick%100 == 0 {
			assertNonNegative(t, w, st.Tick)
		}
	}

	if st := w.Snapshot(); st.Alive != 0 || st.Dead != cfg.NumAgents {
		t.Errorf("after 700 foodless ticks: alive %d dead %d, want 0 and %d", st.Alive, st.Dead, cfg.NumAgents)
	}
}

func assertNonNegative(t *testing.T, w *World, tick uint64) {
	t.Helper()
	fields := map[string]*world.Field{
		"food":   w.Food,
		"scent":  w.Scent,
		"shared": w.Shared,
	}
	for name, f := range fields {
		for x := 0; x < f.Width(); x++ {
			for y := 0; y < f.Height(); y++ {
				if v := f.At(x, y); v < 0 {
					t.Fatalf("tick %d: %s field negative (%v) at (%d,%d)", tick, name, v, x, y)
				}
			}
		}
	}
}

func TestDepositFood(t *testing.T) {
	cfg := testConfig(3)
	cfg.FoodPatches = 0
	w := NewWorld(cfg)

	w.DepositFood(5, 6, 20)
	if got := w.Food.At(5, 6); got != 20 {
		t.Errorf("food at target = %v, want 20", got)
	}

	total := 0.0
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			total += w.Food.At(x, y)
		}
	}
	if total != 20 {
		t.Errorf("deposit leaked: field total %v, want 20", total)
	}

	// Out-of-bounds and non-positive deposits change nothing.
	w.DepositFood(-1, 6, 10)
	w.DepositFood(5, -1, 10)
	w.DepositFood(cfg.Width, 0, 10)
	w.DepositFood(0, cfg.Height, 10)
	w.DepositFood(5, 6, -5)
	if got := w.Food.At(5, 6); got != 20 {
		t.Errorf("food at target after rejected deposits = %v, want 20", got)
	}
}

func TestScentDecaysToExactZero(t *testing.T) {
	cfg := testConfig(17)
	cfg.FoodPatches = 0 // no meals, no new scent
	w := NewWorld(cfg)
	w.Scent.Set(3, 3, 1.0)

	prev := 1.0
	zeroTick := 0
	for tick := 1; tick <= 80; tick++ {
		w.Advance()
		v := w.Scent.At(3, 3)
		if v < 0 {
			t.Fatalf("tick %d: negative scent %v", tick, v)
		}
		if prev > 0 && v >= prev {
			t.Fatalf("tick %d: scent %v did not decrease from %v", tick, v, prev)
		}
		if v == 0 && zeroTick == 0 {
			zeroTick = tick
		}
		if zeroTick > 0 && v != 0 {
			t.Fatalf("tick %d: scent came back from the floor: %v", tick, v)
		}
		prev = v
	}
	if zeroTick == 0 {
		t.Error("scent never reached the hard zero floor")
	}
}

func TestScentHeatmapThreshold(t *testing.T) {
	cfg := testConfig(23)
	cfg.FoodPatches = 0
	w := NewWorld(cfg)
	w.Scent.Set(1, 1, 0.05)
	w.Scent.Set(2, 2, 0.5)
	w.Scent.Set(3, 3, 2.0)

	hm := w.ScentHeatmap()
	if hm.Width != cfg.Width || hm.Height != cfg.Height {
		t.Errorf("dims = %dx%d, want %dx%d", hm.Width, hm.Height, cfg.Width, cfg.Height)
	}
	want := []world.Cell{{X: 2, Y: 2, Value: 0.5}, {X: 3, Y: 3, Value: 2.0}}
	if !reflect.DeepEqual(hm.Cells, want) {
		t.Errorf("cells = %v, want %v", hm.Cells, want)
	}
}

func TestGuardedSerializesAccess(t *testing.T) {
	g := NewGuarded(NewWorld(testConfig(31)))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			g.Advance()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			st := g.Snapshot()
			if st.Alive+st.Dead != 10 {
				t.Errorf("inconsistent snapshot: alive %d dead %d", st.Alive, st.Dead)
				return
			}
			g.ScentHeatmap()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			g.DepositFood(i%40, (i*3)%40, 1)
		}
	}()
	wg.Wait()

	if got := g.Snapshot().Tick; got != 100 {
		t.Errorf("tick = %d after 100 advances, want 100", got)
	}
}

package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Loop drives a guarded world at a fixed cadence. Pause, resume, and
// speed changes may come from other goroutines (the admin API); the world
// itself is only ever advanced from the loop goroutine.
type Loop struct {
	sim      *Guarded
	interval time.Duration
	maxTicks uint64 // 0 means unbounded

	mu     sync.Mutex
	paused bool
	speed  float64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	// OnTick runs after every advance, outside the world lock. Telemetry
	// and the websocket broadcast hang off this.
	OnTick func(tick uint64)
}

// NewLoop creates a loop at the given base interval. A zero interval runs
// flat out.
func NewLoop(sim *Guarded, interval time.Duration, maxTicks uint64) *Loop {
	return &Loop{
		sim:      sim,
		interval: interval,
		maxTicks: maxTicks,
		speed:    1.0,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, ticking the world until Stop is called or the tick limit is
// reached.
func (l *Loop) Run() {
	defer close(l.done)
	slog.Info("simulation loop started", "interval", l.interval, "max_ticks", l.maxTicks)

	for {
		select {
		case <-l.stop:
			slog.Info("simulation loop stopped", "tick", l.currentTick())
			return
		default:
		}

		paused, speed := l.state()
		if paused || speed <= 0 {
			select {
			case <-l.stop:
				slog.Info("simulation loop stopped", "tick", l.currentTick())
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		tick := l.sim.Advance()
		if l.OnTick != nil {
			l.OnTick(tick)
		}

		if l.maxTicks > 0 && tick >= l.maxTicks {
			slog.Info("tick limit reached", "tick", tick)
			return
		}

		// Sleep out the remainder of the speed-adjusted interval.
		target := time.Duration(float64(l.interval) / speed)
		if elapsed := time.Since(start); elapsed < target {
			select {
			case <-l.stop:
				slog.Info("simulation loop stopped", "tick", tick)
				return
			case <-time.After(target - elapsed):
			}
		}
	}
}

// Stop halts the loop. Safe to call more than once and from any
// goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done closes when the loop has fully exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pause suspends ticking without stopping the loop.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = true
}

// Resume continues ticking after a pause.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = false
}

// Paused reports whether the loop is currently suspended.
func (l *Loop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// SetSpeed changes the interval divisor: 2.0 ticks twice as fast, 0.5
// half as fast. Non-positive values are ignored; use Pause to halt.
func (l *Loop) SetSpeed(m float64) {
	if m <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speed = m
}

// Speed returns the current speed multiplier.
func (l *Loop) Speed() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.speed
}

func (l *Loop) state() (bool, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused, l.speed
}

func (l *Loop) currentTick() uint64 {
	return l.sim.Snapshot().Tick
}

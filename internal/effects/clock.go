package effects

import (
	"sync"
	"time"
)

//go:generate mockgen -destination=mock/mock_clock.go -package=mockeffects -source=clock.go

// Clock reports simulation time elapsed since the simulation started
type Clock interface {
	Now() time.Duration
}

// SimClock is a manually advanced simulation clock shared by every entity of
// a world
type SimClock struct {
	mu  sync.RWMutex
	now time.Duration
}

// NewSimClock creates a clock at zero
func NewSimClock() *SimClock {
	return &SimClock{}
}

// Now returns the current simulation time
func (c *SimClock) Now() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by dt and returns the new time. Negative
// steps are ignored.
func (c *SimClock) Advance(dt time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dt > 0 {
		c.now += dt
	}
	return c.now
}

// Seconds converts float seconds, the unit magnitudes are authored in, to a
// duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

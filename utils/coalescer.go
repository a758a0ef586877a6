package utils

import (
	"sync"
	"time"
)

// DefaultSaveDebounce is the trailing-edge debounce applied to step edits
const DefaultSaveDebounce = 700 * time.Millisecond

// Coalescer is a generic keyed coalescing scheduler: repeated schedules for
// the same key collapse into one trailing-edge execution. Reorder commits
// bypass it entirely and write immediately.
type Coalescer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*coalesced
}

type coalesced struct {
	timer *time.Timer
	fn    func()
}

func NewCoalescer(delay time.Duration) *Coalescer {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &Coalescer{
		delay:  delay,
		timers: make(map[string]*coalesced),
	}
}

// Schedule arms (or re-arms) the trailing-edge timer for a key. The most
// recently scheduled fn wins.
func (c *Coalescer) Schedule(key string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.timers[key]; ok {
		existing.timer.Stop()
	}
	entry := &coalesced{fn: fn}
	entry.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		if c.timers[key] == entry {
			delete(c.timers, key)
		}
		c.mu.Unlock()
		fn()
	})
	c.timers[key] = entry
}

// Flush runs a pending execution for the key immediately
func (c *Coalescer) Flush(key string) {
	c.mu.Lock()
	entry, ok := c.timers[key]
	if ok {
		entry.timer.Stop()
		delete(c.timers, key)
	}
	c.mu.Unlock()

	if ok {
		entry.fn()
	}
}

// Cancel drops any pending execution for the key
func (c *Coalescer) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.timers[key]; ok {
		entry.timer.Stop()
		delete(c.timers, key)
	}
}

// FlushAll runs every pending execution immediately
func (c *Coalescer) FlushAll() {
	c.mu.Lock()
	pending := make([]*coalesced, 0, len(c.timers))
	for key, entry := range c.timers {
		entry.timer.Stop()
		pending = append(pending, entry)
		delete(c.timers, key)
	}
	c.mu.Unlock()

	for _, entry := range pending {
		entry.fn()
	}
}

// Pending reports whether a key currently has a scheduled execution
func (c *Coalescer) Pending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[key]
	return ok
}

// FlightGuard keeps at most one save in flight per document key. An
// overlapping attempt is silently coalesced: the newest fn is queued and
// runs once the current flight lands. Callers never see the overlap.
type FlightGuard struct {
	mu      sync.Mutex
	running map[string]bool
	queued  map[string]func()
}

func NewFlightGuard() *FlightGuard {
	return &FlightGuard{
		running: make(map[string]bool),
		queued:  make(map[string]func()),
	}
}

// Do runs fn for the key, or queues it when a flight is already up
func (g *FlightGuard) Do(key string, fn func()) {
	g.mu.Lock()
	if g.running[key] {
		g.queued[key] = fn
		g.mu.Unlock()
		return
	}
	g.running[key] = true
	g.mu.Unlock()

	for {
		fn()

		g.mu.Lock()
		next, ok := g.queued[key]
		if !ok {
			delete(g.running, key)
			g.mu.Unlock()
			return
		}
		delete(g.queued, key)
		g.mu.Unlock()
		fn = next
	}
}

// InFlight reports whether a save for the key is currently running
func (g *FlightGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[key]
}

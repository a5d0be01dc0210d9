package transport

import (
	"sync"
	"time"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
)

// DefaultTickInterval is the wall-clock period between playhead advances
const DefaultTickInterval = 100 * time.Millisecond

// State is the running state of a Clock
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Snapshot is a point-in-time view of the clock
type Snapshot struct {
	CurrentTime float64 `json:"current_time"`
	State       State   `json:"-"`
	Playing     bool    `json:"playing"`
}

// ChangeFunc is called after every change of time or state, outside the clock lock
type ChangeFunc func(Snapshot)

// Option configures a Clock
type Option func(*Clock)

// WithTickInterval overrides the tick period. The playhead advances by the
// same amount of timeline seconds on every tick.
func WithTickInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithOnChange registers a change listener
func WithOnChange(fn ChangeFunc) Option {
	return func(c *Clock) {
		c.onChange = fn
	}
}

// Clock is the simulated transport that advances a playhead across [0, duration]
type Clock struct {
	mu        sync.Mutex
	scheduler Scheduler
	interval  time.Duration
	duration  float64
	current   float64
	state     State
	task      Task
	gen       uint64
	closed    bool
	onChange  ChangeFunc
}

// NewClock creates a stopped clock at time zero
func NewClock(scheduler Scheduler, duration float64, opts ...Option) *Clock {
	if scheduler == nil {
		scheduler = NewTickerScheduler()
	}
	c := &Clock{
		scheduler: scheduler,
		interval:  DefaultTickInterval,
		duration:  duration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins advancing the playhead. It is a no-op when already running,
// after Close, or when the timeline has no duration.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.state == Running || c.closed || c.duration <= 0 {
		c.mu.Unlock()
		return
	}
	c.state = Running
	c.gen++
	gen := c.gen
	c.task = c.scheduler.Every(c.interval, func() { c.tick(gen) })
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logger.WithComponent("transport").Debug().
		Float64("current_time", snap.CurrentTime).
		Dur("interval", c.interval).
		Msg("Clock started")
	c.notify(snap)
}

// Stop halts the playhead where it is
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logger.WithComponent("transport").Debug().
		Float64("current_time", snap.CurrentTime).
		Msg("Clock stopped")
	c.notify(snap)
}

// Toggle starts a stopped clock and stops a running one
func (c *Clock) Toggle() {
	if c.State() == Running {
		c.Stop()
		return
	}
	c.Start()
}

// Seek moves the playhead to t, clamped to [0, duration], without changing state
func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	c.current = timeline.Clamp(t, 0, c.duration)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// CurrentTime returns the playhead position in seconds
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns whether the clock is running
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Duration returns the timeline duration the clock runs over
func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Snapshot returns the current time and state
func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the clock and releases its scheduled task. A closed clock
// never starts again.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.state == Running {
		c.stopLocked()
	}
}

func (c *Clock) tick(gen uint64) {
	c.mu.Lock()
	if c.state != Running || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.current += c.interval.Seconds()
	if c.current >= c.duration {
		c.stopLocked()
		c.current = 0
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Clock) stopLocked() {
	c.state = Stopped
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
}

func (c *Clock) snapshotLocked() Snapshot {
	return Snapshot{
		CurrentTime: c.current,
		State:       c.state,
		Playing:     c.state == Running,
	}
}

func (c *Clock) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

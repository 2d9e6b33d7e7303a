package app

import (
	"fmt"
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates tickers; tests substitute a manual one.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Countdown runs at most one one-second countdown at a time.
type Countdown struct {
	newTicker TickerFactory

	mu   sync.Mutex
	stop chan struct{}
}

func NewCountdown(factory TickerFactory) *Countdown {
	if factory == nil {
		factory = NewRealTicker
	}
	return &Countdown{newTicker: factory}
}

// Start cancels any running countdown and begins a new one. onTick gets the
// remaining seconds after each tick; onExpire runs once when it reaches zero.
// Callbacks run on the countdown goroutine.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	c.stopLocked()
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	ticker := c.newTicker(time.Second)
	go c.run(ticker, stop, seconds, onTick, onExpire)
}

// Stop cancels the running countdown, if any. It does not wait for the
// countdown goroutine, so it is safe to call from inside a callback.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether a countdown is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) run(ticker Ticker, stop chan struct{}, remaining int, onTick func(int), onExpire func()) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}
		// select picks randomly when both are ready
		select {
		case <-stop:
			return
		default:
		}

		remaining--
		if onTick != nil {
			onTick(remaining)
		}
		if remaining <= 0 {
			c.mu.Lock()
			if c.stop == stop {
				c.stopLocked()
			}
			c.mu.Unlock()
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

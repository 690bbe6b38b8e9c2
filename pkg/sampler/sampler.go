// Package sampler drives the receiver and transmitter against the wall clock.
//
// The protocol state machines never block and own no timers, this package
// is the cooperative scheduler around them: a ticker goroutine feeds the
// receiver brightness samples at a cadence fast relative to the bit
// duration, and a timer pump ticks a transmit sequence until it completes.
package sampler

import (
	"errors"
	"time"

	"luxlink/pkg/framerx"
	"luxlink/pkg/frametx"
	"luxlink/pkg/optic"

	"github.com/womat/debug"
)

// minSamplesPerBit is the minimum sampling rate relative to the bit rate.
// Bit values are sampled at the bit boundary, so the boundary must be hit
// within a small fraction of the bit duration.
const minSamplesPerBit = 10

var (
	ErrNoSource   = errors.New("sample source required")
	ErrRunning    = errors.New("driver already running")
	ErrNotRunning = errors.New("driver not running")
)

// Source delivers one brightness sample per tick, a scalar in [0,255].
type Source interface {
	Sample() (float64, error)
}

// Interval returns the receive tick interval for a frame timing,
// minSamplesPerBit ticks per bit.
func Interval(cfg optic.TimingConfig) time.Duration {
	return cfg.BitDuration / minSamplesPerBit
}

// Driver ticks a receiver at a fixed interval from a brightness source.
// One Driver runs at most one session at a time, the goroutine exits when
// the session reaches a terminal state or Stop is called.
type Driver struct {
	rx       *framerx.Receiver
	source   Source
	interval time.Duration
	now      func() time.Time

	quit chan struct{}
	done chan struct{}
}

// New returns a driver ticking rx every interval. now supplies the
// monotonic timestamps, pass nil for time.Now.
func New(rx *framerx.Receiver, source Source, interval time.Duration, now func() time.Time) (*Driver, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	if interval <= 0 {
		return nil, optic.ErrInvalidConfig
	}
	if now == nil {
		now = time.Now
	}

	return &Driver{
		rx:       rx,
		source:   source,
		interval: interval,
		now:      now,
	}, nil
}

// Start begins a receive session and the tick goroutine. It fails with
// ErrRunning while a session goroutine is still alive.
func (d *Driver) Start() error {
	if d.quit != nil {
		select {
		case <-d.done:
			// previous session finished on its own
		default:
			return ErrRunning
		}
	}

	if err := d.rx.Start(d.now()); err != nil {
		return err
	}

	d.quit = make(chan struct{})
	d.done = make(chan struct{})
	go d.run(d.quit, d.done)
	return nil
}

// Stop halts ticking and the receive session. The next scheduled tick
// after Stop is suppressed. Stopping a driver that is not running is
// harmless.
func (d *Driver) Stop() {
	if d.quit == nil {
		return
	}

	select {
	case <-d.done:
	default:
		close(d.quit)
		<-d.done
	}

	d.quit = nil
	d.rx.Stop()
}

// Wait blocks until the current session goroutine exits.
func (d *Driver) Wait() {
	if d.done != nil {
		<-d.done
	}
}

// run delivers ticks until the session is terminal or the driver stops.
func (d *Driver) run(quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			// quit wins over a tick that became ready at the same time
			select {
			case <-quit:
				return
			default:
			}

			b, err := d.source.Sample()
			if err != nil {
				debug.ErrorLog.Printf("sample source: %v", err)
				continue
			}

			d.rx.Tick(d.now(), b)
			if d.rx.State().Terminal() {
				return
			}
		}
	}
}

// Send plays a transmit sequence on its own timer pump and returns a cancel
// function. Cancelling suppresses all later ticks and parks the renderer
// OFF, calling cancel more than once is harmless.
func Send(seq *frametx.Sequencer, interval time.Duration, now func() time.Time) (func(), error) {
	if interval <= 0 {
		return nil, optic.ErrInvalidConfig
	}
	if now == nil {
		now = time.Now
	}

	if err := seq.Start(now()); err != nil {
		return nil, err
	}

	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				seq.Cancel()
				return
			case <-ticker.C:
				select {
				case <-quit:
					seq.Cancel()
					return
				default:
				}

				seq.Tick(now())
				if seq.Done() {
					return
				}
			}
		}
	}()

	var cancelled bool
	cancel := func() {
		if cancelled {
			return
		}
		cancelled = true
		close(quit)
		<-done
	}
	return cancel, nil
}

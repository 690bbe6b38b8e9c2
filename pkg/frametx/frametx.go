// Package frametx builds and plays the timed symbol sequence of one byte frame.
//
// The sequencer is the sending twin of the framerx state machine: it owns
// no timer of its own, a driver ticks it against a monotonic clock and it
// advances through the step list, pushing each symbol to an external
// renderer.
package frametx

import (
	"errors"
	"time"

	"luxlink/pkg/bitcodec"
	"luxlink/pkg/optic"

	"github.com/womat/debug"
)

var (
	ErrNoRenderer     = errors.New("renderer required")
	ErrAlreadyStarted = errors.New("sequence already started")
)

// Renderer displays one optical symbol. Whatever the implementation drives
// (an LED line, a screen fill, a test buffer) is outside the protocol core.
type Renderer interface {
	SetSymbol(optic.Symbol) error
}

// BuildSequence returns the timed symbol list of one frame for value:
// the held start symbol, the 8 payload bits most significant first, and
// the held end symbol. This list is the wire format, both endpoints derive
// frame boundaries purely from these durations.
func BuildSequence(value byte, cfg optic.TimingConfig) []optic.Step {
	steps := make([]optic.Step, 0, bitcodec.FrameBits+2)
	steps = append(steps, optic.Step{Symbol: optic.On, Duration: cfg.StartDuration})

	for _, bit := range bitcodec.ToBits(value) {
		s := optic.Off
		if bit == 1 {
			s = optic.On
		}
		steps = append(steps, optic.Step{Symbol: s, Duration: cfg.BitDuration})
	}

	return append(steps, optic.Step{Symbol: optic.Off, Duration: cfg.EndDuration})
}

// Sequencer plays one frame sequence against an external renderer.
// Like the receiver it is purely tick-driven and single-threaded, the
// driver calls Tick and no call here blocks.
type Sequencer struct {
	steps    []optic.Step
	renderer Renderer

	index     int
	stepStart time.Time
	started   bool
	done      bool
	cancelled bool

	onComplete func()
	onProgress func(index int, step optic.Step)
}

// NewSequencer prepares the transmission of value. onComplete fires exactly
// once when the full sequence has played, never after a cancellation.
// Every byte is representable, there is nothing to validate on the value.
func NewSequencer(value byte, cfg optic.TimingConfig, renderer Renderer, onComplete func()) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if renderer == nil {
		return nil, ErrNoRenderer
	}

	return &Sequencer{
		steps:      BuildSequence(value, cfg),
		renderer:   renderer,
		onComplete: onComplete,
	}, nil
}

// OnProgress registers an optional callback fired when a step starts.
func (s *Sequencer) OnProgress(fn func(index int, step optic.Step)) {
	s.onProgress = fn
}

// Start renders the first step at now. A sequencer plays once, starting a
// second time is a programming error.
func (s *Sequencer) Start(now time.Time) error {
	if s.started {
		return ErrAlreadyStarted
	}

	s.started = true
	s.stepStart = now
	debug.DebugLog.Printf("transmit sequence started, %d steps", len(s.steps))
	return s.render(0)
}

// Tick advances the sequence at now. When the current step's duration has
// elapsed the next step starts from the current tick, steps are never
// skipped: a late tick stretches wall-clock time but preserves step order.
func (s *Sequencer) Tick(now time.Time) {
	if !s.started || s.done || s.cancelled {
		return
	}

	if now.Sub(s.stepStart) < s.steps[s.index].Duration {
		return
	}

	if s.index == len(s.steps)-1 {
		s.finish()
		return
	}

	s.index++
	s.stepStart = now
	if err := s.render(s.index); err != nil {
		debug.ErrorLog.Printf("renderer failed on step %d: %v", s.index, err)
	}
}

// Cancel halts the sequence. Later ticks are ignored, onComplete never
// fires, and the renderer is parked OFF so no symbol is left ambiguous.
func (s *Sequencer) Cancel() {
	if s.done || s.cancelled {
		return
	}

	s.cancelled = true
	if err := s.renderer.SetSymbol(optic.Off); err != nil {
		debug.ErrorLog.Printf("renderer failed on cancel: %v", err)
	}
	debug.DebugLog.Printf("transmit sequence cancelled at step %d", s.index)
}

// Done reports whether the sequence completed or was cancelled.
func (s *Sequencer) Done() bool {
	return s.done || s.cancelled
}

func (s *Sequencer) render(index int) error {
	step := s.steps[index]
	if s.onProgress != nil {
		s.onProgress(index, step)
	}
	return s.renderer.SetSymbol(step.Symbol)
}

// finish parks the renderer OFF and fires the terminal callback once.
func (s *Sequencer) finish() {
	s.done = true
	if err := s.renderer.SetSymbol(optic.Off); err != nil {
		debug.ErrorLog.Printf("renderer failed on finish: %v", err)
	}
	debug.DebugLog.Print("transmit sequence complete")

	if s.onComplete != nil {
		s.onComplete()
	}
}

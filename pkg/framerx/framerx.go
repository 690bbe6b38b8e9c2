// Package framerx decodes one on/off-keyed byte frame from brightness samples.
//
// The receiver is a tick-driven state machine: the sampling driver feeds it
// one timestamped brightness sample per tick and the machine walks
// calibration, start detection, bit sampling and end detection against the
// shared frame timing. There is no internal goroutine and no blocking call,
// all timing is derived from the tick timestamps.
package framerx

import (
	"errors"
	"fmt"
	"time"

	"luxlink/pkg/bitcodec"
	"luxlink/pkg/lightlevel"
	"luxlink/pkg/optic"

	"github.com/womat/debug"
)

var (
	// ErrFramingTimeout reports that a waited-for transition did not occur
	// within ToleranceFactor x the expected duration.
	ErrFramingTimeout = errors.New("framing timeout")
	// ErrMalformedFrame reports that the accumulated bits do not form a
	// valid 8-bit payload.
	ErrMalformedFrame = bitcodec.ErrMalformedFrame
	// ErrBaselineLost reports that the calibrated baseline disappeared or
	// was never established when a state needed it.
	ErrBaselineLost = errors.New("baseline lost")
)

// State is the receive state machine state.
type State int

const (
	// Idle means no session is active.
	Idle State = iota
	// Calibrating means the ambient baseline window is being collected.
	Calibrating
	// AwaitingStart means the receiver waits for the held start symbol.
	AwaitingStart
	// ReadingBits means the 8 payload bits are being sampled.
	ReadingBits
	// AwaitingEnd means the receiver waits for the held end symbol.
	AwaitingEnd
	// Complete is the successful terminal state, a byte was decoded.
	Complete
	// Failed is the failure terminal state.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Calibrating:
		return "CALIBRATING"
	case AwaitingStart:
		return "AWAITING_START"
	case ReadingBits:
		return "READING_BITS"
	case AwaitingEnd:
		return "AWAITING_END"
	case Complete:
		return "COMPLETE"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Terminal reports whether the state ends a session. The driver must stop
// ticking a session once it is terminal.
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// Receiver decodes one byte frame per session from brightness samples.
// All mutation happens in Tick, which the sampling driver calls once per
// sample on a single goroutine.
type Receiver struct {
	cfg        optic.TimingConfig
	classifier lightlevel.Classifier

	state      State
	calibrator *lightlevel.Calibrator
	baseline   *lightlevel.Baseline
	bits       []byte
	lastChange time.Time

	value byte
	err   error

	onDecoded func(byte)
	onError   func(error)
}

// New returns a receiver for the given frame timing. The classifier decides
// ON/OFF per sample, pass a lightlevel.Differential built from the config
// threshold for baseline-relative detection.
func New(cfg optic.TimingConfig, classifier lightlevel.Classifier) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier required", optic.ErrInvalidConfig)
	}

	return &Receiver{
		cfg:        cfg,
		classifier: classifier,
		state:      Idle,
		bits:       make([]byte, 0, bitcodec.FrameBits),
	}, nil
}

// OnDecoded registers the callback fired exactly once per successful session.
func (r *Receiver) OnDecoded(fn func(byte)) {
	r.onDecoded = fn
}

// OnError registers the callback fired exactly once per failed session.
// The error wraps one of ErrFramingTimeout, ErrMalformedFrame or
// ErrBaselineLost.
func (r *Receiver) OnError(fn func(error)) {
	r.onError = fn
}

// State returns the current session state.
func (r *Receiver) State() State {
	return r.state
}

// Baseline returns the calibrated baseline of the current session, or false
// if calibration has not completed.
func (r *Receiver) Baseline() (lightlevel.Baseline, bool) {
	if r.baseline == nil {
		return lightlevel.Baseline{}, false
	}
	return *r.baseline, true
}

// Value returns the decoded byte of a Complete session.
func (r *Receiver) Value() (byte, bool) {
	if r.state != Complete {
		return 0, false
	}
	return r.value, true
}

// Err returns the failure of a Failed session.
func (r *Receiver) Err() error {
	if r.state != Failed {
		return nil
	}
	return r.err
}

// Start begins a new receive session at now. An active session is stopped
// first, two sessions never overlap.
func (r *Receiver) Start(now time.Time) error {
	if r.state != Idle {
		debug.DebugLog.Printf("start while in state %v, stopping previous session", r.state)
		r.Stop()
	}

	c, err := lightlevel.NewCalibrator(r.cfg.CalibrationSampleCount)
	if err != nil {
		return err
	}

	r.calibrator = c
	r.baseline = nil
	r.bits = r.bits[:0]
	r.value = 0
	r.err = nil
	r.lastChange = now
	r.state = Calibrating

	debug.DebugLog.Printf("receive session started, calibrating with %d samples", r.cfg.CalibrationSampleCount)
	return nil
}

// Stop halts the session in any state and returns to Idle, discarding all
// session state. It is safe to call repeatedly.
func (r *Receiver) Stop() {
	r.state = Idle
	r.calibrator = nil
	r.bits = r.bits[:0]
	r.err = nil
}

// Reset is Stop plus clearing the baseline, leaving the receiver ready for
// a fresh Start. Calling it any number of times is harmless.
func (r *Receiver) Reset() {
	r.Stop()
	r.baseline = nil
	r.value = 0
}

// InvalidateBaseline discards the calibrated baseline. The next tick of any
// state that needs it fails the session with ErrBaselineLost.
func (r *Receiver) InvalidateBaseline() {
	r.baseline = nil
}

// Tick feeds one brightness sample taken at now into the state machine.
// Ticks on an Idle or terminal session are ignored.
func (r *Receiver) Tick(now time.Time, brightness float64) {
	switch r.state {
	case Idle, Complete, Failed:
		return
	case Calibrating:
		r.calibrate(now, brightness)
	case AwaitingStart:
		r.awaitStart(now, brightness)
	case ReadingBits:
		r.readBit(now, brightness)
	case AwaitingEnd:
		r.awaitEnd(now, brightness)
	}
}

// calibrate collects the ambient window and arms start detection once the
// baseline is fixed.
func (r *Receiver) calibrate(now time.Time, brightness float64) {
	done, err := r.calibrator.Add(brightness)
	if err != nil {
		r.fail(fmt.Errorf("%w: %v", ErrBaselineLost, err))
		return
	}
	if !done {
		return
	}

	b, err := r.calibrator.Baseline()
	if err != nil {
		r.fail(fmt.Errorf("%w: %v", ErrBaselineLost, err))
		return
	}

	r.baseline = &b
	r.calibrator = nil
	r.lastChange = now
	r.state = AwaitingStart

	debug.InfoLog.Printf("baseline calibrated: %.1f over %d samples", b.Mean, b.SampleCount)
}

// awaitStart waits for the light to be held ON for the start duration.
// A long quiet period only re-arms the wait, the receiver listens
// indefinitely until a start symbol arrives.
func (r *Receiver) awaitStart(now time.Time, brightness float64) {
	on, ok := r.classify(brightness)
	if !ok {
		return
	}
	elapsed := now.Sub(r.lastChange)

	switch {
	case on && elapsed >= r.cfg.StartDuration:
		r.bits = r.bits[:0]
		r.lastChange = now
		r.state = ReadingBits
		debug.DebugLog.Printf("start symbol detected after %v", elapsed)
	case !on && elapsed > r.cfg.Tolerance(r.cfg.StartDuration):
		r.lastChange = now
	}
}

// readBit samples the current classification each time a bit duration
// elapses. The sampling point is the boundary instant, not a window
// average, the emitter holds each symbol for the full bit duration and the
// driver ticks many times per bit.
func (r *Receiver) readBit(now time.Time, brightness float64) {
	on, ok := r.classify(brightness)
	if !ok {
		return
	}

	if now.Sub(r.lastChange) < r.cfg.BitDuration {
		return
	}

	bit := byte(0)
	if on {
		bit = 1
	}
	r.bits = append(r.bits, bit)
	r.lastChange = now
	debug.TraceLog.Printf("bit %d: %d", len(r.bits), bit)

	if len(r.bits) == bitcodec.FrameBits {
		r.state = AwaitingEnd
	}
}

// awaitEnd waits for the light to be held OFF for the end duration, then
// decodes the accumulated bits. A light still on past the patience window
// is a framing error.
func (r *Receiver) awaitEnd(now time.Time, brightness float64) {
	on, ok := r.classify(brightness)
	if !ok {
		return
	}
	elapsed := now.Sub(r.lastChange)

	switch {
	case !on && elapsed >= r.cfg.EndDuration:
		v, err := bitcodec.FromBits(r.bits)
		if err != nil {
			r.fail(err)
			return
		}

		r.value = v
		r.state = Complete
		debug.InfoLog.Printf("frame decoded: %d (%08b)", v, v)

		if r.onDecoded != nil {
			r.onDecoded(v)
		}
	case on && elapsed > r.cfg.Tolerance(r.cfg.EndDuration):
		r.fail(fmt.Errorf("%w: light still on %v past expected end", ErrFramingTimeout, elapsed-r.cfg.EndDuration))
	}
}

// classify maps a brightness sample to ON/OFF against the session baseline.
// A missing baseline fails the session.
func (r *Receiver) classify(brightness float64) (on, ok bool) {
	if r.baseline == nil {
		r.fail(fmt.Errorf("%w: no baseline in state %v", ErrBaselineLost, r.state))
		return false, false
	}
	return r.classifier.IsOn(brightness, r.baseline.Mean), true
}

// fail moves the session to the Failed terminal state and fires OnError once.
func (r *Receiver) fail(err error) {
	r.err = err
	r.state = Failed
	debug.ErrorLog.Printf("receive session failed: %v", err)

	if r.onError != nil {
		r.onError(err)
	}
}

package frametx

import (
	"testing"
	"time"

	"luxlink/pkg/led"
	"luxlink/pkg/optic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() optic.TimingConfig {
	return optic.TimingConfig{
		StartDuration:             100 * time.Millisecond,
		BitDuration:               30 * time.Millisecond,
		EndDuration:               100 * time.Millisecond,
		ToleranceFactor:           1.5,
		BrightnessChangeThreshold: 50,
		CalibrationSampleCount:    3,
	}
}

func TestBuildSequence(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		value   byte
		symbols []optic.Symbol
	}{
		{"zero", 0, []optic.Symbol{
			optic.On,
			optic.Off, optic.Off, optic.Off, optic.Off, optic.Off, optic.Off, optic.Off, optic.Off,
			optic.Off,
		}},
		{"all ones", 255, []optic.Symbol{
			optic.On,
			optic.On, optic.On, optic.On, optic.On, optic.On, optic.On, optic.On, optic.On,
			optic.Off,
		}},
		{"alternating msb first", 170, []optic.Symbol{
			optic.On,
			optic.On, optic.Off, optic.On, optic.Off, optic.On, optic.Off, optic.On, optic.Off,
			optic.Off,
		}},
		{"forty-two", 42, []optic.Symbol{
			optic.On,
			optic.Off, optic.Off, optic.On, optic.Off, optic.On, optic.Off, optic.On, optic.Off,
			optic.Off,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := BuildSequence(tt.value, cfg)
			require.Len(t, steps, 10)

			assert.Equal(t, cfg.StartDuration, steps[0].Duration)
			assert.Equal(t, cfg.EndDuration, steps[9].Duration)
			for i := 1; i <= 8; i++ {
				assert.Equal(t, cfg.BitDuration, steps[i].Duration)
			}

			for i, s := range steps {
				assert.Equal(t, tt.symbols[i], s.Symbol, "step %d", i)
			}
		})
	}
}

// play ticks the sequencer every interval until it is done or the budget
// of ticks is spent, and returns the number of ticks delivered.
func play(seq *Sequencer, start time.Time, interval time.Duration, budget int) int {
	for i := 1; i <= budget; i++ {
		seq.Tick(start.Add(time.Duration(i) * interval))
		if seq.Done() {
			return i
		}
	}
	return budget
}

func TestSequencerPlaysFrame(t *testing.T) {
	cfg := testConfig()
	emu := led.NewEmu()

	completions := 0
	seq, err := NewSequencer(170, cfg, emu, func() { completions++ })
	require.NoError(t, err)

	start := time.Unix(0, 0)
	require.NoError(t, seq.Start(start))
	assert.Equal(t, optic.On, emu.Last())

	play(seq, start, 10*time.Millisecond, 1000)

	require.True(t, seq.Done())
	assert.Equal(t, 1, completions)
	assert.Equal(t, optic.Off, emu.Last())

	// everything the renderer saw, in order: the 10 frame steps plus the
	// terminal OFF parking
	want := make([]optic.Symbol, 0, 11)
	for _, s := range BuildSequence(170, cfg) {
		want = append(want, s.Symbol)
	}
	want = append(want, optic.Off)
	assert.Equal(t, want, emu.History())
}

func TestSequencerCompletionFiresOnce(t *testing.T) {
	cfg := testConfig()
	emu := led.NewEmu()

	completions := 0
	seq, err := NewSequencer(7, cfg, emu, func() { completions++ })
	require.NoError(t, err)

	start := time.Unix(0, 0)
	require.NoError(t, seq.Start(start))
	play(seq, start, 10*time.Millisecond, 1000)

	// further ticks on a finished sequence are ignored
	for i := 0; i < 50; i++ {
		seq.Tick(start.Add(time.Hour + time.Duration(i)*time.Millisecond))
	}

	assert.Equal(t, 1, completions)
	assert.Equal(t, optic.Off, emu.Last())
}

func TestSequencerNeverSkipsSteps(t *testing.T) {
	cfg := testConfig()
	emu := led.NewEmu()

	seq, err := NewSequencer(255, cfg, emu, nil)
	require.NoError(t, err)

	start := time.Unix(0, 0)
	require.NoError(t, seq.Start(start))

	// each tick is hours late, yet exactly one step advances per tick
	for i := 1; !seq.Done(); i++ {
		seq.Tick(start.Add(time.Duration(i) * time.Hour))
	}

	// all 10 steps were rendered in order despite the scheduling pressure
	assert.Len(t, emu.History(), 11)
}

func TestSequencerProgress(t *testing.T) {
	cfg := testConfig()
	emu := led.NewEmu()

	var indexes []int
	seq, err := NewSequencer(42, cfg, emu, nil)
	require.NoError(t, err)
	seq.OnProgress(func(i int, _ optic.Step) { indexes = append(indexes, i) })

	start := time.Unix(0, 0)
	require.NoError(t, seq.Start(start))
	play(seq, start, 10*time.Millisecond, 1000)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, indexes)
}

func TestSequencerCancelAtEveryTick(t *testing.T) {
	cfg := testConfig()
	interval := 10 * time.Millisecond

	// a full playback of this frame takes this many ticks
	ref := mustSequencer(t, cfg, led.NewEmu(), nil)
	require.NoError(t, ref.Start(time.Unix(0, 0)))
	full := play(ref, time.Unix(0, 0), interval, 1000)

	for pos := 0; pos <= full; pos++ {
		emu := led.NewEmu()
		completions := 0
		seq := mustSequencer(t, cfg, emu, func() { completions++ })

		start := time.Unix(0, 0)
		require.NoError(t, seq.Start(start))

		for i := 1; i <= pos && !seq.Done(); i++ {
			seq.Tick(start.Add(time.Duration(i) * interval))
		}
		completedBefore := completions
		seq.Cancel()

		// ticks after cancellation must be suppressed
		for i := pos + 1; i <= pos+20; i++ {
			seq.Tick(start.Add(time.Duration(i) * interval))
		}

		assert.Equal(t, completedBefore, completions, "cancel at tick %d", pos)
		assert.LessOrEqual(t, completions, 1, "cancel at tick %d", pos)
		assert.Equal(t, optic.Off, emu.Last(), "cancel at tick %d", pos)
	}
}

func TestSequencerStartTwice(t *testing.T) {
	cfg := testConfig()
	seq := mustSequencer(t, cfg, led.NewEmu(), nil)

	start := time.Unix(0, 0)
	require.NoError(t, seq.Start(start))
	assert.ErrorIs(t, seq.Start(start), ErrAlreadyStarted)
}

func TestNewSequencerValidation(t *testing.T) {
	cfg := testConfig()

	_, err := NewSequencer(1, cfg, nil, nil)
	assert.ErrorIs(t, err, ErrNoRenderer)

	bad := cfg
	bad.BitDuration = 0
	_, err = NewSequencer(1, bad, led.NewEmu(), nil)
	assert.ErrorIs(t, err, optic.ErrInvalidConfig)
}

func mustSequencer(t *testing.T, cfg optic.TimingConfig, r Renderer, onComplete func()) *Sequencer {
	t.Helper()

	seq, err := NewSequencer(60, cfg, r, onComplete)
	require.NoError(t, err)
	return seq
}

//+build !windows

package led

import (
	"fmt"

	"luxlink/pkg/optic"

	"github.com/warthog618/gpiod"
)

// Line renders symbols on a GPIO line requested from the character device.
// This is the default backend.
type Line struct {
	chip *gpiod.Chip
	line *gpiod.Line
}

// Open requests the given GPIO line as an output, initially OFF.
//  Control is held until Close, there can only be one owner of the line.
func Open(gpio int) (*Line, error) {
	if gpio < 0 {
		return nil, fmt.Errorf("%w: gpio %d", ErrInvalidParam, gpio)
	}

	c, err := gpiod.NewChip(chip)
	if err != nil {
		return nil, err
	}

	l, err := c.RequestLine(gpio, gpiod.AsOutput(0))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return &Line{chip: c, line: l}, nil
}

// SetSymbol drives the line high for ON and low for OFF.
func (l *Line) SetSymbol(s optic.Symbol) error {
	v := 0
	if s == optic.On {
		v = 1
	}
	return l.line.SetValue(v)
}

// Close parks the line OFF and releases it.
func (l *Line) Close() error {
	_ = l.line.SetValue(0)

	err := l.line.Close()
	if e := l.chip.Close(); err == nil {
		err = e
	}
	return err
}

//+build !windows

package led

import (
	"fmt"

	"luxlink/pkg/optic"

	"github.com/warthog618/gpio"
)

// MemPin renders symbols on a memory-mapped GPIO pin. It avoids the
// character device round trip per symbol change and is kept for boards
// where /dev/gpiomem is available.
type MemPin struct {
	pin *gpio.Pin
}

// OpenMem maps the GPIO memory range and configures the pin as an output,
// initially OFF.
func OpenMem(pinNr int) (*MemPin, error) {
	if pinNr < 0 {
		return nil, fmt.Errorf("%w: pin %d", ErrInvalidParam, pinNr)
	}

	if err := gpio.Open(); err != nil {
		return nil, err
	}

	p := gpio.NewPin(pinNr)
	p.Output()
	p.Low()

	return &MemPin{pin: p}, nil
}

// SetSymbol drives the pin high for ON and low for OFF.
func (p *MemPin) SetSymbol(s optic.Symbol) error {
	if s == optic.On {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	return nil
}

// Close parks the pin OFF and unmaps the GPIO memory.
func (p *MemPin) Close() error {
	p.pin.Low()
	return gpio.Close()
}

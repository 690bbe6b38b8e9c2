package led

import (
	"sync"

	"luxlink/pkg/optic"
)

// Emu is a renderer without hardware behind it. It records the rendered
// symbols so tests and non-Linux systems can observe the transmit side.
type Emu struct {
	mu      sync.Mutex
	last    optic.Symbol
	history []optic.Symbol
}

// NewEmu returns an emulated renderer, initially OFF.
func NewEmu() *Emu {
	return &Emu{last: optic.Off}
}

// SetSymbol records the symbol.
func (e *Emu) SetSymbol(s optic.Symbol) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.last = s
	e.history = append(e.history, s)
	return nil
}

// Last returns the most recently rendered symbol.
func (e *Emu) Last() optic.Symbol {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// History returns a copy of all rendered symbols in order.
func (e *Emu) History() []optic.Symbol {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := make([]optic.Symbol, len(e.history))
	copy(h, e.history)
	return h
}

// Close parks the emulated renderer OFF.
func (e *Emu) Close() error {
	return e.SetSymbol(optic.Off)
}

//+build windows

package led

// Open returns an emulated renderer, there is no GPIO on Windows systems.
func Open(_ int) (*Emu, error) {
	return NewEmu(), nil
}

// OpenMem returns an emulated renderer, there is no GPIO on Windows systems.
func OpenMem(_ int) (*Emu, error) {
	return NewEmu(), nil
}

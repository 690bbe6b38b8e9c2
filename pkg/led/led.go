// Package led renders optical symbols on a GPIO-driven light source
package led

import "fmt"

// chip is the GPIO character device driving the LED line.
const chip = "gpiochip0"

var ErrInvalidParam = fmt.Errorf("invalid parameters")

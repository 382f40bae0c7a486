//go:build !tinygo

// Package periph drives the Quick Charge data lines from GPIOs exposed through
// periph.io, such as those of a Raspberry Pi.
package periph

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/cpu"

	"github.com/oxplot/go-qc"
	"github.com/oxplot/go-qc/qcdriver"
)

// Pin adapts a periph GPIO to qc.Pin.
type Pin struct {
	p gpio.PinIO
}

// New wraps p.
func New(p gpio.PinIO) *Pin {
	return &Pin{p: p}
}

// Low implements qc.Pin.
func (p *Pin) Low() error {
	return p.p.Out(gpio.Low)
}

// High implements qc.Pin.
func (p *Pin) High() error {
	return p.p.Out(gpio.High)
}

// Float implements qc.Pin. The pin is switched to an input with no pull so
// the resistor divider alone sets the line level.
func (p *Pin) Float() error {
	return p.p.In(gpio.Float, gpio.NoEdge)
}

func (p *Pin) String() string {
	return p.p.String()
}

// Open initializes the host drivers and looks up the three pins by name, in
// the order expected by qcsink.New. Names are those known to gpioreg, such as
// "GPIO17".
func Open(dplus, dminusGND, dminus3V3 string) (*Pin, *Pin, *Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, nil, err
	}
	var pins [3]*Pin
	for i, name := range [...]string{dplus, dminusGND, dminus3V3} {
		p := gpioreg.ByName(name)
		if p == nil {
			qc.LogError(qc.ComponentDriver, "gpio lookup failed", "pin", name)
			return nil, nil, nil, fmt.Errorf("periph: %q: %w", name, qc.ErrPinNotFound)
		}
		pins[i] = New(p)
	}
	qc.LogInfo(qc.ComponentDriver, "gpios opened", "dplus", dplus, "dminus_gnd", dminusGND, "dminus_3v3", dminus3V3)
	return pins[0], pins[1], pins[2], nil
}

// NewClock returns a clock that busy waits with cpu.Nanospin, which is
// accurate at the microsecond scale where time.Sleep is not.
func NewClock() *qcdriver.Clock {
	return qcdriver.NewClock(cpu.Nanospin)
}

// Halt floats all the given pins, leaving both data lines to the resistor
// dividers. Call it when releasing the lines.
func Halt(pins ...*Pin) error {
	for _, p := range pins {
		if err := p.Float(); err != nil {
			return err
		}
	}
	return nil
}

var _ qc.Pin = (*Pin)(nil)

// Package mcp23017 drives the Quick Charge data lines from the pins of an
// MCP23017 I2C port expander, for boards whose own GPIOs are taken or cannot
// float.
//
// Every pin change is an I2C transaction, so the bus should run at 400kHz or
// faster to keep the 200µs step pulses close to their nominal width.
package mcp23017

import (
	"fmt"

	"tinygo.org/x/drivers"
	expander "tinygo.org/x/drivers/mcp23017"

	"github.com/oxplot/go-qc"
)

// Pin adapts an expander pin to qc.Pin.
type Pin struct {
	p expander.Pin
}

// New wraps p.
func New(p expander.Pin) Pin {
	return Pin{p: p}
}

// Low implements qc.Pin.
func (p Pin) Low() error {
	// Latch the level before enabling the output driver so the line never
	// glitches to the previous output level.
	if err := p.p.Low(); err != nil {
		return err
	}
	return p.p.SetMode(expander.Output)
}

// High implements qc.Pin.
func (p Pin) High() error {
	if err := p.p.High(); err != nil {
		return err
	}
	return p.p.SetMode(expander.Output)
}

// Float implements qc.Pin. The internal pull-up is left disabled.
func (p Pin) Float() error {
	return p.p.SetMode(expander.Input)
}

// Open connects to the expander at addr on bus and returns its pins numbered
// dplus, dminusGND and dminus3V3 (0-15, port B starting at 8), in the order
// expected by qcsink.New.
func Open(bus drivers.I2C, addr uint8, dplus, dminusGND, dminus3V3 int) (Pin, Pin, Pin, error) {
	for _, n := range [...]int{dplus, dminusGND, dminus3V3} {
		if n < 0 || n >= expander.PinCount {
			return Pin{}, Pin{}, Pin{}, fmt.Errorf("mcp23017: pin %d: %w", n, qc.ErrPinNotFound)
		}
	}
	dev, err := expander.NewI2C(bus, addr)
	if err != nil {
		qc.LogError(qc.ComponentDriver, "mcp23017 init failed", "addr", addr, "err", err)
		return Pin{}, Pin{}, Pin{}, err
	}
	return New(dev.Pin(dplus)), New(dev.Pin(dminusGND)), New(dev.Pin(dminus3V3)), nil
}

var _ qc.Pin = Pin{}

//go:build tinygo

// Package tinygo drives the Quick Charge data lines from microcontroller GPIOs
// under TinyGo.
package tinygo

import (
	"machine"
	"time"

	"github.com/oxplot/go-qc"
	"github.com/oxplot/go-qc/qcdriver"
)

// Pin adapts a machine.Pin to qc.Pin.
type Pin machine.Pin

// Low implements qc.Pin. The level is written both before and after enabling
// the output: ports that keep their output latch while in input mode then
// never drive the stale level, and the rest get the level once configured.
func (p Pin) Low() error {
	mp := machine.Pin(p)
	mp.Low()
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.Low()
	return nil
}

// High implements qc.Pin.
func (p Pin) High() error {
	mp := machine.Pin(p)
	mp.High()
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.High()
	return nil
}

// Float implements qc.Pin.
func (p Pin) Float() error {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// Pins converts the three GPIOs to qc pins, in the order expected by
// qcsink.New.
func Pins(dplus, dminusGND, dminus3V3 machine.Pin) (Pin, Pin, Pin) {
	return Pin(dplus), Pin(dminusGND), Pin(dminus3V3)
}

// NewClock returns a clock backed by the TinyGo runtime timer. time.Sleep
// does not yield to an OS scheduler here and is accurate enough for the step
// pulses.
func NewClock() *qcdriver.Clock {
	return qcdriver.NewClock(time.Sleep)
}

var _ qc.Pin = Pin(0)

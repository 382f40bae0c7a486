package mcp23017

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	expander "tinygo.org/x/drivers/mcp23017"
	"tinygo.org/x/drivers/tester"

	"github.com/oxplot/go-qc"
	"github.com/oxplot/go-qc/qcsink"
)

// Register addresses of port A.
const (
	regIODIR = 0x00 // 1 = input
	regGPIO  = 0x12
)

func TestPinLevels(t *testing.T) {
	c := qt.New(t)
	bus := tester.NewI2CBus(c)
	fdev := bus.NewDevice(0x20)
	fdev.Registers[regIODIR] = 0xff
	dev, err := expander.NewI2C(bus, 0x20)
	c.Assert(err, qt.IsNil)
	p := New(dev.Pin(3))

	c.Assert(p.High(), qt.IsNil)
	c.Assert(fdev.Registers[regGPIO]&(1<<3), qt.Not(qt.Equals), uint8(0))
	c.Assert(fdev.Registers[regIODIR]&(1<<3), qt.Equals, uint8(0))

	c.Assert(p.Low(), qt.IsNil)
	c.Assert(fdev.Registers[regGPIO]&(1<<3), qt.Equals, uint8(0))
	c.Assert(fdev.Registers[regIODIR]&(1<<3), qt.Equals, uint8(0))

	c.Assert(p.Float(), qt.IsNil)
	c.Assert(fdev.Registers[regIODIR]&(1<<3), qt.Not(qt.Equals), uint8(0))

	// Other pins are left as they were.
	c.Assert(fdev.Registers[regIODIR], qt.Equals, uint8(0xff))
}

func TestOpen(t *testing.T) {
	c := qt.New(t)
	bus := tester.NewI2CBus(c)
	bus.NewDevice(0x21)

	_, _, _, err := Open(bus, 0x21, 0, 1, 16)
	c.Assert(errors.Is(err, qc.ErrPinNotFound), qt.Equals, true)

	_, _, _, err = Open(bus, 0x40, 0, 1, 2)
	c.Assert(err, qt.Not(qt.IsNil))

	_, _, _, err = Open(bus, 0x21, 0, 1, 2)
	c.Assert(err, qt.IsNil)
}

func TestNegotiatorOverExpander(t *testing.T) {
	c := qt.New(t)
	bus := tester.NewI2CBus(c)
	fdev := bus.NewDevice(0x20)
	dp, dmg, dm3, err := Open(bus, 0x20, 0, 1, 2)
	c.Assert(err, qt.IsNil)

	n, err := qcsink.New(dp, dmg, dm3, &fastClock{}, qcsink.Config{})
	c.Assert(err, qt.IsNil)
	// Handshake: D+ at 0.6V, D- disconnected, so all three pins float.
	c.Assert(fdev.Registers[regIODIR]&0b111, qt.Equals, uint8(0b111))

	c.Assert(n.Goto12V(), qt.IsNil)
	c.Assert(n.Get(), qt.Equals, float32(12))
	// Continuous: D+ floats, D- GND pin floats, D- 3.3V pin drives high.
	c.Assert(fdev.Registers[regIODIR]&0b111, qt.Equals, uint8(0b011))
	c.Assert(fdev.Registers[regGPIO]&0b100, qt.Equals, uint8(0b100))
}

// fastClock skips over every wait.
type fastClock struct {
	now qc.Ticks
}

func (c *fastClock) Now() qc.Ticks {
	c.now = c.now.Add(1000)
	return c.now
}

func (c *fastClock) Delay(us uint32) {
	c.now = c.now.Add(us)
}

// Package qc defines high level interfaces and types for driving a Quick
// Charge 2.0/3.0 power source from the sink side over the USB D+/D- lines.
package qc

import (
	"errors"
)

// Mode is the Quick Charge signalling mode the power source is believed to be
// in.
type Mode uint8

const (
	// ModeDiscrete offers only the fixed 5V, 9V, 12V and 20V presets.
	ModeDiscrete Mode = iota
	// ModeContinuous allows stepping the voltage in 0.2V increments.
	ModeContinuous
)

func (m Mode) String() string {
	switch m {
	case ModeDiscrete:
		return "Discrete"
	case ModeContinuous:
		return "Continuous"
	default:
		return "INVALID"
	}
}

// LineState is the logical level of a single data line as seen by the power
// source. D+ can only be in LineGND, Line0V6 and Line3V3. D- additionally
// supports LineDisconnected, which is required during the handshake.
type LineState uint8

const (
	LineGND          LineState = iota // Driven to ground
	Line0V6                           // Held at 0.6V by the resistor divider
	Line3V3                           // Driven to 3.3V
	LineDisconnected                  // Both divider pins floating
)

func (l LineState) String() string {
	switch l {
	case LineGND:
		return "GND"
	case Line0V6:
		return "0.6V"
	case Line3V3:
		return "3.3V"
	case LineDisconnected:
		return "Disconnected"
	default:
		return "INVALID"
	}
}

// Pin is a single GPIO that feeds one of the resistor dividers on the data
// lines. Implementations must leave the pin in exactly the requested state
// when a method returns without error.
//
// Pins may be running on microcontrollers, so implementations should avoid
// heap allocation in these methods.
type Pin interface {
	// Low configures the pin as an output driving logic 0.
	Low() error

	// High configures the pin as an output driving logic 1.
	High() error

	// Float configures the pin as a high impedance input.
	Float() error
}

// Ticks is a monotonic timestamp in microseconds. It wraps around roughly
// every 71 minutes, so timestamps must only be compared through Sub.
type Ticks uint32

// Add returns t advanced by us microseconds.
func (t Ticks) Add(us uint32) Ticks {
	return t + Ticks(us)
}

// Sub returns the signed number of microseconds from u to t. The result is
// correct across a wraparound as long as the two timestamps are less than
// about 35 minutes apart.
func (t Ticks) Sub(u Ticks) int32 {
	return int32(t - u)
}

// Clock provides the time base for protocol timing.
type Clock interface {

	// Now returns the current monotonic time.
	Now() Ticks

	// Delay blocks for at least us microseconds. It is only used for the short
	// pulses of continuous mode, so implementations should prefer accuracy
	// over yielding the CPU.
	Delay(us uint32)
}

var (
	// ErrPinNotFound is returned by drivers when a pin cannot be resolved.
	ErrPinNotFound = errors.New("qc: pin not found")
)

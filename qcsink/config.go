package qcsink

import "errors"

// Voltage bounds used when Config leaves them unset. Most sources do not
// honour 20V, so the default ceiling is kept at 12V to reduce the chances of
// the tracked voltage drifting away from the real one.
const (
	DefaultMinVoltage = 3.6
	DefaultMaxVoltage = 12
)

// Limits of the Quick Charge 3.0 continuous mode.
const (
	minVoltageQC = 3.6
	maxVoltageQC = 20
)

var (
	ErrBadVoltage            = errors.New("qcsink: voltage must be >= 3.6V & <= 20V")
	ErrMaxVoltageLessThanMin = errors.New("qcsink: max voltage must be >= min voltage")

	errMissingHardware = errors.New("qcsink: pins and clock must not be nil")
)

// Config holds the construction parameters of a Negotiator.
type Config struct {

	// Minimum voltage in volts that Set, Increment and Decrement may reach.
	// Zero selects DefaultMinVoltage.
	MinVoltage float32

	// Maximum voltage in volts that Set, Increment and Decrement may reach.
	// Zero selects DefaultMaxVoltage.
	MaxVoltage float32

	// Voltage is requested right after the handshake. Like any other target,
	// it is clamped to the bounds above. Zero leaves the source at the 5V the
	// handshake selects, even when 5V lies outside the bounds.
	Voltage float32
}

func (c Config) withDefaults() Config {
	if c.MinVoltage == 0 {
		c.MinVoltage = DefaultMinVoltage
	}
	if c.MaxVoltage == 0 {
		c.MaxVoltage = DefaultMaxVoltage
	}
	return c
}

// Validate returns an error if the configured bounds are invalid.
func (c Config) Validate() error {
	c = c.withDefaults()
	if !(c.MinVoltage >= minVoltageQC && c.MinVoltage <= maxVoltageQC) ||
		!(c.MaxVoltage >= minVoltageQC && c.MaxVoltage <= maxVoltageQC) {
		return ErrBadVoltage
	}
	if c.MinVoltage > c.MaxVoltage {
		return ErrMaxVoltageLessThanMin
	}
	return nil
}

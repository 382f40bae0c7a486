// Package qcsink implements the sink side of Quick Charge 2.0/3.0 voltage
// negotiation. It drives the USB D+ and D- lines through three GPIO pins and
// resistor dividers:
//
//   - D+ pin: floating gives 0.6V through the divider, high gives 3.3V, low
//     gives GND.
//   - D- GND pin: connects D- to GND through 1kΩ when driven low.
//   - D- 3.3V pin: connects D- to 3.3V through 4.7kΩ when driven high.
//
// Driving both D- pins gives 0.6V, floating both disconnects D-.
//
// The protocol has no feedback channel. The voltage reported by the
// Negotiator is derived from the commands it has issued, not measured.
package qcsink

import (
	"fmt"
	"sync"

	"github.com/oxplot/go-qc"
)

// Protocol timers in microseconds. The mode and pulse timers were found by
// experimentation on real chargers.
const (
	timerHandshake = 1500000 // minimum hold of the handshake signature
	timerMode      = 100000  // settle time after a mode or preset change
	timerPulse     = 200     // width of a continuous mode step pulse
)

// Voltages in tenths of a volt.
const (
	step = 2 // 0.2V per continuous mode pulse

	preset5V  = 50
	preset9V  = 90
	preset12V = 120
	preset20V = 200
)

// Negotiator drives a Quick Charge source to a requested voltage. It is safe
// to call its methods from multiple goroutines, but calls are serialized: each
// one runs to completion, including its pulses, before the next begins.
type Negotiator struct {
	dplus     qc.Pin
	dminusGND qc.Pin
	dminus3V3 qc.Pin
	clock     qc.Clock

	mu sync.Mutex

	mode    qc.Mode
	voltage uint16 // tenths of a volt

	minVoltage uint16 // tenths of a volt
	maxVoltage uint16 // tenths of a volt

	// Each signalling operation sets this to the end of its settle or pulse
	// window. The next operation spins until it has passed.
	timerExpiry qc.Ticks

	dplusState  qc.LineState
	dminusState qc.LineState
}

// New creates a Negotiator and immediately performs the handshake, leaving
// the source in discrete 5V mode. If cfg.Voltage is set to anything other than
// 5V, it is then requested with Set. Without one, the tracked voltage stays at
// 5V even if MinVoltage is above it, until the first Set or step.
//
// New fails without touching any pin if cfg is invalid.
func New(dplus, dminusGND, dminus3V3 qc.Pin, clock qc.Clock, cfg Config) (*Negotiator, error) {
	if dplus == nil || dminusGND == nil || dminus3V3 == nil || clock == nil {
		return nil, errMissingHardware
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	n := &Negotiator{
		dplus:       dplus,
		dminusGND:   dminusGND,
		dminus3V3:   dminus3V3,
		clock:       clock,
		minVoltage:  toTenths(cfg.MinVoltage),
		maxVoltage:  toTenths(cfg.MaxVoltage),
		timerExpiry: clock.Now(),
		dminusState: qc.LineDisconnected,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.handshake(); err != nil {
		return nil, err
	}
	if cfg.Voltage != 0 && cfg.Voltage != 5 {
		if err := n.set(cfg.Voltage); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Handshake signals the source that a Quick Charge capable device is present
// and resets the tracked state to discrete 5V. The source ignores all other
// signalling until the handshake has been held for 1.5 seconds, which the next
// operation waits out.
func (n *Negotiator) Handshake() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handshake()
}

// Goto5V switches to the 5V preset, then to continuous mode.
func (n *Negotiator) Goto5V() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gotoPreset(preset5V)
}

// Goto9V switches to the 9V preset, then to continuous mode.
func (n *Negotiator) Goto9V() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gotoPreset(preset9V)
}

// Goto12V switches to the 12V preset, then to continuous mode.
func (n *Negotiator) Goto12V() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gotoPreset(preset12V)
}

// Goto20V switches to the 20V preset, then to continuous mode.
//
// Many sources do not support 20V and silently stay at their previous
// voltage. There is no way to detect this, so the tracked voltage becomes 20V
// regardless.
func (n *Negotiator) Goto20V() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gotoPreset(preset20V)
}

// EnterContinuous switches to continuous mode at the current voltage.
func (n *Negotiator) EnterContinuous() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enterContinuous()
}

// Increment requests 0.2V more, up to the maximum voltage. The pulse is sent
// even when the tracked voltage is already at the maximum.
func (n *Negotiator) Increment() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.increment()
}

// Decrement requests 0.2V less, down to the minimum voltage. The pulse is sent
// even when the tracked voltage is already at the minimum.
func (n *Negotiator) Decrement() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.decrement()
}

// Get returns the voltage the source is believed to output.
//
// The value is computed from the commands sent so far and can disagree with
// reality. For example, if the source tops out at 12V, an increment to 12.2V
// followed by a decrement reports 12V while the source outputs 11.8V.
func (n *Negotiator) Get() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return toVolts(n.voltage)
}

// Set requests an arbitrary voltage. The target is clamped to the configured
// bounds. Presets are reached with a single mode change; anything else is
// reached by stepping in continuous mode. Steps are 0.2V and partial steps are
// dropped, so a target off the 0.2V grid ends up to 0.1V short of it.
func (n *Negotiator) Set(volts float32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.set(volts)
}

// Mode returns the mode the source is believed to be in.
func (n *Negotiator) Mode() qc.Mode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

// Lines returns the logical states last driven onto D+ and D-.
func (n *Negotiator) Lines() (dplus, dminus qc.LineState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dplusState, n.dminusState
}

func (n *Negotiator) handshake() error {
	n.waitTimer()
	if err := n.setDMinus(qc.LineDisconnected); err != nil {
		return err
	}
	if err := n.setDPlus(qc.Line0V6); err != nil {
		return err
	}
	n.mode = qc.ModeDiscrete
	n.voltage = preset5V
	n.startTimer(timerHandshake)
	qc.LogDebug(qc.ComponentNegotiator, "handshake")
	return nil
}

// discrete5V is the only preset that may be entered directly from continuous
// mode, so it doubles as the waypoint for every other preset.
func (n *Negotiator) discrete5V() error {
	n.waitTimer()
	if err := n.setDPlus(qc.Line0V6); err != nil {
		return err
	}
	if err := n.setDMinus(qc.LineGND); err != nil {
		return err
	}
	n.mode = qc.ModeDiscrete
	n.voltage = preset5V
	n.startTimer(timerMode)
	return nil
}

// gotoPreset always ends in continuous mode. Left in discrete mode, a reset of
// the controller could float the pins into a signature that selects another
// preset.
func (n *Negotiator) gotoPreset(v uint16) error {
	if v == preset5V || n.mode != qc.ModeDiscrete {
		if err := n.discrete5V(); err != nil {
			return err
		}
	}
	if v > n.maxVoltage {
		qc.LogWarn(qc.ComponentNegotiator, "preset above maximum voltage", "voltage", toVolts(v), "max", toVolts(n.maxVoltage))
	}
	if v != preset5V {
		var dplus, dminus qc.LineState
		switch v {
		case preset9V:
			dplus, dminus = qc.Line3V3, qc.Line0V6
		case preset12V:
			dplus, dminus = qc.Line0V6, qc.Line0V6
		case preset20V:
			dplus, dminus = qc.Line3V3, qc.Line3V3
		default:
			panic("qcsink: not a preset voltage")
		}
		n.waitTimer()
		if err := n.setDMinus(dminus); err != nil {
			return err
		}
		if err := n.setDPlus(dplus); err != nil {
			return err
		}
		n.mode = qc.ModeDiscrete
		n.voltage = v
		n.startTimer(timerMode)
	}
	qc.LogDebug(qc.ComponentNegotiator, "preset", "voltage", toVolts(v))
	return n.enterContinuous()
}

func (n *Negotiator) enterContinuous() error {
	n.waitTimer()
	if err := n.setDPlus(qc.Line0V6); err != nil {
		return err
	}
	if err := n.setDMinus(qc.Line3V3); err != nil {
		return err
	}
	n.mode = qc.ModeContinuous
	n.startTimer(timerMode)
	qc.LogDebug(qc.ComponentNegotiator, "continuous mode", "voltage", toVolts(n.voltage))
	return nil
}

func (n *Negotiator) increment() error {
	v := n.voltage + step
	if v > n.maxVoltage {
		v = n.maxVoltage
		qc.LogDebug(qc.ComponentNegotiator, "increment clamped", "voltage", toVolts(v))
	}
	if n.mode != qc.ModeContinuous {
		if err := n.enterContinuous(); err != nil {
			return err
		}
	}
	n.waitTimer()
	if err := n.setDPlus(qc.Line3V3); err != nil {
		return err
	}
	n.clock.Delay(timerPulse)
	if err := n.setDPlus(qc.Line0V6); err != nil {
		return err
	}
	n.voltage = v
	n.startTimer(timerPulse)
	return nil
}

func (n *Negotiator) decrement() error {
	v := n.minVoltage
	if n.voltage >= n.minVoltage+step {
		v = n.voltage - step
	} else {
		qc.LogDebug(qc.ComponentNegotiator, "decrement clamped", "voltage", toVolts(v))
	}
	if n.mode != qc.ModeContinuous {
		if err := n.enterContinuous(); err != nil {
			return err
		}
	}
	n.waitTimer()
	if err := n.setDMinus(qc.LineGND); err != nil {
		return err
	}
	n.clock.Delay(timerPulse)
	if err := n.setDMinus(qc.Line3V3); err != nil {
		return err
	}
	n.voltage = v
	n.startTimer(timerPulse)
	return nil
}

func (n *Negotiator) set(volts float32) error {
	minV, maxV := toVolts(n.minVoltage), toVolts(n.maxVoltage)
	if !(volts >= minV) { // also catches NaN
		volts = minV
	}
	if volts > maxV {
		volts = maxV
	}

	target := toTenths(volts)
	switch target {
	case preset5V, preset9V, preset12V, preset20V:
		return n.gotoPreset(target)
	}

	cur := n.voltage
	if target < cur {
		for i := (cur - target) / step; i > 0; i-- {
			if err := n.decrement(); err != nil {
				return err
			}
		}
		return nil
	}
	for i := (target - cur) / step; i > 0; i-- {
		if err := n.increment(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Negotiator) startTimer(us uint32) {
	n.timerExpiry = n.clock.Now().Add(us)
}

// waitTimer busy waits until the window of the previous operation has ended.
// No window is longer than the handshake hold, so a deadline further away than
// that was passed long enough ago for the tick counter to wrap.
func (n *Negotiator) waitTimer() {
	for {
		left := n.timerExpiry.Sub(n.clock.Now())
		if left <= 0 || left > timerHandshake {
			return
		}
	}
}

func (n *Negotiator) setDPlus(s qc.LineState) error {
	var err error
	switch s {
	case qc.LineGND:
		err = n.dplus.Low()
	case qc.Line0V6:
		err = n.dplus.Float()
	case qc.Line3V3:
		err = n.dplus.High()
	default:
		panic("qcsink: D+ cannot be " + s.String())
	}
	if err != nil {
		qc.LogError(qc.ComponentNegotiator, "driving D+ failed", "state", s.String(), "err", err)
		return fmt.Errorf("qcsink: drive D+ to %s: %w", s, err)
	}
	n.dplusState = s
	return nil
}

func (n *Negotiator) setDMinus(s qc.LineState) error {
	var err error
	switch s {
	case qc.LineGND:
		if err = n.dminus3V3.Float(); err == nil {
			err = n.dminusGND.Low()
		}
	case qc.Line0V6:
		if err = n.dminusGND.Low(); err == nil {
			err = n.dminus3V3.High()
		}
	case qc.Line3V3:
		if err = n.dminusGND.Float(); err == nil {
			err = n.dminus3V3.High()
		}
	case qc.LineDisconnected:
		if err = n.dminusGND.Float(); err == nil {
			err = n.dminus3V3.Float()
		}
	default:
		panic("qcsink: invalid D- state")
	}
	if err != nil {
		qc.LogError(qc.ComponentNegotiator, "driving D- failed", "state", s.String(), "err", err)
		return fmt.Errorf("qcsink: drive D- to %s: %w", s, err)
	}
	n.dminusState = s
	return nil
}

func toTenths(v float32) uint16 {
	return uint16(v*10 + 0.5)
}

func toVolts(v uint16) float32 {
	return float32(v) / 10
}

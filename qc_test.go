package qc

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func TestTicksSub(t *testing.T) {
	tests := []struct {
		name string
		t, u Ticks
		want int32
	}{
		{"equal", 100, 100, 0},
		{"later", 300, 100, 200},
		{"earlier", 100, 300, -200},
		{"across wraparound", 50, math.MaxUint32 - 49, 100},
		{"before wraparound", math.MaxUint32 - 49, 50, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Sub(tt.u); got != tt.want {
				t.Errorf("Ticks(%d).Sub(%d) = %d, want %d", tt.t, tt.u, got, tt.want)
			}
		})
	}
}

func TestTicksAdd(t *testing.T) {
	start := Ticks(math.MaxUint32 - 100)
	end := start.Add(1500000)
	if got := end.Sub(start); got != 1500000 {
		t.Errorf("Add(1500000) then Sub = %d", got)
	}
	if end > start {
		t.Errorf("Add did not wrap: %d", end)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ModeDiscrete.String(), "Discrete"},
		{ModeContinuous.String(), "Continuous"},
		{Mode(9).String(), "INVALID"},
		{LineGND.String(), "GND"},
		{Line0V6.String(), "0.6V"},
		{Line3V3.String(), "3.3V"},
		{LineDisconnected.String(), "Disconnected"},
		{LineState(9).String(), "INVALID"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func saveLogging(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev, prevLevel := Logger(), LogLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		SetLogLevel(prevLevel)
	})
	var buf bytes.Buffer
	SetLogger(NewLogger(&buf))
	return &buf
}

func TestLogComponent(t *testing.T) {
	buf := saveLogging(t)
	SetLogLevel(slog.LevelDebug)
	LogDebug(ComponentNegotiator, "handshake", "voltage", 5)

	out := buf.String()
	for _, want := range []string{"msg=handshake", "component=negotiator", "voltage=5"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLogLevelFilters(t *testing.T) {
	buf := saveLogging(t)
	SetLogLevel(slog.LevelWarn)
	LogInfo(ComponentDriver, "hidden")
	LogWarn(ComponentDriver, "shown")
	LogError(ComponentDriver, "failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	for _, want := range []string{"level=WARN msg=shown", "level=ERROR msg=failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
	if got := LogLevel(); got != slog.LevelWarn {
		t.Errorf("LogLevel() = %v, want %v", got, slog.LevelWarn)
	}
}

func TestSetLoggerNil(t *testing.T) {
	saveLogging(t)
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() = nil after SetLogger(nil)")
	}
	LogError(ComponentDriver, "discarded")
}

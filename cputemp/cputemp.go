// Package cputemp reads the Raspberry Pi's CPU die temperature, preferably from
// the kernel's thermal zone interface and otherwise from vcgencmd.
package cputemp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"
	DefaultVcgencmd    = "vcgencmd"

	vcgencmdPrefix = "temp="
	vcgencmdSuffix = "'C"
)

// FormatError is returned when the output of a CPU temperature source can't be parsed.
type FormatError struct {
	Source string
	Line   string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cputemp: unexpected %s output %q: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("cputemp: unexpected %s output %q", e.Source, e.Line)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type Reader interface {
	// ReadCPUTemp returns the CPU temperature in degrees Celsius.
	ReadCPUTemp(ctx context.Context) (float64, error)
}

// New returns the default Reader: the thermal zone, falling back to vcgencmd.
func New() Reader {
	return Fallback{
		ThermalZone{Path: DefaultThermalZone},
		Vcgencmd{Command: DefaultVcgencmd},
	}
}

// ThermalZone reads a sysfs thermal zone, which reports millidegrees Celsius.
type ThermalZone struct {
	Path string
}

func (z ThermalZone) ReadCPUTemp(ctx context.Context) (float64, error) {
	b, err := os.ReadFile(z.Path)
	if err != nil {
		return 0, fmt.Errorf("cputemp: %w", err)
	}
	return ParseThermalZone(b)
}

func ParseThermalZone(b []byte) (float64, error) {
	s := string(bytes.TrimSpace(b))
	milli, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Source: "thermal zone", Line: s, Err: err}
	}
	return milli / 1000, nil
}

// Vcgencmd runs `vcgencmd measure_temp`, which prints a line like temp=48.3'C.
type Vcgencmd struct {
	Command string

	// run is swapped out in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (v Vcgencmd) ReadCPUTemp(ctx context.Context) (float64, error) {
	run := v.run
	if run == nil {
		run = runCommand
	}

	cmd := v.Command
	if cmd == "" {
		cmd = DefaultVcgencmd
	}

	out, err := run(ctx, cmd, "measure_temp")
	if err != nil {
		return 0, fmt.Errorf("cputemp: %s measure_temp failed: %w", cmd, err)
	}

	line, _, _ := strings.Cut(string(out), "\n")
	return ParseVcgencmd(line)
}

// ParseVcgencmd parses a line of the form temp=NN.N'C.
func ParseVcgencmd(line string) (float64, error) {
	line = strings.TrimSpace(line)

	s, ok := strings.CutPrefix(line, vcgencmdPrefix)
	if !ok {
		return 0, &FormatError{Source: "vcgencmd", Line: line}
	}
	s = strings.TrimSuffix(s, vcgencmdSuffix)

	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Source: "vcgencmd", Line: line, Err: err}
	}
	return t, nil
}

// Fallback tries each Reader in order and returns the first successful reading.
// If all fail the errors are joined.
type Fallback []Reader

func (f Fallback) ReadCPUTemp(ctx context.Context) (float64, error) {
	if len(f) == 0 {
		return 0, errors.New("cputemp: no readers configured")
	}

	var errs []error
	for _, r := range f {
		t, err := r.ReadCPUTemp(ctx)
		if err == nil {
			return t, nil
		}
		errs = append(errs, err)
	}
	return 0, errors.Join(errs...)
}

// FromName returns the Reader for a -cpu-source flag value.
func FromName(name string) (Reader, error) {
	switch name {
	case "", "auto":
		return New(), nil
	case "thermal":
		return ThermalZone{Path: DefaultThermalZone}, nil
	case "vcgencmd":
		return Vcgencmd{Command: DefaultVcgencmd}, nil
	default:
		return nil, fmt.Errorf("cputemp: unknown source %q", name)
	}
}

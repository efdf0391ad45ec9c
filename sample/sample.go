// Package sample turns raw sensor and CPU temperatures into corrected readings.
package sample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mtraver/sensehat/compensate"
	"github.com/mtraver/sensehat/cputemp"
	"github.com/mtraver/sensehat/measurement"
	"github.com/mtraver/sensehat/sensor"
)

// Sensor is the part of sensor.Sensor a Sampler uses.
type Sensor interface {
	Sense(e *sensor.Env) error
}

type Sampler struct {
	Sensor      Sensor
	CPU         cputemp.Reader
	Compensator compensate.Compensator
	DeviceID    string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Take reads the sensors and the CPU temperature once and returns the
// corrected reading. Any failure aborts the whole reading.
func (s Sampler) Take(ctx context.Context) (measurement.Reading, error) {
	var e sensor.Env
	if err := s.Sensor.Sense(&e); err != nil {
		return measurement.Reading{}, sensor.Unavailable("sensors", err)
	}

	ambient := compensate.Ambient(e.TempFromHumidity.Celsius(), e.TempFromPressure.Celsius())

	cpu, err := s.CPU.ReadCPUTemp(ctx)
	if err != nil {
		var fe *cputemp.FormatError
		if errors.As(err, &fe) {
			return measurement.Reading{}, fmt.Errorf("sample: %w", err)
		}
		return measurement.Reading{}, sensor.Unavailable("cpu temperature", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	return measurement.Reading{
		DeviceID:  s.DeviceID,
		Timestamp: now().UTC(),
		Temp:      s.Compensator.Correct(ambient, cpu),
		Humidity:  sensor.PercentRH(e.Humidity),
		Pressure:  sensor.HectoPascal(e.Pressure),
		RawTemp:   ambient,
		CPUTemp:   cpu,
	}, nil
}

// TakeN takes n readings, waiting interval between them.
func (s Sampler) TakeN(ctx context.Context, n int, interval time.Duration) ([]measurement.Reading, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample: need at least one sample, got %d", n)
	}

	readings := make([]measurement.Reading, 0, n)
	for i := 0; i < n; i++ {
		r, err := s.Take(ctx)
		if err != nil {
			return readings, err
		}
		readings = append(readings, r)

		if i < n-1 {
			select {
			case <-ctx.Done():
				return readings, ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	return readings, nil
}

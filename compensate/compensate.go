// Package compensate corrects Sense HAT temperature readings for heat from the
// Raspberry Pi's CPU, which sits directly beneath the sensors.
package compensate

import "fmt"

// DefaultFactor is the empirically chosen damping applied to the CPU excess.
const DefaultFactor = 1.5

type Compensator struct {
	// Factor divides the difference between the CPU and ambient temperatures
	// before it is subtracted from the ambient temperature. Must be positive.
	Factor float64
}

func New(factor float64) (Compensator, error) {
	if factor <= 0 {
		return Compensator{}, fmt.Errorf("compensate: factor must be positive, got %v", factor)
	}
	return Compensator{Factor: factor}, nil
}

// Ambient averages the temperatures reported by the humidity and pressure sensors.
func Ambient(fromHumidity, fromPressure float64) float64 {
	return (fromHumidity + fromPressure) / 2
}

// Correct returns ambient minus a fraction of the amount by which the CPU is hotter.
func (c Compensator) Correct(ambient, cpu float64) float64 {
	return ambient - ((cpu - ambient) / c.Factor)
}

// Package bme280 adapts an external Bosch BME280 breakout to the sensor
// interface, for boards without a Sense HAT. The BME280 has a single
// temperature sensor, so it reports the same value for both temperatures.
package bme280

import (
	"fmt"

	"github.com/mtraver/sensehat/sensor"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// DefaultAddr is the address of most breakouts. Some use 0x77.
const DefaultAddr = 0x76

type BME280 struct {
	dev *bmxx80.Dev
}

func New(bus i2c.Bus, addr uint16) (*BME280, error) {
	d, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bme280: %w", err)
	}

	return &BME280{
		dev: d,
	}, nil
}

func (s *BME280) Init() error {
	return nil
}

func (s *BME280) Sense(e *sensor.Env) error {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return fmt.Errorf("bme280: %w", err)
	}

	e.TempFromHumidity = env.Temperature
	e.TempFromPressure = env.Temperature
	e.Humidity = env.Humidity
	e.Pressure = env.Pressure
	return nil
}

func (s *BME280) Shutdown() error {
	return s.dev.Halt()
}

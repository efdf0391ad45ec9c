package sensor

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// ErrHardwareUnavailable wraps every failure to talk to a sensor: the device is
// absent, permission was denied, or an I/O error occurred.
var ErrHardwareUnavailable = errors.New("hardware unavailable")

// Env holds everything the Sense HAT's sensors measure. Each of its two
// environmental sensors reports its own temperature.
type Env struct {
	TempFromHumidity physic.Temperature
	TempFromPressure physic.Temperature
	Humidity         physic.RelativeHumidity
	Pressure         physic.Pressure
}

type Sensor interface {
	// Init performs any sensor-specific initialization.
	Init() error
	// Sense queries the sensor for measurements and sets the appropriate
	// field(s) in the given Env. This is so that the same Env may be passed
	// to a series of sensors that each measure different things.
	Sense(e *Env) error
	// Shutdown performs any sensor-specific shutdown or cleanup operations.
	Shutdown() error
}

// Unavailable wraps err so that it matches ErrHardwareUnavailable.
func Unavailable(name string, err error) error {
	if err == nil || errors.Is(err, ErrHardwareUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrHardwareUnavailable, name, err)
}

type named struct {
	name string
	s    Sensor
}

// Board is an ordered set of sensors that together fill one Env.
type Board struct {
	sensors []named
}

func NewBoard() *Board {
	return &Board{}
}

// Add appends a sensor to the board. Sensors are initialized and queried in
// the order they were added.
func (b *Board) Add(name string, s Sensor) *Board {
	b.sensors = append(b.sensors, named{name: name, s: s})
	return b
}

func (b *Board) Names() []string {
	names := make([]string, len(b.sensors))
	for i, n := range b.sensors {
		names[i] = n.name
	}
	return names
}

func (b *Board) Init() error {
	for _, n := range b.sensors {
		if err := n.s.Init(); err != nil {
			return Unavailable(n.name, err)
		}
	}
	return nil
}

// Sense passes e to each sensor in turn. It stops at the first failure so a
// partially filled Env is never mistaken for a complete one.
func (b *Board) Sense(e *Env) error {
	if len(b.sensors) == 0 {
		return fmt.Errorf("%w: board has no sensors", ErrHardwareUnavailable)
	}

	for _, n := range b.sensors {
		if err := n.s.Sense(e); err != nil {
			return Unavailable(n.name, err)
		}
	}
	return nil
}

// Shutdown shuts down every sensor, even if some fail.
func (b *Board) Shutdown() error {
	var errs []error
	for _, n := range b.sensors {
		if err := n.s.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.name, err))
		}
	}
	return errors.Join(errs...)
}

// FromCelsius converts degrees Celsius to a physic.Temperature.
func FromCelsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

func FromPercentRH(rh float64) physic.RelativeHumidity {
	return physic.RelativeHumidity(rh * float64(physic.PercentRH))
}

func FromHectoPascal(hpa float64) physic.Pressure {
	return physic.Pressure(hpa * float64(hectoPascal))
}

// PercentRH converts a physic.RelativeHumidity to percent.
func PercentRH(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

// HectoPascal converts a physic.Pressure to hPa, the unit the Sense HAT reports.
func HectoPascal(p physic.Pressure) float64 {
	return float64(p) / float64(hectoPascal)
}

const hectoPascal = 100 * physic.Pascal

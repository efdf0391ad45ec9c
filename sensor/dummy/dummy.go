// Package dummy provides a sensor that reports fixed values, for running the
// tools on machines without a Sense HAT.
package dummy

import (
	"log/slog"

	"github.com/mtraver/sensehat/sensor"
)

// Dummy fills every field of the Env with the values it was created with.
type Dummy struct {
	Env sensor.Env
}

// New returns a Dummy that reports a mild indoor environment.
func New() Dummy {
	return Dummy{
		Env: sensor.Env{
			TempFromHumidity: sensor.FromCelsius(31.5),
			TempFromPressure: sensor.FromCelsius(30.5),
			Humidity:         sensor.FromPercentRH(40),
			Pressure:         sensor.FromHectoPascal(1013.25),
		},
	}
}

func (d Dummy) Init() error {
	slog.Debug("dummy sensor init")
	return nil
}

func (d Dummy) Sense(e *sensor.Env) error {
	slog.Debug("dummy sensor sense")
	*e = d.Env
	return nil
}

func (d Dummy) Shutdown() error {
	slog.Debug("dummy sensor shutdown")
	return nil
}

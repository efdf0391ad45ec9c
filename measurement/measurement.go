package measurement

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Used for separating substrings in cache keys. The octothorpe is fine for
// this because device IDs can't contain it.
const keySep = "#"

// Precision is the number of decimal digits in the output of Line. It is fixed
// so that the output is the same across platforms.
const Precision = 2

// Reading is one corrected sample of the Sense HAT's environmental sensors.
type Reading struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Temp is the CPU-corrected temperature in °C.
	Temp float64 `json:"temp"`
	// Humidity is relative humidity in %.
	Humidity float64 `json:"rh"`
	// Pressure is in hPa.
	Pressure float64 `json:"pressure"`

	// RawTemp is the average of the two sensor temperatures before correction.
	RawTemp float64 `json:"raw_temp"`
	CPUTemp float64 `json:"cpu_temp"`
}

// Line formats the temperature, humidity and pressure as three space-separated
// numbers, each with Precision decimal digits.
func (r Reading) Line() string {
	return fmt.Sprintf("%.*f %.*f %.*f", Precision, r.Temp, Precision, r.Humidity, Precision, r.Pressure)
}

// ValueMap returns the reading's values keyed by metric name.
func (r Reading) ValueMap() map[string]float64 {
	return map[string]float64{
		"temp":     r.Temp,
		"rh":       r.Humidity,
		"pressure": r.Pressure,
		"raw_temp": r.RawTemp,
		"cpu_temp": r.CPUTemp,
	}
}

func (r Reading) String() string {
	vm := r.ValueMap()

	keys := make([]string, 0, len(vm))
	for k := range vm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		m, _ := GetMetric(k)
		parts = append(parts, fmt.Sprintf("%s=%.3f%s", m.Abbrv, vm[k], m.Unit))
	}

	return fmt.Sprintf("%s %s %s", r.DeviceID, strings.Join(parts, ", "), r.Timestamp.Format(time.RFC3339))
}

type Metric struct {
	Name  string
	Abbrv string
	Unit  string
}

var metrics = map[string]Metric{
	"temp":     {Name: "Temperature", Abbrv: "temp", Unit: "°C"},
	"rh":       {Name: "Relative humidity", Abbrv: "RH", Unit: "%"},
	"pressure": {Name: "Pressure", Abbrv: "P", Unit: "hPa"},
	"raw_temp": {Name: "Uncorrected temperature", Abbrv: "raw", Unit: "°C"},
	"cpu_temp": {Name: "CPU temperature", Abbrv: "CPU", Unit: "°C"},
}

// GetMetric returns the metadata for the metric with the given ValueMap key.
func GetMetric(name string) (Metric, bool) {
	m, ok := metrics[name]
	return m, ok
}

// CacheKeyLatest returns the cache key of the latest reading for the given device ID.
func CacheKeyLatest(deviceID string) string {
	return strings.Join([]string{deviceID, "latest"}, keySep)
}

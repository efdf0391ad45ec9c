package measurement

import (
	"errors"
	"math"
)

func Mean(readings []Reading) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		for k, v := range r.ValueMap() {
			sums[k] += v
			counts[k]++
		}
	}

	means := make(map[string]float64)
	for k, v := range sums {
		means[k] = v / float64(counts[k])
	}

	return means
}

func StdDev(readings []Reading) map[string]float64 {
	avg := Mean(readings)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		for k, v := range r.ValueMap() {
			sums[k] += math.Pow(v-avg[k], 2)
			counts[k]++
		}
	}

	devs := make(map[string]float64)
	for k, v := range sums {
		devs[k] = math.Sqrt(v / float64(counts[k]))
	}

	return devs
}

// Average combines several readings of the same device into one. The result
// carries the timestamp of the last reading.
func Average(readings []Reading) (Reading, error) {
	if len(readings) == 0 {
		return Reading{}, errors.New("measurement: no readings to average")
	}

	last := readings[len(readings)-1]
	avg := Mean(readings)
	return Reading{
		DeviceID:  last.DeviceID,
		Timestamp: last.Timestamp,
		Temp:      avg["temp"],
		Humidity:  avg["rh"],
		Pressure:  avg["pressure"],
		RawTemp:   avg["raw_temp"],
		CPUTemp:   avg["cpu_temp"],
	}, nil
}

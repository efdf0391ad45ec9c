package measurement

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMean(t *testing.T) {
	cases := []struct {
		name string
		rs   []Reading
		want map[string]float64
	}{
		{
			name: "empty",
			rs:   []Reading{},
			want: map[string]float64{},
		},
		{
			name: "single",
			rs: []Reading{
				{Temp: 18.3, Humidity: 55.0, Pressure: 1010, RawTemp: 28, CPUTemp: 45},
			},
			want: map[string]float64{
				"temp":     18.3,
				"rh":       55.0,
				"pressure": 1010,
				"raw_temp": 28,
				"cpu_temp": 45,
			},
		},
		{
			name: "multiple",
			rs: []Reading{
				{Temp: 18.3, Humidity: 55.0, Pressure: 1010, RawTemp: 28, CPUTemp: 45},
				{Temp: 19.0, Humidity: 33.0, Pressure: 1012, RawTemp: 29, CPUTemp: 47},
			},
			want: map[string]float64{
				"temp":     18.65,
				"rh":       44.0,
				"pressure": 1011,
				"raw_temp": 28.5,
				"cpu_temp": 46,
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Mean(c.rs)
			if diff := cmp.Diff(got, c.want, cmpFloats); diff != "" {
				t.Errorf("Unexpected result (-got +want):\n%s", diff)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	cases := []struct {
		name string
		rs   []Reading
		want map[string]float64
	}{
		{
			name: "empty",
			rs:   []Reading{},
			want: map[string]float64{},
		},
		{
			name: "single",
			rs: []Reading{
				{Temp: 18.3, Humidity: 55.0, Pressure: 1010},
			},
			want: map[string]float64{
				"temp":     0,
				"rh":       0,
				"pressure": 0,
				"raw_temp": 0,
				"cpu_temp": 0,
			},
		},
		{
			name: "multiple",
			rs: []Reading{
				{Temp: 18, Humidity: 40, Pressure: 1000, CPUTemp: 50},
				{Temp: 20, Humidity: 44, Pressure: 1000, CPUTemp: 50},
			},
			want: map[string]float64{
				"temp":     1,
				"rh":       2,
				"pressure": 0,
				"raw_temp": 0,
				"cpu_temp": 0,
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := StdDev(c.rs)
			if diff := cmp.Diff(got, c.want, cmpFloats); diff != "" {
				t.Errorf("Unexpected result (-got +want):\n%s", diff)
			}
		})
	}
}

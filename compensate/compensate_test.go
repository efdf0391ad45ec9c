package compensate

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var cmpFloats = cmpopts.EquateApprox(0, 0.001)

func TestCorrect(t *testing.T) {
	cases := []struct {
		name         string
		tempH, tempP float64
		cpu          float64
		factor       float64
		wantAmbient  float64
		want         float64
	}{
		{"default_factor", 20.0, 22.0, 40.0, DefaultFactor, 21.0, 8.333},
		{"cpu_equals_ambient", 25.0, 25.0, 25.0, DefaultFactor, 25.0, 25.0},
		{"cpu_cooler", 30.0, 30.0, 27.0, DefaultFactor, 30.0, 32.0},
		{"factor_two", 18.0, 20.0, 49.0, 2, 19.0, 4.0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			comp, err := New(c.factor)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			ambient := Ambient(c.tempH, c.tempP)
			if diff := cmp.Diff(ambient, c.wantAmbient, cmpFloats); diff != "" {
				t.Errorf("Unexpected ambient (-got +want):\n%s", diff)
			}

			if diff := cmp.Diff(comp.Correct(ambient, c.cpu), c.want, cmpFloats); diff != "" {
				t.Errorf("Unexpected result (-got +want):\n%s", diff)
			}
		})
	}
}

func TestNewInvalidFactor(t *testing.T) {
	for _, f := range []float64{0, -1.5} {
		t.Run(fmt.Sprintf("%v", f), func(t *testing.T) {
			if _, err := New(f); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

// Package color converts HSV colors, as HomeKit and the command line express them,
// to the RGB values the Sense HAT LED matrix displays.
package color

import (
	"errors"
	"fmt"
	"math"
)

var ErrOutOfRange = errors.New("color: value out of range")

// Black turns every LED off.
var Black = RGB{}

type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// RGB565 packs the color into the 16-bit format used by the LED framebuffer:
// 5 bits of red, 6 of green and 5 of blue.
func (c RGB) RGB565() uint16 {
	r := (uint16(c.R) >> 3) & 0x1F
	g := (uint16(c.G) >> 2) & 0x3F
	b := (uint16(c.B) >> 3) & 0x1F
	return (r << 11) | (g << 5) | b
}

// HSV is a color with all three components normalized to [0, 1].
type HSV struct {
	H, S, V float64
}

// RGB converts the color to 8-bit channels. Each channel is scaled by 255
// and truncated toward zero.
func (c HSV) RGB() RGB {
	r, g, b := HSVToRGB(c.H, c.S, c.V)
	return RGB{
		R: channel(r),
		G: channel(g),
		B: channel(b),
	}
}

func channel(x float64) uint8 {
	// Guard against inputs that stray outside [0, 1] through float error.
	return uint8(math.Max(0, math.Min(255, math.Trunc(x*255))))
}

// HSVToRGB converts normalized h, s and v to normalized r, g and b.
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}

	// The conversion forces rounding so h*6 is never fused into the subtraction below.
	hh := float64(h * 6)
	i := math.Floor(hh)
	f := hh - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// FromHSV builds a normalized HSV from hue in degrees and saturation and value
// in percent. Hue 360 is the same as hue 0.
func FromHSV(hue, saturation, value float64) (HSV, error) {
	if math.IsNaN(hue) || hue < 0 || hue > 360 {
		return HSV{}, fmt.Errorf("%w: hue %v not in [0, 360]", ErrOutOfRange, hue)
	}
	if math.IsNaN(saturation) || saturation < 0 || saturation > 100 {
		return HSV{}, fmt.Errorf("%w: saturation %v not in [0, 100]", ErrOutOfRange, saturation)
	}
	if math.IsNaN(value) || value < 0 || value > 100 {
		return HSV{}, fmt.Errorf("%w: value %v not in [0, 100]", ErrOutOfRange, value)
	}

	return HSV{
		H: hue / 360,
		S: saturation / 100,
		V: value / 100,
	}, nil
}

// FloorBrightness maps a brightness percentage onto [floor, 100] so that low
// levels still light the panel. A floor of 0 returns level unchanged.
func FloorBrightness(level, floor float64) float64 {
	return floor + level*(100-floor)/100
}

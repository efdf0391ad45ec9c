// Program setcolor lights the Sense HAT's LED matrix with one color, given as
// hue, saturation and value, or turns it off.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mtraver/sensehat/color"
	"github.com/mtraver/sensehat/display"
	"github.com/mtraver/sensehat/logging"
	"github.com/mtraver/sensehat/sensehat"
)

// Flags.
var (
	fbPath        string
	minBrightness float64
	dryrun        bool
	verbose       bool
	logJSON       bool
)

var errArgCount = errors.New("expected exactly 4 arguments")

func init() {
	flag.StringVar(&fbPath, "fb", "", "path to the LED matrix framebuffer device; found automatically if empty")
	flag.Float64Var(&minBrightness, "min-brightness", 0, "brightness percentage that value 0 maps to, so the panel stays lit at low values")
	flag.BoolVar(&dryrun, "dryrun", false, "set to true to log rather than set the color")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.BoolVar(&logJSON, "log-json", false, "log in JSON rather than text")

	flag.Usage = func() {
		message := `usage: setcolor [options] hue saturation value enabled

Positional Arguments (required):
  hue
	hue in degrees, 0 to 360
  saturation
	saturation in percent, 0 to 100
  value
	value (brightness) in percent, 0 to 100
  enabled
	0 turns the LEDs off, any other integer turns them on

Options:
`

		fmt.Fprint(flag.CommandLine.Output(), message)
		flag.PrintDefaults()
	}
}

func parseFlags() error {
	flag.Parse()

	if minBrightness < 0 || minBrightness > 100 {
		return fmt.Errorf("min-brightness must be in [0, 100], got %v", minBrightness)
	}

	return nil
}

type args struct {
	hue        float64
	saturation float64
	value      float64
	enabled    int
}

// parseArgs converts the positional arguments. The color is only range-checked
// when enabled, since a disabled panel ignores it.
func parseArgs(a []string) (args, error) {
	if len(a) != 4 {
		return args{}, fmt.Errorf("%w, got %d", errArgCount, len(a))
	}

	var parsed args
	var err error
	if parsed.hue, err = strconv.ParseFloat(a[0], 64); err != nil {
		return args{}, fmt.Errorf("invalid hue: %w", err)
	}
	if parsed.saturation, err = strconv.ParseFloat(a[1], 64); err != nil {
		return args{}, fmt.Errorf("invalid saturation: %w", err)
	}
	if parsed.value, err = strconv.ParseFloat(a[2], 64); err != nil {
		return args{}, fmt.Errorf("invalid value: %w", err)
	}
	if parsed.enabled, err = strconv.Atoi(a[3]); err != nil {
		return args{}, fmt.Errorf("invalid enabled flag: %w", err)
	}

	if parsed.enabled != 0 {
		if _, err := color.FromHSV(parsed.hue, parsed.saturation, parsed.value); err != nil {
			return args{}, err
		}
	}

	return parsed, nil
}

// run makes exactly one call to d: SetColor when enabled, Clear otherwise.
func run(a args, floor float64, d display.Display, out io.Writer) error {
	fmt.Fprintf(out, "%v %v %v %d\n", a.hue, a.saturation, a.value, a.enabled)

	if a.enabled == 0 {
		return d.Clear()
	}

	hsv, err := color.FromHSV(a.hue, a.saturation, color.FloorBrightness(a.value, floor))
	if err != nil {
		return err
	}

	c := hsv.RGB()
	slog.Debug("converted color", "h", hsv.H, "s", hsv.S, "v", hsv.V, "rgb", c.String())
	return d.SetColor(c)
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	if err := parseFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	logger := logging.New(os.Stderr, "setcolor", logging.Options{Debug: verbose, JSON: logJSON})
	slog.SetDefault(logger)

	a, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		if errors.Is(err, errArgCount) {
			flag.Usage()
		}
		return 2
	}

	var d display.Display = display.Log{Logger: logger}
	if !dryrun {
		fb, err := sensehat.OpenDisplay(fbPath)
		if err != nil {
			logger.Error("failed to open LED matrix", "err", err)
			return 1
		}
		defer fb.Close()
		logger.Debug("opened LED matrix", "fb", fb.String())
		d = fb
	}

	if err := run(a, minBrightness, d, os.Stdout); err != nil {
		logger.Error("failed to set LED matrix", "err", err)
		return 1
	}

	return 0
}

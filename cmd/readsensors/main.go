// Program readsensors reads the Sense HAT's environmental sensors once and prints
// the CPU-corrected temperature (°C), relative humidity (%) and pressure (hPa)
// on one line, each with two decimal digits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mtraver/sensehat/compensate"
	"github.com/mtraver/sensehat/cputemp"
	"github.com/mtraver/sensehat/logging"
	"github.com/mtraver/sensehat/sample"
	"github.com/mtraver/sensehat/sensehat"
)

// Flags.
var (
	board      string
	bus        string
	bme280Addr string
	factor     float64
	cpuSource  string
	verbose    bool
	logJSON    bool
)

func init() {
	flag.StringVar(&board, "board", sensehat.BoardSenseHAT, "sensor board: sensehat, bme280 or dummy")
	flag.StringVar(&bus, "bus", "", "I²C bus name; the first available bus if empty")
	flag.StringVar(&bme280Addr, "bme280-addr", "0x76", "I²C address of the BME280 when -board=bme280")
	flag.Float64Var(&factor, "factor", compensate.DefaultFactor, "divisor applied to the CPU's excess heat when correcting the temperature")
	flag.StringVar(&cpuSource, "cpu-source", "auto", "where to read the CPU temperature: auto, thermal or vcgencmd")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.BoolVar(&logJSON, "log-json", false, "log in JSON rather than text")
}

func parseFlags() (sensehat.SensorConfig, error) {
	flag.Parse()

	if len(flag.Args()) != 0 {
		return sensehat.SensorConfig{}, fmt.Errorf("unexpected arguments %q", flag.Args())
	}

	return newSensorConfig(board, bus, bme280Addr)
}

func newSensorConfig(board, bus, bme280Addr string) (sensehat.SensorConfig, error) {
	if err := sensehat.CheckBoard(board); err != nil {
		return sensehat.SensorConfig{}, err
	}

	addr, err := strconv.ParseUint(bme280Addr, 0, 16)
	if err != nil {
		return sensehat.SensorConfig{}, fmt.Errorf("invalid bme280-addr %q: %w", bme280Addr, err)
	}

	return sensehat.SensorConfig{
		Board:      board,
		Bus:        bus,
		BME280Addr: uint16(addr),
	}, nil
}

// run takes one reading and writes its line to out. Nothing is written on failure.
func run(ctx context.Context, s sample.Sampler, out io.Writer) error {
	r, err := s.Take(ctx)
	if err != nil {
		return err
	}

	slog.Debug("took reading", "raw_temp", r.RawTemp, "cpu_temp", r.CPUTemp, "temp", r.Temp)

	_, err = fmt.Fprintln(out, r.Line())
	return err
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	logger := logging.New(os.Stderr, "readsensors", logging.Options{Debug: verbose, JSON: logJSON})
	slog.SetDefault(logger)

	comp, err := compensate.New(factor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	cpu, err := cputemp.FromName(cpuSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}

	sensors, err := sensehat.OpenSensors(cfg)
	if err != nil {
		logger.Error("failed to open sensors", "board", cfg.Board, "err", err)
		return 1
	}
	defer func() {
		if err := sensors.Close(); err != nil {
			logger.Warn("failed to close sensors", "err", err)
		}
	}()

	s := sample.Sampler{
		Sensor:      sensors,
		CPU:         cpu,
		Compensator: comp,
	}

	if err := run(context.Background(), s, os.Stdout); err != nil {
		logger.Error("failed to read sensors", "err", err)
		return 1
	}

	return 0
}

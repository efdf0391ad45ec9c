// Package sensehat opens the Sense HAT's hardware. Each Open function returns
// a handle that the caller owns and must Close; nothing is held globally.
package sensehat

import (
	"errors"
	"fmt"

	"github.com/mtraver/sensehat/display"
	"github.com/mtraver/sensehat/sensor"
	"github.com/mtraver/sensehat/sensor/bme280"
	"github.com/mtraver/sensehat/sensor/dummy"
	"github.com/mtraver/sensehat/sensor/hts221"
	"github.com/mtraver/sensehat/sensor/lps25h"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	BoardSenseHAT = "sensehat"
	BoardBME280   = "bme280"
	BoardDummy    = "dummy"
)

// CheckBoard returns an error if name is not one of the known boards.
func CheckBoard(name string) error {
	switch name {
	case BoardSenseHAT, BoardBME280, BoardDummy:
		return nil
	}
	return fmt.Errorf("sensehat: unknown board %q", name)
}

type SensorConfig struct {
	// Board is one of BoardSenseHAT, BoardBME280 or BoardDummy.
	Board string
	// Bus is the I²C bus name passed to i2creg.Open. Empty means the first available bus.
	Bus        string
	BME280Addr uint16
}

// Sensors is an initialized sensor board and the bus it lives on.
type Sensors struct {
	*sensor.Board
	bus i2c.BusCloser
}

// Close shuts down the sensors and releases the bus.
func (s *Sensors) Close() error {
	err := s.Board.Shutdown()
	if s.bus != nil {
		err = errors.Join(err, s.bus.Close())
	}
	return err
}

func openBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, sensor.Unavailable("periph host init", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, sensor.Unavailable("open I²C bus", err)
	}
	return bus, nil
}

func newBoard(cfg SensorConfig, bus i2c.Bus) (*sensor.Board, error) {
	board := sensor.NewBoard()

	switch cfg.Board {
	case BoardSenseHAT:
		h, err := hts221.New(bus)
		if err != nil {
			return nil, sensor.Unavailable("hts221", err)
		}
		p, err := lps25h.New(bus)
		if err != nil {
			return nil, sensor.Unavailable("lps25h", err)
		}
		board.Add("hts221", h).Add("lps25h", p)
	case BoardBME280:
		addr := cfg.BME280Addr
		if addr == 0 {
			addr = bme280.DefaultAddr
		}
		s, err := bme280.New(bus, addr)
		if err != nil {
			return nil, sensor.Unavailable("bme280", err)
		}
		board.Add("bme280", s)
	default:
		return nil, fmt.Errorf("sensehat: unknown board %q", cfg.Board)
	}

	return board, nil
}

// OpenSensors opens and initializes the configured sensor board.
func OpenSensors(cfg SensorConfig) (*Sensors, error) {
	if cfg.Board == "" {
		cfg.Board = BoardSenseHAT
	}

	if err := CheckBoard(cfg.Board); err != nil {
		return nil, err
	}

	if cfg.Board == BoardDummy {
		board := sensor.NewBoard().Add("dummy", dummy.New())
		if err := board.Init(); err != nil {
			return nil, err
		}
		return &Sensors{Board: board}, nil
	}

	bus, err := openBus(cfg.Bus)
	if err != nil {
		return nil, err
	}

	board, err := newBoard(cfg, bus)
	if err != nil {
		bus.Close()
		return nil, err
	}

	s := &Sensors{Board: board, bus: bus}
	if err := board.Init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenDisplay opens the LED matrix framebuffer at path, or finds it if path is empty.
func OpenDisplay(path string) (*display.Framebuffer, error) {
	if path == "" {
		var err error
		path, err = display.Find(display.DefaultSysfsDir, display.DefaultDevDir)
		if err != nil {
			return nil, err
		}
	}
	return display.OpenFramebuffer(path)
}

// Package hts221 drives the ST HTS221 humidity and temperature sensor on the Sense HAT.
package hts221

import (
	"errors"
	"fmt"
	"time"

	"github.com/mtraver/sensehat/sensor"
	"periph.io/x/conn/v3/i2c"
)

// Addr is the HTS221's fixed I²C address.
const Addr = 0x5F

const (
	regWhoAmI      = 0x0F
	regAvConf      = 0x10
	regCtrl1       = 0x20
	regCtrl2       = 0x21
	regStatus      = 0x27
	regHumidityOut = 0x28
	regCalibration = 0x30

	// Setting the MSB of the register address enables auto-increment for multi-byte reads.
	autoIncrement = 0x80

	whoAmI = 0xBC

	// 32 internal humidity samples, 16 temperature samples.
	avConf = 0x1B
	// Powered on, block data update, one-shot mode.
	ctrl1On  = 0x84
	ctrl1Off = 0x00
	oneShot  = 0x01

	statusTempReady     = 0x01
	statusHumidityReady = 0x02

	pollInterval = 5 * time.Millisecond
	maxPolls     = 100
)

var errNotReady = errors.New("hts221: conversion did not complete")

// calibration holds the factory calibration stored in the sensor. Readings are
// linearly interpolated between its two points.
type calibration struct {
	h0RH, h1RH     float64
	t0DegC, t1DegC float64
	h0Out, h1Out   int16
	t0Out, t1Out   int16
}

func le16(lo, hi byte) int16 {
	return int16(uint16(lo) | uint16(hi)<<8)
}

func parseCalibration(b [16]byte) calibration {
	msb := uint16(b[5])
	return calibration{
		h0RH:   float64(b[0]) / 2,
		h1RH:   float64(b[1]) / 2,
		t0DegC: float64(uint16(b[2])|(msb&0x03)<<8) / 8,
		t1DegC: float64(uint16(b[3])|(msb&0x0C)<<6) / 8,
		h0Out:  le16(b[6], b[7]),
		h1Out:  le16(b[10], b[11]),
		t0Out:  le16(b[12], b[13]),
		t1Out:  le16(b[14], b[15]),
	}
}

func (c calibration) temperature(raw int16) float64 {
	return c.t0DegC + (float64(raw)-float64(c.t0Out))*(c.t1DegC-c.t0DegC)/(float64(c.t1Out)-float64(c.t0Out))
}

func (c calibration) humidity(raw int16) float64 {
	h := c.h0RH + (float64(raw)-float64(c.h0Out))*(c.h1RH-c.h0RH)/(float64(c.h1Out)-float64(c.h0Out))
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}

type Dev struct {
	d   *i2c.Dev
	cal calibration
}

// New checks that an HTS221 is present on the bus and reads its calibration.
func New(bus i2c.Bus) (*Dev, error) {
	d := &i2c.Dev{Bus: bus, Addr: Addr}

	id := make([]byte, 1)
	if err := d.Tx([]byte{regWhoAmI}, id); err != nil {
		return nil, fmt.Errorf("hts221: %w", err)
	}
	if id[0] != whoAmI {
		return nil, fmt.Errorf("hts221: unexpected WHO_AM_I %#02x, want %#02x", id[0], whoAmI)
	}

	var cal [16]byte
	if err := d.Tx([]byte{regCalibration | autoIncrement}, cal[:]); err != nil {
		return nil, fmt.Errorf("hts221: reading calibration: %w", err)
	}

	return &Dev{
		d:   d,
		cal: parseCalibration(cal),
	}, nil
}

func (s *Dev) Init() error {
	if _, err := s.d.Write([]byte{regAvConf, avConf}); err != nil {
		return fmt.Errorf("hts221: %w", err)
	}
	if _, err := s.d.Write([]byte{regCtrl1, ctrl1On}); err != nil {
		return fmt.Errorf("hts221: %w", err)
	}
	return nil
}

// Sense triggers a one-shot conversion and sets Humidity and TempFromHumidity.
func (s *Dev) Sense(e *sensor.Env) error {
	if _, err := s.d.Write([]byte{regCtrl2, oneShot}); err != nil {
		return fmt.Errorf("hts221: %w", err)
	}

	if err := s.waitReady(); err != nil {
		return err
	}

	out := make([]byte, 4)
	if err := s.d.Tx([]byte{regHumidityOut | autoIncrement}, out); err != nil {
		return fmt.Errorf("hts221: %w", err)
	}

	e.Humidity = sensor.FromPercentRH(s.cal.humidity(le16(out[0], out[1])))
	e.TempFromHumidity = sensor.FromCelsius(s.cal.temperature(le16(out[2], out[3])))
	return nil
}

func (s *Dev) waitReady() error {
	const ready = statusTempReady | statusHumidityReady

	status := make([]byte, 1)
	for i := 0; i < maxPolls; i++ {
		if err := s.d.Tx([]byte{regStatus}, status); err != nil {
			return fmt.Errorf("hts221: %w", err)
		}
		if status[0]&ready == ready {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return errNotReady
}

func (s *Dev) Shutdown() error {
	if _, err := s.d.Write([]byte{regCtrl1, ctrl1Off}); err != nil {
		return fmt.Errorf("hts221: %w", err)
	}
	return nil
}

func (s *Dev) String() string {
	return "HTS221"
}

// Package lps25h drives the ST LPS25H pressure and temperature sensor on the Sense HAT.
package lps25h

import (
	"errors"
	"fmt"
	"time"

	"github.com/mtraver/sensehat/sensor"
	"periph.io/x/conn/v3/i2c"
)

// Addr is the LPS25H's I²C address as wired on the Sense HAT.
const Addr = 0x5C

const (
	regWhoAmI     = 0x0F
	regResConf    = 0x10
	regCtrl1      = 0x20
	regCtrl2      = 0x21
	regStatus     = 0x27
	regPressOutXL = 0x28

	autoIncrement = 0x80

	whoAmI = 0xBD

	// 32 pressure samples, 16 temperature samples.
	resConf = 0x05
	// Powered on, block data update, one-shot mode.
	ctrl1On  = 0x84
	ctrl1Off = 0x00
	oneShot  = 0x01

	statusTempReady     = 0x01
	statusPressureReady = 0x02

	pollInterval = 5 * time.Millisecond
	maxPolls     = 100
)

var errNotReady = errors.New("lps25h: conversion did not complete")

// pressure converts the 24-bit two's complement output to hPa.
func pressure(xl, l, h byte) float64 {
	raw := int32(uint32(xl)|uint32(l)<<8|uint32(h)<<16) << 8 >> 8
	return float64(raw) / 4096
}

// temperature converts the 16-bit output to degrees Celsius.
func temperature(l, h byte) float64 {
	raw := int16(uint16(l) | uint16(h)<<8)
	return 42.5 + float64(raw)/480
}

type Dev struct {
	d *i2c.Dev
}

// New checks that an LPS25H is present on the bus.
func New(bus i2c.Bus) (*Dev, error) {
	d := &i2c.Dev{Bus: bus, Addr: Addr}

	id := make([]byte, 1)
	if err := d.Tx([]byte{regWhoAmI}, id); err != nil {
		return nil, fmt.Errorf("lps25h: %w", err)
	}
	if id[0] != whoAmI {
		return nil, fmt.Errorf("lps25h: unexpected WHO_AM_I %#02x, want %#02x", id[0], whoAmI)
	}

	return &Dev{d: d}, nil
}

func (s *Dev) Init() error {
	if _, err := s.d.Write([]byte{regResConf, resConf}); err != nil {
		return fmt.Errorf("lps25h: %w", err)
	}
	if _, err := s.d.Write([]byte{regCtrl1, ctrl1On}); err != nil {
		return fmt.Errorf("lps25h: %w", err)
	}
	return nil
}

// Sense triggers a one-shot conversion and sets Pressure and TempFromPressure.
func (s *Dev) Sense(e *sensor.Env) error {
	if _, err := s.d.Write([]byte{regCtrl2, oneShot}); err != nil {
		return fmt.Errorf("lps25h: %w", err)
	}

	if err := s.waitReady(); err != nil {
		return err
	}

	out := make([]byte, 5)
	if err := s.d.Tx([]byte{regPressOutXL | autoIncrement}, out); err != nil {
		return fmt.Errorf("lps25h: %w", err)
	}

	e.Pressure = sensor.FromHectoPascal(pressure(out[0], out[1], out[2]))
	e.TempFromPressure = sensor.FromCelsius(temperature(out[3], out[4]))
	return nil
}

func (s *Dev) waitReady() error {
	const ready = statusTempReady | statusPressureReady

	status := make([]byte, 1)
	for i := 0; i < maxPolls; i++ {
		if err := s.d.Tx([]byte{regStatus}, status); err != nil {
			return fmt.Errorf("lps25h: %w", err)
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
		return fmt.Errorf("lps25h: %w", err)
	}
	return nil
}

func (s *Dev) String() string {
	return "LPS25H"
}

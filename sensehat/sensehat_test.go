package sensehat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mtraver/sensehat/sensor"
	"github.com/mtraver/sensehat/sensor/dummy"
	"github.com/mtraver/sensehat/sensor/hts221"
	"github.com/mtraver/sensehat/sensor/lps25h"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestOpenSensorsDummy(t *testing.T) {
	s, err := OpenSensors(SensorConfig{Board: BoardDummy})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer s.Close()

	var e sensor.Env
	if err := s.Sense(&e); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(e, dummy.New().Env); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestOpenSensorsUnknownBoard(t *testing.T) {
	if _, err := OpenSensors(SensorConfig{Board: "sht31"}); err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestNewBoardSenseHAT(t *testing.T) {
	calibration := make([]byte, 16)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: hts221.Addr, W: []byte{0x0F}, R: []byte{0xBC}},
			{Addr: hts221.Addr, W: []byte{0xB0}, R: calibration},
			{Addr: lps25h.Addr, W: []byte{0x0F}, R: []byte{0xBD}},
		},
		DontPanic: true,
	}

	board, err := newBoard(SensorConfig{Board: BoardSenseHAT}, bus)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if diff := cmp.Diff(board.Names(), []string{"hts221", "lps25h"}); diff != "" {
		t.Errorf("Unexpected sensors (-got +want):\n%s", diff)
	}
}

func TestCheckBoard(t *testing.T) {
	cases := []struct {
		name    string
		board   string
		wantErr bool
	}{
		{"sensehat", BoardSenseHAT, false},
		{"bme280", BoardBME280, false},
		{"dummy", BoardDummy, false},
		{"empty", "", true},
		{"unknown", "sht31", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := CheckBoard(c.board); (err != nil) != c.wantErr {
				t.Errorf("CheckBoard(%q) = %v, want error %t", c.board, err, c.wantErr)
			}
		})
	}
}

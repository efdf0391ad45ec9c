// Package display drives the Sense HAT's 8x8 RGB LED matrix through the Linux
// framebuffer device created by the rpisense-fb kernel driver.
package display

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtraver/sensehat/color"
	"github.com/mtraver/sensehat/sensor"
)

const (
	Width  = 8
	Height = 8

	// FramebufferName is the name the kernel driver gives the LED matrix framebuffer.
	FramebufferName = "RPi-Sense FB"

	DefaultSysfsDir = "/sys/class/graphics"
	DefaultDevDir   = "/dev"
)

// ErrHardwareUnavailable is the same error the sensors wrap, so callers can
// check for either with one errors.Is.
var ErrHardwareUnavailable = sensor.ErrHardwareUnavailable

type Display interface {
	// SetColor lights every LED with c.
	SetColor(c color.RGB) error
	// Clear turns every LED off.
	Clear() error
}

// Find returns the path of the LED matrix framebuffer device by looking for
// the framebuffer whose name in sysfs matches FramebufferName.
func Find(sysfsDir, devDir string) (string, error) {
	names, err := filepath.Glob(filepath.Join(sysfsDir, "fb*", "name"))
	if err != nil {
		return "", err
	}

	for _, n := range names {
		b, err := os.ReadFile(n)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(b)) == FramebufferName {
			return filepath.Join(devDir, filepath.Base(filepath.Dir(n))), nil
		}
	}

	return "", fmt.Errorf("%w: no framebuffer named %q in %s", ErrHardwareUnavailable, FramebufferName, sysfsDir)
}

type Framebuffer struct {
	path string
	f    *os.File
}

func OpenFramebuffer(path string) (*Framebuffer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHardwareUnavailable, err)
	}

	return &Framebuffer{
		path: path,
		f:    f,
	}, nil
}

// fill returns a full frame of RGB565 pixels, little-endian, all set to c.
func fill(c color.RGB) []byte {
	px := c.RGB565()
	buf := make([]byte, Width*Height*2)
	for i := 0; i < Width*Height; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], px)
	}
	return buf
}

func (fb *Framebuffer) SetColor(c color.RGB) error {
	if _, err := fb.f.WriteAt(fill(c), 0); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrHardwareUnavailable, fb.path, err)
	}
	return nil
}

func (fb *Framebuffer) Clear() error {
	return fb.SetColor(color.Black)
}

func (fb *Framebuffer) Close() error {
	return fb.f.Close()
}

func (fb *Framebuffer) String() string {
	return fb.path
}

// Log is a Display that only logs, for dry runs.
type Log struct {
	Logger *slog.Logger
}

func (l Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l Log) SetColor(c color.RGB) error {
	l.logger().Info("set LED matrix color", "rgb", c.String(), "rgb565", fmt.Sprintf("%#04x", c.RGB565()))
	return nil
}

func (l Log) Clear() error {
	l.logger().Info("clear LED matrix")
	return nil
}

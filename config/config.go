// Package config persists the front end settings as a flat binary record.
package config

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/guslan/c8vm"
	"github.com/pkg/errors"
)

const DefaultPath = "config.bin"

type ViewMode uint32

const (
	ViewNormal ViewMode = iota
	ViewVoxel
)

func (v ViewMode) String() string {
	switch v {
	case ViewNormal:
		return "normal"
	case ViewVoxel:
		return "voxel"
	default:
		return "unknown"
	}
}

// Color is an RGB triple with components in [0, 1].
type Color [3]float32

// RGBA8 converts the colour to 8-bit channels.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return uint8(c[0]*255 + 0.5), uint8(c[1]*255 + 0.5), uint8(c[2]*255 + 0.5), 255
}

// ColorFromRGBA8 builds a colour from 8-bit channels. Alpha is dropped.
func ColorFromRGBA8(r, g, b uint8) Color {
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

// Config is stored as little-endian fields in declaration order.
type Config struct {
	ClockFrequency int32
	FrontColor     Color
	BackColor      Color
	Volume         float32
	ViewMode       ViewMode
}

// Size of the encoded record in bytes.
var Size = binary.Size(Config{})

func Default() Config {
	return Config{
		ClockFrequency: int32(c8vm.DefaultFrequency),
		FrontColor:     Color{1, 1, 1},
		BackColor:      Color{0.1, 0.4, 0.1},
		Volume:         0.8,
		ViewMode:       ViewVoxel,
	}
}

// Normalize brings every field back into its valid range.
func (c *Config) Normalize() {
	c.ClockFrequency = int32(c8vm.ClampFrequency(uint(max(c.ClockFrequency, 0))))
	c.Volume = clamp01(c.Volume)
	for i := range c.FrontColor {
		c.FrontColor[i] = clamp01(c.FrontColor[i])
		c.BackColor[i] = clamp01(c.BackColor[i])
	}
	if c.ViewMode > ViewVoxel {
		c.ViewMode = ViewNormal
	}
}

func clamp01(f float32) float32 {
	if math.IsNaN(float64(f)) {
		return 0
	}
	return min(max(f, 0), 1)
}

// Frequency returns the opcode clock frequency in Hz.
func (c Config) Frequency() uint {
	return c8vm.ClampFrequency(uint(max(c.ClockFrequency, 0)))
}

func (c Config) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, Size))
	if err := binary.Write(buf, binary.LittleEndian, c); err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}

	return buf.Bytes(), nil
}

func (c *Config) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return errors.Errorf("config record is %d bytes, expected %d", len(data), Size)
	}

	if err := binary.Read(bytes.NewReader(data[:Size]), binary.LittleEndian, c); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	c.Normalize()

	return nil
}

// Read decodes a record from r.
func Read(r io.Reader) (Config, error) {
	data := make([]byte, Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return Default(), errors.Wrap(err, "reading config")
	}

	var c Config
	if err := c.UnmarshalBinary(data); err != nil {
		return Default(), err
	}

	return c, nil
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), errors.Wrapf(err, "opening config %s", path)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return c, errors.Wrapf(err, "loading config %s", path)
	}

	return c, nil
}

// Store writes the configuration to path, replacing any previous file.
func Store(path string, c Config) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "storing config %s", path)
	}

	return nil
}

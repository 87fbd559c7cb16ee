package config

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func TestRecordLayout(t *testing.T) {
	assert.Equal(t, 36, Size)

	data, err := Default().MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, Size, len(data))

	assert.Equal(t, uint32(500), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])))
	assert.Equal(t, float32(0.4), math.Float32frombits(binary.LittleEndian.Uint32(data[20:24])))
	assert.Equal(t, float32(0.8), math.Float32frombits(binary.LittleEndian.Uint32(data[28:32])))
	assert.Equal(t, uint32(ViewVoxel), binary.LittleEndian.Uint32(data[32:36]))
}

func TestStoreAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	want := Config{
		ClockFrequency: 800,
		FrontColor:     Color{1, 0.5, 0},
		BackColor:      Color{0, 0, 0.25},
		Volume:         0.3,
		ViewMode:       ViewNormal,
	}
	assert.NoError(t, Store(path, want))

	got, err := Load(path)
	assert.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config: (-want, +got)\n%s", diff)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	assert.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	got, err := Load(path)
	assert.Error(t, err, "loading config "+path+": reading config: unexpected EOF")
	assert.Equal(t, Default(), got)
}

func TestNormalize(t *testing.T) {
	c := Config{
		ClockFrequency: 5000,
		FrontColor:     Color{2, -1, float32(math.NaN())},
		BackColor:      Color{0.5, 0.5, 0.5},
		Volume:         1.5,
		ViewMode:       7,
	}
	data, err := c.MarshalBinary()
	assert.NoError(t, err)

	var got Config
	assert.NoError(t, got.UnmarshalBinary(data))

	assert.Equal(t, int32(1000), got.ClockFrequency)
	assert.Equal(t, Color{1, 0, 0}, got.FrontColor)
	assert.Equal(t, float32(1), got.Volume)
	assert.Equal(t, ViewNormal, got.ViewMode)

	c = Config{ClockFrequency: -3}
	c.Normalize()
	assert.Equal(t, int32(60), c.ClockFrequency)
	assert.Equal(t, uint(60), Config{ClockFrequency: 10}.Frequency())
}

func TestReadShortStream(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, Size-1)))
	assert.Error(t, err, "reading config: unexpected EOF")
}

func TestColorRGBA8(t *testing.T) {
	r, g, b, a := Color{1, 0.5, 0}.RGBA8()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(128), g)
	assert.Equal(t, uint8(0), b)
	assert.Equal(t, uint8(255), a)
}

func TestColorFromRGBA8(t *testing.T) {
	c := ColorFromRGBA8(255, 0, 51)
	assert.Equal(t, Color{1, 0, 0.2}, c)

	r, g, b, _ := c.RGBA8()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(51), b)
}

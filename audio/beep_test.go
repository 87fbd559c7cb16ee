package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func samples(t *testing.T, g *ToneGenerator, n int) []float32 {
	t.Helper()

	p := make([]byte, n*bytesPerSample+3)
	read, err := g.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, n*bytesPerSample, read)

	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
	}

	return out
}

func TestToneIsSilentWhenGateIsClosed(t *testing.T) {
	g := NewToneGenerator(DefaultSampleRate, 0.8)

	for _, s := range samples(t, g, 64) {
		assert.Equal(t, float32(0), s)
	}
}

func TestToneFollowsVolume(t *testing.T) {
	g := NewToneGenerator(DefaultSampleRate, 0.5)
	g.SetGate(true)

	peak := float32(0)
	nonZero := 0
	for _, s := range samples(t, g, DefaultSampleRate/ToneFrequency*4) {
		peak = max(peak, s)
		if s != 0 {
			nonZero++
		}
	}

	assert.True(t, peak > 0.45 && peak <= 0.5)
	assert.True(t, nonZero > 0)

	g.SetVolume(0)
	for _, s := range samples(t, g, 16) {
		assert.Equal(t, float32(0), s)
	}
}

func TestVolumeIsClamped(t *testing.T) {
	g := NewToneGenerator(DefaultSampleRate, 3)
	assert.Equal(t, float32(1), g.Volume())

	g.SetVolume(-1)
	assert.Equal(t, float32(0), g.Volume())
}

func TestPhaseIsContinuous(t *testing.T) {
	g := NewToneGenerator(DefaultSampleRate, 1)
	g.SetGate(true)

	first := samples(t, g, 10)
	second := samples(t, g, 1)

	step := 2 * math.Pi * ToneFrequency / float64(DefaultSampleRate)
	assert.Equal(t, float32(0), first[0])
	assert.True(t, math.Abs(float64(second[0])-math.Sin(10*step)) < 1e-4)
}

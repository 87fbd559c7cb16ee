// Package audio plays the buzzer tone.
package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

const (
	DefaultSampleRate = 8000
	ToneFrequency     = 440

	bytesPerSample = 4
)

// ToneGenerator is an io.Reader of mono float32 little-endian samples: a sine
// wave at ToneFrequency while the gate is open, silence otherwise.
type ToneGenerator struct {
	sampleRate int
	phase      float64

	gate   atomic.Bool
	volume atomic.Uint32
}

func NewToneGenerator(sampleRate int, volume float32) *ToneGenerator {
	g := &ToneGenerator{sampleRate: sampleRate}
	g.SetVolume(volume)

	return g
}

// SetGate opens or closes the tone.
func (g *ToneGenerator) SetGate(open bool) {
	g.gate.Store(open)
}

func (g *ToneGenerator) SetVolume(volume float32) {
	g.volume.Store(math.Float32bits(min(max(volume, 0), 1)))
}

func (g *ToneGenerator) Volume() float32 {
	return math.Float32frombits(g.volume.Load())
}

func (g *ToneGenerator) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample * bytesPerSample
	clear(p[:n])

	vol := g.Volume()
	if !g.gate.Load() || vol == 0 {
		return n, nil
	}

	step := 2 * math.Pi * ToneFrequency / float64(g.sampleRate)
	for i := 0; i < n; i += bytesPerSample {
		s := float32(math.Sin(g.phase)) * vol
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(s))

		g.phase += step
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}

	return n, nil
}

// Beeper plays a ToneGenerator on the default audio device.
// It implements c8vm.Buzzer.
type Beeper struct {
	*ToneGenerator

	mutex  sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

func NewBeeper(sampleRate int, volume float32) (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "opening audio device")
	}
	<-ready

	b := &Beeper{
		ToneGenerator: NewToneGenerator(sampleRate, volume),
		ctx:           ctx,
	}
	b.player = ctx.NewPlayer(b.ToneGenerator)
	b.player.Play()

	return b, nil
}

// Play implements c8vm.Buzzer.
func (b *Beeper) Play() {
	b.SetGate(true)
}

// Stop implements c8vm.Buzzer.
func (b *Beeper) Stop() {
	b.SetGate(false)
}

func (b *Beeper) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player == nil {
		return nil
	}

	err := b.player.Close()
	b.player = nil

	return err
}

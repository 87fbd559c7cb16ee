package c8vm_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/guslan/c8vm"
	"github.com/retroenv/retrogolib/assert"
)

func newMachine(t *testing.T, program []byte, opts ...c8vm.MachineOption) (*c8vm.Machine, *c8vm.InMemoryDisplay, *c8vm.DummyBuzzer) {
	t.Helper()

	d := c8vm.NewInMemoryDisplay()
	b := c8vm.NewDummyBuzzer()
	m := c8vm.NewMachine(newInterpreter(), d, b, opts...)
	if err := m.Load(program); err != nil {
		t.Fatalf(`Load() returned an error %v`, err)
	}

	return m, d, b
}

// counter increments V0 forever
var counter = []byte{
	0x70, 0x01,
	0x12, 0x00,
}

func TestAdvanceRunsOneCyclePerPeriod(t *testing.T) {
	m, _, _ := newMachine(t, counter)

	assert.Equal(t, 100, m.Advance(200*time.Millisecond))
	assert.Equal(t, 0, m.Advance(time.Millisecond))
	assert.Equal(t, 1, m.Advance(time.Millisecond))

	m.WithInterpreter(func(in *c8vm.Interpreter) {
		assert.Equal(t, uint(101), in.Cycles())
		assert.Equal(t, byte(51), in.V[0])
	})
}

func TestAdvanceBoundsBacklog(t *testing.T) {
	m, _, _ := newMachine(t, counter)

	assert.Equal(t, 125, m.Advance(time.Hour))
}

func TestFrequencyIsClamped(t *testing.T) {
	m, _, _ := newMachine(t, counter, c8vm.WithFrequency(5))
	assert.Equal(t, c8vm.MinFrequency, m.Frequency())

	assert.Equal(t, c8vm.MaxFrequency, m.SetFrequency(5000))
	assert.Equal(t, uint(700), m.SetFrequency(700))
	assert.Equal(t, 70, m.Advance(100*time.Millisecond))
}

func TestTimersIgnoreOpcodeRate(t *testing.T) {
	for _, hz := range []uint{60, 500, 1000} {
		m, _, _ := newMachine(t, []byte{0x12, 0x00}, c8vm.WithFrequency(hz))
		m.WithInterpreter(func(in *c8vm.Interpreter) {
			in.Dt = 255
		})

		for i := 0; i < 10; i++ {
			m.Advance(100 * time.Millisecond)
		}

		m.WithInterpreter(func(in *c8vm.Interpreter) {
			// one second of emulated time
			if dt := in.DelayTimer(); dt < 255-60 || dt > 255-59 {
				t.Errorf("%d Hz: delay timer = %d, expected about %d", hz, dt, 255-60)
			}
		})
	}
}

func TestStoppedMachineDoesNotAdvance(t *testing.T) {
	m, _, _ := newMachine(t, counter, c8vm.Paused())
	assert.False(t, m.IsRunning())

	assert.Equal(t, 0, m.Advance(time.Second))

	m.Step()
	assert.Equal(t, uint16(0x202), m.Snapshot().Pc)

	m.Start()
	assert.True(t, m.IsRunning())
	assert.Equal(t, 1, m.Advance(2*time.Millisecond))
}

func TestPresentRendersChangedFramesAndGatesBuzzer(t *testing.T) {
	program := []byte{
		0xD0, 0x15,
		0x60, 0x02,
		// LD ST, V0
		0xF0, 0x18,
		0x12, 0x06,
	}
	m, d, b := newMachine(t, program)

	assert.NoError(t, m.Present())
	_, renders := d.Last()
	assert.Equal(t, uint(1), renders)

	assert.NoError(t, m.Present())
	_, renders = d.Last()
	assert.Equal(t, uint(1), renders)

	m.Advance(6 * time.Millisecond)
	assert.NoError(t, m.Present())
	frame, renders := d.Last()
	assert.Equal(t, uint(2), renders)
	assert.True(t, frame.Pixel(0, 0))
	assert.True(t, b.IsPlaying)

	// two timer ticks silence the buzzer
	m.Advance(40 * time.Millisecond)
	assert.NoError(t, m.Present())
	assert.False(t, b.IsPlaying)
	assert.Equal(t, uint(1), b.Beeps)
}

func TestFailedLoadKeepsRunningProgram(t *testing.T) {
	m, _, _ := newMachine(t, counter)
	m.Advance(10 * time.Millisecond)
	before := m.Snapshot()

	assert.Error(t, m.Load(make([]byte, c8vm.ProgramCapacity+1)),
		"3233 bytes, at most 3232 fit: the program does not fit into memory")
	assert.Equal(t, before, m.Snapshot())
}

func TestKeyEventsFromOtherGoroutines(t *testing.T) {
	program := []byte{
		0xF1, 0x0A,
		0x12, 0x02,
	}
	m, _, _ := newMachine(t, program)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.SetKeyState(0xB, true)
	}()
	wg.Wait()

	m.Advance(2 * time.Millisecond)
	snap := m.Snapshot()
	assert.Equal(t, byte(0xB), snap.V[1])
	assert.Equal(t, uint16(0x202), snap.Pc)
}

func TestRunStopsWithContext(t *testing.T) {
	m, d, _ := newMachine(t, counter)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	_, renders := d.Last()
	assert.True(t, renders >= 1)
	assert.True(t, m.Snapshot().Cycles > 0)
}

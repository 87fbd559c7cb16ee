package c8vm

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultFrequency uint = 500
	MaxFrequency     uint = 1000
	MinFrequency     uint = 60

	// FrameRate is how often Run presents the screen and polls the sound timer.
	FrameRate = 60

	// maxBacklog bounds the time Advance catches up on after a stall of the caller.
	maxBacklog = 250 * time.Millisecond
)

// ClampFrequency limits hz to [MinFrequency, MaxFrequency].
func ClampFrequency(hz uint) uint {
	return min(max(hz, MinFrequency), MaxFrequency)
}

// Machine paces an Interpreter at a fixed opcode frequency and connects it to
// a display and a buzzer. All methods are safe for concurrent use, so input
// handlers may run on their own goroutines; events are applied between cycles.
type Machine struct {
	mu sync.Mutex

	interp  *Interpreter
	display Display
	buzzer  Buzzer
	logger  *slog.Logger

	frequency uint
	period    time.Duration
	acc       time.Duration

	isPaused  bool
	isPlaying bool
}

type MachineOption func(m *Machine)

func WithFrequency(hz uint) MachineOption {
	return func(m *Machine) {
		m.setFrequency(hz)
	}
}

func WithMachineLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		m.logger = logger
	}
}

// Paused makes the machine start stopped.
func Paused() MachineOption {
	return func(m *Machine) {
		m.isPaused = true
	}
}

func NewMachine(interp *Interpreter, display Display, buzzer Buzzer, opts ...MachineOption) *Machine {
	m := &Machine{
		interp:  interp,
		display: display,
		buzzer:  buzzer,
		logger:  slog.Default(),
	}
	m.setFrequency(DefaultFrequency)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Machine) setFrequency(hz uint) {
	m.frequency = ClampFrequency(hz)
	m.period = time.Second / time.Duration(m.frequency)
}

// SetFrequency changes the opcode rate and returns the rate actually applied.
func (m *Machine) SetFrequency(hz uint) uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setFrequency(hz)
	m.logger.Debug("frequency changed", slog.Uint64("hz", uint64(m.frequency)))

	return m.frequency
}

func (m *Machine) Frequency() uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.frequency
}

// Advance adds elapsed wall time and runs one cycle per whole clock period.
// It returns the number of cycles executed.
func (m *Machine) Advance(elapsed time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isPaused {
		return 0
	}

	m.acc = min(m.acc+elapsed, maxBacklog)

	cycles := 0
	for m.acc >= m.period {
		m.acc -= m.period
		m.interp.ClockCycle(m.period.Seconds())
		cycles++
	}

	return cycles
}

// Step runs a single cycle, even while the machine is stopped.
func (m *Machine) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.interp.ClockCycle(m.period.Seconds())
}

func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.isPaused = false
}

func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.isPaused = true
	m.acc = 0
}

func (m *Machine) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return !m.isPaused
}

// Load replaces the program. On error the running program is left as it was.
func (m *Machine) Load(program []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.interp.Load(program); err != nil {
		return err
	}
	m.acc = 0
	m.logger.Info("program loaded", slog.Int("size", len(program)))

	return nil
}

// Reset clears the interpreter. The loaded program is lost.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.interp.Reset()
	m.acc = 0
}

func (m *Machine) SetKeyState(key byte, pressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.interp.SetKeyState(key, pressed)
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.interp.Snapshot()
}

func (m *Machine) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.interp.Frame()
}

func (m *Machine) SoundTimer() byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.interp.SoundTimer()
}

// WithInterpreter runs fn while holding the machine lock.
func (m *Machine) WithInterpreter(fn func(in *Interpreter)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.interp)
}

// Present renders the screen if it changed and gates the buzzer on the sound timer.
func (m *Machine) Present() error {
	m.mu.Lock()
	dirty := m.interp.takeFrameDirty()
	frame := m.interp.Frame()
	sound := m.interp.SoundTimer() > 0
	toggle := sound != m.isPlaying
	m.isPlaying = sound
	m.mu.Unlock()

	if toggle {
		if sound {
			m.buzzer.Play()
		} else {
			m.buzzer.Stop()
		}
	}

	if dirty {
		return m.display.Render(frame)
	}

	return nil
}

// Run drives the machine from the wall clock until ctx is done or the display fails.
func (m *Machine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	if err := m.Present(); err != nil {
		return err
	}

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			m.buzzer.Stop()
			return ctx.Err()

		case now := <-ticker.C:
			m.Advance(now.Sub(last))
			last = now

			if err := m.Present(); err != nil {
				m.logger.Error("rendering failed", slog.Any("error", err))
				m.buzzer.Stop()
				return err
			}
		}
	}
}

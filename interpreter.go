package c8vm

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

var ErrProgramTooLarge = errors.New("the program does not fit into memory")

type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.OpCode, err.Pc)
}

const (
	NumRegisters = 16
	NumKeys      = 16

	// TimerFrequency is the rate at which the delay and sound timers count down.
	TimerFrequency = 60
	timerPeriod    = 1.0 / TimerFrequency
)

// Interpreter is a CHIP-8 virtual machine.
//
// It is not safe for concurrent use; see Machine for a synchronized wrapper.
type Interpreter struct {
	memory Memory

	// V 8-bit registers
	V [NumRegisters]byte
	// I 16-bit address register
	I uint16
	// Program counter
	Pc uint16
	// Stack pointer, as a byte offset into the stack region
	Sp byte
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte

	keys KeyboardState

	// seconds accumulated towards the next timer tick
	timerAcc float64

	cycles     uint
	frameDirty bool

	random io.Reader
	logger *slog.Logger

	beforeCycleHooks []Hook
	afterCycleHooks  []Hook
}

type Option func(in *Interpreter)

// WithRandom sets the source of the bytes used by RND.
func WithRandom(r io.Reader) Option {
	return func(in *Interpreter) {
		in.random = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// NewInterpreter creates a reset interpreter showing the boot splash.
func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{
		random: rand.Reader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}

	in.Reset()
	in.drawSplash()

	return in
}

// Reset clears memory, registers, keys and timers, reinstalls the font
// and points the PC at the start of the program area.
func (in *Interpreter) Reset() {
	in.memory.clear()
	loadCharactersInto(&in.memory)

	in.V = [NumRegisters]byte{}
	in.keys = KeyboardState{}
	in.Pc = startOfProgram
	in.Sp = 0
	in.I = 0
	in.Dt = 0
	in.St = 0
	in.timerAcc = 0
	in.cycles = 0
	in.frameDirty = true
}

// Load resets the interpreter and copies the program at the start of the program area.
// A program larger than ProgramCapacity is rejected and the interpreter is left untouched.
func (in *Interpreter) Load(program []byte) error {
	if len(program) > ProgramCapacity {
		in.logger.Error("program rejected", slog.Int("size", len(program)), slog.Int("capacity", ProgramCapacity))
		return errors.Wrapf(ErrProgramTooLarge, "%d bytes, at most %d fit", len(program), ProgramCapacity)
	}

	in.Reset()
	copy(in.memory[startOfProgram:], program)

	return nil
}

// ClockCycle advances the timers by deltaTime seconds and executes one instruction.
func (in *Interpreter) ClockCycle(deltaTime float64) {
	in.timerAcc += deltaTime
	for in.timerAcc > timerPeriod {
		in.timerAcc -= timerPeriod
		if in.Dt > 0 {
			in.Dt--
		}
		if in.St > 0 {
			in.St--
		}
	}

	in.runHooks(in.beforeCycleHooks)

	if err := in.executeNextInstruction(); err != nil {
		var unknown ErrOpCodeUnknown
		if errors.As(err, &unknown) {
			in.logger.Debug("stalled on unknown instruction",
				slog.String("opcode", fmt.Sprintf("%04X", unknown.OpCode)),
				slog.String("pc", fmt.Sprintf("%03X", unknown.Pc)))
		} else {
			in.logger.Warn("instruction failed", slog.Any("error", err))
		}
	}
	in.cycles++

	in.runHooks(in.afterCycleHooks)
}

// SetKeyState presses or releases one of the 16 keys. Panics when key > 0xF.
func (in *Interpreter) SetKeyState(key byte, pressed bool) {
	if key >= NumKeys {
		panic(fmt.Sprintf("key %X is outside of the keypad", key))
	}
	in.keys[key] = pressed
}

func (in *Interpreter) KeyState(key byte) bool {
	return in.keys.IsPressed(key)
}

// Register returns Vi. Panics when i > 0xF.
func (in *Interpreter) Register(i int) byte {
	if i < 0 || i >= NumRegisters {
		panic(fmt.Sprintf("register V%X does not exist", i))
	}
	return in.V[i]
}

func (in *Interpreter) SoundTimer() byte {
	return in.St
}

func (in *Interpreter) DelayTimer() byte {
	return in.Dt
}

func (in *Interpreter) Cycles() uint {
	return in.cycles
}

// Memory returns a copy of the whole address space.
func (in *Interpreter) Memory() *Memory {
	return in.memory.Clone()
}

// OpCodeAt returns the big-endian instruction word stored at addr.
func (in *Interpreter) OpCodeAt(addr uint16) uint16 {
	return uint16(in.memory.read(addr))<<8 | uint16(in.memory.read(addr+1))
}

// takeFrameDirty reports whether the framebuffer changed since the last call.
func (in *Interpreter) takeFrameDirty() bool {
	dirty := in.frameDirty
	in.frameDirty = false
	return dirty
}

func (in *Interpreter) executeNextInstruction() error {
	opCode := in.OpCodeAt(in.Pc)
	in.Pc += 2

	return in.executeInstruction(opCode)
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}

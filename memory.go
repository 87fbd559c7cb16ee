package c8vm

import (
	"fmt"
	"strings"
)

// Memory map of the interpreter.
const (
	MemorySize = 0x1000

	startOfProgram = 0x200
	startOfStack   = 0xEA0
	startOfDisplay = 0xF00

	// ProgramCapacity is the largest program that fits between the start of
	// the program area and the call stack.
	ProgramCapacity = startOfStack - startOfProgram

	addressMask = MemorySize - 1
)

const glyphSize = 5

type Memory [MemorySize]byte

// NewMemory creates an empty memory of 4096 bytes
func NewMemory() *Memory {
	return &Memory{}
}

func (mem Memory) Clone() *Memory {
	m := NewMemory()

	copy(m[:], mem[:])

	return m
}

// String dumps the memory 16 bytes per line, each line prefixed by its address.
// Lines holding only zeros are left out.
func (mem Memory) String() string {
	sb := strings.Builder{}

	for addr := 0; addr < MemorySize; addr += dumpWidth {
		row := mem[addr : addr+dumpWidth]
		if isZero(row) {
			continue
		}
		sb.WriteString(fmt.Sprintf("%03X  % X\n", addr, row))
	}

	return sb.String()
}

const dumpWidth = 16

func isZero(bs []byte) bool {
	for _, b := range bs {
		if b != 0 {
			return false
		}
	}
	return true
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// read returns the byte at addr, wrapping around the 4K address space.
func (mem *Memory) read(addr uint16) byte {
	return mem[addr&addressMask]
}

func (mem *Memory) write(addr uint16, b byte) {
	mem[addr&addressMask] = b
}

func (mem *Memory) clear() {
	*mem = Memory{}
}

func loadCharactersInto(mem *Memory) {
	copy(mem[:], Font[:])
}

// Font is the built-in hexadecimal character set, 5 bytes per glyph.
var Font = [16 * glyphSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

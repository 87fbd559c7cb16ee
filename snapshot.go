package c8vm

import "encoding/binary"

const stackSize = startOfDisplay - startOfStack

// Snapshot is a copy of the interpreter registers, taken between two instructions.
type Snapshot struct {
	OpCode uint16
	Pc     uint16
	V      [NumRegisters]byte
	I      uint16
	Sp     byte
	Stack  [stackSize]byte
	Dt     byte
	St     byte
	Cycles uint
}

// Snapshot captures the registers and the instruction the PC points at.
func (in *Interpreter) Snapshot() Snapshot {
	s := Snapshot{
		OpCode: in.OpCodeAt(in.Pc),
		Pc:     in.Pc,
		V:      in.V,
		I:      in.I,
		Sp:     in.Sp,
		Dt:     in.Dt,
		St:     in.St,
		Cycles: in.cycles,
	}
	copy(s.Stack[:], in.memory[startOfStack:startOfDisplay])

	return s
}

// MarshalBinary encodes the snapshot for the debugger socket.
// Words are big-endian; the record ends with the screen width and height.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2+2+NumRegisters+2+1+stackSize+2+2)

	buf = binary.BigEndian.AppendUint16(buf, s.OpCode)
	buf = binary.BigEndian.AppendUint16(buf, s.Pc)
	buf = append(buf, s.V[:]...)
	buf = binary.BigEndian.AppendUint16(buf, s.I)
	buf = append(buf, s.Sp)
	buf = append(buf, s.Stack[:]...)
	buf = append(buf, s.Dt, s.St)
	buf = append(buf, ScreenWidth, ScreenHeight)

	return buf, nil
}

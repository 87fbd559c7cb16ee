package c8vm

import "github.com/pkg/errors"

// executeInstruction runs a single decoded instruction. The PC already points
// at the following instruction. Unknown opcodes rewind the PC so execution
// stalls on them, and are reported as ErrOpCodeUnknown.
func (in *Interpreter) executeInstruction(opCode uint16) error {
	x := (opCode & 0x0F00) >> 8
	y := (opCode & 0x00F0) >> 4
	n := byte(opCode & 0x000F)
	kk := byte(opCode & 0x00FF)
	nnn := opCode & 0x0FFF

	switch opCode & 0xF000 {
	case 0x0000:
		switch kk {
		case 0xE0:
			// CLS :: Clear the display.
			in.clearScreen()

		case 0xEE:
			// RET :: Return from a subroutine.
			addr := startOfStack + uint16(in.Sp)
			in.Pc = uint16(in.memory.read(addr)) | uint16(in.memory.read(addr+1))<<8
			in.Sp -= 2

		default:
			// SYS addr is not supported.
			return in.stall(opCode)
		}

	case 0x1000:
		// JP addr :: Jump to location nnn.
		in.Pc = nnn

	case 0x2000:
		// CALL addr :: Call subroutine at nnn.
		in.Sp += 2
		addr := startOfStack + uint16(in.Sp)
		in.memory.write(addr, byte(in.Pc&0x00FF))
		in.memory.write(addr+1, byte((in.Pc&0xFF00)>>8))
		in.Pc = nnn

	case 0x3000:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		if in.V[x] == kk {
			in.Pc += 2
		}

	case 0x4000:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		if in.V[x] != kk {
			in.Pc += 2
		}

	case 0x5000:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		if in.V[x] == in.V[y] {
			in.Pc += 2
		}

	case 0x6000:
		// LD Vx, byte :: Set Vx = kk.
		in.V[x] = kk

	case 0x7000:
		// ADD Vx, byte :: Set Vx = Vx + kk. VF is untouched.
		in.V[x] += kk

	case 0x8000:
		// Inter-register operations

		switch n {
		case 0x0:
			// LD Vx, Vy :: Set Vx = Vy.
			in.V[x] = in.V[y]

		case 0x1:
			// OR Vx, Vy :: Set Vx = Vx OR Vy.
			in.V[x] |= in.V[y]

		case 0x2:
			// AND Vx, Vy :: Set Vx = Vx AND Vy.
			in.V[x] &= in.V[y]

		case 0x3:
			// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
			in.V[x] ^= in.V[y]

		case 0x4:
			// ADD Vx, Vy :: Set Vx = Vx + Vy, VF = 0 unless the result wrapped below Vx.
			original := in.V[x]
			in.V[x] += in.V[y]
			in.V[0xF] = bool2byte(in.V[x] < original)

		case 0x5:
			// SUB Vx, Vy :: Set Vx = Vx - Vy, VF = 0 when the result grew past Vx (borrow).
			original := in.V[x]
			in.V[x] -= in.V[y]
			in.V[0xF] = bool2byte(in.V[x] <= original)

		case 0x6:
			// SHR Vx :: VF = Vx & 1, then Vx = Vx SHR 1.
			in.V[0xF] = in.V[x] & 0b00000001
			in.V[x] >>= 1

		case 0x7:
			// SUBN Vx, Vy :: Set Vx = Vy - Vx, VF = 0 when the result is greater than the old Vx.
			original := in.V[x]
			in.V[x] = in.V[y] - in.V[x]
			in.V[0xF] = bool2byte(in.V[x] <= original)

		case 0xE:
			// SHL Vx :: VF = most significant bit of Vx, then Vx = Vx SHL 1.
			in.V[0xF] = (in.V[x] & 0b10000000) >> 7
			in.V[x] <<= 1

		default:
			return in.stall(opCode)
		}

	case 0x9000:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		if in.V[x] != in.V[y] {
			in.Pc += 2
		}

	case 0xA000:
		// LD I, addr :: Set I = nnn.
		in.I = nnn

	case 0xB000:
		// JP V0, addr :: Jump to location nnn + V0.
		in.Pc = uint16(in.V[0]) + nnn

	case 0xC000:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		buff := [1]byte{}
		if _, err := in.random.Read(buff[:]); err != nil {
			return errors.Wrap(err, "reading random byte")
		}

		in.V[x] = buff[0] & kk

	case 0xD000:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		in.drawSprite(x, y, n)

	case 0xE000:
		switch kk {
		case 0x9E:
			// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
			if in.keys.IsPressed(in.V[x]) {
				in.Pc += 2
			}
		case 0xA1:
			// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
			if !in.keys.IsPressed(in.V[x]) {
				in.Pc += 2
			}
		default:
			return in.stall(opCode)
		}

	case 0xF000:
		switch kk {
		case 0x07:
			// LD Vx, DT :: Set Vx = delay timer value.
			in.V[x] = in.Dt

		case 0x0A:
			// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
			// Until a key is down the instruction is executed again on every cycle.
			if k, pressed := in.keys.FirstPressed(); pressed {
				in.V[x] = k
			} else {
				in.Pc -= 2
			}

		case 0x15:
			// LD DT, Vx :: Set delay timer = Vx.
			in.Dt = in.V[x]

		case 0x18:
			// LD ST, Vx :: Set sound timer = Vx.
			in.St = in.V[x]

		case 0x1E:
			// ADD I, Vx :: Set I = I + Vx.
			in.I += uint16(in.V[x])

		case 0x29:
			// LD F, Vx :: Set I = location of sprite for digit Vx.
			in.I = uint16(in.V[x]) * glyphSize

		case 0x33:
			// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
			v := in.V[x]
			in.memory.write(in.I+0, v/100)
			in.memory.write(in.I+1, (v/10)%10)
			in.memory.write(in.I+2, v%10)

		case 0x55:
			// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
			for i := uint16(0); i <= x; i++ {
				in.memory.write(in.I+i, in.V[i])
			}

		case 0x65:
			// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
			for i := uint16(0); i <= x; i++ {
				in.V[i] = in.memory.read(in.I + i)
			}

		default:
			return in.stall(opCode)
		}
	}

	return nil
}

// stall rewinds the PC onto the current instruction.
func (in *Interpreter) stall(opCode uint16) error {
	in.Pc -= 2

	return ErrOpCodeUnknown{
		OpCode: opCode,
		Pc:     in.Pc,
	}
}

package c8vm

import "fmt"

const (
	ScreenWidth  = 64
	ScreenHeight = 32

	screenSizeInBytes = ScreenWidth * ScreenHeight / 8
)

// Frame is a copy of the bit-packed framebuffer.
// Pixels are stored row-major, one bit per pixel, most significant bit first.
type Frame [screenSizeInBytes]byte

// Pixel reports whether the pixel at x, y is set.
func (f *Frame) Pixel(x, y int) bool {
	t := bitIndex(x, y)
	return f[t/8]&(0x80>>(t%8)) != 0
}

// Unpack expands the frame into one byte per pixel (0 or 1).
func (f *Frame) Unpack(dst []byte) {
	for i, t := 0, 0; t < ScreenWidth*ScreenHeight && t+8 <= len(dst); i, t = i+1, t+8 {
		dst[t+0] = (f[i] >> 7) & 0b1
		dst[t+1] = (f[i] >> 6) & 0b1
		dst[t+2] = (f[i] >> 5) & 0b1
		dst[t+3] = (f[i] >> 4) & 0b1
		dst[t+4] = (f[i] >> 3) & 0b1
		dst[t+5] = (f[i] >> 2) & 0b1
		dst[t+6] = (f[i] >> 1) & 0b1
		dst[t+7] = (f[i] >> 0) & 0b1
	}
}

func bitIndex(x, y int) int {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		panic(fmt.Sprintf("pixel (%d, %d) is outside of the %dx%d screen", x, y, ScreenWidth, ScreenHeight))
	}

	return y*ScreenWidth + x
}

// Pixel reports whether the pixel at x, y is set. Panics when out of range.
func (in *Interpreter) Pixel(x, y int) bool {
	t := bitIndex(x, y)
	return in.memory[startOfDisplay+t/8]&(0x80>>(t%8)) != 0
}

// SetPixel sets or clears the pixel at x, y. Panics when out of range.
func (in *Interpreter) SetPixel(x, y int, on bool) {
	t := bitIndex(x, y)
	mask := byte(0x80 >> (t % 8))
	if on {
		in.memory[startOfDisplay+t/8] |= mask
	} else {
		in.memory[startOfDisplay+t/8] &^= mask
	}
	in.frameDirty = true
}

// Frame returns a copy of the framebuffer.
func (in *Interpreter) Frame() Frame {
	var f Frame
	copy(f[:], in.memory[startOfDisplay:])
	return f
}

func (in *Interpreter) clearScreen() {
	clear(in.memory[startOfDisplay:])
	in.frameDirty = true
}

// drawSprite XORs an n-row sprite read from I onto the screen at (Vx, Vy),
// wrapping on both axes. VF is cleared first and set as soon as a pixel goes
// from set to unset. Vx and Vy are read again for every row, so a collision
// moves the remaining rows when one of them is VF.
func (in *Interpreter) drawSprite(x, y uint16, n byte) {
	in.V[0xF] = 0

	for i := uint16(0); i < uint16(n); i++ {
		row := in.memory.read(in.I + i)
		startX := int(in.V[x])
		py := (int(in.V[y]) + int(i)) % ScreenHeight

		for j := 0; j < 8; j++ {
			if row&(0x80>>j) == 0 {
				continue
			}

			px := (startX + j) % ScreenWidth
			if in.Pixel(px, py) {
				in.V[0xF] = 1
				in.SetPixel(px, py, false)
			} else {
				in.SetPixel(px, py, true)
			}
		}
	}

	in.frameDirty = true
}

var splashScreen = [ScreenHeight]string{
	11: "............XXXXXXX..XX...XX..XX..XXXXXXX....XXXXXXX............",
	12: "............XX.......XX...XX..XX..XX...XX....XX...XX............",
	13: "............XX.......XX...XX..XX..XX...XX....XX...XX............",
	14: "............XX.......XX...XX..XX..XX...XX....XX...XX............",
	15: "............XX.......XXXXXXX..XX..XXXXXXX....XXXXXXX............",
	16: "............XX.......XX...XX..XX..XX.........XX...XX............",
	17: "............XX.......XX...XX..XX..XX.........XX...XX............",
	18: "............XX.......XX...XX..XX..XX.........XX...XX............",
	19: "............XXXXXXX..XX...XX..XX..XX.........XXXXXXX............",
}

func (in *Interpreter) drawSplash() {
	for y, row := range splashScreen {
		for x := 0; x < len(row); x++ {
			in.SetPixel(x, y, row[x] == 'X')
		}
	}
}

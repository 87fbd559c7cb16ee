package c8vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guslan/c8vm"
	"github.com/retroenv/retrogolib/assert"
)

func TestSnapshotMarshalBinary(t *testing.T) {
	in := newInterpreter()
	program := []byte{
		0x6F, 0x0F,
		0xA1, 0x23,
		0x22, 0x08,
		0x00, 0x00,
		0x00, 0xEE,
	}
	runNCycles(t, in, program, 3)

	buf, err := in.Snapshot().MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, 2+2+16+2+1+96+2+2, len(buf))

	// RET at 0x208
	assert.Equal(t, []byte{0x00, 0xEE}, buf[0:2])
	assert.Equal(t, []byte{0x02, 0x08}, buf[2:4])
	assert.Equal(t, byte(0x0F), buf[4+0xF])
	assert.Equal(t, []byte{0x01, 0x23}, buf[20:22])
	assert.Equal(t, byte(2), buf[22])
	// stack bytes, return address 0x206 little-endian
	assert.Equal(t, []byte{0x06, 0x02}, buf[23+2:23+4])
	assert.Equal(t, []byte{c8vm.ScreenWidth, c8vm.ScreenHeight}, buf[len(buf)-2:])
}

func TestTerminalDisplayRender(t *testing.T) {
	out := &bytes.Buffer{}
	d := c8vm.NewTerminalDisplayWithOutput(out)
	d.OnChar, d.OffChar = "#", "."

	var f c8vm.Frame
	f[0] = 0x80

	assert.NoError(t, d.Render(f))

	lines := strings.Split(strings.TrimPrefix(out.String(), "\x1b[1H"), "\r\n")
	assert.Equal(t, c8vm.ScreenHeight+1, len(lines))
	assert.Equal(t, "#"+strings.Repeat(".", 63)+"|", lines[0])
	assert.Equal(t, strings.Repeat(".", 64)+"|", lines[1])
}

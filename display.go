package c8vm

import (
	"io"
	"os"
	"sync"
)

// Display abstraction for a display
type Display interface {
	// Render shows a new frame
	Render(Frame) error
}

// InMemoryDisplay keeps the last rendered frame.
type InMemoryDisplay struct {
	mu      sync.RWMutex
	frame   Frame
	renders uint
}

func NewInMemoryDisplay() *InMemoryDisplay {
	return &InMemoryDisplay{}
}

func (d *InMemoryDisplay) Render(frame Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frame = frame
	d.renders++

	return nil
}

// Last returns the last rendered frame and how many frames were rendered.
func (d *InMemoryDisplay) Last() (Frame, uint) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.frame, d.renders
}

const ESC = 0x1B

type TerminalDisplay struct {
	terminal        io.Writer
	OnChar, OffChar string
}

func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOutput(os.Stdout)
}

func NewTerminalDisplayWithOutput(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{
		terminal: out,
		OnChar:   "##",
		OffChar:  "  ",
	}
}

// Clear moves the cursor home and clears the terminal.
func (disp *TerminalDisplay) Clear() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

func (disp *TerminalDisplay) Render(frame Frame) error {
	var pixels [ScreenWidth * ScreenHeight]byte
	frame.Unpack(pixels[:])

	buff := make([]byte, 0, ScreenWidth*ScreenHeight*len(disp.OnChar)+ScreenHeight*3+4)
	buff = append(buff, ESC, '[', '1', 'H')
	for t, p := range pixels {
		if p == 1 {
			buff = append(buff, disp.OnChar...)
		} else {
			buff = append(buff, disp.OffChar...)
		}

		if (t+1)%ScreenWidth == 0 {
			buff = append(buff, '|', '\r', '\n')
		}
	}

	_, err := disp.terminal.Write(buff)
	return err
}

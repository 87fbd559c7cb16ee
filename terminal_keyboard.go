package c8vm

import (
	"context"
	"io"
	"log/slog"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/pkg/term"
)

// ErrQuit is returned by TerminalKeyboard.Listen when the user asks to leave.
var ErrQuit = errors.New("quit requested")

const (
	DefaultKeyHold = 150 * time.Millisecond

	ctrlC = 0x03
)

// KeySink receives keypad events.
type KeySink interface {
	SetKeyState(key byte, pressed bool)
}

// TerminalKeyboard reads the keypad from a terminal in raw mode.
//
// Terminals only report key presses, so a key is held down for Hold after the
// last byte received for it.
type TerminalKeyboard struct {
	Hold time.Duration

	sink      KeySink
	lookup    map[rune]byte
	pressedAt map[byte]time.Time
	logger    *slog.Logger

	tty *term.Term
}

func NewTerminalKeyboard(sink KeySink, layout KeyboardLayout) *TerminalKeyboard {
	return &TerminalKeyboard{
		Hold:      DefaultKeyHold,
		sink:      sink,
		lookup:    LookupMap(layout),
		pressedAt: map[byte]time.Time{},
		logger:    slog.Default(),
	}
}

// Open puts the controlling terminal in raw mode.
func (kb *TerminalKeyboard) Open() error {
	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return errors.Wrap(err, "opening terminal")
	}

	if err := tty.SetReadTimeout(10 * time.Millisecond); err != nil {
		tty.Close()
		return errors.Wrap(err, "setting terminal read timeout")
	}

	kb.tty = tty

	return nil
}

// Close restores the terminal.
func (kb *TerminalKeyboard) Close() error {
	if kb.tty == nil {
		return nil
	}

	if err := kb.tty.Restore(); err != nil {
		kb.tty.Close()
		return errors.Wrap(err, "restoring terminal")
	}

	return kb.tty.Close()
}

// Listen forwards key events until ctx is done, ESC or Ctrl-C is typed, or reading fails.
func (kb *TerminalKeyboard) Listen(ctx context.Context) error {
	if kb.tty == nil {
		return errors.New("terminal keyboard is not open")
	}

	buf := make([]byte, 16)
	for {
		if err := ctx.Err(); err != nil {
			kb.releaseAll()
			return err
		}

		n, err := kb.tty.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			kb.releaseAll()
			return errors.Wrap(err, "reading terminal")
		}

		now := time.Now()
		if err := kb.handleInput(buf[:n], now); err != nil {
			kb.releaseAll()
			return err
		}
		kb.releaseExpired(now)
	}
}

func (kb *TerminalKeyboard) handleInput(input []byte, now time.Time) error {
	for _, b := range input {
		if b == ctrlC || b == ESC {
			return ErrQuit
		}

		key, ok := kb.lookup[unicode.ToLower(rune(b))]
		if !ok {
			continue
		}

		if _, held := kb.pressedAt[key]; !held {
			kb.sink.SetKeyState(key, true)
		}
		kb.pressedAt[key] = now
	}

	return nil
}

func (kb *TerminalKeyboard) releaseExpired(now time.Time) {
	for key, at := range kb.pressedAt {
		if now.Sub(at) >= kb.Hold {
			kb.sink.SetKeyState(key, false)
			delete(kb.pressedAt, key)
		}
	}
}

func (kb *TerminalKeyboard) releaseAll() {
	for key := range kb.pressedAt {
		kb.sink.SetKeyState(key, false)
		delete(kb.pressedAt, key)
	}
}

/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guslan/c8vm"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so that deferred cleanups run before exiting.
func realMain() int {
	speed := flag.Uint("speed", c8vm.DefaultFrequency, fmt.Sprintf("Instructions per second, in the range [%d, %d]", c8vm.MinFrequency, c8vm.MaxFrequency))
	hold := flag.Duration("hold", c8vm.DefaultKeyHold, "How long a key stays pressed after the terminal reports it")
	layout := flag.String("layout", "", "16 characters mapping the keys 0 to F, e.g. x123qweasdzc4rfv (0123456789abcdef maps every key to its own digit)")
	noTerm := flag.Bool("noterm", false, "turn off the terminal display and keyboard of the emulator")
	logPath := flag.String("log", "", "write logs to this file")
	debug := flag.Bool("debug", false, "log debug information and dump the memory on exit")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Println("must provide the path to a rom as an argument")
		return 2
	}

	// the screen needs a terminal to draw on
	noTTY := !*noTerm && !term.IsTerminal(int(os.Stdout.Fd()))
	if noTTY {
		*noTerm = true
	}

	logger, closeLog, err := newLogger(*logPath, *debug, *noTerm)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)
	if noTTY {
		logger.Warn("Standard output is not a terminal, running without display")
	}

	keys := c8vm.DefaultKeyboardLayout
	if *layout != "" {
		if keys, err = c8vm.ParseKeyboardLayout(*layout); err != nil {
			logger.Error("Invalid layout", slog.Any("error", err))
			return 2
		}
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("Reading program", slog.Any("error", err))
		return 1
	}

	var display c8vm.Display
	if *noTerm {
		display = c8vm.NewInMemoryDisplay()
	} else {
		termDisplay := c8vm.NewTerminalDisplay()
		if err := termDisplay.Clear(); err != nil {
			logger.Error("Clearing terminal", slog.Any("error", err))
			return 1
		}
		display = termDisplay
	}

	interp := c8vm.NewInterpreter(c8vm.WithLogger(logger))
	machine := c8vm.NewMachine(interp, display, c8vm.NewDummyBuzzer(),
		c8vm.WithFrequency(*speed),
		c8vm.WithMachineLogger(logger))
	if err := machine.Load(program); err != nil {
		logger.Error("Loading program", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, machine, keys, *hold, *noTerm)

	if *debug {
		machine.WithInterpreter(func(in *c8vm.Interpreter) {
			logger.Debug("Memory at exit", slog.String("pc", fmt.Sprintf("%03X", in.Pc)), slog.String("dump", in.Memory().String()))
		})
	}

	if err != nil {
		logger.Error("Exiting", slog.Any("error", err))
		return 1
	}

	return 0
}

func run(ctx context.Context, machine *c8vm.Machine, layout c8vm.KeyboardLayout, hold time.Duration, noTerm bool) error {
	if noTerm {
		return ignoreStop(machine.Run(ctx))
	}

	kb := c8vm.NewTerminalKeyboard(machine, layout)
	kb.Hold = hold
	if err := kb.Open(); err != nil {
		return err
	}
	defer kb.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := kb.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			if !errors.Is(err, c8vm.ErrQuit) {
				slog.Error("Keyboard stopped", slog.Any("error", err))
			}
		}
		cancel()
	}()

	return ignoreStop(machine.Run(ctx))
}

func ignoreStop(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newLogger keeps the log away from the terminal the screen is drawn on.
func newLogger(path string, debug, noTerm bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = io.Discard
	closeFn := func() {}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		out = f
		closeFn = func() { f.Close() }

	case noTerm:
		out = os.Stderr
	}

	return slog.New(slog.NewTextHandler(out, opts)), closeFn, nil
}

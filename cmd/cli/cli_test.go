package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func runCli(t *testing.T, args ...string) int {
	t.Helper()

	oldArgs, oldFlags, oldLogger := os.Args, flag.CommandLine, slog.Default()
	t.Cleanup(func() {
		os.Args, flag.CommandLine = oldArgs, oldFlags
		slog.SetDefault(oldLogger)
	})

	os.Args = append([]string{"cli"}, args...)
	flag.CommandLine = flag.NewFlagSet("cli", flag.ContinueOnError)

	return realMain()
}

func TestMissingRomArgument(t *testing.T) {
	assert.Equal(t, 2, runCli(t, "-noterm"))
}

func TestUnreadableRomIsLogged(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "cli.log")

	code := runCli(t, "-noterm", "-log", logPath, filepath.Join(dir, "missing.ch8"))
	assert.Equal(t, 1, code)

	logged, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(logged), "Reading program"))
}

func TestInvalidLayout(t *testing.T) {
	rom := filepath.Join(t.TempDir(), "loop.ch8")
	assert.NoError(t, os.WriteFile(rom, []byte{0x12, 0x00}, 0o644))

	assert.Equal(t, 2, runCli(t, "-noterm", "-layout", "x123", rom))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func TestListROMs(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "tetris.ch8"), []byte{0x12, 0x00}, 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "brix.ch8"), []byte{0x12, 0x00}, 0o644))
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "extra"), 0o755))

	roms, err := ListROMs(dir)
	assert.NoError(t, err)

	want := []ROM{
		{Name: "brix.ch8", Path: filepath.Join(dir, "brix.ch8")},
		{Name: "tetris.ch8", Path: filepath.Join(dir, "tetris.ch8")},
	}
	if diff := cmp.Diff(want, roms); diff != "" {
		t.Errorf("ListROMs() mismatch (-want, +got)\n%s", diff)
	}
}

func TestListROMsMissingDir(t *testing.T) {
	roms, err := ListROMs(filepath.Join(t.TempDir(), DefaultROMDir))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(roms))
}

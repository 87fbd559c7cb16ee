package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultROMDir is the directory offered by the ROM picker.
const DefaultROMDir = "roms"

// ROM is a program file found in the ROM directory.
type ROM struct {
	Name string
	Path string
}

// ListROMs returns the regular files in dir sorted by name.
// A missing directory is not an error and yields no ROMs.
func ListROMs(dir string) ([]ROM, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "listing roms in %s", dir)
	}

	var roms []ROM
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		roms = append(roms, ROM{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}

	return roms, nil
}

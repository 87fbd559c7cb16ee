package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/guslan/c8vm"
	"github.com/guslan/c8vm/config"
	"github.com/guslan/c8vm/gui"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
}

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded (defaults = false).")
	configPath := flag.String("config", config.DefaultPath, "Where the settings are read from and saved to on exit.")
	romDir := flag.String("roms", config.DefaultROMDir, "Directory listed by the ROM picker in the options panel.")
	layout := flag.String("layout", "", "16 characters mapping the keys 0 to F, e.g. x123qweasdzc4rfv")
	debug := flag.Bool("debug", false, "Show debug information for the console (defaults = false).")

	flag.Parse()

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	keys := c8vm.DefaultKeyboardLayout
	if *layout != "" {
		var err error
		if keys, err = c8vm.ParseKeyboardLayout(*layout); err != nil {
			log.Fatalln(err)
		}
	}

	app := gui.NewApp(func(config *gui.AppConfig) {
		config.ConfigPath = *configPath
		config.ROMDir = *romDir
		config.Layout = keys
		config.Logger = slog.Default()
	})

	if flag.NArg() > 0 {
		app.Load(flag.Arg(0))
	}

	app.Run(*autostart)
}

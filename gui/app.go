package gui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/c8vm"
	"github.com/guslan/c8vm/audio"
	"github.com/guslan/c8vm/config"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	InitialPixelSize = 12

	MessageBarGap   = 5
	MessageBarHeigh = 30
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type AppConfig struct {
	ConfigPath string
	ROMDir     string
	Layout     c8vm.KeyboardLayout
	Logger     *slog.Logger
}

type ConsoleApp struct {
	machine *c8vm.Machine
	buzzer  c8vm.Buzzer
	beeper  *audio.Beeper

	config     config.Config
	configPath string
	logger     *slog.Logger

	// last frame handed to Render
	frame c8vm.Frame

	keyboardLookupMap map[int32]byte
	keys              c8vm.KeyboardState

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool
	frequency, volume                   float32

	// Options panel
	optionsOpen bool
	romDir      string
	roms        []config.ROM
	romScroll   int32
	romActive   int32

	loadedProgramPath string

	lastMessage      string
	lastMessageColor rl.Color
}

func NewApp(configs ...func(config *AppConfig)) *ConsoleApp {
	appConfig := &AppConfig{
		ConfigPath: config.DefaultPath,
		ROMDir:     config.DefaultROMDir,
		Layout:     c8vm.DefaultKeyboardLayout,
		Logger:     slog.Default(),
	}
	for _, cb := range configs {
		cb(appConfig)
	}

	app := &ConsoleApp{
		configPath:        appConfig.ConfigPath,
		romDir:            appConfig.ROMDir,
		romActive:         -1,
		logger:            appConfig.Logger,
		keyboardLookupMap: map[int32]byte{},
	}
	app.refreshROMs()

	cfg, err := config.Load(app.configPath)
	if err != nil {
		app.logger.Warn("Using default configuration", slog.Any("error", err))
	}
	app.config = cfg
	app.frequency = float32(cfg.Frequency())
	app.volume = cfg.Volume

	beeper, err := audio.NewBeeper(audio.DefaultSampleRate, cfg.Volume)
	if err != nil {
		app.logger.Warn("Audio is disabled", slog.Any("error", err))
		app.buzzer = c8vm.NewDummyBuzzer()
	} else {
		app.beeper = beeper
		app.buzzer = beeper
	}

	interp := c8vm.NewInterpreter(c8vm.WithLogger(app.logger))
	app.machine = c8vm.NewMachine(interp, app, app.buzzer,
		c8vm.WithFrequency(cfg.Frequency()),
		c8vm.WithMachineLogger(app.logger),
		c8vm.Paused())

	for r, k := range c8vm.LookupMap(appConfig.Layout) {
		// raylib key codes match upper case ASCII
		app.keyboardLookupMap[int32(unicode.ToUpper(r))] = k
	}

	return app
}

// Render implements c8vm.Display.
func (app *ConsoleApp) Render(frame c8vm.Frame) error {
	app.frame = frame
	return nil
}

// Run opens the window and drives the machine from the UI loop until the window is closed
func (app *ConsoleApp) Run(autostart bool) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(
		c8vm.ScreenWidth*InitialPixelSize,
		c8vm.ScreenHeight*InitialPixelSize+ToolbarHeight+MessageBarHeigh,
		"c8vm")
	defer rl.CloseWindow()

	if autostart && app.hasProgramLoaded() {
		app.machine.Start()
	}

	rl.SetTargetFPS(c8vm.FrameRate)
	for !rl.WindowShouldClose() {
		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.applySettings()

		app.machine.Advance(time.Duration(float64(rl.GetFrameTime()) * float64(time.Second)))
		if err := app.machine.Present(); err != nil {
			app.showMessage(err.Error(), MessageError)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		// Sections get rendered from bottom to the top so that the toolbar stays on top
		app.drawMessageBar()
		app.drawScreen()
		if app.optionsOpen {
			app.drawOptions()
		}
		app.drawToolbar()

		rl.EndDrawing()
	}

	app.shutdown()
}

func (app *ConsoleApp) shutdown() {
	app.buzzer.Stop()
	if app.beeper != nil {
		if err := app.beeper.Close(); err != nil {
			app.logger.Error("Closing audio", slog.Any("error", err))
		}
	}

	app.config.ClockFrequency = int32(app.machine.Frequency())
	app.config.Volume = app.volume
	if err := config.Store(app.configPath, app.config); err != nil {
		app.logger.Error("Saving configuration", slog.Any("error", err))
	}
}

// Load reads a program from disk into the console. It reports whether the program was loaded.
func (app *ConsoleApp) Load(path string) bool {
	program, err := os.ReadFile(path)
	if err != nil {
		app.logger.Error("Error reading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(fmt.Sprintf("Cannot read '%s'", filepath.Base(path)), MessageError)
		return false
	}

	if err = app.machine.Load(program); err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return false
	}

	app.loadedProgramPath = path
	app.logger.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", filepath.Base(path)), MessageSuccess)

	return true
}

func (app *ConsoleApp) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		app.logger.Info("Files were dropped", "files", strings.Join(files, ","))

		if len(files) > 0 && app.Load(files[0]) {
			app.machine.Start()
		}
	}
}

func (app *ConsoleApp) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *ConsoleApp) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.machine.Start()
			app.logger.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageWarning)
		}
	}
	if app.stopBtn {
		app.machine.Stop()
		app.logger.Info("Stopping the console")
	}
	if app.restBtn && app.hasProgramLoaded() && app.Load(app.loadedProgramPath) {
		app.machine.Start()
		app.logger.Info("Restarting the program")
	}
	if app.stepBtn {
		app.machine.Step()
	}
}

func (app *ConsoleApp) handleKeyPress() {
	for scanCode, key := range app.keyboardLookupMap {
		down := rl.IsKeyDown(scanCode)
		if down != app.keys[key] {
			app.keys[key] = down
			app.machine.SetKeyState(key, down)
		}
	}
}

func (app *ConsoleApp) applySettings() {
	hz := uint(app.frequency + 0.5)
	if hz != app.machine.Frequency() {
		app.machine.SetFrequency(hz)
	}

	if app.beeper != nil && app.beeper.Volume() != app.volume {
		app.beeper.SetVolume(app.volume)
	}
}

func (app *ConsoleApp) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	app.optionsOpen = gui.Toggle(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_GEAR, "Options"),
		app.optionsOpen,
	)

	status := "Stopped"
	if app.machine.IsRunning() {
		status = "Running"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*5, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)

	right := float32(rl.GetScreenWidth()) - ToolbarGap - 160

	app.frequency = gui.Slider(
		rl.NewRectangle(right, ToolbarGap, 100, 18),
		"", fmt.Sprintf("%d Hz", app.machine.Frequency()),
		app.frequency,
		float32(c8vm.MinFrequency),
		float32(c8vm.MaxFrequency),
	)
	app.volume = gui.Slider(
		rl.NewRectangle(right, ToolbarGap+22, 100, 18),
		"", fmt.Sprintf("Vol %.1f", app.volume),
		app.volume,
		0,
		1,
	)

	voxel := gui.Toggle(
		rl.NewRectangle(right-ToolbarBtnOffset, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		"Voxel",
		app.config.ViewMode == config.ViewVoxel,
	)
	if voxel {
		app.config.ViewMode = config.ViewVoxel
	} else {
		app.config.ViewMode = config.ViewNormal
	}
}

const (
	OptionsPanelWidth = 420
	ColorPickerSize   = 120
)

func (app *ConsoleApp) refreshROMs() {
	roms, err := config.ListROMs(app.romDir)
	if err != nil {
		app.logger.Warn("Cannot list roms", slog.Any("error", err))
	}
	app.roms = roms
	app.romActive = -1
}

// drawOptions shows the colour pickers, the defaults button and the ROM picker
// over the screen.
func (app *ConsoleApp) drawOptions() {
	x := float32(ToolbarGap)
	y := float32(ToolbarHeight + ToolbarGap)
	h := float32(rl.GetScreenHeight()) - ToolbarHeight - MessageBarHeigh - 2*ToolbarGap

	gui.Panel(rl.NewRectangle(x, y, OptionsPanelWidth, h), "Options")
	x += 2 * ToolbarGap
	y += 30

	gui.Label(rl.NewRectangle(x, y, ColorPickerSize, 20), "Front color")
	gui.Label(rl.NewRectangle(x+ColorPickerSize+40, y, ColorPickerSize, 20), "Back color")
	y += 22

	front := gui.ColorPicker(rl.NewRectangle(x, y, ColorPickerSize, ColorPickerSize), "", toColor(app.config.FrontColor))
	app.config.FrontColor = config.ColorFromRGBA8(front.R, front.G, front.B)
	back := gui.ColorPicker(rl.NewRectangle(x+ColorPickerSize+40, y, ColorPickerSize, ColorPickerSize), "", toColor(app.config.BackColor))
	app.config.BackColor = config.ColorFromRGBA8(back.R, back.G, back.B)
	y += ColorPickerSize + 10

	if gui.Button(rl.NewRectangle(x, y, OptionsPanelWidth-4*ToolbarGap, 30), "Restore defaults") {
		app.restoreDefaults()
	}
	y += 40

	gui.Label(rl.NewRectangle(x, y, 200, 20), fmt.Sprintf("Load ROM from %s/", app.romDir))
	if gui.Button(rl.NewRectangle(x+OptionsPanelWidth-4*ToolbarGap-80, y, 80, 20), gui.IconText(gui.ICON_FILE_OPEN, "Refresh")) {
		app.refreshROMs()
	}
	y += 24

	names := make([]string, len(app.roms))
	for i, rom := range app.roms {
		names[i] = rom.Name
	}
	listHeight := max(h-(y-ToolbarHeight)-ToolbarGap, 40)
	active := gui.ListView(
		rl.NewRectangle(x, y, OptionsPanelWidth-4*ToolbarGap, listHeight),
		strings.Join(names, ";"),
		&app.romScroll,
		app.romActive,
	)
	if active != app.romActive {
		app.romActive = active
		if active >= 0 && int(active) < len(app.roms) && app.Load(app.roms[active].Path) {
			app.machine.Start()
			app.optionsOpen = false
		}
	}
}

func (app *ConsoleApp) restoreDefaults() {
	app.config = config.Default()
	app.frequency = float32(app.config.Frequency())
	app.volume = app.config.Volume
	app.showMessage("Default options restored", MessageInfo)
}

// screenArea returns the largest pixel size that fits the window between the
// toolbar and the message bar, and the top left corner of the centered screen.
func screenArea() (size, x, y int32) {
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight()) - ToolbarHeight - MessageBarHeigh

	size = max(min(w/c8vm.ScreenWidth, h/c8vm.ScreenHeight), 1)
	x = (w - size*c8vm.ScreenWidth) / 2
	y = ToolbarHeight + (h-size*c8vm.ScreenHeight)/2

	return size, x, y
}

func (app *ConsoleApp) drawScreen() {
	if app.config.ViewMode == config.ViewVoxel {
		app.drawVoxels()
		return
	}

	front := toColor(app.config.FrontColor)
	back := toColor(app.config.BackColor)
	size, ox, oy := screenArea()

	rl.DrawRectangle(ox, oy, size*c8vm.ScreenWidth, size*c8vm.ScreenHeight, back)
	for y := 0; y < c8vm.ScreenHeight; y++ {
		for x := 0; x < c8vm.ScreenWidth; x++ {
			if app.frame.Pixel(x, y) {
				rl.DrawRectangle(ox+size*int32(x), oy+size*int32(y), size, size, front)
			}
		}
	}
}

func (app *ConsoleApp) drawVoxels() {
	front := toColor(app.config.FrontColor)
	back := toColor(app.config.BackColor)
	size, ox, oy := screenArea()
	rl.DrawRectangle(ox, oy, size*c8vm.ScreenWidth, size*c8vm.ScreenHeight, back)

	camera := rl.Camera3D{
		Position:   rl.NewVector3(0, -20, 60),
		Target:     rl.NewVector3(0, 0, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	rl.BeginMode3D(camera)
	for y := 0; y < c8vm.ScreenHeight; y++ {
		for x := 0; x < c8vm.ScreenWidth; x++ {
			if !app.frame.Pixel(x, y) {
				continue
			}
			pos := rl.NewVector3(float32(x)-c8vm.ScreenWidth/2+0.5, c8vm.ScreenHeight/2-float32(y)-0.5, 0)
			rl.DrawCube(pos, 0.9, 0.9, 0.9, front)
		}
	}
	rl.EndMode3D()
}

func toColor(c config.Color) rl.Color {
	return rl.NewColor(c.RGBA8())
}

func (app *ConsoleApp) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *ConsoleApp) drawMessageBar() {
	winW, winH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

	rl.DrawRectangle(0, winH-MessageBarHeigh, winW, MessageBarHeigh, MessageBarBgColor)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		winH-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}

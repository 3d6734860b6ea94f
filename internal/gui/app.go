package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/sim"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

const (
	screenWidth    = 1280
	screenHeight   = 720
	telemetryLimit = 200
	mouseStrength  = 50
)

type App struct {
	Exp       *experiment.Experiment
	Sys       *sim.ParticleSystem
	Sim       *sim.Simulator
	Cfg       *config.Config
	Last      sim.FrameStats
	Running   bool
	InMenu    bool
	InConfig  bool
	Presets   []string
	Selected  int
	ParamSel  int
	Telemetry []float64
	ShowGrid  bool
	OverPanel bool
	Font      rl.Font
	View      Viewport
	Err       error

	logger *zap.Logger
}

func initWindow() {
	rl.InitWindow(screenWidth, screenHeight, "particlesim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp creates an App that either starts cfg immediately or, when
// interactive, opens on the preset menu.
func NewApp(cfg *config.Config, interactive bool, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{
		Presets:   config.ListPresets(),
		Cfg:       cfg,
		Font:      loadFont(),
		InMenu:    interactive,
		Telemetry: make([]float64, 0, telemetryLimit),
		logger:    logger,
	}
	if !interactive {
		app.load()
	}
	return app
}

// RunInteractive opens the window on the preset menu and blocks until it
// is closed.
func RunInteractive(logger *zap.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := NewApp(nil, true, logger)
	app.RunLoop()
}

// Run opens the window on cfg and blocks until it is closed.
func Run(cfg *config.Config, logger *zap.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := NewApp(cfg, false, logger)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) load() {
	a.Exp = experiment.New(a.Cfg, a.logger)
	if err := a.Exp.Setup(experiment.NewRegistry(), nil); err != nil {
		a.Err = err
		a.Running = false
		return
	}
	a.Sys = a.Exp.System()
	a.Sim = a.Exp.Simulator()
	a.Last = sim.FrameStats{}
	a.Telemetry = a.Telemetry[:0]
	a.View = FitViewport(a.Cfg.World.Width, a.Cfg.World.Height, screenWidth, screenHeight, 40)
	a.Err = nil
	a.Running = true
	a.InMenu, a.InConfig = false, false
}

// Update handles input and advances one frame. It returns false when the
// user asks to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		a.updateMenu()
		return true
	}
	if a.InConfig {
		a.updateConfig()
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		a.Running = false
		return true
	}
	if a.Sys == nil {
		return true
	}

	if !a.OverPanel {
		a.handleMouse()
	}
	a.handleTuning()

	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyG) {
		a.ShowGrid = !a.ShowGrid
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.load()
		return true
	}

	if a.Running {
		fs, err := a.Sim.Step()
		if err != nil {
			a.logger.Warn("simulation halted", zap.Error(err))
			a.Err = err
			a.Running = false
			return true
		}
		a.Last = fs
		a.Telemetry = append(a.Telemetry, fs.KineticEnergy)
		if len(a.Telemetry) > telemetryLimit {
			a.Telemetry = a.Telemetry[1:]
		}
	}
	return true
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected++
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected--
	}
	if a.Selected >= len(a.Presets) {
		a.Selected = 0
	}
	if a.Selected < 0 {
		a.Selected = len(a.Presets) - 1
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		a.Cfg = config.GetPreset(a.Presets[a.Selected])
		a.InMenu = false
		a.InConfig = true
		a.ParamSel = 0
	}
}

func (a *App) updateConfig() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu, a.InConfig = true, false
		return
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		if err := a.Cfg.Validate(); err != nil {
			a.Err = err
			return
		}
		a.load()
		return
	}
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.ParamSel = (a.ParamSel + 1) % len(configParams)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.ParamSel--
		if a.ParamSel < 0 {
			a.ParamSel = len(configParams) - 1
		}
	}

	p := configParams[a.ParamSel]
	step := p.step
	if rl.IsKeyDown(rl.KeyLeftShift) {
		step *= 10
	}
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressed(rl.KeyL) {
		p.set(a.Cfg, p.get(a.Cfg)+step)
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressed(rl.KeyH) {
		p.set(a.Cfg, p.get(a.Cfg)-step)
	}
}

// handleMouse pulls the swarm to the cursor with the left button and
// pushes it away with the right.
func (a *App) handleMouse() {
	strength := float32(0)
	switch {
	case rl.IsMouseButtonDown(rl.MouseLeftButton):
		strength = mouseStrength
	case rl.IsMouseButtonDown(rl.MouseRightButton):
		strength = -mouseStrength
	default:
		return
	}
	m := rl.GetMousePosition()
	a.Sys.SetAttractionPoint(a.View.ToWorld(m.X, m.Y))
	a.Sys.SetAttractionFactor(strength)
}

func (a *App) handleTuning() {
	c := a.Sys.Config()
	if rl.IsKeyPressed(rl.KeyUp) {
		a.Sys.SetGravity(dynamo.V(c.Gravity.X, c.Gravity.Y-100))
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		a.Sys.SetGravity(dynamo.V(c.Gravity.X, c.Gravity.Y+100))
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		a.report(a.Sys.SetSubSteps(c.SubSteps + 1))
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) && c.SubSteps > 1 {
		a.report(a.Sys.SetSubSteps(c.SubSteps - 1))
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		a.report(a.Sys.SetDrag(max(0, c.Drag-0.001)))
	}
	if rl.IsKeyPressed(rl.KeyEqual) {
		a.report(a.Sys.SetDrag(min(1, c.Drag+0.001)))
	}
	if rl.IsKeyPressed(rl.KeyZero) {
		a.Sys.SetAttractionFactor(0)
	}
}

func (a *App) report(err error) {
	a.Err = err
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else if a.InConfig {
		a.drawConfig()
	} else if a.Sys != nil {
		a.drawSim()
		a.DrawHUD()
		a.OverPanel = a.DrawControls()
	}
	if a.Err != nil {
		a.drawText(a.Err.Error(), 30, 620, 14, rl.Red)
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("particlesim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Cfg.Preset), 210, 34, 16, ColText)

	c := a.Sys.Config()
	lines := []string{
		fmt.Sprintf("T %.2fs  F %d", a.Last.Time, a.Last.Frame),
		fmt.Sprintf("N %d / %d", a.Last.Particles, a.Cfg.Spawn.MaxParticles),
		fmt.Sprintf("CONTACTS %d", a.Last.Contacts),
		fmt.Sprintf("DROPPED %d  BORDER %d", a.Last.Dropped, a.Last.Excluded),
		fmt.Sprintf("KE %.1f", a.Last.KineticEnergy),
		"",
		fmt.Sprintf("SUBSTEPS %d", c.SubSteps),
		fmt.Sprintf("GRAVITY %.0f", c.Gravity.Y),
		fmt.Sprintf("DRAG %.3f", c.Drag),
		fmt.Sprintf("ATTRACT %.0f", c.AttractionFactor),
	}
	for i, l := range lines {
		a.drawText(l, 30, 80+i*20, 14, ColText)
	}

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	a.drawText("[SPACE] PAUSE  [R] RESET  [G] GRID  [MOUSE] ATTRACT  [ESC] MENU  [Q] QUIT", 560, 680, 14, ColTextDim)
	a.drawText("[UP/DOWN] GRAVITY  [[ ]] SUBSTEPS  [-/=] DRAG  [0] RELEASE", 560, 660, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawMenu() {
	a.drawText("particlesim", 100, 100, 40, ColSelect)
	a.drawText("verlet particle sandbox", 100, 150, 20, ColTextDim)

	for i, name := range a.Presets {
		col, prefix := ColTextDim, "  "
		if i == a.Selected {
			col, prefix = ColSelect, "> "
		}
		a.drawText(prefix+name, 100, 220+i*32, 20, col)
	}
	a.drawText("[J/K] NAVIGATE  [ENTER] SELECT  [Q] QUIT", 100, 660, 14, ColTextDim)
}

func (a *App) drawConfig() {
	a.drawText("configure", 100, 100, 40, ColSelect)
	a.drawText(a.Cfg.Preset, 100, 150, 20, ColAccent)

	for i, p := range configParams {
		col, prefix := ColTextDim, "  "
		if i == a.ParamSel {
			col, prefix = ColSelect, "> "
		}
		a.drawText(fmt.Sprintf("%s%-14s %8.4g", prefix, p.name, p.get(a.Cfg)), 100, 220+i*32, 20, col)
	}
	a.drawText("[J/K] SELECT  [H/L] ADJUST  [SHIFT] x10  [ENTER] START  [ESC] BACK", 100, 660, 14, ColTextDim)
}

type configParam struct {
	name string
	step float64
	get  func(c *config.Config) float64
	set  func(c *config.Config, v float64)
}

var configParams = []configParam{
	{"max_particles", 100,
		func(c *config.Config) float64 { return float64(c.Spawn.MaxParticles) },
		func(c *config.Config, v float64) { c.Spawn.MaxParticles = max(0, int(v)) }},
	{"per_frame", 1,
		func(c *config.Config) float64 { return float64(c.Spawn.PerFrame) },
		func(c *config.Config, v float64) { c.Spawn.PerFrame = max(0, int(v)) }},
	{"sub_steps", 1,
		func(c *config.Config) float64 { return float64(c.Physics.SubSteps) },
		func(c *config.Config, v float64) { c.Physics.SubSteps = max(1, int(v)) }},
	{"gravity_y", 100,
		func(c *config.Config) float64 { return float64(c.Physics.Gravity.Y) },
		func(c *config.Config, v float64) { c.Physics.Gravity.Y = float32(v) }},
	{"attraction", 5,
		func(c *config.Config) float64 { return float64(c.Physics.AttractionFactor) },
		func(c *config.Config, v float64) { c.Physics.AttractionFactor = float32(v) }},
	{"radius", 0.5,
		func(c *config.Config) float64 { return float64(c.Spawn.Radius) },
		func(c *config.Config, v float64) { c.Spawn.Radius = max(0.5, float32(v)) }},
}

package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/particlesim/internal/constraint"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	pointStep       = 20
)

type TickMsg time.Time

// Builder creates a fresh experiment; the live view calls it on start and
// on reset.
type Builder func() (*experiment.Experiment, error)

// tunable is one live-adjustable setting, changed through the system's
// setters between frames.
type tunable struct {
	name string
	get  func(c sim.Config) float64
	set  func(s *sim.ParticleSystem, v float64) error
	step float64
}

var tunables = []tunable{
	{
		name: "attraction",
		get:  func(c sim.Config) float64 { return float64(c.AttractionFactor) },
		set: func(s *sim.ParticleSystem, v float64) error {
			s.SetAttractionFactor(float32(v))
			return nil
		},
		step: 5,
	},
	{
		name: "gravity",
		get:  func(c sim.Config) float64 { return float64(c.Gravity.Y) },
		set: func(s *sim.ParticleSystem, v float64) error {
			s.SetGravity(dynamo.V(s.Config().Gravity.X, float32(v)))
			return nil
		},
		step: 100,
	},
	{
		name: "drag",
		get:  func(c sim.Config) float64 { return float64(c.Drag) },
		set: func(s *sim.ParticleSystem, v float64) error {
			return s.SetDrag(float32(min(1, max(0, v))))
		},
		step: 0.0005,
	},
	{
		name: "sub_steps",
		get:  func(c sim.Config) float64 { return float64(c.SubSteps) },
		set:  func(s *sim.ParticleSystem, v float64) error { return s.SetSubSteps(int(v)) },
		step: 1,
	},
}

// Model is the bubbletea live view of a running particle system.
type Model struct {
	build         Builder
	exp           *experiment.Experiment
	sys           *sim.ParticleSystem
	simulator     *sim.Simulator
	width, height int
	canvas        *Canvas
	running       bool
	colored       bool
	showHelp      bool
	selected      int
	last          sim.FrameStats
	energyHistory []float64
	err           error
	recording     bool
	frames        []*image.Paletted
}

// NewModel builds the first experiment. The returned model is paused with
// an error message if the builder fails.
func NewModel(build Builder) Model {
	m := Model{
		build:         build,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		colored:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		case "w":
			m.moveAttraction(0, -pointStep)
		case "a":
			m.moveAttraction(-pointStep, 0)
		case "s":
			m.moveAttraction(0, pointStep)
		case "d":
			m.moveAttraction(pointStep, 0)
		case "c":
			m.colored = !m.colored
		case "t":
			NextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	exp, err := m.build()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.exp = exp
	m.sys = exp.System()
	m.simulator = exp.Simulator()
	m.last = sim.FrameStats{}
	m.energyHistory = m.energyHistory[:0]
	m.err = nil
	m.running = true
}

func (m *Model) step() {
	fs, err := m.simulator.Step()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.last = fs
	m.energyHistory = append(m.energyHistory, fs.KineticEnergy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) adjust(dir float64) {
	if m.sys == nil {
		return
	}
	t := tunables[m.selected]
	if err := t.set(m.sys, t.get(m.sys.Config())+dir*t.step); err != nil {
		m.err = err
		return
	}
	m.err = nil
}

func (m *Model) moveAttraction(dx, dy float32) {
	if m.sys == nil {
		return
	}
	c := m.sys.Config()
	p := c.AttractionPoint.Add(dynamo.V(dx, dy))
	p.X = min(max(p.X, 0), c.WorldWidth)
	p.Y = min(max(p.Y, 0), c.WorldHeight)
	m.sys.SetAttractionPoint(p)
}

// scale maps world units to canvas sub-pixels, preserving aspect ratio.
func (m *Model) scale() float32 {
	c := m.sys.Config()
	pw, ph := m.canvas.PixelSize()
	return min(float32(pw)/c.WorldWidth, float32(ph)/c.WorldHeight)
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.sys == nil {
		return
	}
	k := m.scale()
	px := func(v dynamo.Vec2) (int, int) { return int(v.X * k), int(v.Y * k) }

	c := m.sys.Config()
	switch b := m.sys.Boundary().(type) {
	case constraint.Rect:
		x0, y0 := px(b.Min)
		x1, y1 := px(b.Max)
		m.canvas.DrawLine(x0, y0, x1, y0)
		m.canvas.DrawLine(x1, y0, x1, y1)
		m.canvas.DrawLine(x1, y1, x0, y1)
		m.canvas.DrawLine(x0, y1, x0, y0)
	case constraint.Circle:
		cx, cy := px(b.Center)
		m.canvas.DrawCircle(cx, cy, int(b.Radius*k))
	}

	mono := !m.colored || CurrentTheme.Monochrome
	for _, p := range m.sys.Particles() {
		x, y := px(p.Position)
		col := p.Color
		if mono {
			col = dynamo.White
		}
		m.canvas.FillDisc(x, y, int(p.Radius*k-0.5), col)
	}

	if c.AttractionFactor != 0 {
		ax, ay := px(c.AttractionPoint)
		m.canvas.DrawLine(ax-2, ay, ax+2, ay)
		m.canvas.DrawLine(ax, ay-2, ax, ay+2)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	var canvasView string
	if m.colored && !CurrentTheme.Monochrome {
		canvasView = canvasStyle.Render(m.canvas.Render())
	} else {
		canvasView = canvasStyle.Foreground(CurrentTheme.Secondary).Render(m.canvas.String())
	}

	var s strings.Builder
	title := "PARTICLESIM"
	if m.exp != nil && m.exp.Config().Preset != "" {
		title += " · " + strings.ToUpper(m.exp.Config().Preset)
	}
	s.WriteString(GradientText(title, CurrentTheme.Primary, CurrentTheme.Secondary) + "\n")

	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	if m.recording {
		status += " " + StatusRecording.Render("● REC")
	}
	s.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	if m.sys != nil {
		capacity := m.exp.Config().Spawn.MaxParticles
		row("Time", fmt.Sprintf("%.2fs  (frame %d)", m.last.Time, m.last.Frame))
		row("Particles", fmt.Sprintf("%d / %d", m.last.Particles, capacity))
		if capacity > 0 {
			s.WriteString(labelStyle.Render("") + ProgressBar(float64(m.last.Particles)/float64(capacity), 20) + "\n")
		}
		row("Contacts", fmt.Sprintf("%d", m.last.Contacts))
		row("Dropped", fmt.Sprintf("%d", m.last.Dropped))
		row("Border", fmt.Sprintf("%d", m.last.Excluded))
		row("Energy", fmt.Sprintf("%.1f", m.last.KineticEnergy))

		s.WriteString("\n" + Separator(30) + "\n")
		cfg := m.sys.Config()
		for i, t := range tunables {
			line := fmt.Sprintf("%-11s %.4g", t.name, t.get(cfg))
			if i == m.selected {
				s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
			}
		}
		row("Attract at", fmt.Sprintf("(%.0f, %.0f)", cfg.AttractionPoint.X, cfg.AttractionPoint.Y))
	}
	if m.err != nil {
		s.WriteString("\n" + SparkLow.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit ?:Help\nTab/↑↓:Tune  WASD:Attractor"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset                    ║
║  Q        - Quit                     ║
║  Tab      - Cycle setting            ║
║  Up/K     - Increase setting         ║
║  Down/J   - Decrease setting         ║
║  W/A/S/D  - Move attraction point    ║
║  C        - Toggle particle colours  ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m *Model) toggleRecording() {
	if m.recording {
		m.saveGIF("particles.gif")
		m.recording = false
		m.frames = nil
		return
	}
	m.recording = true
	m.frames = make([]*image.Paletted, 0)
}

// captureFrame rasterises the braille canvas, one 4x4 block per dot.
func (m *Model) captureFrame() {
	const dot = 4
	pw, ph := m.canvas.PixelSize()
	img := image.NewPaletted(image.Rect(0, 0, pw*dot, ph*dot), color.Palette{color.Black, color.White})
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if m.canvas.Grid[y/4][x/2]&pixelMap[y%4][x%2] == 0 {
				continue
			}
			for py := 0; py < dot; py++ {
				for px := 0; px < dot; px++ {
					img.SetColorIndex(x*dot+px, y*dot+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF(path string) {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		m.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.err = err
	}
}

// RunLive runs the live view of build until the user quits.
func RunLive(build Builder) error {
	m := NewModel(build)
	if m.err != nil {
		return m.err
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

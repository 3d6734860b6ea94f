package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

var presetInfo = map[string]string{
	"attract":  "swarm around a point",
	"box":      "gravity pile in a box",
	"disk":     "circular container",
	"fountain": "sweeping jet",
	"bounce":   "elastic walls",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is an editable integer or float field on the config screen.
type param struct {
	name string
	get  func(c *config.Config) float64
	set  func(c *config.Config, v float64)
}

var params = []param{
	{"max_particles", func(c *config.Config) float64 { return float64(c.Spawn.MaxParticles) },
		func(c *config.Config, v float64) { c.Spawn.MaxParticles = int(v) }},
	{"per_frame", func(c *config.Config) float64 { return float64(c.Spawn.PerFrame) },
		func(c *config.Config, v float64) { c.Spawn.PerFrame = int(v) }},
	{"sub_steps", func(c *config.Config) float64 { return float64(c.Physics.SubSteps) },
		func(c *config.Config, v float64) { c.Physics.SubSteps = int(v) }},
	{"radius", func(c *config.Config) float64 { return float64(c.Spawn.Radius) },
		func(c *config.Config, v float64) { c.Spawn.Radius = float32(v) }},
	{"seed", func(c *config.Config) float64 { return float64(c.Run.Seed) },
		func(c *config.Config, v float64) { c.Run.Seed = int64(v) }},
}

type model struct {
	state, cursor int
	presets       []string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	logger        *zap.Logger
	liveModel     Model
}

// NewInteractiveApp returns the preset picker. Selecting a preset opens its
// settings, and starting it hands over to the live view.
func NewInteractiveApp(logger *zap.Logger) *model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		logger:  logger,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.state == stateSim {
			lm, cmd := m.liveModel.Update(msg)
			m.liveModel = lm.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		if msg.String() == "esc" {
			m.state = stateConfig
			return m, nil
		}
		lm, cmd := m.liveModel.Update(msg)
		m.liveModel = lm.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.cfg = config.GetPreset(m.presets[m.cursor])
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			v, err := strconv.ParseFloat(m.editBuf, 64)
			if err == nil {
				params[m.paramCursor].set(m.cfg, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-") {
				m.editBuf += s
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, ""
	case "s":
		return m, m.start()
	}
	return m, nil
}

func (m *model) start() tea.Cmd {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return nil
	}
	cfg := *m.cfg
	logger := m.logger
	m.liveModel = NewModel(func() (*experiment.Experiment, error) {
		c := cfg
		exp := experiment.New(&c, logger)
		if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
			return nil, err
		}
		return exp, nil
	})
	if m.liveModel.err != nil {
		m.err = m.liveModel.err
		return nil
	}
	m.state, m.err = stateSim, nil
	return m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

func header(b *strings.Builder) {
	b.WriteString("\n\n    " + titleStyle.Render("PARTICLESIM") + "\n    " + subStyle.Render("verlet particle sandbox") + "\n    " + subStyle.Render("───────────────────────") + "\n\n")
}

func hints(b *strings.Builder, pairs ...string) {
	b.WriteString("\n   ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(" " + keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]))
	}
	b.WriteString("\n")
}

func (m model) viewMenu() string {
	var b strings.Builder
	header(&b)
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-12s", name)), descStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", name)), subStyle.Render(desc)))
		}
	}
	hints(&b, "j/k", "navigate", "enter", "select", "q", "quit")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	header(&b)
	b.WriteString("    " + activeStyle.Render(m.cfg.Preset) + "  " + descStyle.Render(presetInfo[m.cfg.Preset]) + "\n\n")
	for i, p := range params {
		value := strconv.FormatFloat(p.get(m.cfg), 'g', -1, 64)
		if i == m.paramCursor {
			if m.editing {
				value = m.editBuf + "█"
			}
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-14s", p.name)), value))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", idleStyle.Render(fmt.Sprintf("%-14s", p.name)), subStyle.Render(value)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + SparkLow.Render(m.err.Error()) + "\n")
	}
	hints(&b, "enter", "edit", "s", "start", "esc", "back")
	return b.String()
}

// RunInteractive runs the preset picker full screen until the user quits.
func RunInteractive(logger *zap.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(logger), tea.WithAltScreen()).Run()
	return err
}

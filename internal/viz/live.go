package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/nbody"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

// Setup produces the initial population shown by the live view. It is
// called again on every reset and must return a fresh population.
type Setup func() ([]*nbody.Body, geom.Cube, error)

// Model contains simulation state, visualization buffers, and UI context.
type Model struct {
	ctx           context.Context
	sim           *sim.Simulator
	setup         Setup
	title         string
	stepper       *sim.Stepper
	width, height int
	canvas        *Canvas
	camera        *Camera
	running       bool
	stepsPerTick  int
	merges        int
	escaped       int
	kinetic       *metrics.KineticEnergy
	potential     *metrics.PotentialEnergy
	energy0       float64
	driftHistory  []float64
	bodyHistory   []float64
	err           error
	showHelp      bool
}

type ModelOption func(*Model)

// WithStepsPerTick sets how many simulation steps run per frame.
func WithStepsPerTick(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.stepsPerTick = n
		}
	}
}

// WithCanvasSize sets the canvas size in terminal cells.
func WithCanvasSize(w, h int) ModelOption {
	return func(m *Model) {
		if w > 0 && h > 0 {
			m.width, m.height = w, h
		}
	}
}

// NewModel builds the live view and its first state from setup.
func NewModel(ctx context.Context, s *sim.Simulator, setup Setup, title string, opts ...ModelOption) (Model, error) {
	m := Model{
		ctx:          ctx,
		sim:          s,
		setup:        setup,
		title:        title,
		width:        width,
		height:       height,
		running:      true,
		stepsPerTick: 1,
		kinetic:      metrics.NewKineticEnergy(),
		potential:    metrics.NewPotentialEnergy(),
		driftHistory: make([]float64, 0, historyCapacity),
		bodyHistory:  make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.canvas = NewCanvas(m.width, m.height)
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
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
			if err := m.reset(); err != nil {
				m.err, m.running = err, false
			}
		case ".":
			if !m.running && m.err == nil {
				m.advance(1)
			}
		case "p":
			m.camera.Projection = m.camera.Projection.next()
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "left", "h":
			m.camera.Rotate(-0.1, 0)
		case "right", "l":
			m.camera.Rotate(0.1, 0)
		case "up", "k":
			m.camera.Rotate(0, 0.1)
		case "down", "j":
			m.camera.Rotate(0, -0.1)
		case "t":
			SetTheme(nextTheme())
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerTick)
		}
		return m, tick()
	}
	return m, nil
}

// State is the state currently on screen.
func (m Model) State() *sim.State { return m.stepper.State() }

func (m Model) Running() bool { return m.running }
func (m Model) Err() error    { return m.err }

// advance runs n steps. An error or an empty universe pauses the view.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		_, rep, err := m.stepper.Next(m.ctx)
		if err != nil {
			m.err, m.running = err, false
			return
		}
		m.merges += rep.Merges
		m.escaped += len(rep.Escaped)
		if rep.Bodies == 0 {
			m.running = false
			break
		}
	}
	m.record()
}

// reset rebuilds the population from setup and clears the history. The
// camera keeps its projection and zoom.
func (m *Model) reset() error {
	bodies, cube, err := m.setup()
	if err != nil {
		return fmt.Errorf("live: setup: %w", err)
	}
	st, rep, err := m.sim.NewState(bodies, cube)
	if err != nil {
		return fmt.Errorf("live: initial state: %w", err)
	}
	m.stepper = m.sim.Stepper(st)
	if m.camera == nil {
		m.camera = NewCamera(cube)
	}
	m.camera.Cube = cube
	m.merges, m.escaped = rep.Merges, len(rep.Escaped)
	m.driftHistory = m.driftHistory[:0]
	m.bodyHistory = m.bodyHistory[:0]
	m.err = nil
	m.energy0 = m.totalEnergy()
	m.record()
	return nil
}

func (m *Model) totalEnergy() float64 {
	st := m.stepper.State()
	m.kinetic.Observe(st, sim.StepReport{})
	m.potential.Observe(st, sim.StepReport{})
	return m.kinetic.Value() + m.potential.Value()
}

// record appends relative energy drift and body count to the history.
func (m *Model) record() {
	drift := 0.0
	if e := m.totalEnergy(); m.energy0 != 0 {
		drift = (e - m.energy0) / math.Abs(m.energy0)
	}
	m.driftHistory = appendCapped(m.driftHistory, drift)
	m.bodyHistory = appendCapped(m.bodyHistory, float64(m.stepper.State().Index.Len()))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// bodyColor is the body's display colour, or the theme text colour for
// bodies without one.
func bodyColor(b *nbody.Body) string {
	if b.Color == (colorful.Color{}) {
		return string(CurrentTheme.Text)
	}
	return b.Color.Clamped().Hex()
}

// draw projects the universe cube and every body onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	m.camera.DrawBounds(m.canvas, string(CurrentTheme.Bounds))
	w, h := m.canvas.Dots()
	for _, b := range m.stepper.State().Bodies() {
		if x, y, ok := m.camera.Project(b.Position, w, h); ok {
			m.canvas.Plot(x, y, bodyColor(b))
		}
	}
}

func (m Model) View() string {
	st := newStyles(CurrentTheme)
	m.draw()
	canvasView := st.canvas.Render(m.canvas.Render())

	state := m.stepper.State()
	var s strings.Builder
	s.WriteString(st.header.Render(GradientText(strings.ToUpper(m.title), CurrentTheme.Primary, CurrentTheme.Secondary)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("STOPPED") + "\n")
		s.WriteString(st.value.Render(m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}
	if len(m.driftHistory) > 1 {
		chart := asciigraph.Plot(m.driftHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy drift"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", state.Step))
	row("Time", FormatDuration(state.Time))
	row("Bodies", fmt.Sprintf("%d  %s", state.Index.Len(), SparklineChart(m.bodyHistory, 12)))
	row("Merges", fmt.Sprintf("%d", m.merges))
	row("Escaped", fmt.Sprintf("%d", m.escaped))
	row("Nodes", fmt.Sprintf("%d", state.Index.NodeCount()))
	row("Mass", fmt.Sprintf("%.3e kg", state.Index.TotalMass()))
	row("View", fmt.Sprintf("%s x%.2f", m.camera.Projection, m.camera.Zoom))
	row("Solver", m.sim.String())
	s.WriteString(st.help.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nP:Plane +/-:Zoom ?:Help"))
	statsView := st.stats.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single step when paused  ║
║  R        - Reset simulation         ║
║  P        - Cycle projection plane   ║
║  + / -    - Zoom in / out            ║
║  Arrows   - Rotate orbit view        ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// FormatDuration renders simulated seconds in the largest sensible unit.
func FormatDuration(sec float64) string {
	const (
		hour = 3600.0
		day  = 24 * hour
		year = 365.25 * day
	)
	switch a := math.Abs(sec); {
	case a >= year:
		return fmt.Sprintf("%.2f yr", sec/year)
	case a >= day:
		return fmt.Sprintf("%.2f d", sec/day)
	case a >= hour:
		return fmt.Sprintf("%.2f h", sec/hour)
	default:
		return fmt.Sprintf("%.0f s", sec)
	}
}

// Run starts the live view and blocks until it quits.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

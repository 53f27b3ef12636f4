package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/controller"
	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/render"
)

const (
	renderLatency = 33 * time.Millisecond

	orbitStep = 0.08
	zoomStep  = 10.0

	// rows the HUD occupies below the scene
	hudRows   = 11
	quiltRows = 6
	minRows   = 4
)

// Controls is what the display drives from key presses. Implementations must be
// safe to call from the UI goroutine.
type Controls interface {
	Start() bool
	Orbit(dTheta, dPhi, dDistance float64)
	ToggleCompositor() bool
	Resize(layout Layout)
}

// Progress reports playback position. It is optional.
type Progress interface {
	Position() time.Duration
	Duration() time.Duration
}

// Layout is the render size in pixels for the terminal size. Two pixels stack in
// each cell.
type Layout struct {
	MainWidth  int
	MainHeight int
	ViewWidth  int
	ViewHeight int
}

func computeLayout(cols, rows, views int) Layout {
	width := max(cols-4, 8)
	mainRows := max(rows-hudRows-quiltRows, minRows)
	views = max(views, 1)
	return Layout{
		MainWidth:  width,
		MainHeight: mainRows * 2,
		ViewWidth:  max(width/views, 1),
		ViewHeight: quiltRows * 2,
	}
}

// DisplayOptions configures a Display.
type DisplayOptions struct {
	Title     string
	Views     int
	Composite bool
	Progress  Progress
	OnExit    func()
}

// Display is the terminal front end: a start screen, the rendered scene with its
// quilt and HUD while playing, and an ended screen.
type Display struct {
	program   *tea.Program
	closeOnce sync.Once

	scene throttle
	quilt throttle
	hud   throttle

	sceneEnc halfBlockEncoder
	quiltEnc halfBlockEncoder
	progress Progress
	beats    *dsp.BeatTracker
	onset    bool
}

type throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// allow reports whether enough time passed since the last allowed call.
func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

type sceneMsg struct{ view string }
type quiltMsg struct{ view string }
type endedMsg struct{}

type hudMsg struct {
	stats    controller.FrameStats
	beat     dsp.Beat
	position time.Duration
	duration time.Duration
}

// NewDisplay builds the program. Call Run to take over the terminal.
func NewDisplay(controls Controls, opts DisplayOptions) *Display {
	profile := currentColorProfile()
	d := &Display{
		scene:    throttle{interval: renderLatency},
		quilt:    throttle{interval: renderLatency},
		hud:      throttle{interval: renderLatency},
		sceneEnc: halfBlockEncoder{profile: profile},
		quiltEnc: halfBlockEncoder{profile: profile},
		progress: opts.Progress,
		beats:    dsp.NewBeatTracker(dsp.BeatOptions{}),
	}
	d.program = tea.NewProgram(newDisplayModel(controls, opts), tea.WithAltScreen(), tea.WithoutSignalHandler())
	return d
}

// Run blocks until the user quits or Close is called.
func (d *Display) Run() error {
	_, err := d.program.Run()
	return eris.Wrap(err, "run display")
}

// ScenePresenter shows the main render.
func (d *Display) ScenePresenter() render.Presenter {
	return render.PresenterFunc(func(fb *render.Framebuffer) error {
		if d.scene.allow(time.Now()) {
			d.program.Send(sceneMsg{view: d.sceneEnc.encode(fb)})
		}
		return nil
	})
}

// QuiltPresenter shows the multi-view strip.
func (d *Display) QuiltPresenter() render.Presenter {
	return render.PresenterFunc(func(fb *render.Framebuffer) error {
		if d.quilt.allow(time.Now()) {
			d.program.Send(quiltMsg{view: d.quiltEnc.encode(fb)})
		}
		return nil
	})
}

// Observe feeds the HUD. It must be called once per frame from a single goroutine;
// onsets between two HUD refreshes are latched.
func (d *Display) Observe(stats controller.FrameStats) {
	now := time.Now()
	beat := d.beats.Update(now, stats.Energies)
	d.onset = d.onset || beat.Onset
	if !d.hud.allow(now) {
		return
	}
	beat.Onset, d.onset = d.onset, false
	msg := hudMsg{stats: stats, beat: beat}
	if d.progress != nil {
		msg.position = d.progress.Position()
		msg.duration = d.progress.Duration()
	}
	d.program.Send(msg)
}

// Ended switches to the ended screen.
func (d *Display) Ended() {
	d.program.Send(endedMsg{})
}

// Close quits the program.
func (d *Display) Close() {
	d.closeOnce.Do(func() {
		d.program.Quit()
	})
}

type displayState int

const (
	stateWaiting displayState = iota
	statePlaying
	stateEnded
)

type keyMap struct {
	Start     key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Composite key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "orbit")),
		Right:     key.NewBinding(key.WithKeys("right", "l")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "tilt")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_")),
		Composite: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "post-processing")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type displayModel struct {
	controls Controls
	keys     keyMap
	title    string
	views    int

	state     displayState
	composite bool
	scene     string
	quilt     string
	stats     controller.FrameStats
	beat      dsp.Beat
	position  time.Duration
	duration  time.Duration
	bar       progress.Model

	width  int
	height int

	onExit   func()
	exitOnce *sync.Once
}

func newDisplayModel(controls Controls, opts DisplayOptions) *displayModel {
	return &displayModel{
		controls:  controls,
		keys:      defaultKeyMap(),
		title:     opts.Title,
		views:     max(opts.Views, 1),
		composite: opts.Composite,
		bar: progress.New(
			progress.WithScaledGradient("#FF66E4", "#FFCC66"),
			progress.WithoutPercentage(),
			progress.WithWidth(hudBarWidth+9),
		),
		onExit:   opts.OnExit,
		exitOnce: &sync.Once{},
	}
}

func (m *displayModel) Init() tea.Cmd {
	return nil
}

func (m *displayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.controls.Resize(computeLayout(msg.Width, msg.Height, m.views))
	case sceneMsg:
		m.scene = msg.view
	case quiltMsg:
		m.quilt = msg.view
	case hudMsg:
		m.stats = msg.stats
		m.beat = msg.beat
		m.position = msg.position
		m.duration = msg.duration
	case endedMsg:
		m.state = stateEnded
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *displayModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.invokeExit()
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		if m.state == stateWaiting && m.controls.Start() {
			m.state = statePlaying
		}
	case m.state != statePlaying:
		return nil
	case key.Matches(msg, m.keys.Left):
		m.controls.Orbit(-orbitStep, 0, 0)
	case key.Matches(msg, m.keys.Right):
		m.controls.Orbit(orbitStep, 0, 0)
	case key.Matches(msg, m.keys.Up):
		m.controls.Orbit(0, -orbitStep, 0)
	case key.Matches(msg, m.keys.Down):
		m.controls.Orbit(0, orbitStep, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		m.controls.Orbit(0, 0, -zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.controls.Orbit(0, 0, zoomStep)
	case key.Matches(msg, m.keys.Composite):
		if m.controls.ToggleCompositor() {
			m.composite = !m.composite
		}
	}
	return nil
}

func (m *displayModel) View() string {
	var body string
	switch m.state {
	case stateWaiting:
		body = m.startView()
	case statePlaying:
		body = m.playingView()
	default:
		body = m.endedView()
	}
	return displayContainerStyle.Render(body)
}

func (m *displayModel) startView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		titleStyle.Render("Holographic Music Visualizer"),
		"",
		renderSummaryRow("Track", m.title),
		"",
		promptStyle.Render("Press enter to play"),
		"",
		renderInstructions([]string{"enter play", "q quit"}),
	)
}

func (m *displayModel) playingView() string {
	header := titleStyle.
		Foreground(lipgloss.Color(hexColorFromScene(m.stats.Targets.LatticeColor))).
		Render(m.title)

	scene := m.scene
	if scene == "" {
		scene = waitingStyle.Render("Waiting for the first frame…")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		scene,
		m.quilt,
		renderMetrics(m.stats, m.beat, m.composite),
		lightSummary(m.stats.Targets),
		renderBars(m.stats),
		m.progressLine(),
		hintStyle.Render("←/→ orbit · ↑/↓ tilt · +/- zoom · c post-processing · q quit"),
	)
}

func (m *displayModel) progressLine() string {
	if m.duration <= 0 {
		return metricLabelStyle.Render(formatDuration(m.position))
	}
	percent := float64(m.position) / float64(m.duration)
	return lipgloss.JoinHorizontal(lipgloss.Left,
		m.bar.ViewAs(min(percent, 1)),
		" ",
		metricLabelStyle.Render(fmt.Sprintf("%s / %s", formatDuration(m.position), formatDuration(m.duration))),
	)
}

func (m *displayModel) endedView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		titleStyle.Render(m.title),
		"",
		subtitleStyle.Render("Track ended"),
		"",
		renderInstructions([]string{"q quit"}),
	)
}

func (m *displayModel) invokeExit() {
	m.exitOnce.Do(func() {
		if m.onExit != nil {
			m.onExit()
		}
	})
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/storycore/cli"
	"github.com/nathoo/storycore/engine"
	"github.com/nathoo/storycore/savestore"
)

// chromeLines is the height of everything below the viewport: status
// bar, team bar and input line.
const chromeLines = 3

type keyMap struct {
	Quit   key.Binding
	Submit key.Binding
	Older  key.Binding
	Newer  key.Binding
	Scroll key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("ctrl+c")),
		Submit: key.NewBinding(key.WithKeys("enter")),
		Older:  key.NewBinding(key.WithKeys("up")),
		Newer:  key.NewBinding(key.WithKeys("down")),
		Scroll: key.NewBinding(key.WithKeys("pgup", "pgdown", "ctrl+u", "ctrl+d")),
	}
}

// scrollKeys hands the viewport paging only; up and down belong to the
// command history.
func (k keyMap) scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

// Model is the Bubble Tea model for the campaign dashboard.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	store  savestore.Store
	keys   keyMap

	viewport viewport.Model
	input    textinput.Model
	history  *History
	log      transcript

	width    int
	height   int
	ready    bool
	trace    bool
	ended    bool
	quitting bool
	lastCmd  string
}

// introMsg delivers the opening screen once the program starts.
type introMsg []string

// New creates a dashboard bound to eng. store backs /save and /load and
// may be nil.
func New(ctx context.Context, eng *engine.Engine, store savestore.Store) Model {
	prompt := textinput.New()
	prompt.Prompt = "> "
	prompt.PromptStyle = styleInputPrompt
	prompt.Placeholder = "help für Befehle, /help für Systembefehle"
	prompt.CharLimit = 256
	prompt.Focus()

	return Model{
		ctx:     ctx,
		engine:  eng,
		store:   store,
		keys:    defaultKeys(),
		input:   prompt,
		history: NewHistory(100),
		ended:   eng.CheckGameEnd() != nil,
	}
}

// Run blocks until the player quits or ctx is cancelled.
func Run(ctx context.Context, eng *engine.Engine, store savestore.Store) error {
	_, err := tea.NewProgram(New(ctx, eng, store),
		tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	eng := m.engine
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return introMsg(append(cli.Intro(eng), eng.Step("status").Output...))
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case introMsg:
		m.log = m.log.game(msg)
		m.sync()
		return m, nil
	case tea.KeyMsg:
		if cmd, ok := m.onKey(msg); ok {
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// onKey handles the dashboard's own bindings and reports whether msg was
// consumed. Everything else goes to the prompt.
func (m *Model) onKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit, true
	case key.Matches(msg, m.keys.Submit):
		return m.submit(), true
	case key.Matches(msg, m.keys.Older):
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.recall(prev)
		}
		return nil, true
	case key.Matches(msg, m.keys.Newer):
		next, _ := m.history.Next()
		m.recall(next)
		return nil, true
	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (m *Model) recall(cmd string) {
	m.input.SetValue(cmd)
	m.input.CursorEnd()
}

func (m *Model) submit() tea.Cmd {
	raw := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if raw == "" {
		return nil
	}
	m.history.Push(raw)

	input, ok := m.expand(raw)
	if !ok {
		m.log = m.log.echo(raw).system([]string{"Nichts zu wiederholen."})
		m.sync()
		return nil
	}
	if strings.HasPrefix(input, "/") {
		return m.runMeta(input)
	}
	m.runGame(input)
	return nil
}

// expand resolves the help and repeat aliases and remembers the last game
// command. It reports false when there is nothing to repeat.
func (m *Model) expand(input string) (string, bool) {
	switch strings.ToLower(input) {
	case "help", "hilfe":
		return "/help", true
	case "again", "g":
		return m.lastCmd, m.lastCmd != ""
	}
	if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}
	return input, true
}

func (m *Model) runMeta(input string) tea.Cmd {
	res := cli.Meta(m.ctx, m.engine, m.store, input, &m.trace)
	m.log = m.log.echo(input).system(res.Lines)
	if res.Loaded {
		m.ended = m.engine.CheckGameEnd() != nil
		m.log = m.log.game(m.engine.Step("status").Output)
	}
	m.sync()
	if res.Quit {
		m.quitting = true
		return tea.Quit
	}
	return nil
}

func (m *Model) runGame(input string) {
	res := m.engine.Step(input)
	m.ended = res.GameEnd != nil
	lines := res.Output
	if m.trace {
		lines = append(lines, cli.TraceLines(res)...)
	}
	m.log = m.log.echo(input).game(lines)
	m.sync()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vh := max(height-chromeLines, 1)
	if m.ready {
		m.viewport.Width, m.viewport.Height = width, vh
	} else {
		m.viewport = viewport.New(width, vh)
		m.viewport.KeyMap = m.keys.scrollKeys()
		m.ready = true
	}
	m.sync()
}

// sync re-renders the transcript into the viewport and pins it to the
// newest line.
func (m *Model) sync() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.log.render(max(m.width, 10)))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Lade..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(), m.renderStatusBar(), m.renderTeamBar(), m.input.View())
}

package versions

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	versionsdto "devdeck/internal/modules/versions/dto"
	"devdeck/internal/ui/theme"
)

// Port drives the version workflow one step at a time.
type Port interface {
	Open(ctx context.Context, key string) (versionsdto.Workflow, error)
	Load(ctx context.Context) (versionsdto.Workflow, error)
	Switch(ctx context.Context, version string) (versionsdto.Workflow, error)
	Acknowledge(ctx context.Context) (versionsdto.Workflow, error)
	Close(ctx context.Context) versionsdto.Workflow
	Runtimes(ctx context.Context) ([]versionsdto.Runtime, error)
}

type step int

const (
	stepOpened step = iota
	stepLoaded
	stepSwitched
	stepAcknowledged
)

// StepMsg reports the workflow after one step. Gen is the picker session the
// step belongs to.
type StepMsg struct {
	Gen  int
	Step step
	WF   versionsdto.Workflow
	Err  error
}

// RuntimesMsg carries the detected language runtimes.
type RuntimesMsg struct {
	Runtimes []versionsdto.Runtime
	Err      error
}

type Model struct {
	port     Port
	spinner  spinner.Model
	wf       versionsdto.Workflow
	cursor   int
	gen      int
	err      error
	width    int
	height   int
	runtimes []versionsdto.Runtime
	rtErr    error
	rtLoaded bool
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, spinner: sp, wf: versionsdto.Workflow{State: "idle"}}
}

func (m Model) Init() tea.Cmd { return nil }

// Open starts a picker session for key. Results of any previous session are
// dropped when they arrive.
func (m *Model) Open(key string) tea.Cmd {
	m.gen++
	m.cursor = 0
	m.err = nil
	m.wf = versionsdto.Workflow{ToolKey: key, State: "listing"}
	gen, port := m.gen, m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		wf, err := port.Open(context.Background(), key)
		return StepMsg{Gen: gen, Step: stepOpened, WF: wf, Err: err}
	})
}

// LoadRuntimes detects the installed language runtimes for the idle screen.
func (m Model) LoadRuntimes() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		runtimes, err := port.Runtimes(context.Background())
		return RuntimesMsg{Runtimes: runtimes, Err: err}
	}
}

// Close ends the session; late results for it are ignored.
func (m *Model) Close() {
	m.gen++
	m.wf = m.port.Close(context.Background())
	m.err = nil
}

func (m Model) Busy() bool {
	return m.wf.State == "listing" || m.wf.State == "switching"
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case RuntimesMsg:
		m.rtLoaded = true
		m.runtimes, m.rtErr = msg.Runtimes, msg.Err
		return m, nil

	case StepMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		if msg.Err != nil && msg.WF.ToolKey == "" {
			msg.WF.ToolKey = m.wf.ToolKey
		}
		m.wf = msg.WF
		m.err = msg.Err
		if msg.Step == stepOpened && msg.Err == nil {
			return m, m.step(stepLoaded, func(ctx context.Context) (versionsdto.Workflow, error) {
				return m.port.Load(ctx)
			})
		}
		if msg.Step == stepLoaded && msg.Err == nil {
			m.cursor = m.activeIndex()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.Busy() {
			return m, nil
		}
		if m.wf.ToolKey == "" {
			if msg.String() == "r" {
				return m, m.LoadRuntimes()
			}
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.wf.Candidates)-1 {
				m.cursor++
			}
		case "enter":
			if m.wf.State == "ready" && m.cursor < len(m.wf.Candidates) {
				version := m.wf.Candidates[m.cursor].Version
				m.wf.State = "switching"
				m.wf.Target = version
				return m, tea.Batch(m.spinner.Tick, m.step(stepSwitched, func(ctx context.Context) (versionsdto.Workflow, error) {
					return m.port.Switch(ctx, version)
				}))
			}
		case "a":
			if m.wf.State == "error" {
				return m, m.step(stepAcknowledged, m.port.Acknowledge)
			}
		case "esc":
			m.Close()
		}
	}
	return m, nil
}

func (m Model) step(s step, call func(context.Context) (versionsdto.Workflow, error)) tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		wf, err := call(context.Background())
		return StepMsg{Gen: gen, Step: s, WF: wf, Err: err}
	}
}

func (m Model) activeIndex() int {
	for i, c := range m.wf.Candidates {
		if c.Active {
			return i
		}
	}
	return 0
}

func (m Model) View() string {
	if m.wf.ToolKey == "" {
		return m.runtimesView()
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Versions") + "  " + m.wf.ToolKey + "\n")
	current := m.wf.Current
	if current == "" {
		current = "unknown"
	}
	sb.WriteString(theme.Muted.Render("current: ") + current + "\n\n")

	switch m.wf.State {
	case "listing":
		sb.WriteString(m.spinner.View() + " Loading versions…\n")
	case "switching":
		sb.WriteString(m.spinner.View() + " Switching to " + m.wf.Target + "…\n")
	}

	if m.wf.State != "listing" {
		visible := max(m.height-8, 3)
		start := 0
		if m.cursor >= visible {
			start = m.cursor - visible + 1
		}
		for i := start; i < len(m.wf.Candidates) && i < start+visible; i++ {
			c := m.wf.Candidates[i]
			line := "  " + c.Version
			if c.Active {
				line += theme.Ok.Render("  (active)")
			}
			if i == m.cursor {
				line = theme.Hot.Render("> ") + strings.TrimPrefix(line, "  ")
			}
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n")
	switch {
	case m.wf.State == "error":
		sb.WriteString(theme.Error.Render("error: "+m.wf.Error) + "\n")
		sb.WriteString(theme.Muted.Render("a: acknowledge  esc: close"))
	case m.err != nil:
		sb.WriteString(theme.Error.Render(m.err.Error()) + "\n")
		sb.WriteString(theme.Muted.Render("esc: close"))
	case m.wf.Message != "":
		sb.WriteString(theme.Ok.Render(m.wf.Message) + "\n")
		sb.WriteString(theme.Muted.Render("↑/↓: move  enter: switch  esc: close"))
	default:
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d versions  ↑/↓: move  enter: switch  esc: close", len(m.wf.Candidates))))
	}
	return sb.String()
}

func (m Model) runtimesView() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Runtimes") + "\n\n")
	switch {
	case !m.rtLoaded:
		sb.WriteString(theme.Muted.Render("detecting runtimes…") + "\n")
	case m.rtErr != nil:
		sb.WriteString(theme.Error.Render(m.rtErr.Error()) + "\n")
	default:
		for _, r := range m.runtimes {
			if !r.Installed {
				fmt.Fprintf(&sb, "  %-10s %s\n", r.Name, theme.Muted.Render("not installed"))
				continue
			}
			line := fmt.Sprintf("  %-10s %-12s", r.Name, r.Version)
			if r.Manager != "" {
				line += theme.Ok.Render(" via "+r.Manager) + " "
			}
			sb.WriteString(line + theme.Muted.Render(r.Path) + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("Pick a tool on the Tools tab and press v  ·  r: rescan runtimes"))
	return sb.String()
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	toolsdto "devdeck/internal/modules/tools/dto"
	"devdeck/internal/ui/theme"
)

// Port is the part of the tools use-case this view drives.
type Port interface {
	List(ctx context.Context, input toolsdto.ListInput) (toolsdto.ListOutput, error)
	Batch(ctx context.Context, kind string, keys []string) (toolsdto.BatchOutput, error)
	Search(ctx context.Context, input toolsdto.SearchInput) (toolsdto.SearchOutput, error)
	Install(ctx context.Context, key string) (toolsdto.ActionOutput, error)
}

// LoadedMsg carries a listing. Gen identifies the request that produced it.
type LoadedMsg struct {
	Gen int
	Out toolsdto.ListOutput
	Err error
}

type BatchDoneMsg struct {
	Gen  int
	Kind string
	Out  toolsdto.BatchOutput
	Err  error
}

// OpenVersionsMsg asks the parent to open the version picker for Key.
type OpenVersionsMsg struct{ Key string }

// OpenConfigMsg asks the parent to browse config files for Key.
type OpenConfigMsg struct{ Key string }

// StatusMsg is a one-line notice for the parent's status bar.
type StatusMsg struct{ Text string }

type Model struct {
	port     Port
	table    table.Model
	filter   textinput.Model
	spinner  spinner.Model
	tools    []toolsdto.Tool
	selected map[string]bool
	query    string
	source   string
	out      toolsdto.ListOutput
	gen      int
	loading  bool
	busy     string
	err      error
	width    int
	height   int
	search   searchState
}

func New(port Port) Model {
	t := table.New(table.WithColumns(columns(80)), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Placeholder = "filter by name or scope"
	ti.CharLimit = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:     port,
		table:    t,
		filter:   ti,
		spinner:  sp,
		selected: map[string]bool{},
		loading:  true,
		search:   newSearchState(styles),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(m.gen, false))
}

// Refresh rescans every source.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	return m.reload(true)
}

// SetQuery filters the table by name or scope.
func (m *Model) SetQuery(query string) tea.Cmd {
	m.query = strings.TrimSpace(query)
	m.filter.SetValue(m.query)
	return m.reload(false)
}

// SetSource limits the table to one source; empty means all.
func (m *Model) SetSource(source string) tea.Cmd {
	m.source = strings.TrimSpace(source)
	return m.reload(false)
}

// UpdateSelected runs a batch update over the marked rows, or the current
// row when nothing is marked.
func (m *Model) UpdateSelected() tea.Cmd { return m.runBatch("update") }

func (m *Model) UninstallSelected() tea.Cmd { return m.runBatch("uninstall") }

// Filtering reports whether a text input owns the keyboard.
func (m Model) Filtering() bool { return m.filter.Focused() || m.search.input.Focused() }

// Current returns the tool under the cursor.
func (m Model) Current() (toolsdto.Tool, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.tools) {
		return toolsdto.Tool{}, false
	}
	return m.tools[i], true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetWidth(m.width)
		m.table.SetHeight(max(m.height-6, 3))
		m.filter.Width = max(m.width-12, 10)
		m.search.resize(m.width, m.height)
		return m, nil

	case LoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.out = msg.Out
			m.setTools(msg.Out.Tools)
		}
		return m, nil

	case BatchDoneMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.busy = ""
		m.selected = map[string]bool{}
		text := ""
		if msg.Err != nil {
			text = msg.Kind + " failed: " + msg.Err.Error()
		} else {
			text = fmt.Sprintf("%s: %d ok, %d failed", msg.Kind, len(msg.Out.Results)-msg.Out.Failed, msg.Out.Failed)
		}
		return m, tea.Batch(m.reload(false), status(text))

	case SearchDoneMsg, InstallDoneMsg:
		return m.updateSearchResult(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		if m.search.input.Focused() {
			return m.updateSearchInput(msg)
		}
		if m.busy != "" {
			return m, nil
		}
		if m.search.browsing {
			return m.updateBrowsing(msg)
		}
		switch msg.String() {
		case "s":
			return m, m.search.input.Focus()
		case "/":
			return m, m.filter.Focus()
		case " ":
			if tool, ok := m.Current(); ok {
				if m.selected[tool.Key] {
					delete(m.selected, tool.Key)
				} else {
					m.selected[tool.Key] = true
				}
				m.setTools(m.tools)
			}
			return m, nil
		case "a":
			if len(m.selected) > 0 {
				m.selected = map[string]bool{}
			} else {
				for _, tool := range m.tools {
					m.selected[tool.Key] = true
				}
			}
			m.setTools(m.tools)
			return m, nil
		case "r":
			return m, m.Refresh()
		case "u":
			return m, m.UpdateSelected()
		case "x":
			return m, m.UninstallSelected()
		case "c":
			return m, m.copyPath()
		case "v":
			if tool, ok := m.Current(); ok {
				return m, func() tea.Msg { return OpenVersionsMsg{Key: tool.Key} }
			}
			return m, nil
		case "e":
			if tool, ok := m.Current(); ok {
				return m, func() tea.Msg { return OpenConfigMsg{Key: tool.Key} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filter.Blur()
		return m, m.SetQuery(m.filter.Value())
	case "esc":
		m.filter.Blur()
		m.filter.SetValue(m.query)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.search.browsing || m.search.input.Focused() {
		return m.searchView()
	}
	if m.loading && len(m.tools) == 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Scanning tools…")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Tools") + "  " + theme.Muted.Render(m.headline()) + "\n")
	if m.filter.Focused() {
		sb.WriteString("/ " + m.filter.View() + "\n")
	} else if m.query != "" {
		sb.WriteString(theme.Muted.Render("filter: "+m.query) + "\n")
	} else {
		sb.WriteString("\n")
	}
	sb.WriteString(m.table.View() + "\n")
	switch {
	case m.busy != "":
		sb.WriteString(m.spinner.View() + " " + m.busy + "…")
	case m.err != nil:
		sb.WriteString(theme.Error.Render(m.err.Error()))
	default:
		sb.WriteString(theme.Muted.Render("space: mark  a: all  u: update  x: uninstall  v: versions  e: config  c: copy path  r: rescan  /: filter  s: search registry"))
	}
	return sb.String()
}

func (m Model) headline() string {
	parts := []string{fmt.Sprintf("%d tools", len(m.tools))}
	if m.source != "" {
		parts = append(parts, "source "+m.source)
	}
	if len(m.selected) > 0 {
		parts = append(parts, fmt.Sprintf("%d marked", len(m.selected)))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" scanning")
	} else if m.out.LastFetchAt != nil {
		parts = append(parts, "scanned "+humanize.Time(*m.out.LastFetchAt))
	}
	return strings.Join(parts, " · ")
}

func (m *Model) setTools(tools []toolsdto.Tool) {
	m.tools = tools
	rows := make([]table.Row, 0, len(tools))
	for _, tool := range tools {
		mark := " "
		if m.selected[tool.Key] {
			mark = "●"
		}
		version := tool.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, table.Row{mark, tool.FullName, version, tool.Source, humanize.Bytes(tool.SizeBytes)})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// reload bumps the generation so that results of older requests are ignored.
func (m *Model) reload(refresh bool) tea.Cmd {
	m.gen++
	return m.load(m.gen, refresh)
}

func (m Model) load(gen int, refresh bool) tea.Cmd {
	input := toolsdto.ListInput{Source: m.source, Query: m.query, Refresh: refresh}
	port := m.port
	return func() tea.Msg {
		out, err := port.List(context.Background(), input)
		return LoadedMsg{Gen: gen, Out: out, Err: err}
	}
}

func (m *Model) runBatch(kind string) tea.Cmd {
	keys := m.targetKeys()
	if len(keys) == 0 {
		return status("nothing selected")
	}
	m.busy = fmt.Sprintf("%s %d tool(s)", kind, len(keys))
	m.gen++
	gen := m.gen
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Batch(context.Background(), kind, keys)
		return BatchDoneMsg{Gen: gen, Kind: kind, Out: out, Err: err}
	})
}

// targetKeys lists marked keys in table order.
func (m Model) targetKeys() []string {
	var keys []string
	for _, tool := range m.tools {
		if m.selected[tool.Key] {
			keys = append(keys, tool.Key)
		}
	}
	if len(keys) == 0 {
		if tool, ok := m.Current(); ok {
			keys = append(keys, tool.Key)
		}
	}
	return keys
}

func (m Model) copyPath() tea.Cmd {
	tool, ok := m.Current()
	if !ok || tool.InstallPath == "" {
		return status("no install path to copy")
	}
	if err := clipboard.WriteAll(tool.InstallPath); err != nil {
		return status("copy failed: " + err.Error())
	}
	return status("copied " + tool.InstallPath)
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

func columns(width int) []table.Column {
	name := max(width-8-14-8-10-10, 20)
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "Name", Width: name},
		{Title: "Version", Width: 14},
		{Title: "Source", Width: 8},
		{Title: "Size", Width: 10},
	}
}

package system

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	systemdto "devdeck/internal/modules/system/dto"
	"devdeck/internal/ui/theme"
)

type Port interface {
	Ports(ctx context.Context, refresh bool) (systemdto.PortsOutput, error)
	Processes(ctx context.Context, refresh bool) (systemdto.ProcessesOutput, error)
	Caches(ctx context.Context, refresh bool) (systemdto.CachesOutput, error)
	Env(ctx context.Context) ([]systemdto.EnvVariable, error)
	ClearCache(ctx context.Context, name string) (systemdto.ActionOutput, error)
	Kill(ctx context.Context, rawPID string) (systemdto.ActionOutput, error)
}

type pane int

const (
	panePorts pane = iota
	paneProcesses
	paneCaches
	paneEnv
	paneCount
)

var paneLabels = [paneCount]string{"Ports", "Processes", "Caches", "Env"}

// LoadedMsg carries the rows for one pane.
type LoadedMsg struct {
	Gen   int
	Pane  pane
	Rows  []table.Row
	Title string
	Err   error
}

type ActionDoneMsg struct {
	Gen int
	Out systemdto.ActionOutput
	Err error
}

type Model struct {
	port    Port
	table   table.Model
	spinner spinner.Model
	pane    pane
	rows    [paneCount][]table.Row
	titles  [paneCount]string
	confirm string
	gen     int
	loading bool
	notice  string
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	t := table.New(table.WithColumns(columnsFor(panePorts, 80)), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, table: t, spinner: sp}
}

func (m Model) Init() tea.Cmd { return nil }

// Show switches to p and loads it, serving cached rows when fresh.
func (m *Model) Show(p pane, refresh bool) tea.Cmd {
	m.pane = p
	m.confirm = ""
	m.err = nil
	// Rows must match the column count before the columns change.
	m.table.SetRows(nil)
	m.table.SetColumns(columnsFor(p, m.width))
	m.table.SetRows(m.rows[p])
	m.table.SetCursor(0)
	m.gen++
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetch(m.gen, p, refresh))
}

// ShowPorts, ShowProcesses and ShowCaches are palette entry points.
func (m *Model) ShowPorts() tea.Cmd     { return m.Show(panePorts, false) }
func (m *Model) ShowProcesses() tea.Cmd { return m.Show(paneProcesses, false) }
func (m *Model) ShowCaches() tea.Cmd    { return m.Show(paneCaches, false) }

// ClearCache and Kill run an action immediately, skipping confirmation.
func (m *Model) ClearCache(name string) tea.Cmd {
	return m.action(func(ctx context.Context) (systemdto.ActionOutput, error) {
		return m.port.ClearCache(ctx, name)
	})
}

func (m *Model) Kill(pid string) tea.Cmd {
	return m.action(func(ctx context.Context) (systemdto.ActionOutput, error) {
		return m.port.Kill(ctx, pid)
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columnsFor(m.pane, m.width))
		m.table.SetWidth(m.width)
		m.table.SetHeight(max(m.height-6, 3))
		return m, nil

	case LoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.rows[msg.Pane] = msg.Rows
			m.titles[msg.Pane] = msg.Title
			if msg.Pane == m.pane {
				m.table.SetRows(msg.Rows)
				if m.table.Cursor() >= len(msg.Rows) {
					m.table.SetCursor(max(len(msg.Rows)-1, 0))
				}
			}
		}
		return m, nil

	case ActionDoneMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.notice = msg.Out.Message
		// The service has already rescanned; this reads the fresh slot.
		return m, m.Show(m.pane, false)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.confirm != "" {
			return m.updateConfirm(msg)
		}
		switch msg.String() {
		case "1", "2", "3", "4":
			p := pane(msg.String()[0] - '1')
			return m, m.Show(p, false)
		case "left", "h":
			return m, m.Show((m.pane+paneCount-1)%paneCount, false)
		case "right", "l":
			return m, m.Show((m.pane+1)%paneCount, false)
		case "r":
			return m, m.Show(m.pane, true)
		case "K":
			if pid := m.selectedPID(); pid != "" {
				m.confirm = "kill " + pid
			}
			return m, nil
		case "D":
			if m.pane == paneCaches {
				if row := m.table.SelectedRow(); len(row) > 0 {
					m.confirm = "clear " + row[0]
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	pending := m.confirm
	m.confirm = ""
	if msg.String() != "y" {
		m.notice = "cancelled"
		return m, nil
	}
	verb, target, _ := strings.Cut(pending, " ")
	if verb == "kill" {
		return m, m.Kill(target)
	}
	return m, m.ClearCache(target)
}

func (m Model) selectedPID() string {
	row := m.table.SelectedRow()
	switch {
	case len(row) == 0:
		return ""
	case m.pane == panePorts && row[2] != "-":
		return row[2]
	case m.pane == paneProcesses:
		return row[0]
	}
	return ""
}

func (m *Model) action(call func(context.Context) (systemdto.ActionOutput, error)) tea.Cmd {
	m.gen++
	m.loading = true
	m.notice = ""
	gen := m.gen
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := call(context.Background())
		return ActionDoneMsg{Gen: gen, Out: out, Err: err}
	})
}

func (m Model) fetch(gen int, p pane, refresh bool) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		ctx := context.Background()
		msg := LoadedMsg{Gen: gen, Pane: p}
		switch p {
		case panePorts:
			out, err := port.Ports(ctx, refresh)
			msg.Err = err
			for _, pt := range out.Ports {
				msg.Rows = append(msg.Rows, table.Row{strconv.Itoa(pt.Port), pt.Protocol, pidText(pt.PID), pt.ProcessName, pt.State})
			}
			msg.Title = fmt.Sprintf("%d ports%s", len(out.Ports), freshness(out.Freshness))
		case paneProcesses:
			out, err := port.Processes(ctx, refresh)
			msg.Err = err
			for _, pr := range out.Processes {
				msg.Rows = append(msg.Rows, table.Row{strconv.Itoa(pr.PID), pr.Name, fmt.Sprintf("%.1f", pr.CPUPercent), fmt.Sprintf("%.0f MB", pr.MemoryMB), pr.Status})
			}
			msg.Title = fmt.Sprintf("%d processes%s", len(out.Processes), freshness(out.Freshness))
		case paneCaches:
			out, err := port.Caches(ctx, refresh)
			msg.Err = err
			for _, c := range out.Caches {
				size := "-"
				if c.Exists {
					size = humanize.Bytes(c.SizeBytes)
				}
				msg.Rows = append(msg.Rows, table.Row{c.Name, size, c.Path})
			}
			msg.Title = fmt.Sprintf("%s reclaimable%s", humanize.Bytes(out.Reclaimable), freshness(out.Freshness))
		case paneEnv:
			vars, err := port.Env(ctx)
			msg.Err = err
			for _, v := range vars {
				kind := ""
				if v.IsPath {
					kind = "path"
				}
				msg.Rows = append(msg.Rows, table.Row{v.Name, kind, v.Value})
			}
			msg.Title = fmt.Sprintf("%d variables", len(vars))
		}
		return msg
	}
}

func (m Model) View() string {
	var sb strings.Builder
	tabs := make([]string, 0, paneCount)
	for i := pane(0); i < paneCount; i++ {
		label := fmt.Sprintf("%d %s", i+1, paneLabels[i])
		if i == m.pane {
			tabs = append(tabs, theme.Hot.Render(label))
		} else {
			tabs = append(tabs, theme.Muted.Render(label))
		}
	}
	sb.WriteString(strings.Join(tabs, "  ") + "  " + theme.Muted.Render(m.titles[m.pane]) + "\n\n")
	sb.WriteString(m.table.View() + "\n")
	switch {
	case m.loading:
		sb.WriteString(m.spinner.View() + " Scanning…")
	case m.confirm != "":
		sb.WriteString(theme.Warn.Render(m.confirm + "? y to confirm"))
	case m.err != nil:
		sb.WriteString(theme.Error.Render(m.err.Error()))
	case m.notice != "":
		sb.WriteString(theme.Ok.Render(m.notice))
	default:
		sb.WriteString(theme.Muted.Render(m.hint()))
	}
	return sb.String()
}

func (m Model) hint() string {
	switch m.pane {
	case panePorts, paneProcesses:
		return "1-4/←→: pane  r: rescan  K: kill"
	case paneCaches:
		return "1-4/←→: pane  r: rescan  D: clear cache"
	}
	return "1-4/←→: pane  r: reload"
}

func freshness(f systemdto.Freshness) string {
	if f.LastFetchAt == nil {
		return ""
	}
	suffix := " · scanned " + humanize.Time(*f.LastFetchAt)
	if !f.Fresh {
		suffix += " (stale)"
	}
	return suffix
}

func pidText(pid int) string {
	if pid <= 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func columnsFor(p pane, width int) []table.Column {
	width = max(width, 60)
	switch p {
	case panePorts:
		return []table.Column{
			{Title: "Port", Width: 7}, {Title: "Proto", Width: 6}, {Title: "PID", Width: 8},
			{Title: "Process", Width: max(width-7-6-8-12-12, 12)}, {Title: "State", Width: 12},
		}
	case paneProcesses:
		return []table.Column{
			{Title: "PID", Width: 8}, {Title: "Name", Width: max(width-8-7-10-10-12, 12)},
			{Title: "CPU %", Width: 7}, {Title: "Memory", Width: 10}, {Title: "Status", Width: 10},
		}
	case paneCaches:
		return []table.Column{
			{Title: "Cache", Width: 8}, {Title: "Size", Width: 10}, {Title: "Path", Width: max(width-8-10-6, 20)},
		}
	}
	return []table.Column{
		{Title: "Name", Width: 24}, {Title: "Kind", Width: 5}, {Title: "Value", Width: max(width-24-5-6, 20)},
	}
}

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devdeck/internal/ui/components"
	"devdeck/internal/ui/theme"
	configview "devdeck/internal/ui/views/configedit"
	systemview "devdeck/internal/ui/views/system"
	toolsview "devdeck/internal/ui/views/tools"
	versionsview "devdeck/internal/ui/views/versions"
)

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTools tabID = iota
	tabVersions
	tabConfig
	tabSystem
	tabCount
)

var tabLabels = [tabCount]string{"Tools", "Versions", "Config", "System"}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab       key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
	Mark      key.Binding
	Batch     key.Binding
	Versions  key.Binding
	Config    key.Binding
	CopyPath  key.Binding
	Rescan    key.Binding
	SysPane   key.Binding
	SysAction key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Mark:      key.NewBinding(key.WithKeys(" ", "a"), key.WithHelp("space/a", "mark tool / all")),
		Batch:     key.NewBinding(key.WithKeys("u", "x"), key.WithHelp("u/x", "update / uninstall marked")),
		Versions:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "pick version")),
		Config:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit config")),
		CopyPath:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy path")),
		Rescan:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		SysPane:   key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "system pane")),
		SysAction: key.NewBinding(key.WithKeys("K", "D"), key.WithHelp("K/D", "kill / clear cache")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Mark, k.Batch, k.Versions, k.Config},
		{k.CopyPath, k.Rescan, k.SysPane, k.SysAction},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes keys and messages to the
// active tab and lets the Tools tab hand a tool over to Versions or Config.
type Model struct {
	toolsView    toolsview.Model
	versionsView versionsview.Model
	configView   configview.Model
	systemView   systemview.Model

	activeTab     tabID
	systemShown   bool
	runtimesShown bool
	keys          keyMap
	help          help.Model
	showHelp      bool
	palette       components.Palette
	status        string
	width         int
	height        int
}

func NewModel(
	tools toolsview.Port,
	versions versionsview.Port,
	config configview.Port,
	system systemview.Port,
) Model {
	return Model{
		toolsView:    toolsview.New(tools),
		versionsView: versionsview.New(versions),
		configView:   configview.New(config),
		systemView:   systemview.New(system),
		activeTab:    tabTools,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.toolsView.Init()
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case toolsview.StatusMsg:
		m.status = msg.Text
		return m, nil

	case toolsview.OpenVersionsMsg:
		m.activeTab = tabVersions
		m.status = "versions: " + msg.Key
		return m, m.versionsView.Open(msg.Key)

	case toolsview.OpenConfigMsg:
		m.activeTab = tabConfig
		m.status = "config: " + msg.Key
		return m, m.configView.Open(msg.Key)

	// Async results go to their own view whichever tab is showing.
	case toolsview.LoadedMsg, toolsview.BatchDoneMsg, toolsview.SearchDoneMsg, toolsview.InstallDoneMsg:
		var cmd tea.Cmd
		m.toolsView, cmd = m.toolsView.Update(msg)
		return m, cmd
	case versionsview.StepMsg, versionsview.RuntimesMsg:
		var cmd tea.Cmd
		m.versionsView, cmd = m.versionsView.Update(msg)
		return m, cmd
	case configview.DiscoveredMsg, configview.LoadedMsg, configview.SavedMsg:
		var cmd tea.Cmd
		m.configView, cmd = m.configView.Update(msg)
		return m, cmd
	case systemview.LoadedMsg, systemview.ActionDoneMsg:
		var cmd tea.Cmd
		m.systemView, cmd = m.systemView.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		// Each view's spinner ignores ticks that carry another spinner's id.
		var cmds [tabCount]tea.Cmd
		m.toolsView, cmds[tabTools] = m.toolsView.Update(msg)
		m.versionsView, cmds[tabVersions] = m.versionsView.Update(msg)
		m.configView, cmds[tabConfig] = m.configView.Update(msg)
		m.systemView, cmds[tabSystem] = m.systemView.Update(msg)
		return m, tea.Batch(cmds[:]...)

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if !m.subViewEditing() {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab":
				return m, m.switchTab((m.activeTab + 1) % tabCount)
			case "shift+tab":
				return m, m.switchTab((m.activeTab + tabCount - 1) % tabCount)
			case "?":
				m.showHelp = true
				return m, nil
			case ":":
				return m, m.palette.Open()
			}
		} else if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, m.updateActive(msg)
}

// updateActive forwards msg to the tab on screen.
func (m *Model) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabTools:
		m.toolsView, cmd = m.toolsView.Update(msg)
	case tabVersions:
		m.versionsView, cmd = m.versionsView.Update(msg)
	case tabConfig:
		m.configView, cmd = m.configView.Update(msg)
	case tabSystem:
		m.systemView, cmd = m.systemView.Update(msg)
	}
	return cmd
}

func (m *Model) switchTab(tab tabID) tea.Cmd {
	m.activeTab = tab
	if tab == tabVersions && !m.runtimesShown {
		m.runtimesShown = true
		return m.versionsView.LoadRuntimes()
	}
	if tab == tabSystem && !m.systemShown {
		m.systemShown = true
		return m.systemView.ShowPorts()
	}
	return nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = lipgloss.NewStyle().Height(contentH).MaxHeight(contentH).Render(m.activeView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabTools:
		return m.toolsView.View()
	case tabVersions:
		return m.versionsView.View()
	case tabConfig:
		return m.configView.View()
	case tabSystem:
		return m.systemView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "devdeck  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  :::command  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "tools:refresh":
		m.activeTab = tabTools
		return m, m.toolsView.Refresh()
	case "tools:filter":
		m.activeTab = tabTools
		return m, m.toolsView.SetQuery(arg)
	case "tools:source":
		if arg == "all" {
			arg = ""
		}
		m.activeTab = tabTools
		return m, m.toolsView.SetSource(arg)
	case "tools:search":
		m.activeTab = tabTools
		return m, m.toolsView.Search(arg)
	case "tools:update":
		m.activeTab = tabTools
		return m, m.toolsView.UpdateSelected()
	case "tools:uninstall":
		m.activeTab = tabTools
		return m, m.toolsView.UninstallSelected()
	case "versions:open", "config:open":
		tool, ok := m.toolsView.Current()
		if !ok {
			m.status = "no tool selected"
			return m, nil
		}
		if parts[0] == "versions:open" {
			return m.Update(toolsview.OpenVersionsMsg{Key: tool.Key})
		}
		return m.Update(toolsview.OpenConfigMsg{Key: tool.Key})
	case "system:ports", "system:processes", "system:caches":
		m.activeTab = tabSystem
		m.systemShown = true
		switch parts[0] {
		case "system:ports":
			return m, m.systemView.ShowPorts()
		case "system:processes":
			return m, m.systemView.ShowProcesses()
		}
		return m, m.systemView.ShowCaches()
	case "system:clear-cache", "system:kill":
		if arg == "" {
			m.status = "usage: " + parts[0] + " <target>"
			return m, nil
		}
		m.activeTab = tabSystem
		m.systemShown = true
		if parts[0] == "system:kill" {
			return m, m.systemView.Kill(arg)
		}
		return m, m.systemView.ClearCache(arg)
	}
	m.status = "unknown command: " + parts[0]
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewEditing reports whether the active tab has a text input focused, in
// which case global keys must yield.
func (m Model) subViewEditing() bool {
	switch m.activeTab {
	case tabTools:
		return m.toolsView.Filtering()
	case tabConfig:
		return m.configView.Editing()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.toolsView, _ = m.toolsView.Update(sz)
	m.versionsView, _ = m.versionsView.Update(sz)
	m.configView, _ = m.configView.Update(sz)
	m.systemView, _ = m.systemView.Update(sz)
}

package configedit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	configdto "devdeck/internal/modules/configedit/dto"
	"devdeck/internal/ui/theme"
)

type Port interface {
	Discover(ctx context.Context, toolKey string) (configdto.DiscoverOutput, error)
	Load(ctx context.Context, path string) (configdto.Document, error)
	Save(ctx context.Context, doc configdto.Document, edits map[string]string) (configdto.Document, error)
}

type DiscoveredMsg struct {
	Gen int
	Out configdto.DiscoverOutput
	Err error
}

type LoadedMsg struct {
	Gen int
	Doc configdto.Document
	Err error
}

type SavedMsg struct {
	Gen int
	Doc configdto.Document
	Err error
}

type mode int

const (
	modeFiles mode = iota
	modeFields
	modeEditField
	modeRaw
)

type Model struct {
	port    Port
	spinner spinner.Model
	input   textinput.Model
	raw     textarea.Model

	toolKey   string
	discovery configdto.DiscoverOutput
	doc       configdto.Document
	edits     map[string]string
	mode      mode
	cursor    int
	gen       int
	loading   bool
	notice    string
	err       error
	width     int
	height    int
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	ti := textinput.New()
	ti.CharLimit = 4096

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0

	return Model{port: port, spinner: sp, input: ti, raw: ta, edits: map[string]string{}}
}

func (m Model) Init() tea.Cmd { return nil }

// Open discovers config files for toolKey. Anything still in flight for the
// previous tool is discarded when it lands.
func (m *Model) Open(toolKey string) tea.Cmd {
	m.gen++
	m.toolKey = toolKey
	m.discovery = configdto.DiscoverOutput{}
	m.doc = configdto.Document{}
	m.edits = map[string]string{}
	m.mode = modeFiles
	m.cursor = 0
	m.loading = true
	m.err = nil
	m.notice = ""
	gen, port := m.gen, m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Discover(context.Background(), toolKey)
		return DiscoveredMsg{Gen: gen, Out: out, Err: err}
	})
}

// Editing reports whether a text input owns the keyboard.
func (m Model) Editing() bool {
	return m.mode == modeEditField || m.mode == modeRaw
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(m.width-20, 10)
		m.raw.SetWidth(max(m.width-2, 10))
		m.raw.SetHeight(max(m.height-6, 3))
		return m, nil

	case DiscoveredMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		m.discovery = msg.Out
		return m, nil

	case LoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.showDocument(msg.Doc)
		}
		return m, nil

	case SavedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.notice = "saved " + msg.Doc.Path
			m.showDocument(msg.Doc)
		}
		return m, nil

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
		switch m.mode {
		case modeFiles:
			return m.updateFiles(msg)
		case modeFields:
			return m.updateFields(msg)
		case modeEditField:
			return m.updateEditField(msg)
		case modeRaw:
			return m.updateRaw(msg)
		}
	}
	return m, nil
}

func (m Model) updateFiles(msg tea.KeyMsg) (Model, tea.Cmd) {
	files := m.listedFiles()
	switch msg.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(files)-1, 0))
	case "c":
		if m.cursor < len(files) {
			m.notice = copyText(files[m.cursor].Path)
		}
	case "enter":
		if m.cursor < len(files) {
			return m, m.load(files[m.cursor].Path)
		}
	}
	return m, nil
}

func (m Model) updateFields(msg tea.KeyMsg) (Model, tea.Cmd) {
	fields := m.doc.Fields
	switch msg.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(fields)-1, 0))
	case "enter":
		if m.cursor < len(fields) {
			f := fields[m.cursor]
			value := f.Value
			if edited, ok := m.edits[f.Key]; ok {
				value = edited
			}
			m.input.SetValue(value)
			m.input.CursorEnd()
			m.mode = modeEditField
			return m, m.input.Focus()
		}
	case "u":
		if m.cursor < len(fields) {
			delete(m.edits, fields[m.cursor].Key)
		}
	case "s":
		if len(m.edits) == 0 {
			m.notice = "no changes"
			return m, nil
		}
		return m, m.save(m.edits)
	case "c":
		m.notice = copyText(m.doc.Path)
	case "esc":
		m.mode = modeFiles
		m.cursor = 0
		m.edits = map[string]string{}
	}
	return m, nil
}

func (m Model) updateEditField(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		f := m.doc.Fields[m.cursor]
		if value := m.input.Value(); value != f.Value {
			m.edits[f.Key] = value
		} else {
			delete(m.edits, f.Key)
		}
		m.input.Blur()
		m.mode = modeFields
		return m, nil
	case "esc":
		m.input.Blur()
		m.mode = modeFields
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateRaw(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m, m.save(nil)
	case "esc":
		m.raw.Blur()
		m.mode = modeFiles
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.raw, cmd = m.raw.Update(msg)
	return m, cmd
}

func (m *Model) showDocument(doc configdto.Document) {
	m.doc = doc
	m.edits = map[string]string{}
	m.cursor = 0
	if doc.Structured {
		m.mode = modeFields
		return
	}
	m.raw.SetValue(doc.Raw)
	m.raw.Focus()
	m.mode = modeRaw
}

func (m *Model) load(path string) tea.Cmd {
	m.loading = true
	m.notice = ""
	gen, port := m.gen, m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		doc, err := port.Load(context.Background(), path)
		return LoadedMsg{Gen: gen, Doc: doc, Err: err}
	})
}

func (m *Model) save(edits map[string]string) tea.Cmd {
	m.loading = true
	doc := m.doc
	if !doc.Structured {
		doc.Raw = m.raw.Value()
	}
	pending := make(map[string]string, len(edits))
	for k, v := range edits {
		pending[k] = v
	}
	gen, port := m.gen, m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		saved, err := port.Save(context.Background(), doc, pending)
		return SavedMsg{Gen: gen, Doc: saved, Err: err}
	})
}

func (m Model) View() string {
	if m.toolKey == "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("Pick a tool on the Tools tab and press e"))
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Config") + "  " + m.toolKey + "\n\n")
	if m.loading {
		sb.WriteString(m.spinner.View() + " Working…\n")
		return sb.String()
	}
	switch m.mode {
	case modeFiles:
		sb.WriteString(m.viewFiles())
	case modeFields, modeEditField:
		sb.WriteString(m.viewFields())
	case modeRaw:
		sb.WriteString(theme.Muted.Render(m.doc.Path) + "\n")
		sb.WriteString(m.raw.View() + "\n")
		sb.WriteString(theme.Muted.Render("ctrl+s: save  esc: back"))
	}
	if m.err != nil {
		sb.WriteString("\n" + theme.Error.Render(m.err.Error()))
	} else if m.notice != "" {
		sb.WriteString("\n" + theme.Ok.Render(m.notice))
	}
	return sb.String()
}

func (m Model) viewFiles() string {
	var sb strings.Builder
	if len(m.discovery.Files) == 0 {
		sb.WriteString(theme.Muted.Render("No config files found. Looked in:") + "\n")
		for _, p := range m.discovery.Lookups {
			line := fmt.Sprintf("  %s (%s)", p.Dir, p.Status)
			if p.Error != "" {
				line += " " + p.Error
			}
			sb.WriteString(theme.Muted.Render(line) + "\n")
		}
		return sb.String()
	}
	i := 0
	for _, g := range m.discovery.Groups {
		sb.WriteString(theme.Hot.Render(g.Dir) + "\n")
		for _, f := range g.Files {
			line := "  " + f.Name
			if i == m.cursor {
				line = theme.Hot.Render("> ") + f.Name
			}
			sb.WriteString(line + "\n")
			i++
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("↑/↓: move  enter: open  c: copy path"))
	return sb.String()
}

func (m Model) viewFields() string {
	var sb strings.Builder
	sb.WriteString(theme.Muted.Render(m.doc.Path) + "\n")
	keyW := 0
	for _, f := range m.doc.Fields {
		keyW = max(keyW, len(f.Key))
	}
	keyW = min(keyW, 40)
	for i, f := range m.doc.Fields {
		value := f.Value
		marker := "  "
		if edited, ok := m.edits[f.Key]; ok {
			value = edited
			marker = theme.Warn.Render("* ")
		}
		if i == m.cursor && m.mode == modeEditField {
			value = m.input.View()
		}
		prefix := "  "
		if i == m.cursor {
			prefix = theme.Hot.Render("> ")
		}
		key := fmt.Sprintf("%-*s", keyW, f.Key)
		sb.WriteString(prefix + marker + theme.Title.Render(key) + " " + value + theme.Muted.Render("  "+f.Kind) + "\n")
	}
	if len(m.doc.Fields) == 0 {
		sb.WriteString(theme.Muted.Render("(empty object)") + "\n")
	}
	keys := make([]string, 0, len(m.edits))
	for k := range m.edits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		sb.WriteString("\n" + theme.Warn.Render("pending: "+strings.Join(keys, ", ")) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: edit  u: undo field  s: save  c: copy path  esc: back"))
	return sb.String()
}

// listedFiles is the file list in the order the grouped view shows it.
func (m Model) listedFiles() []configdto.ConfigFile {
	var files []configdto.ConfigFile
	for _, g := range m.discovery.Groups {
		files = append(files, g.Files...)
	}
	return files
}

func copyText(text string) string {
	if err := clipboard.WriteAll(text); err != nil {
		return "copy failed: " + err.Error()
	}
	return "copied " + text
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	toolsdto "devdeck/internal/modules/tools/dto"
	"devdeck/internal/ui/theme"
)

// SearchDoneMsg carries registry matches for the search numbered Gen.
type SearchDoneMsg struct {
	Gen   int
	Query string
	Out   toolsdto.SearchOutput
	Err   error
}

type InstallDoneMsg struct {
	Key string
	Out toolsdto.ActionOutput
	Err error
}

// searchState is the registry search that replaces the installed list while
// browsing is set.
type searchState struct {
	input    textinput.Model
	table    table.Model
	results  []toolsdto.SearchResult
	failures []string
	query    string
	gen      int
	browsing bool
	pending  bool
	err      error
}

func newSearchState(styles table.Styles) searchState {
	ti := textinput.New()
	ti.Placeholder = "search npm, cargo and pip"
	ti.CharLimit = 80

	t := table.New(table.WithColumns(searchColumns(80)), table.WithFocused(true))
	t.SetStyles(styles)
	return searchState{input: ti, table: t}
}

func (s *searchState) resize(width, height int) {
	s.table.SetColumns(searchColumns(width))
	s.table.SetWidth(width)
	s.table.SetHeight(max(height-6, 3))
	s.input.Width = max(width-12, 10)
}

// Search asks every registry for query and shows the matches.
func (m *Model) Search(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return status("search needs a query")
	}
	m.search.query = query
	m.search.input.SetValue(query)
	m.search.browsing = true
	m.search.pending = true
	m.search.gen++
	gen := m.search.gen
	input := toolsdto.SearchInput{Source: m.source, Query: query}
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Search(context.Background(), input)
		return SearchDoneMsg{Gen: gen, Query: query, Out: out, Err: err}
	})
}

// CurrentResult returns the registry match under the cursor.
func (m Model) CurrentResult() (toolsdto.SearchResult, bool) {
	i := m.search.table.Cursor()
	if !m.search.browsing || i < 0 || i >= len(m.search.results) {
		return toolsdto.SearchResult{}, false
	}
	return m.search.results[i], true
}

// Browsing reports whether registry matches replace the installed list.
func (m Model) Browsing() bool { return m.search.browsing }

func (m Model) updateSearchInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.input.Blur()
		return m, m.Search(m.search.input.Value())
	case "esc":
		m.search.input.Blur()
		m.search.input.SetValue(m.search.query)
		return m, nil
	}
	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.browsing = false
		return m, nil
	case "s":
		return m, m.search.input.Focus()
	case "i":
		return m, m.installCurrent()
	}
	var cmd tea.Cmd
	m.search.table, cmd = m.search.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearchResult(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SearchDoneMsg:
		if msg.Gen != m.search.gen {
			return m, nil
		}
		m.search.pending = false
		m.search.err = msg.Err
		m.search.failures = msg.Out.Failures
		if msg.Err == nil {
			m.setResults(msg.Out.Results)
		}
		return m, nil
	case InstallDoneMsg:
		m.busy = ""
		if msg.Err != nil {
			return m, status("install failed: " + msg.Err.Error())
		}
		for i := range m.search.results {
			if m.search.results[i].Key == msg.Key {
				m.search.results[i].Installed = true
			}
		}
		m.setResults(m.search.results)
		return m, tea.Batch(m.reload(false), status(msg.Out.Message))
	}
	return m, nil
}

func (m *Model) installCurrent() tea.Cmd {
	result, ok := m.CurrentResult()
	if !ok {
		return status("nothing selected")
	}
	if result.Installed {
		return status(result.Key + " is already installed")
	}
	m.busy = "installing " + result.Key
	key := result.Key
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Install(context.Background(), key)
		return InstallDoneMsg{Key: key, Out: out, Err: err}
	})
}

func (m *Model) setResults(results []toolsdto.SearchResult) {
	m.search.results = results
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		mark := " "
		if r.Installed {
			mark = "✓"
		}
		version := r.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, table.Row{mark, r.Name, version, r.Source, r.Description})
	}
	m.search.table.SetRows(rows)
	if m.search.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.search.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) searchView() string {
	var sb strings.Builder
	headline := fmt.Sprintf("%d matches", len(m.search.results))
	if m.search.pending {
		headline = m.spinner.View() + " searching"
	}
	sb.WriteString(theme.Title.Render("Registry search") + "  " + theme.Muted.Render(headline) + "\n")
	if m.search.input.Focused() {
		sb.WriteString("s " + m.search.input.View() + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("query: "+m.search.query) + "\n")
	}
	sb.WriteString(m.search.table.View() + "\n")
	switch {
	case m.busy != "":
		sb.WriteString(m.spinner.View() + " " + m.busy + "…")
	case m.search.err != nil:
		sb.WriteString(theme.Error.Render(m.search.err.Error()))
	case len(m.search.failures) > 0:
		sb.WriteString(theme.Error.Render(strings.Join(m.search.failures, "; ")))
	default:
		sb.WriteString(theme.Muted.Render("i: install  s: new search  esc: back to installed tools"))
	}
	return sb.String()
}

func searchColumns(width int) []table.Column {
	name := max((width-2-14-8)/3, 16)
	description := max(width-2-14-8-name-10, 20)
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "Name", Width: name},
		{Title: "Latest", Width: 14},
		{Title: "Source", Width: 8},
		{Title: "Description", Width: description},
	}
}

package tools_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	toolsdto "devdeck/internal/modules/tools/dto"
	toolsview "devdeck/internal/ui/views/tools"
)

type fakePort struct{}

func (fakePort) List(_ context.Context, input toolsdto.ListInput) (toolsdto.ListOutput, error) {
	return toolsdto.ListOutput{Tools: []toolsdto.Tool{{Key: "npm:" + input.Query, FullName: input.Query, Source: "npm"}}}, nil
}

func (fakePort) Batch(context.Context, string, []string) (toolsdto.BatchOutput, error) {
	return toolsdto.BatchOutput{}, nil
}

func (fakePort) Search(_ context.Context, input toolsdto.SearchInput) (toolsdto.SearchOutput, error) {
	return toolsdto.SearchOutput{Results: []toolsdto.SearchResult{
		{Key: "npm:" + input.Query, Name: input.Query, Source: "npm"},
		{Key: "npm:" + input.Query + "-cli", Name: input.Query + "-cli", Source: "npm", Installed: true},
	}}, nil
}

func (fakePort) Install(_ context.Context, key string) (toolsdto.ActionOutput, error) {
	return toolsdto.ActionOutput{Key: key, Message: "installed " + key}, nil
}

// run executes cmd and flattens batches into their messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, run(c)...)
	}
	return out
}

func deliver[T tea.Msg](t *testing.T, m toolsview.Model, cmd tea.Cmd) (toolsview.Model, tea.Cmd) {
	t.Helper()
	for _, msg := range run(cmd) {
		if typed, ok := msg.(T); ok {
			return m.Update(typed)
		}
	}
	t.Fatalf("no %T produced", *new(T))
	return m, nil
}

func TestStaleListingIsDropped(t *testing.T) {
	t.Parallel()
	m := toolsview.New(fakePort{})
	first := m.SetQuery("eslint")
	second := m.SetQuery("prettier")

	m, _ = m.Update(first())
	if _, ok := m.Current(); ok {
		t.Fatalf("a listing from a superseded request must be ignored")
	}
	m, _ = m.Update(second())
	tool, ok := m.Current()
	if !ok || tool.Key != "npm:prettier" {
		t.Fatalf("current = %+v, %v", tool, ok)
	}
}

func TestSearchThenInstallMarksResult(t *testing.T) {
	t.Parallel()
	m := toolsview.New(fakePort{})
	stale := m.Search("vue")
	latest := m.Search("vite")

	m, _ = deliver[toolsview.SearchDoneMsg](t, m, stale)
	if _, ok := m.CurrentResult(); ok {
		t.Fatalf("matches from a superseded search must be ignored")
	}
	m, _ = deliver[toolsview.SearchDoneMsg](t, m, latest)
	result, ok := m.CurrentResult()
	if !ok || result.Key != "npm:vite" || result.Installed {
		t.Fatalf("current result = %+v, %v", result, ok)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	m, _ = deliver[toolsview.InstallDoneMsg](t, m, cmd)
	if result, _ := m.CurrentResult(); !result.Installed {
		t.Fatalf("installed result must be marked: %+v", result)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Browsing() {
		t.Fatalf("esc must return to the installed list")
	}
}

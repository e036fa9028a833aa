package versions_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	versionsdto "devdeck/internal/modules/versions/dto"
	versionsview "devdeck/internal/ui/views/versions"
)

type fakePort struct{ closed int }

func (p *fakePort) Open(_ context.Context, key string) (versionsdto.Workflow, error) {
	return versionsdto.Workflow{ToolKey: key, State: "listing"}, nil
}

func (p *fakePort) Load(context.Context) (versionsdto.Workflow, error) {
	return versionsdto.Workflow{ToolKey: "npm:a", State: "ready"}, nil
}

func (p *fakePort) Switch(context.Context, string) (versionsdto.Workflow, error) {
	return versionsdto.Workflow{}, nil
}

func (p *fakePort) Acknowledge(context.Context) (versionsdto.Workflow, error) {
	return versionsdto.Workflow{}, nil
}

func (p *fakePort) Close(context.Context) versionsdto.Workflow {
	p.closed++
	return versionsdto.Workflow{State: "idle"}
}

func (p *fakePort) Runtimes(context.Context) ([]versionsdto.Runtime, error) {
	return []versionsdto.Runtime{
		{Name: "Node.js", Version: "20.11.0", Path: "/home/u/.nvm/versions/node/v20.11.0/bin/node", Manager: "nvm", Installed: true},
		{Name: "Go"},
	}, nil
}

// stepOf runs a batched command and returns the first StepMsg it yields.
func stepOf(t *testing.T, cmd tea.Cmd) versionsview.StepMsg {
	t.Helper()
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if step, ok := c().(versionsview.StepMsg); ok {
				return step
			}
		}
	}
	step, ok := msg.(versionsview.StepMsg)
	if !ok {
		t.Fatalf("no step message in %T", msg)
	}
	return step
}

func TestResultAfterCloseIsDropped(t *testing.T) {
	t.Parallel()
	port := &fakePort{}
	m := versionsview.New(port)
	opened := stepOf(t, m.Open("npm:a"))
	m.Close()

	m, cmd := m.Update(opened)
	if cmd != nil {
		t.Fatalf("a closed picker must not continue to load")
	}
	if m.Busy() {
		t.Fatalf("closed picker should be idle")
	}
	if port.closed != 1 {
		t.Fatalf("close calls = %d", port.closed)
	}
}

func TestOpenThenLoad(t *testing.T) {
	t.Parallel()
	m := versionsview.New(&fakePort{})
	opened := stepOf(t, m.Open("npm:a"))

	m, cmd := m.Update(opened)
	if cmd == nil {
		t.Fatalf("open should chain into load")
	}
	m, _ = m.Update(stepOf(t, cmd))
	if m.Busy() {
		t.Fatalf("picker should be ready after load")
	}
}

func TestRuntimesShownWhileIdle(t *testing.T) {
	t.Parallel()
	m := versionsview.New(&fakePort{})
	if !strings.Contains(m.View(), "detecting runtimes") {
		t.Fatalf("idle view should wait for runtimes")
	}
	m, _ = m.Update(m.LoadRuntimes()())
	view := m.View()
	for _, want := range []string{"Node.js", "20.11.0", "via nvm", "not installed"} {
		if !strings.Contains(view, want) {
			t.Fatalf("idle view lacks %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if _, ok := cmd().(versionsview.RuntimesMsg); !ok {
		t.Fatalf("r should rescan runtimes")
	}
}

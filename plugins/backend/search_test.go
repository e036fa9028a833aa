package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"devdeck/internal/modules/backend/dto"
)

func TestParseNpmSearchCapsResults(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 25; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"name":"pkg","version":"1.0.0","description":"d"}`)
	}
	sb.WriteString("]")
	results, err := parseNpmSearch([]byte(sb.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(results) != maxSearchResults {
		t.Fatalf("expected %d results, got %d", maxSearchResults, len(results))
	}
	if results[0] != (dto.PackageSearchResult{Name: "pkg", Version: "1.0.0", Description: "d", Source: "npm"}) {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestParseCargoSearch(t *testing.T) {
	t.Parallel()
	raw := []byte(`ripgrep = "14.1.0"        # ripgrep is a line-oriented search tool
ripgrep_all = "0.10.6"    # rga: ripgrep, but also search in PDFs
... and 98 crates more (use --limit N to see more)
note: to learn more about a package, run ` + "`cargo info <name>`\n")
	got := parseCargoSearch(raw)
	want := []dto.PackageSearchResult{
		{Name: "ripgrep", Version: "14.1.0", Description: "ripgrep is a line-oriented search tool", Source: "cargo"},
		{Name: "ripgrep_all", Version: "0.10.6", Description: "rga: ripgrep, but also search in PDFs", Source: "cargo"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestSearchPipFallsBackToPip3AndToNothing(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{
		fail:   map[string]bool{"pip index versions black": true},
		output: map[string]string{"pip3 index versions black": "black (24.2.0)\nAvailable versions: 24.2.0, 24.1.1\n"},
	}
	h := newHandler("/home/u", "linux", runner.run, nil)
	results, err := h.searchPackages(context.Background(), "pip", "black")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "black" || results[0].Version != "24.2.0" {
		t.Fatalf("unexpected results: %+v", results)
	}

	runner = &fakeRunner{fail: map[string]bool{"pip index versions nope": true, "pip3 index versions nope": true}}
	h = newHandler("/home/u", "linux", runner.run, nil)
	results, err = h.searchPackages(context.Background(), "pip", "nope")
	if err != nil || len(results) != 0 {
		t.Fatalf("unknown project should give no results, got %+v (%v)", results, err)
	}
}

func TestSearchRejectsEmptyQueryAndUnknownSource(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	h := newHandler("/home/u", "linux", runner.run, nil)
	if resp := h.Handle(context.Background(), request(t, dto.OpSearchPackages, dto.SearchArgs{Source: "npm", Query: "  "})); resp.Error == "" {
		t.Fatalf("expected an error for an empty query")
	}
	if resp := h.Handle(context.Background(), request(t, dto.OpSearchPackages, dto.SearchArgs{Source: "gem", Query: "rails"})); resp.Error == "" {
		t.Fatalf("expected an error for an unknown source")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("no command should run, got %+v", runner.calls)
	}
}

func TestInstallPackageCommands(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	h := newHandler("/home/u", "linux", runner.run, nil)
	for _, source := range []string{"npm", "cargo", "pip"} {
		resp := h.Handle(context.Background(), request(t, dto.OpInstallPackage, dto.InstallArgs{Source: source, Name: "tool"}))
		var msg dto.Message
		if err := json.Unmarshal(resp.Result, &msg); err != nil || msg.Message != "installed tool" {
			t.Fatalf("%s: %+v (%v)", source, resp, err)
		}
	}
	want := []call{
		{name: "npm", args: []string{"install", "-g", "tool"}},
		{name: "cargo", args: []string{"install", "tool"}},
		{name: "pip", args: []string{"install", "tool"}},
	}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Fatalf("unexpected commands: %+v", runner.calls)
	}
}

func TestRuntimeVersions(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{output: map[string]string{
		"which node":       "/home/u/.nvm/versions/node/v20.11.0/bin/node\n",
		"node --version":   "v20.11.0\n",
		"which python":     "/usr/bin/python\n",
		"python --version": "Python 3.12.1\n",
		"which rustc":      "/home/u/.cargo/bin/rustc\n",
		"rustc --version":  "rustc 1.77.0 (aedd173a2 2024-03-17)\n",
	}}
	h := newHandler(t.TempDir(), "linux", runner.run, nil)

	got := h.runtimeVersions(context.Background())
	want := []dto.RuntimeVersion{
		{Name: "Node.js", Version: "20.11.0", Path: "/home/u/.nvm/versions/node/v20.11.0/bin/node", Manager: "nvm"},
		{Name: "Python", Version: "3.12.1", Path: "/usr/bin/python"},
		{Name: "Rust", Version: "1.77.0", Path: "/home/u/.cargo/bin/rustc", Manager: "rustup"},
		{Name: "Go"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestRuntimeManagerFromHomeDirectory(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".pyenv"), 0o755); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{output: map[string]string{
		"which python3":     "/usr/local/bin/python3",
		"python3 --version": "Python 3.11.8",
	}}
	h := newHandler(home, "linux", runner.run, nil)
	rv := h.detectRuntime(context.Background(), runtimeChecks[1])
	if rv.Manager != "pyenv" || rv.Version != "3.11.8" {
		t.Fatalf("unexpected runtime: %+v", rv)
	}
}

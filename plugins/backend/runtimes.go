package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"devdeck/internal/modules/backend/dto"
)

type runtimeCheck struct {
	name     string
	bins     []string
	version  func(out string) string
	managers []managerHint
}

// managerHint names a version manager recognised by a marker in the
// resolved binary path, by a directory under home, or by a binary that
// answers --version.
type managerHint struct {
	name       string
	pathMarker string
	homeDir    string
	bin        string
}

var runtimeChecks = []runtimeCheck{
	{
		name:    "Node.js",
		bins:    []string{"node"},
		version: func(out string) string { return strings.TrimPrefix(out, "v") },
		managers: []managerHint{
			{name: "nvm", pathMarker: ".nvm", homeDir: ".nvm"},
			{name: "fnm", pathMarker: "fnm", bin: "fnm"},
			{name: "volta", pathMarker: ".volta", homeDir: ".volta", bin: "volta"},
			{name: "asdf", pathMarker: ".asdf", homeDir: ".asdf"},
			{name: "homebrew", pathMarker: "homebrew"},
		},
	},
	{
		name:    "Python",
		bins:    []string{"python3", "python"},
		version: func(out string) string { return strings.TrimPrefix(out, "Python ") },
		managers: []managerHint{
			{name: "pyenv", pathMarker: ".pyenv", homeDir: ".pyenv"},
			{name: "conda", pathMarker: "conda", bin: "conda"},
			{name: "asdf", pathMarker: ".asdf", homeDir: ".asdf"},
			{name: "homebrew", pathMarker: "homebrew"},
		},
	},
	{
		name:     "Rust",
		bins:     []string{"rustc"},
		version:  secondField,
		managers: []managerHint{{name: "rustup", pathMarker: ".cargo", homeDir: ".rustup", bin: "rustup"}},
	},
	{
		name:     "Go",
		bins:     []string{"go"},
		version:  func(out string) string { return strings.TrimPrefix(thirdField(out), "go") },
		managers: []managerHint{{name: "goenv", pathMarker: ".goenv", homeDir: ".goenv"}, {name: "homebrew", pathMarker: "homebrew"}},
	},
}

// runtimeVersions reports every known runtime, installed or not, in a fixed
// order.
func (h *handler) runtimeVersions(ctx context.Context) []dto.RuntimeVersion {
	out := make([]dto.RuntimeVersion, 0, len(runtimeChecks))
	for _, check := range runtimeChecks {
		out = append(out, h.detectRuntime(ctx, check))
	}
	return out
}

func (h *handler) detectRuntime(ctx context.Context, check runtimeCheck) dto.RuntimeVersion {
	rv := dto.RuntimeVersion{Name: check.name}
	for _, bin := range check.bins {
		path := h.locate(ctx, bin)
		if path == "" {
			continue
		}
		args := []string{"--version"}
		if bin == "go" {
			args = []string{"version"}
		}
		raw, err := h.run(ctx, bin, args...)
		if err != nil {
			continue
		}
		rv.Path = path
		rv.Version = check.version(firstLineOf(string(raw)))
		rv.Manager = h.detectManager(ctx, path, check.managers)
		return rv
	}
	return rv
}

func (h *handler) locate(ctx context.Context, bin string) string {
	finder := "which"
	if h.goos == "windows" {
		finder = "where"
	}
	raw, err := h.run(ctx, finder, bin)
	if err != nil {
		return ""
	}
	return firstLineOf(string(raw))
}

// detectManager prefers a marker in the binary's own path; the home
// directory and binary checks only say that a manager is installed.
func (h *handler) detectManager(ctx context.Context, path string, hints []managerHint) string {
	slashed := filepath.ToSlash(path)
	for _, hint := range hints {
		if hint.pathMarker != "" && strings.Contains(slashed, hint.pathMarker) {
			return hint.name
		}
	}
	for _, hint := range hints {
		if hint.homeDir != "" {
			if info, err := os.Stat(filepath.Join(h.home, hint.homeDir)); err == nil && info.IsDir() {
				return hint.name
			}
		}
		if hint.bin != "" {
			if raw, err := h.run(ctx, hint.bin, "--version"); err == nil && strings.TrimSpace(string(raw)) != "" {
				return hint.name
			}
		}
	}
	return ""
}

func firstLineOf(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func secondField(s string) string {
	if fields := strings.Fields(s); len(fields) > 1 {
		return fields[1]
	}
	return s
}

func thirdField(s string) string {
	if fields := strings.Fields(s); len(fields) > 2 {
		return fields[2]
	}
	return s
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output map[string]string
	fail   map[string]bool
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	key := name + " " + strings.Join(args, " ")
	if f.fail[key] {
		return nil, errors.New(key + ": exit status 1")
	}
	return []byte(f.output[key]), nil
}

func request(t *testing.T, op dto.Operation, args any) domain.Request {
	t.Helper()
	req := domain.Request{Op: op}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			t.Fatalf("marshal args: %v", err)
		}
		req.Args = raw
	}
	return req
}

func TestParseNpmList(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"dependencies":{"typescript":{"version":"5.4.2"},"@anthropic-ai/claude-code":{"version":"1.0.0"}}}`)
	tools, err := parseNpmList(raw, "/usr/lib/node_modules")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	scoped := tools[0]
	if scoped.FullName != "@anthropic-ai/claude-code" || scoped.Name != "claude-code" || scoped.Scope == nil || *scoped.Scope != "@anthropic-ai" {
		t.Fatalf("unexpected scoped tool: %+v", scoped)
	}
	if want := filepath.Join("/usr/lib/node_modules", "@anthropic-ai", "claude-code"); scoped.InstallPath != want {
		t.Fatalf("install path = %q, want %q", scoped.InstallPath, want)
	}
	if tools[1].Scope != nil || *tools[1].Version != "5.4.2" {
		t.Fatalf("unexpected plain tool: %+v", tools[1])
	}
}

func TestParseCargoList(t *testing.T) {
	t.Parallel()
	raw := []byte("bat v0.24.0:\n    bat\nripgrep v14.1.0 (/src/rg):\n    rg\n")
	tools := parseCargoList(raw, "/home/u/.cargo/bin")
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %+v", tools)
	}
	if tools[0].Name != "bat" || *tools[0].Version != "0.24.0" {
		t.Fatalf("unexpected first tool: %+v", tools[0])
	}
	if tools[1].Name != "ripgrep" || *tools[1].Version != "14.1.0" {
		t.Fatalf("unexpected second tool: %+v", tools[1])
	}
}

func TestParseNpmVersionsNewestFirst(t *testing.T) {
	t.Parallel()
	all := make([]string, 25)
	for i := range all {
		all[i] = "1.0." + string(rune('a'+i))
	}
	raw, _ := json.Marshal(all)
	got, err := parseNpmVersions(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != maxVersions || got[0] != all[24] || got[maxVersions-1] != all[5] {
		t.Fatalf("unexpected versions: %v", got)
	}

	single, err := parseNpmVersions([]byte(`"0.1.0"`))
	if err != nil || !reflect.DeepEqual(single, []string{"0.1.0"}) {
		t.Fatalf("single version: %v %v", single, err)
	}
}

func TestBatchContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{fail: map[string]bool{"pip install -U black": true}}
	h := newHandler("/home/u", "linux", runner.run, nil)

	resp := h.Handle(context.Background(), request(t, dto.OpBatchUpdate, dto.BatchArgs{Items: []dto.BatchItem{
		{Source: "pip", Name: "black"},
		{Source: "npm", Name: "typescript"},
		{Source: "gem", Name: "rails"},
	}}))
	if resp.Error != "" {
		t.Fatalf("batch should not fail as a whole: %s", resp.Error)
	}
	var results []dto.BatchResult
	if err := json.Unmarshal(resp.Result, &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected one result per item, got %+v", results)
	}
	if results[0].Success || !results[1].Success || results[2].Success {
		t.Fatalf("unexpected outcomes: %+v", results)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("unsupported source must not run a command: %+v", runner.calls)
	}
}

func TestHandleRejectsUnknownOperation(t *testing.T) {
	t.Parallel()
	h := newHandler("/home/u", "linux", (&fakeRunner{}).run, nil)
	resp := h.Handle(context.Background(), domain.Request{Op: "formatDisk"})
	if resp.Error == "" {
		t.Fatalf("expected an error response")
	}
}

func TestHomePathAndPing(t *testing.T) {
	t.Parallel()
	h := newHandler("/home/u", "linux", (&fakeRunner{}).run, nil)

	var home string
	if err := json.Unmarshal(h.Handle(context.Background(), request(t, dto.OpGetHomePath, nil)).Result, &home); err != nil || home != "/home/u" {
		t.Fatalf("home = %q (%v)", home, err)
	}
	var ping dto.PingOutput
	if err := json.Unmarshal(h.Handle(context.Background(), request(t, dto.OpPing, nil)).Result, &ping); err != nil || ping.Name != pluginName {
		t.Fatalf("ping = %+v (%v)", ping, err)
	}
}

func TestListConfigFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write := func(rel string) {
		t.Helper()
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("settings.json")
	write("agents/b.yaml")
	write("agents/a.toml")
	write("notes.md")
	write("node_modules/pkg/package.json")
	write("cache/x.json")

	listing, err := listConfigFiles(root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !listing.Exists {
		t.Fatalf("root should exist")
	}
	var got []string
	for _, f := range listing.Files {
		got = append(got, f.Dir+"/"+f.Name)
	}
	want := []string{"./settings.json", "agents/a.toml", "agents/b.yaml"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}

	missing, err := listConfigFiles(filepath.Join(root, "nope"))
	if err != nil || missing.Exists || len(missing.Files) != 0 {
		t.Fatalf("missing dir: %+v %v", missing, err)
	}
}

func TestParseLsof(t *testing.T) {
	t.Parallel()
	raw := []byte(`COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF NODE NAME
node    4242 u   23u  IPv6 0x1      0t0  TCP *:3000 (LISTEN)
Python  77 u   5u  IPv4 0x2      0t0  UDP 127.0.0.1:5353
`)
	ports := parseLsof(raw)
	want := []dto.Port{
		{Port: 3000, Protocol: "TCP", PID: 4242, ProcessName: "node", State: "LISTEN"},
		{Port: 5353, Protocol: "UDP", PID: 77, ProcessName: "Python", State: "*"},
	}
	if !reflect.DeepEqual(ports, want) {
		t.Fatalf("ports = %+v", ports)
	}
}

func TestParsePsKeepsDevProcesses(t *testing.T) {
	t.Parallel()
	raw := []byte("  101  12.5  204800 S    /usr/local/bin/node\n  102   0.0    1024 Ss   /usr/sbin/sshd\n  103   1.0    2048 R+   cargo\n")
	procs := parsePs(raw)
	if len(procs) != 2 {
		t.Fatalf("expected node and cargo, got %+v", procs)
	}
	if procs[0].Name != "node" || procs[0].MemoryMB != 200 || procs[0].Status != "sleeping" {
		t.Fatalf("unexpected node process: %+v", procs[0])
	}
	if procs[1].Status != "running" {
		t.Fatalf("unexpected cargo process: %+v", procs[1])
	}
}

func TestEnvVariables(t *testing.T) {
	t.Parallel()
	vars := envVariables([]string{"PATH=/bin", "editor=vim", "JAVA_HOME=/jdk", "XDG_CONFIG_DIR=/c", "=bad"})
	var names []string
	for _, v := range vars {
		names = append(names, v.Name)
	}
	if !reflect.DeepEqual(names, []string{"editor", "JAVA_HOME", "PATH", "XDG_CONFIG_DIR"}) {
		t.Fatalf("names = %v", names)
	}
	if vars[0].IsPath || !vars[1].IsPath || !vars[2].IsPath || !vars[3].IsPath {
		t.Fatalf("unexpected path classification: %+v", vars)
	}
}

func TestPathEntriesDropsEmpty(t *testing.T) {
	t.Parallel()
	sep := string(os.PathListSeparator)
	got := pathEntries("/usr/bin" + sep + sep + "/bin" + sep)
	if !reflect.DeepEqual(got, []string{"/usr/bin", "/bin"}) {
		t.Fatalf("entries = %v", got)
	}
}

func TestScanCachesAndClearByDirectory(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	gradle := filepath.Join(home, ".gradle", "caches")
	if err := os.MkdirAll(gradle, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(gradle, "blob"), make([]byte, 512), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := &fakeRunner{}
	h := newHandler(home, "linux", runner.run, nil)

	var found dto.Cache
	for _, c := range h.scanCaches() {
		if c.Name == "gradle" {
			found = c
		}
	}
	if !found.Exists || found.SizeBytes != 512 {
		t.Fatalf("unexpected gradle cache: %+v", found)
	}

	if _, err := h.clearCache(context.Background(), "gradle"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(gradle)
	if err != nil || len(entries) != 0 {
		t.Fatalf("gradle cache should be empty and present: %v %v", entries, err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("directory caches must not shell out: %+v", runner.calls)
	}

	if _, err := h.clearCache(context.Background(), "npm"); err != nil {
		t.Fatalf("clear npm: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "npm" {
		t.Fatalf("npm cache should use npm: %+v", runner.calls)
	}
}

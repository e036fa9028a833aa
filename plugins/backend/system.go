package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"devdeck/internal/modules/backend/dto"
)

var (
	environ = os.Environ
	getenv  = os.Getenv
)

type cacheLocation struct {
	name  string
	path  string
	clear []string
}

func (h *handler) cacheLocations() []cacheLocation {
	pip := filepath.Join(h.home, ".cache", "pip")
	if h.goos == "darwin" {
		pip = filepath.Join(h.home, "Library", "Caches", "pip")
	}
	return []cacheLocation{
		{name: "npm", path: filepath.Join(h.home, ".npm", "_cacache"), clear: []string{"npm", "cache", "clean", "--force"}},
		{name: "pnpm", path: filepath.Join(h.home, ".pnpm-store"), clear: []string{"pnpm", "store", "prune"}},
		{name: "yarn", path: filepath.Join(h.home, ".yarn", "cache"), clear: []string{"yarn", "cache", "clean"}},
		{name: "cargo", path: filepath.Join(h.home, ".cargo", "registry", "cache")},
		{name: "pip", path: pip, clear: []string{"pip", "cache", "purge"}},
		{name: "gradle", path: filepath.Join(h.home, ".gradle", "caches")},
		{name: "maven", path: filepath.Join(h.home, ".m2", "repository")},
		{name: "go", path: filepath.Join(h.home, "go", "pkg", "mod", "cache"), clear: []string{"go", "clean", "-modcache"}},
	}
}

func (h *handler) scanCaches() []dto.Cache {
	locations := h.cacheLocations()
	caches := make([]dto.Cache, 0, len(locations))
	for _, loc := range locations {
		cache := dto.Cache{Name: loc.name, Path: loc.path}
		if info, err := os.Stat(loc.path); err == nil && info.IsDir() {
			cache.Exists = true
			cache.SizeBytes = dirSize(loc.path)
		}
		caches = append(caches, cache)
	}
	return caches
}

// clearCache uses the package manager's own command when it has one and
// empties the directory otherwise.
func (h *handler) clearCache(ctx context.Context, name string) (string, error) {
	for _, loc := range h.cacheLocations() {
		if loc.name != name {
			continue
		}
		if len(loc.clear) > 0 {
			if _, err := h.run(ctx, loc.clear[0], loc.clear[1:]...); err != nil {
				return "", err
			}
			return fmt.Sprintf("cleared %s cache", name), nil
		}
		if err := os.RemoveAll(loc.path); err != nil {
			return "", fmt.Errorf("remove %s: %w", loc.path, err)
		}
		if err := os.MkdirAll(loc.path, 0o755); err != nil {
			return "", fmt.Errorf("recreate %s: %w", loc.path, err)
		}
		return fmt.Sprintf("cleared %s cache", name), nil
	}
	return "", fmt.Errorf("unknown cache %q", name)
}

func (h *handler) scanPorts(ctx context.Context) ([]dto.Port, error) {
	out, err := h.run(ctx, "lsof", "-nP", "-iTCP", "-sTCP:LISTEN", "-iUDP")
	// lsof exits 1 when nothing matches.
	if err != nil && len(out) == 0 {
		return []dto.Port{}, nil
	}
	return parseLsof(out), nil
}

// parseLsof reads `lsof -nP -i` output:
// COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME [(STATE)]
func parseLsof(raw []byte) []dto.Port {
	ports := []dto.Port{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 9 || fields[0] == "COMMAND" {
			continue
		}
		protocol := strings.ToUpper(fields[7])
		if protocol != "TCP" && protocol != "UDP" {
			continue
		}
		addr := fields[8]
		if local, _, ok := strings.Cut(addr, "->"); ok {
			addr = local
		}
		idx := strings.LastIndex(addr, ":")
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(addr[idx+1:])
		if err != nil {
			continue
		}
		pid, _ := strconv.Atoi(fields[1])
		state := "*"
		if len(fields) > 9 {
			state = strings.Trim(fields[9], "()")
		}
		ports = append(ports, dto.Port{Port: port, Protocol: protocol, PID: pid, ProcessName: fields[0], State: state})
	}
	return ports
}

var devKeywords = []string{
	"node", "npm", "pnpm", "yarn", "deno", "bun",
	"python", "pip", "cargo", "rustc", "rust-analyzer",
	"code", "cursor", "idea", "webstorm", "vscode",
	"docker", "git", "java", "gradle", "maven",
	"webpack", "vite", "esbuild", "tsc", "eslint",
}

func (h *handler) scanProcesses(ctx context.Context) ([]dto.Process, error) {
	out, err := h.run(ctx, "ps", "-axo", "pid=,pcpu=,rss=,stat=,comm=")
	if err != nil {
		return nil, err
	}
	return parsePs(out), nil
}

// parsePs reads `ps -axo pid=,pcpu=,rss=,stat=,comm=` and keeps developer
// processes. rss is reported in KiB.
func parsePs(raw []byte) []dto.Process {
	processes := []dto.Process{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		name := filepath.Base(strings.Join(fields[4:], " "))
		if !isDevProcess(name) {
			continue
		}
		cpu, _ := strconv.ParseFloat(fields[1], 64)
		rss, _ := strconv.ParseFloat(fields[2], 64)
		processes = append(processes, dto.Process{
			PID:        pid,
			Name:       name,
			CPUPercent: cpu,
			MemoryMB:   rss / 1024,
			Status:     processStatus(fields[3]),
		})
	}
	return processes
}

func isDevProcess(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range devKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func processStatus(stat string) string {
	if stat == "" {
		return "unknown"
	}
	switch stat[0] {
	case 'R':
		return "running"
	case 'S', 'I':
		return "sleeping"
	case 'T':
		return "stopped"
	case 'Z':
		return "zombie"
	}
	return "unknown"
}

func killProcess(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return "", fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if killErr := proc.Kill(); killErr != nil {
			return "", fmt.Errorf("kill process %d: %w", pid, err)
		}
	}
	return fmt.Sprintf("terminated process %d", pid), nil
}

func envVariables(env []string) []dto.EnvVariable {
	vars := make([]dto.EnvVariable, 0, len(env))
	for _, kv := range env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars = append(vars, dto.EnvVariable{Name: name, Value: value, IsPath: isPathVariable(name)})
	}
	sort.SliceStable(vars, func(i, j int) bool {
		return strings.ToLower(vars[i].Name) < strings.ToLower(vars[j].Name)
	})
	return vars
}

func isPathVariable(name string) bool {
	upper := strings.ToUpper(name)
	return strings.Contains(upper, "PATH") || strings.HasSuffix(upper, "HOME") || strings.HasSuffix(upper, "DIR")
}

func pathEntries(path string) []string {
	entries := []string{}
	for _, entry := range filepath.SplitList(path) {
		if entry = strings.TrimSpace(entry); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

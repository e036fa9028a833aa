package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"devdeck/internal/modules/backend/dto"
)

const maxVersions = 20

func (h *handler) scan(ctx context.Context, source string) ([]dto.Tool, error) {
	switch source {
	case "npm":
		return h.scanNpm(ctx)
	case "pip":
		return h.scanPip(ctx)
	case "cargo":
		return h.scanCargo(ctx)
	}
	return nil, fmt.Errorf("unsupported source %q", source)
}

func (h *handler) scanNpm(ctx context.Context) ([]dto.Tool, error) {
	out, err := h.run(ctx, "npm", "ls", "-g", "--json", "--depth=0")
	// npm ls exits non-zero on peer dependency problems but still prints the tree.
	if len(out) == 0 && err != nil {
		return nil, err
	}
	root := ""
	if raw, rootErr := h.run(ctx, "npm", "root", "-g"); rootErr == nil {
		root = strings.TrimSpace(string(raw))
	}
	tools, err := parseNpmList(out, root)
	if err != nil {
		return nil, err
	}
	for i := range tools {
		if tools[i].InstallPath != "" {
			tools[i].SizeBytes = dirSize(tools[i].InstallPath)
		}
	}
	return tools, nil
}

func parseNpmList(raw []byte, root string) ([]dto.Tool, error) {
	var tree struct {
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode npm ls: %w", err)
	}
	names := make([]string, 0, len(tree.Dependencies))
	for name := range tree.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]dto.Tool, 0, len(names))
	for _, fullName := range names {
		tool := dto.Tool{Name: fullName, FullName: fullName, Source: "npm"}
		if scope, name, ok := strings.Cut(fullName, "/"); ok && strings.HasPrefix(scope, "@") {
			tool.Scope = &scope
			tool.Name = name
		}
		if v := tree.Dependencies[fullName].Version; v != "" {
			tool.Version = &v
		}
		if root != "" {
			tool.InstallPath = filepath.Join(root, filepath.FromSlash(fullName))
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (h *handler) scanPip(ctx context.Context) ([]dto.Tool, error) {
	var lastErr error
	for _, bin := range []string{"pip", "pip3"} {
		out, err := h.run(ctx, bin, "list", "--format=json")
		if err != nil {
			lastErr = err
			continue
		}
		return parsePipList(out)
	}
	return nil, lastErr
}

func parsePipList(raw []byte) ([]dto.Tool, error) {
	var pkgs []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		return nil, fmt.Errorf("decode pip list: %w", err)
	}
	tools := make([]dto.Tool, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Name == "" {
			continue
		}
		tool := dto.Tool{Name: p.Name, FullName: p.Name, Source: "pip"}
		if p.Version != "" {
			v := p.Version
			tool.Version = &v
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (h *handler) scanCargo(ctx context.Context) ([]dto.Tool, error) {
	out, err := h.run(ctx, "cargo", "install", "--list")
	if err != nil {
		return nil, err
	}
	binDir := filepath.Join(h.home, ".cargo", "bin")
	tools := parseCargoList(out, binDir)
	for i := range tools {
		if info, err := os.Stat(filepath.Join(binDir, tools[i].Name+h.exeSuffix())); err == nil {
			tools[i].SizeBytes = uint64(info.Size())
		}
	}
	return tools, nil
}

// parseCargoList reads `cargo install --list`, where each crate is a header
// line "name vX.Y.Z:" followed by indented binary names.
func parseCargoList(raw []byte, binDir string) []dto.Tool {
	var tools []dto.Tool
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ":"))
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		v := strings.TrimSuffix(strings.TrimPrefix(fields[1], "v"), ":")
		tools = append(tools, dto.Tool{
			Name:        name,
			FullName:    name,
			Version:     &v,
			Source:      "cargo",
			InstallPath: binDir,
		})
	}
	return tools
}

func (h *handler) manage(ctx context.Context, uninstall bool, source, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("tool name is required")
	}
	var bin string
	var args []string
	switch source {
	case "npm":
		bin, args = "npm", []string{"update", "-g", name}
		if uninstall {
			args = []string{"uninstall", "-g", name}
		}
	case "pip":
		bin, args = "pip", []string{"install", "-U", name}
		if uninstall {
			args = []string{"uninstall", "-y", name}
		}
	case "cargo":
		bin, args = "cargo", []string{"install", name}
		if uninstall {
			args = []string{"uninstall", name}
		}
	default:
		return "", fmt.Errorf("unsupported source %q", source)
	}
	if _, err := h.run(ctx, bin, args...); err != nil {
		return "", err
	}
	if uninstall {
		return fmt.Sprintf("uninstalled %s", name), nil
	}
	return fmt.Sprintf("updated %s", name), nil
}

// batch runs items one after another; a failed item does not stop the rest.
func (h *handler) batch(ctx context.Context, uninstall bool, items []dto.BatchItem) []dto.BatchResult {
	results := make([]dto.BatchResult, 0, len(items))
	for _, item := range items {
		msg, err := h.manage(ctx, uninstall, item.Source, item.Name)
		result := dto.BatchResult{Source: item.Source, Name: item.Name, Success: err == nil, Message: msg}
		if err != nil {
			result.Message = err.Error()
		}
		results = append(results, result)
	}
	return results
}

func (h *handler) listVersions(ctx context.Context, fullName string) ([]string, error) {
	if fullName == "" {
		return nil, fmt.Errorf("package name is required")
	}
	out, err := h.run(ctx, "npm", "view", fullName, "versions", "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmVersions(out)
}

// parseNpmVersions keeps the newest versions first. npm prints a bare string
// when a package has a single published version.
func parseNpmVersions(raw []byte) ([]string, error) {
	var versions []string
	if err := json.Unmarshal(raw, &versions); err != nil {
		var single string
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("decode npm versions: %w", err)
		}
		versions = []string{single}
	}
	if len(versions) > maxVersions {
		versions = versions[len(versions)-maxVersions:]
	}
	out := make([]string, len(versions))
	for i, v := range versions {
		out[len(versions)-1-i] = v
	}
	return out, nil
}

func (h *handler) installVersion(ctx context.Context, fullName, ver string) (string, error) {
	if fullName == "" || ver == "" {
		return "", fmt.Errorf("package name and version are required")
	}
	if _, err := h.run(ctx, "npm", "install", "-g", fullName+"@"+ver); err != nil {
		return "", err
	}
	return fmt.Sprintf("installed %s@%s", fullName, ver), nil
}

func (h *handler) exeSuffix() string {
	if h.goos == "windows" {
		return ".exe"
	}
	return ""
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"devdeck/internal/modules/backend/dto"
)

const maxSearchResults = 20

func (h *handler) searchPackages(ctx context.Context, source, query string) ([]dto.PackageSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	switch source {
	case "npm":
		out, err := h.run(ctx, "npm", "search", "--json", query)
		if err != nil {
			return nil, err
		}
		return parseNpmSearch(out)
	case "cargo":
		out, err := h.run(ctx, "cargo", "search", query, "--limit", strconv.Itoa(maxSearchResults))
		if err != nil {
			return nil, err
		}
		return parseCargoSearch(out), nil
	case "pip":
		// PyPI has no search API; pip only resolves an exact project name.
		for _, bin := range []string{"pip", "pip3"} {
			out, err := h.run(ctx, bin, "index", "versions", query)
			if err != nil {
				continue
			}
			return parsePipIndex(out), nil
		}
		return []dto.PackageSearchResult{}, nil
	}
	return nil, fmt.Errorf("unsupported source %q", source)
}

func parseNpmSearch(raw []byte) ([]dto.PackageSearchResult, error) {
	var pkgs []struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		return nil, fmt.Errorf("decode npm search: %w", err)
	}
	if len(pkgs) > maxSearchResults {
		pkgs = pkgs[:maxSearchResults]
	}
	results := make([]dto.PackageSearchResult, 0, len(pkgs))
	for _, p := range pkgs {
		results = append(results, dto.PackageSearchResult{Name: p.Name, Version: p.Version, Description: p.Description, Source: "npm"})
	}
	return results, nil
}

// parseCargoSearch reads lines of the form
// `name = "1.2.3"    # description`; the trailing "... and N crates more"
// note has no '=' and is skipped.
func parseCargoSearch(raw []byte) []dto.PackageSearchResult {
	results := []dto.PackageSearchResult{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		head, description, _ := strings.Cut(line, "#")
		name, ver, ok := strings.Cut(head, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		results = append(results, dto.PackageSearchResult{
			Name:        name,
			Version:     strings.Trim(strings.TrimSpace(ver), `"`),
			Description: strings.TrimSpace(description),
			Source:      "cargo",
		})
		if len(results) == maxSearchResults {
			break
		}
	}
	return results
}

// parsePipIndex reads the "name (version)" header of `pip index versions`.
func parsePipIndex(raw []byte) []dto.PackageSearchResult {
	first, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	name, rest, ok := strings.Cut(strings.TrimSpace(first), " (")
	if !ok || name == "" {
		return []dto.PackageSearchResult{}
	}
	return []dto.PackageSearchResult{{Name: name, Version: strings.TrimSuffix(rest, ")"), Source: "pip"}}
}

func (h *handler) installPackage(ctx context.Context, source, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("package name is required")
	}
	var bin string
	var args []string
	switch source {
	case "npm":
		bin, args = "npm", []string{"install", "-g", name}
	case "cargo":
		bin, args = "cargo", []string{"install", name}
	case "pip":
		bin, args = "pip", []string{"install", name}
	default:
		return "", fmt.Errorf("unsupported source %q", source)
	}
	if _, err := h.run(ctx, bin, args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("installed %s", name), nil
}

package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "devdeck/internal/platform/errors"
)

type Source string

const (
	SourceNpm     Source = "npm"
	SourceCargo   Source = "cargo"
	SourcePip     Source = "pip"
	SourceGo      Source = "go"
	SourceScript  Source = "script"
	SourceManual  Source = "manual"
	SourceUnknown Source = "unknown"
)

func ParseSource(raw string) Source {
	switch s := Source(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceNpm, SourceCargo, SourcePip, SourceGo, SourceScript, SourceManual:
		return s
	default:
		return SourceUnknown
	}
}

// ToolRecord is one globally installed package as reported by a scan. Scope,
// Version and Description are empty when the package manager does not know
// them.
type ToolRecord struct {
	Name        string
	Scope       string
	FullName    string
	Version     string
	Source      Source
	InstallPath string
	SizeBytes   uint64
	Description string
}

func (t ToolRecord) Key() Key {
	return Key{Source: t.Source, FullName: t.FullName}
}

// Key identifies a tool across scans. Its text form is "source:fullName".
type Key struct {
	Source   Source
	FullName string
}

func (k Key) String() string {
	return string(k.Source) + ":" + k.FullName
}

// ParseKey splits on the first colon only, so names keep any hyphen, slash,
// at-sign or colon they contain.
func ParseKey(raw string) (Key, error) {
	source, name, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(source) == "" || name == "" {
		return Key{}, fmt.Errorf("%w: tool key %q must look like source:name", apperrors.ErrInvalidInput, raw)
	}
	parsed := ParseSource(source)
	if parsed == SourceUnknown && !strings.EqualFold(source, string(SourceUnknown)) {
		return Key{}, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedSource, source)
	}
	return Key{Source: parsed, FullName: name}, nil
}

// Filter keeps records from source (empty for all) whose name or scope
// contains query, case-insensitively.
func Filter(records []ToolRecord, source Source, query string) []ToolRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]ToolRecord, 0, len(records))
	for _, r := range records {
		if source != "" && r.Source != source {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Scope), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type ScanSummary struct {
	TotalTools     int
	TotalSizeBytes uint64
	BySource       map[Source]int
}

func Summarize(records []ToolRecord) ScanSummary {
	summary := ScanSummary{BySource: map[Source]int{}}
	for _, r := range records {
		summary.TotalTools++
		summary.TotalSizeBytes += r.SizeBytes
		summary.BySource[r.Source]++
	}
	return summary
}

// SortedSources lists the sources present in a summary alphabetically.
func (s ScanSummary) SortedSources() []Source {
	out := make([]Source, 0, len(s.BySource))
	for source := range s.BySource {
		out = append(out, source)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SearchResult is a package a registry offers. Version is the latest
// published one and may be empty.
type SearchResult struct {
	Name        string
	Version     string
	Description string
	Source      Source
}

func (r SearchResult) Key() Key {
	return Key{Source: r.Source, FullName: r.Name}
}

type BatchKind string

const (
	BatchUpdate    BatchKind = "update"
	BatchUninstall BatchKind = "uninstall"
)

func (k BatchKind) Validate() error {
	switch k {
	case BatchUpdate, BatchUninstall:
		return nil
	default:
		return fmt.Errorf("%w: batch kind %q", apperrors.ErrInvalidInput, string(k))
	}
}

type BatchItem struct {
	Source Source
	Name   string
}

func (i BatchItem) Key() Key {
	return Key{Source: i.Source, FullName: i.Name}
}

type BatchResult struct {
	Source  Source
	Name    string
	Success bool
	Message string
}

// FailedCount reports how many results did not succeed.
func FailedCount(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

type ActionKind string

const (
	ActionUpdate         ActionKind = "update"
	ActionUninstall      ActionKind = "uninstall"
	ActionInstallVersion ActionKind = "install-version"
	ActionInstall        ActionKind = "install"
)

// ActionRecord is one mutating action as kept in the local history.
type ActionRecord struct {
	ID      string
	Kind    ActionKind
	Target  string
	Success bool
	Message string
	At      time.Time
}

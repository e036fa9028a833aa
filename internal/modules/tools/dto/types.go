package dto

import "time"

type Tool struct {
	Key         string
	Name        string
	Scope       string
	FullName    string
	Version     string
	Source      string
	InstallPath string
	SizeBytes   uint64
	Description string
}

type ListInput struct {
	Source  string
	Query   string
	Refresh bool
}

type ListOutput struct {
	Tools       []Tool
	Loading     bool
	Fresh       bool
	LastFetchAt *time.Time
}

type SummaryOutput struct {
	TotalTools     int
	TotalSizeBytes uint64
	BySource       map[string]int
}

type BatchItem struct {
	Source string
	Name   string
}

const (
	BatchUpdate    = "update"
	BatchUninstall = "uninstall"
)

// BatchInput names its targets either as Items or as "source:name" Keys.
type BatchInput struct {
	Kind  string
	Items []BatchItem
	Keys  []string
}

type BatchResult struct {
	Key     string
	Source  string
	Name    string
	Success bool
	Message string
}

type BatchOutput struct {
	Results []BatchResult
	Failed  int
}

type ActionOutput struct {
	Key     string
	Message string
}

type InstallVersionInput struct {
	Key     string
	Version string
}

type HistoryEntry struct {
	ID      string
	Kind    string
	Target  string
	Success bool
	Message string
	At      time.Time
}

type SearchInput struct {
	Source string
	Query  string
}

type SearchResult struct {
	Key         string
	Name        string
	Version     string
	Description string
	Source      string
	Installed   bool
}

// SearchOutput lists matches in source order. Failures names the sources
// that could not be searched.
type SearchOutput struct {
	Results  []SearchResult
	Failures []string
}

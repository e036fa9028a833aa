package dto

import "time"

// Freshness describes a cached listing.
type Freshness struct {
	Loading     bool
	Fresh       bool
	LastFetchAt *time.Time
}

type Port struct {
	Port        int
	Protocol    string
	PID         int
	ProcessName string
	State       string
}

type PortsOutput struct {
	Ports []Port
	Freshness
}

type Process struct {
	PID        int
	Name       string
	CPUPercent float64
	MemoryMB   float64
	Status     string
}

type ProcessesOutput struct {
	Processes []Process
	Freshness
}

type Cache struct {
	Name      string
	Path      string
	SizeBytes uint64
	Exists    bool
}

type CachesOutput struct {
	Caches      []Cache
	Reclaimable uint64
	Freshness
}

type EnvVariable struct {
	Name   string
	Value  string
	IsPath bool
}

type ActionOutput struct {
	Target  string
	Message string
}

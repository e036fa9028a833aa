package domain

import (
	"fmt"
	"sort"
	"strings"

	apperrors "devdeck/internal/platform/errors"
)

type Port struct {
	Port        int
	Protocol    string
	PID         int
	ProcessName string
	State       string
}

type Process struct {
	PID        int
	Name       string
	CPUPercent float64
	MemoryMB   float64
	Status     string
}

type Cache struct {
	Name      string
	Path      string
	SizeBytes uint64
	Exists    bool
}

type EnvVariable struct {
	Name   string
	Value  string
	IsPath bool
}

// NormalizePorts sorts by port number and keeps one entry per
// (port, protocol) pair.
func NormalizePorts(ports []Port) []Port {
	out := append([]Port(nil), ports...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Port != out[j].Port {
			return out[i].Port < out[j].Port
		}
		return out[i].Protocol < out[j].Protocol
	})
	deduped := out[:0]
	for i, p := range out {
		if i > 0 && p.Port == out[i-1].Port && strings.EqualFold(p.Protocol, out[i-1].Protocol) {
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// SortProcesses orders the heaviest CPU users first.
func SortProcesses(processes []Process) []Process {
	out := append([]Process(nil), processes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CPUPercent != out[j].CPUPercent {
			return out[i].CPUPercent > out[j].CPUPercent
		}
		return out[i].PID < out[j].PID
	})
	return out
}

// FindCache looks a cache up by name, case-insensitively.
func FindCache(caches []Cache, name string) (Cache, error) {
	for _, c := range caches {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Cache{}, fmt.Errorf("%w: cache %q", apperrors.ErrNotFound, name)
}

// ReclaimableBytes sums the size of caches that exist on disk.
func ReclaimableBytes(caches []Cache) uint64 {
	var total uint64
	for _, c := range caches {
		if c.Exists {
			total += c.SizeBytes
		}
	}
	return total
}

func ValidatePID(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: pid must be positive, got %d", apperrors.ErrInvalidInput, pid)
	}
	return nil
}

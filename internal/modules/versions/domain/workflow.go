package domain

import (
	"errors"
	"fmt"
)

type State string

const (
	StateIdle            State = "idle"
	StateListingVersions State = "listing"
	StateVersionsReady   State = "ready"
	StateSwitching       State = "switching"
	StateError           State = "error"
)

var ErrInvalidTransition = errors.New("invalid version workflow transition")

type Candidate struct {
	Version string
	Active  bool
}

// BuildCandidates marks the entry equal to current as active. At most one
// entry is active even if the list repeats a version.
func BuildCandidates(versions []string, current string) []Candidate {
	out := make([]Candidate, 0, len(versions))
	marked := false
	for _, v := range versions {
		active := !marked && current != "" && v == current
		if active {
			marked = true
		}
		out = append(out, Candidate{Version: v, Active: active})
	}
	return out
}

// Workflow tracks picking and activating one version of one tool. The active
// flag comes from the version known when Open was called and is not updated
// by a switch.
type Workflow struct {
	state      State
	toolKey    string
	current    string
	candidates []Candidate
	target     string
	err        string
	failedIn   State
}

func (w *Workflow) State() State {
	if w.state == "" {
		return StateIdle
	}
	return w.state
}

func (w *Workflow) ToolKey() string { return w.toolKey }
func (w *Workflow) Current() string { return w.current }
func (w *Workflow) Target() string { return w.target }
func (w *Workflow) Err() string { return w.err }
func (w *Workflow) FailedIn() State { return w.failedIn }

func (w *Workflow) Candidates() []Candidate {
	return append([]Candidate(nil), w.candidates...)
}

// Open starts listing for a tool. The caller has already checked that the
// tool's source can list versions.
func (w *Workflow) Open(toolKey, currentVersion string) error {
	if w.State() != StateIdle {
		return w.invalid("open")
	}
	*w = Workflow{state: StateListingVersions, toolKey: toolKey, current: currentVersion}
	return nil
}

// VersionsLoaded accepts an empty list as a valid, empty listing.
func (w *Workflow) VersionsLoaded(versions []string) error {
	if w.State() != StateListingVersions {
		return w.invalid("load versions")
	}
	w.candidates = BuildCandidates(versions, w.current)
	w.state = StateVersionsReady
	return nil
}

func (w *Workflow) ListingFailed(err error) error {
	if w.State() != StateListingVersions {
		return w.invalid("fail listing")
	}
	w.state = StateError
	w.failedIn = StateListingVersions
	w.err = err.Error()
	return nil
}

// Select begins switching to version, which must be one of the candidates.
// Selecting the active version is allowed here.
func (w *Workflow) Select(version string) error {
	if w.State() != StateVersionsReady {
		return w.invalid("select")
	}
	for _, c := range w.candidates {
		if c.Version == version {
			w.target = version
			w.state = StateSwitching
			return nil
		}
	}
	return fmt.Errorf("%w: version %q is not listed", ErrInvalidTransition, version)
}

func (w *Workflow) SwitchSucceeded() error {
	if w.State() != StateSwitching {
		return w.invalid("finish switch")
	}
	*w = Workflow{}
	return nil
}

// SwitchFailed keeps the loaded candidates so a retry does not re-list.
func (w *Workflow) SwitchFailed(err error) error {
	if w.State() != StateSwitching {
		return w.invalid("fail switch")
	}
	w.state = StateError
	w.failedIn = StateSwitching
	w.err = err.Error()
	return nil
}

// Acknowledge clears an error. After a failed switch the loaded list is shown
// again; after a failed listing the workflow is done.
func (w *Workflow) Acknowledge() error {
	if w.State() != StateError {
		return w.invalid("acknowledge")
	}
	if w.failedIn == StateSwitching {
		w.state = StateVersionsReady
		w.target = ""
		w.err = ""
		w.failedIn = ""
		return nil
	}
	*w = Workflow{}
	return nil
}

// Close abandons the workflow from any state.
func (w *Workflow) Close() {
	*w = Workflow{}
}

func (w *Workflow) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, w.State())
}

package service

import (
	"context"
	"fmt"
	"sync"

	"devdeck/internal/modules/versions/domain"
	versionsout "devdeck/internal/modules/versions/port/out"
	apperrors "devdeck/internal/platform/errors"

	hclog "github.com/hashicorp/go-hclog"
)

// VersionService owns one workflow. Backend calls run without the lock held;
// a result that arrives after the workflow moved on is dropped.
type VersionService struct {
	catalog  versionsout.ToolCatalog
	runtimes versionsout.RuntimeInventory
	logger   hclog.Logger

	mu       sync.Mutex
	workflow domain.Workflow
	message  string
}

// Snapshot is a consistent copy of the workflow plus the last switch message.
type Snapshot struct {
	Workflow domain.Workflow
	Message  string
}

// NewVersionService builds the service. runtimes may be nil, in which case
// Runtimes reports a capability error.
func NewVersionService(catalog versionsout.ToolCatalog, runtimes versionsout.RuntimeInventory, logger hclog.Logger) *VersionService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &VersionService{catalog: catalog, runtimes: runtimes, logger: logger.Named("versions")}
}

// Runtimes lists the installed language runtimes. It does not touch the
// picker workflow.
func (s *VersionService) Runtimes(ctx context.Context) ([]domain.Runtime, error) {
	if s.runtimes == nil {
		return nil, fmt.Errorf("%w: runtime detection", apperrors.ErrCapability)
	}
	runtimes, err := s.runtimes.Runtimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect runtimes: %w", err)
	}
	s.logger.Debug("runtimes detected", "count", len(runtimes))
	return runtimes, nil
}

func (s *VersionService) Open(ctx context.Context, key string) (Snapshot, error) {
	ok, err := s.catalog.SupportsVersions(ctx, key)
	if err != nil {
		return s.Snapshot(), err
	}
	if !ok {
		s.logger.Warn("version listing not supported", "tool", key)
		return s.Snapshot(), fmt.Errorf("%w: %s", apperrors.ErrCapability, key)
	}
	current, err := s.catalog.CurrentVersion(ctx, key)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("look up %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.workflow.Open(key, current); err != nil {
		return s.snapshotLocked(), err
	}
	s.message = ""
	return s.snapshotLocked(), nil
}

func (s *VersionService) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.workflow.State() != domain.StateListingVersions {
		defer s.mu.Unlock()
		return s.snapshotLocked(), fmt.Errorf("%w: nothing to load while %s", domain.ErrInvalidTransition, s.workflow.State())
	}
	key := s.workflow.ToolKey()
	s.mu.Unlock()

	versions, listErr := s.catalog.ListVersions(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow.State() != domain.StateListingVersions || s.workflow.ToolKey() != key {
		return s.snapshotLocked(), fmt.Errorf("%w: listing for %s is no longer current", domain.ErrInvalidTransition, key)
	}
	if listErr != nil {
		s.logger.Warn("list versions failed", "tool", key, "error", listErr)
		_ = s.workflow.ListingFailed(listErr)
		return s.snapshotLocked(), listErr
	}
	_ = s.workflow.VersionsLoaded(versions)
	return s.snapshotLocked(), nil
}

// Switch activates version. On failure the returned snapshot is in the error
// state with the list kept, and the error is also returned.
func (s *VersionService) Switch(ctx context.Context, version string) (Snapshot, error) {
	s.mu.Lock()
	if err := s.workflow.Select(version); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}
	key := s.workflow.ToolKey()
	s.mu.Unlock()

	message, installErr := s.catalog.InstallVersion(ctx, key, version)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow.State() != domain.StateSwitching || s.workflow.ToolKey() != key {
		return s.snapshotLocked(), fmt.Errorf("%w: switch for %s is no longer current", domain.ErrInvalidTransition, key)
	}
	if installErr != nil {
		s.logger.Warn("switch version failed", "tool", key, "version", version, "error", installErr)
		_ = s.workflow.SwitchFailed(installErr)
		return s.snapshotLocked(), installErr
	}
	s.logger.Info("version switched", "tool", key, "version", version)
	_ = s.workflow.SwitchSucceeded()
	s.message = message
	return s.snapshotLocked(), nil
}

func (s *VersionService) Acknowledge() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.workflow.Acknowledge()
	return s.snapshotLocked(), err
}

func (s *VersionService) Close() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow.Close()
	return s.snapshotLocked()
}

func (s *VersionService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *VersionService) snapshotLocked() Snapshot {
	return Snapshot{Workflow: s.workflow, Message: s.message}
}

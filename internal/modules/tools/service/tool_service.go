package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
	"devdeck/internal/platform/clock"
	"devdeck/internal/platform/entitycache"
	apperrors "devdeck/internal/platform/errors"
	"devdeck/internal/platform/id"

	hclog "github.com/hashicorp/go-hclog"
)

const defaultHistoryLimit = 50

type ToolService struct {
	drivers     []toolsout.Driver
	bySource    map[domain.Source]toolsout.Driver
	coordinator *ScanCoordinator
	dispatcher  *Dispatcher
	cache       *entitycache.Slot[domain.ToolRecord]
	actions     toolsout.ActionLog
	clock       clock.Clock
	idGen       id.Generator
	logger      hclog.Logger
}

func NewToolService(
	drivers []toolsout.Driver,
	dispatcher *Dispatcher,
	cache *entitycache.Slot[domain.ToolRecord],
	actions toolsout.ActionLog,
	clock clock.Clock,
	idGen id.Generator,
	logger hclog.Logger,
) *ToolService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	bySource := make(map[domain.Source]toolsout.Driver, len(drivers))
	for _, d := range drivers {
		bySource[d.Source()] = d
	}
	return &ToolService{
		drivers:     drivers,
		bySource:    bySource,
		coordinator: NewScanCoordinator(logger),
		dispatcher:  dispatcher,
		cache:       cache,
		actions:     actions,
		clock:       clock,
		idGen:       idGen,
		logger:      logger.Named("tools"),
	}
}

// List serves the cached scan while it is fresh and rescans otherwise.
func (s *ToolService) List(ctx context.Context, force bool) (entitycache.Entry[domain.ToolRecord], error) {
	if !force && s.cache.Valid() {
		return s.cache.Get(), nil
	}
	return s.Refresh(ctx)
}

// Refresh rescans every source and replaces the cached collection. A source
// that fails contributes nothing. When every source fails, or the context is
// done, the cached items and fetch time stay as they were and the returned
// entry is the previous one.
func (s *ToolService) Refresh(ctx context.Context) (entitycache.Entry[domain.ToolRecord], error) {
	s.cache.SetLoading(true)
	result := s.coordinator.ScanAll(ctx, s.drivers)
	if err := ctx.Err(); err != nil {
		s.cache.SetLoading(false)
		return s.cache.Get(), fmt.Errorf("scan tools: %w", err)
	}
	if result.AllFailed(len(s.drivers)) {
		s.cache.SetLoading(false)
		return s.cache.Get(), fmt.Errorf("scan tools: every source failed: %w", errors.Join(result.Failures...))
	}
	s.cache.Set(result.Records)
	s.logger.Info("tools scanned", "count", len(result.Records), "failed_sources", len(result.Failures))
	return s.cache.Get(), nil
}

func (s *ToolService) Cached() entitycache.Entry[domain.ToolRecord] {
	return s.cache.Get()
}

func (s *ToolService) Fresh() bool {
	return s.cache.Valid()
}

func (s *ToolService) Invalidate() {
	s.cache.Invalidate()
}

func (s *ToolService) Get(ctx context.Context, key domain.Key) (domain.ToolRecord, error) {
	entry, err := s.List(ctx, false)
	if err != nil {
		return domain.ToolRecord{}, err
	}
	for _, record := range entry.Items {
		if record.Key() == key {
			return record, nil
		}
	}
	return domain.ToolRecord{}, fmt.Errorf("%w: tool %s", apperrors.ErrNotFound, key)
}

func (s *ToolService) Summary(ctx context.Context) (domain.ScanSummary, error) {
	entry, err := s.List(ctx, false)
	if err != nil {
		return domain.ScanSummary{}, err
	}
	return domain.Summarize(entry.Items), nil
}

func (s *ToolService) Update(ctx context.Context, key domain.Key) (string, error) {
	return s.single(ctx, domain.ActionUpdate, key, func(d toolsout.Driver) (string, error) {
		return d.Update(ctx, key.FullName)
	})
}

func (s *ToolService) Uninstall(ctx context.Context, key domain.Key) (string, error) {
	return s.single(ctx, domain.ActionUninstall, key, func(d toolsout.Driver) (string, error) {
		return d.Uninstall(ctx, key.FullName)
	})
}

func (s *ToolService) single(ctx context.Context, kind domain.ActionKind, key domain.Key, run func(toolsout.Driver) (string, error)) (string, error) {
	driver, err := s.driverFor(key.Source)
	if err != nil {
		return "", err
	}
	message, err := run(driver)
	s.record(ctx, kind, key.String(), err == nil, messageOrError(message, err))
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", kind, key, err)
	}
	s.afterMutation(ctx)
	return message, nil
}

// Batch dispatches one action over items, then refreshes the tools cache.
// Per-item failures are reported in the results, never as an error.
func (s *ToolService) Batch(ctx context.Context, kind domain.BatchKind, items []domain.BatchItem) ([]domain.BatchResult, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	results := s.dispatcher.Dispatch(ctx, items, kind)
	actionKind := domain.ActionUpdate
	if kind == domain.BatchUninstall {
		actionKind = domain.ActionUninstall
	}
	for _, r := range results {
		s.record(ctx, actionKind, domain.Key{Source: r.Source, FullName: r.Name}.String(), r.Success, r.Message)
	}
	s.logger.Info("batch finished", "kind", kind, "items", len(items), "failed", domain.FailedCount(results))
	s.afterMutation(ctx)
	return results, nil
}

func (s *ToolService) ListVersions(ctx context.Context, key domain.Key) ([]string, error) {
	lister, err := s.versionLister(key.Source)
	if err != nil {
		return nil, err
	}
	versions, err := lister.ListVersions(ctx, key.FullName)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", key, err)
	}
	return versions, nil
}

func (s *ToolService) InstallVersion(ctx context.Context, key domain.Key, version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("%w: version is required", apperrors.ErrInvalidInput)
	}
	lister, err := s.versionLister(key.Source)
	if err != nil {
		return "", err
	}
	message, err := lister.InstallVersion(ctx, key.FullName, version)
	target := key.String() + "@" + version
	s.record(ctx, domain.ActionInstallVersion, target, err == nil, messageOrError(message, err))
	if err != nil {
		return "", fmt.Errorf("install %s: %w", target, err)
	}
	s.afterMutation(ctx)
	return message, nil
}

// Search queries one source's registry, or every searchable source when
// source is empty. Only a search where no source answers is an error.
func (s *ToolService) Search(ctx context.Context, source domain.Source, query string) (SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchOutcome{}, fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}
	finders, err := s.searchable(source)
	if err != nil {
		return SearchOutcome{}, err
	}
	outcome := s.coordinator.SearchAll(ctx, finders, query)
	if outcome.AllFailed(len(finders)) {
		return outcome, fmt.Errorf("search %q: %w", query, errors.Join(outcome.Failures...))
	}
	s.logger.Debug("search finished", "query", query, "results", len(outcome.Results), "failed_sources", len(outcome.Failures))
	return outcome, nil
}

// Install adds a package that is not installed yet, then rescans.
func (s *ToolService) Install(ctx context.Context, key domain.Key) (string, error) {
	finder, err := s.packageFinder(key.Source)
	if err != nil {
		return "", err
	}
	return s.single(ctx, domain.ActionInstall, key, func(toolsout.Driver) (string, error) {
		return finder.Install(ctx, key.FullName)
	})
}

// SupportsVersions reports whether the source can list and pin versions.
func (s *ToolService) SupportsVersions(source domain.Source) bool {
	_, err := s.versionLister(source)
	return err == nil
}

func (s *ToolService) History(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	if s.actions == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.actions.List(ctx, limit)
}

func (s *ToolService) driverFor(source domain.Source) (toolsout.Driver, error) {
	driver, ok := s.bySource[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedSource, source)
	}
	return driver, nil
}

func (s *ToolService) versionLister(source domain.Source) (toolsout.VersionLister, error) {
	driver, err := s.driverFor(source)
	if err != nil {
		return nil, err
	}
	lister, ok := driver.(toolsout.VersionLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCapability, source)
	}
	return lister, nil
}

func (s *ToolService) packageFinder(source domain.Source) (toolsout.PackageFinder, error) {
	driver, err := s.driverFor(source)
	if err != nil {
		return nil, err
	}
	finder, ok := driver.(toolsout.PackageFinder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCapability, source)
	}
	return finder, nil
}

func (s *ToolService) searchable(source domain.Source) ([]sourcedFinder, error) {
	if source != "" {
		finder, err := s.packageFinder(source)
		if err != nil {
			return nil, err
		}
		return []sourcedFinder{{source: source, finder: finder}}, nil
	}
	var finders []sourcedFinder
	for _, d := range s.drivers {
		if finder, ok := d.(toolsout.PackageFinder); ok {
			finders = append(finders, sourcedFinder{source: d.Source(), finder: finder})
		}
	}
	if len(finders) == 0 {
		return nil, fmt.Errorf("%w: no source can search", apperrors.ErrCapability)
	}
	return finders, nil
}

// afterMutation drops freshness and rescans so every view sees the change.
func (s *ToolService) afterMutation(ctx context.Context) {
	s.cache.Invalidate()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("rescan after mutation failed", "error", err)
	}
}

func (s *ToolService) record(ctx context.Context, kind domain.ActionKind, target string, success bool, message string) {
	if s.actions == nil {
		return
	}
	record := domain.ActionRecord{
		ID:      s.idGen.New(),
		Kind:    kind,
		Target:  target,
		Success: success,
		Message: message,
		At:      s.clock.Now(),
	}
	if err := s.actions.Append(ctx, record); err != nil {
		s.logger.Warn("record action failed", "target", target, "error", err)
	}
}

func messageOrError(message string, err error) string {
	if err != nil {
		return err.Error()
	}
	return message
}

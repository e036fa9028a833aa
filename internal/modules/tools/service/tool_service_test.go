package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
	"devdeck/internal/modules/tools/service"
	"devdeck/internal/platform/entitycache"
	apperrors "devdeck/internal/platform/errors"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) New() string { return fmt.Sprintf("act-%d", s.n.Add(1)) }

type fakeDriver struct {
	source    domain.Source
	mu        sync.Mutex
	installed []string
	scanErr   error
	failOn    map[string]string
	scans     int
	calls     []string
}

func (d *fakeDriver) Source() domain.Source { return d.source }

func (d *fakeDriver) Scan(context.Context) ([]domain.ToolRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scans++
	if d.scanErr != nil {
		return nil, d.scanErr
	}
	out := make([]domain.ToolRecord, 0, len(d.installed))
	for _, name := range d.installed {
		out = append(out, domain.ToolRecord{Name: name, FullName: name, Source: d.source, Version: "1.0.0"})
	}
	return out, nil
}

func (d *fakeDriver) Update(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "update:"+name)
	if msg, ok := d.failOn[name]; ok {
		return "", errors.New(msg)
	}
	return "updated " + name, nil
}

func (d *fakeDriver) Uninstall(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "uninstall:"+name)
	if msg, ok := d.failOn[name]; ok {
		return "", errors.New(msg)
	}
	kept := d.installed[:0]
	for _, n := range d.installed {
		if n != name {
			kept = append(kept, n)
		}
	}
	d.installed = kept
	return "uninstalled " + name, nil
}

type fakeNpm struct {
	*fakeDriver
	versions []string
	pinned   string
}

func (d *fakeNpm) ListVersions(context.Context, string) ([]string, error) {
	return d.versions, nil
}

func (d *fakeNpm) InstallVersion(_ context.Context, name, version string) (string, error) {
	d.pinned = name + "@" + version
	return "installed " + d.pinned, nil
}

type fakeRegistry struct {
	*fakeDriver
	found     []domain.SearchResult
	searchErr error
}

func (d *fakeRegistry) Search(context.Context, string) ([]domain.SearchResult, error) {
	return d.found, d.searchErr
}

func (d *fakeRegistry) Install(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.installed = append(d.installed, name)
	return "installed " + name, nil
}

type fakeBatch struct {
	report func(items []domain.BatchItem) []domain.BatchResult
	err    error
	calls  int
}

func (b *fakeBatch) Batch(_ context.Context, _ domain.BatchKind, items []domain.BatchItem) ([]domain.BatchResult, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.report(items), nil
}

type memoryActions struct {
	mu      sync.Mutex
	records []domain.ActionRecord
}

func (m *memoryActions) Append(_ context.Context, r domain.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memoryActions) List(_ context.Context, limit int) ([]domain.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return append([]domain.ActionRecord(nil), m.records[:limit]...), nil
}

func newService(t *testing.T, drivers []toolsout.Driver, batch toolsout.BatchBackend) (*service.ToolService, *fixedClock, *memoryActions) {
	t.Helper()
	clk := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := entitycache.New(clk, nil, nil)
	slot := entitycache.Register[domain.ToolRecord](store, entitycache.KindTools)
	actions := &memoryActions{}
	dispatcher := service.NewDispatcher(drivers, batch, 2, nil)
	return service.NewToolService(drivers, dispatcher, slot, actions, clk, &seqIDs{}, nil), clk, actions
}

func TestScanDegradesPerSource(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm, installed: []string{"eslint", "prettier"}}
	cargo := &fakeDriver{source: domain.SourceCargo, scanErr: errors.New("cargo: command not found")}
	pip := &fakeDriver{source: domain.SourcePip, installed: []string{"black"}}
	svc, _, _ := newService(t, []toolsout.Driver{npm, cargo, pip}, nil)

	entry, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entry.Items) != 3 {
		t.Fatalf("expected npm and pip records only, got %+v", entry.Items)
	}
	want := []string{"npm:eslint", "npm:prettier", "pip:black"}
	for i, r := range entry.Items {
		if r.Key().String() != want[i] {
			t.Fatalf("record %d: got %s want %s", i, r.Key(), want[i])
		}
	}
	if entry.Loading || entry.LastFetchAt == nil {
		t.Fatalf("scan must stamp the cache: %+v", entry)
	}
}

func TestListServesFreshCacheWithoutRescan(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm, installed: []string{"eslint"}}
	svc, clk, _ := newService(t, []toolsout.Driver{npm}, nil)

	if _, err := svc.List(context.Background(), false); err != nil {
		t.Fatalf("first list: %v", err)
	}
	clk.now = clk.now.Add(4*time.Minute + 59*time.Second)
	if _, err := svc.List(context.Background(), false); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if npm.scans != 1 {
		t.Fatalf("fresh cache must not rescan, scans=%d", npm.scans)
	}
	clk.now = clk.now.Add(time.Second)
	if _, err := svc.List(context.Background(), false); err != nil {
		t.Fatalf("third list: %v", err)
	}
	if npm.scans != 2 {
		t.Fatalf("stale cache must rescan, scans=%d", npm.scans)
	}
}

func TestRefreshKeepsStaleItemsWhenEverySourceFails(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm, installed: []string{"eslint", "prettier"}}
	svc, clk, _ := newService(t, []toolsout.Driver{npm}, nil)

	first, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	scannedAt := *first.LastFetchAt

	clk.now = clk.now.Add(6 * time.Minute)
	npm.scanErr = errors.New("backend unreachable")
	entry, err := svc.List(context.Background(), false)
	if err == nil {
		t.Fatalf("expected an error when no source answers")
	}
	if len(entry.Items) != 2 {
		t.Fatalf("stale items must be kept, got %+v", entry.Items)
	}
	if entry.Loading {
		t.Fatalf("loading flag must be cleared")
	}
	if entry.LastFetchAt == nil || !entry.LastFetchAt.Equal(scannedAt) {
		t.Fatalf("fetch time must not advance: %v", entry.LastFetchAt)
	}
	if svc.Fresh() {
		t.Fatalf("a failed rescan must not mark the cache fresh")
	}
}

func TestBatchUninstallMissingResult(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm, installed: []string{"foo", "bar"}}
	batch := &fakeBatch{report: func(items []domain.BatchItem) []domain.BatchResult {
		return []domain.BatchResult{{Name: "foo", Success: true, Message: "removed foo"}}
	}}
	svc, _, actions := newService(t, []toolsout.Driver{npm}, batch)
	if _, err := svc.List(context.Background(), false); err != nil {
		t.Fatalf("list: %v", err)
	}

	results, err := svc.Batch(context.Background(), domain.BatchUninstall, []domain.BatchItem{
		{Source: domain.SourceNpm, Name: "foo"},
		{Source: domain.SourceNpm, Name: "bar"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per item, got %d", len(results))
	}
	if !results[0].Success || results[0].Source != domain.SourceNpm {
		t.Fatalf("foo should succeed: %+v", results[0])
	}
	if results[1].Success || results[1].Message != "no result reported" {
		t.Fatalf("bar should fail with no result: %+v", results[1])
	}
	if npm.scans != 2 {
		t.Fatalf("batch must trigger a rescan, scans=%d", npm.scans)
	}
	if !svc.Fresh() {
		t.Fatalf("cache must be fresh after the rescan")
	}
	if len(actions.records) != 2 {
		t.Fatalf("expected an action per item, got %d", len(actions.records))
	}
}

func TestBatchPerItemCompleteness(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm, installed: []string{"a", "b", "c"}, failOn: map[string]string{"b": "EACCES"}}
	svc, _, _ := newService(t, []toolsout.Driver{npm}, nil)

	items := []domain.BatchItem{
		{Source: domain.SourceNpm, Name: "a"},
		{Source: domain.SourceNpm, Name: "b"},
		{Source: domain.SourceGo, Name: "gopls"},
		{Source: domain.SourceNpm, Name: "c"},
	}
	results, err := svc.Batch(context.Background(), domain.BatchUpdate, items)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	seen := map[string]domain.BatchResult{}
	for _, r := range results {
		seen[domain.Key{Source: r.Source, FullName: r.Name}.String()] = r
	}
	if !seen["npm:a"].Success || !seen["npm:c"].Success {
		t.Fatalf("a and c should succeed: %+v", results)
	}
	if seen["npm:b"].Success || seen["npm:b"].Message != "EACCES" {
		t.Fatalf("b should carry its failure: %+v", seen["npm:b"])
	}
	if r := seen["go:gopls"]; r.Success || r.Message == "" {
		t.Fatalf("unknown source should fail without aborting: %+v", r)
	}
}

func TestBatchWholeCallFailure(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm}
	batch := &fakeBatch{err: errors.New("backend unavailable")}
	svc, _, _ := newService(t, []toolsout.Driver{npm}, batch)
	results, err := svc.Batch(context.Background(), domain.BatchUpdate, []domain.BatchItem{
		{Source: domain.SourceNpm, Name: "x"},
		{Source: domain.SourceNpm, Name: "y"},
	})
	if err != nil {
		t.Fatalf("batch failures must not escalate: %v", err)
	}
	for _, r := range results {
		if r.Success || r.Message != "backend unavailable" {
			t.Fatalf("every item should fail with the call error: %+v", r)
		}
	}
}

func TestBatchEmptyMakesNoCalls(t *testing.T) {
	t.Parallel()
	npm := &fakeDriver{source: domain.SourceNpm}
	batch := &fakeBatch{}
	svc, _, _ := newService(t, []toolsout.Driver{npm}, batch)
	results, err := svc.Batch(context.Background(), domain.BatchUpdate, nil)
	if err != nil || results != nil {
		t.Fatalf("expected empty result, got %v %v", results, err)
	}
	if batch.calls != 0 || npm.scans != 0 {
		t.Fatalf("empty batch must not call anything")
	}
}

func TestVersionsRequireCapability(t *testing.T) {
	t.Parallel()
	npm := &fakeNpm{fakeDriver: &fakeDriver{source: domain.SourceNpm, installed: []string{"typescript"}}, versions: []string{"5.4.0", "5.3.3"}}
	pip := &fakeDriver{source: domain.SourcePip}
	svc, _, actions := newService(t, []toolsout.Driver{npm, pip}, nil)

	if _, err := svc.ListVersions(context.Background(), domain.Key{Source: domain.SourcePip, FullName: "black"}); !errors.Is(err, apperrors.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	versions, err := svc.ListVersions(context.Background(), domain.Key{Source: domain.SourceNpm, FullName: "typescript"})
	if err != nil || len(versions) != 2 {
		t.Fatalf("unexpected versions %v %v", versions, err)
	}
	if _, err := svc.InstallVersion(context.Background(), domain.Key{Source: domain.SourceNpm, FullName: "typescript"}, "5.3.3"); err != nil {
		t.Fatalf("install version: %v", err)
	}
	if npm.pinned != "typescript@5.3.3" {
		t.Fatalf("unexpected install: %q", npm.pinned)
	}
	if len(actions.records) != 1 || actions.records[0].Target != "npm:typescript@5.3.3" {
		t.Fatalf("unexpected history: %+v", actions.records)
	}
}

func TestUpdateUnknownSource(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t, nil, nil)
	_, err := svc.Update(context.Background(), domain.Key{Source: domain.SourceCargo, FullName: "ripgrep"})
	if !errors.Is(err, apperrors.ErrUnsupportedSource) {
		t.Fatalf("expected unsupported source, got %v", err)
	}
}

func TestSearchMergesAnsweringSources(t *testing.T) {
	t.Parallel()
	npm := &fakeRegistry{
		fakeDriver: &fakeDriver{source: domain.SourceNpm},
		found:      []domain.SearchResult{{Name: "tsx", Version: "4.7.1"}, {Name: "ts-node", Version: "10.9.2", Source: domain.SourceNpm}},
	}
	cargo := &fakeRegistry{fakeDriver: &fakeDriver{source: domain.SourceCargo}, searchErr: errors.New("crates.io timed out")}
	pip := &fakeDriver{source: domain.SourcePip}
	svc, _, _ := newService(t, []toolsout.Driver{npm, cargo, pip}, nil)

	outcome, err := svc.Search(context.Background(), "", "ts")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(outcome.Results) != 2 || outcome.Results[0].Key().String() != "npm:tsx" {
		t.Fatalf("unexpected results: %+v", outcome.Results)
	}
	if len(outcome.Failures) != 1 {
		t.Fatalf("expected the cargo failure to be reported, got %v", outcome.Failures)
	}

	if _, err := svc.Search(context.Background(), domain.SourceCargo, "ts"); err == nil {
		t.Fatalf("a search where no source answers must fail")
	}
	if _, err := svc.Search(context.Background(), domain.SourcePip, "black"); !errors.Is(err, apperrors.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if _, err := svc.Search(context.Background(), "", "  "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestInstallRecordsActionAndRescans(t *testing.T) {
	t.Parallel()
	npm := &fakeRegistry{fakeDriver: &fakeDriver{source: domain.SourceNpm, installed: []string{"eslint"}}}
	svc, _, actions := newService(t, []toolsout.Driver{npm}, nil)

	msg, err := svc.Install(context.Background(), domain.Key{Source: domain.SourceNpm, FullName: "tsx"})
	if err != nil || msg != "installed tsx" {
		t.Fatalf("install: %q %v", msg, err)
	}
	entry := svc.Cached()
	if len(entry.Items) != 2 || !svc.Fresh() {
		t.Fatalf("install must rescan, got %+v", entry.Items)
	}
	if len(actions.records) != 1 || actions.records[0].Kind != domain.ActionInstall || actions.records[0].Target != "npm:tsx" {
		t.Fatalf("unexpected history: %+v", actions.records)
	}
	if _, err := svc.Install(context.Background(), domain.Key{Source: domain.SourceCargo, FullName: "bat"}); !errors.Is(err, apperrors.ErrUnsupportedSource) {
		t.Fatalf("expected unsupported source, got %v", err)
	}
}

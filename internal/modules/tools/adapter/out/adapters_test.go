package out_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	backenddto "devdeck/internal/modules/backend/dto"
	out "devdeck/internal/modules/tools/adapter/out"
	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
	"devdeck/internal/platform/sqlitedb"
)

type recordedCall struct {
	op   backenddto.Operation
	args string
}

type scriptedGateway struct {
	calls   []recordedCall
	results map[backenddto.Operation]any
}

func (g *scriptedGateway) Invoke(_ context.Context, op backenddto.Operation, args any, dst any) error {
	raw, _ := json.Marshal(args)
	g.calls = append(g.calls, recordedCall{op: op, args: string(raw)})
	result, ok := g.results[op]
	if !ok || dst == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dst)
}

func strPtr(s string) *string { return &s }

func TestGatewayDriversScanAndVersions(t *testing.T) {
	t.Parallel()
	gateway := &scriptedGateway{results: map[backenddto.Operation]any{
		backenddto.OpScan: []backenddto.Tool{
			{Name: "cli", Scope: strPtr("@vue"), FullName: "@vue/cli", Version: strPtr("5.0.8"), Source: "npm", InstallPath: "/usr/lib/node_modules/@vue/cli"},
		},
		backenddto.OpListVersions: []string{"5.0.8", "5.0.7"},
	}}
	drivers := out.NewGatewayDrivers(gateway, []string{"npm", "cargo"})
	if len(drivers) != 2 || drivers[1].Source() != domain.SourceCargo {
		t.Fatalf("unexpected drivers: %d", len(drivers))
	}
	if _, ok := drivers[1].(toolsout.VersionLister); ok {
		t.Fatalf("cargo driver must not list versions")
	}
	lister, ok := drivers[0].(toolsout.VersionLister)
	if !ok {
		t.Fatalf("npm driver must list versions")
	}

	records, err := drivers[0].Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(records) != 1 || records[0].Scope != "@vue" || records[0].Key().String() != "npm:@vue/cli" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if gateway.calls[0].args != `{"source":"npm"}` {
		t.Fatalf("unexpected scan args: %s", gateway.calls[0].args)
	}

	versions, err := lister.ListVersions(context.Background(), "@vue/cli")
	if err != nil || len(versions) != 2 {
		t.Fatalf("unexpected versions: %v %v", versions, err)
	}
}

func TestRegistryDriversSearchAndInstall(t *testing.T) {
	t.Parallel()
	gateway := &scriptedGateway{results: map[backenddto.Operation]any{
		backenddto.OpSearchPackages: []backenddto.PackageSearchResult{{Name: "ripgrep", Version: "14.1.0", Description: "fast grep"}},
		backenddto.OpInstallPackage: backenddto.Message{Message: "installed ripgrep"},
	}}
	drivers := out.NewGatewayDrivers(gateway, []string{"cargo", "go"})
	if _, ok := drivers[1].(toolsout.PackageFinder); ok {
		t.Fatalf("go driver must not search")
	}
	finder, ok := drivers[0].(toolsout.PackageFinder)
	if !ok {
		t.Fatalf("cargo driver must search")
	}

	results, err := finder.Search(context.Background(), "ripgrep")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Key().String() != "cargo:ripgrep" || results[0].Version != "14.1.0" {
		t.Fatalf("source-less results take the driver's source: %+v", results)
	}
	if gateway.calls[0].args != `{"source":"cargo","query":"ripgrep"}` {
		t.Fatalf("unexpected search args: %s", gateway.calls[0].args)
	}

	msg, err := finder.Install(context.Background(), "ripgrep")
	if err != nil || msg != "installed ripgrep" {
		t.Fatalf("install: %q %v", msg, err)
	}
	if gateway.calls[1].op != backenddto.OpInstallPackage || gateway.calls[1].args != `{"source":"cargo","name":"ripgrep"}` {
		t.Fatalf("unexpected install call: %+v", gateway.calls[1])
	}
}

func TestGatewayBatchKeepsReportedResults(t *testing.T) {
	t.Parallel()
	gateway := &scriptedGateway{results: map[backenddto.Operation]any{
		backenddto.OpBatchUninstall: []backenddto.BatchResult{{Name: "foo", Success: true, Message: "ok"}},
	}}
	batch := out.NewGatewayBatch(gateway)
	results, err := batch.Batch(context.Background(), domain.BatchUninstall, []domain.BatchItem{{Source: domain.SourceNpm, Name: "foo"}})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if gateway.calls[0].op != backenddto.OpBatchUninstall {
		t.Fatalf("unexpected op: %s", gateway.calls[0].op)
	}
	if len(results) != 1 || results[0].Source != "" || !results[0].Success {
		t.Fatalf("source-less results must stay source-less: %+v", results)
	}
}

func TestSQLiteActionLogNewestFirst(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "devdeck.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	log, err := out.NewSQLiteActionLog(context.Background(), db)
	if err != nil {
		t.Fatalf("action log: %v", err)
	}
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.ActionRecord{
		{ID: "act-1", Kind: domain.ActionUpdate, Target: "npm:eslint", Success: true, Message: "updated", At: base},
		{ID: "act-2", Kind: domain.ActionUninstall, Target: "pip:black", Success: false, Message: "denied", At: base.Add(500 * time.Millisecond)},
		{ID: "act-3", Kind: domain.ActionInstallVersion, Target: "npm:typescript@5.3.3", Success: true, At: base.Add(time.Second)},
	}
	for _, e := range entries {
		if err := log.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := log.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "act-3" || got[1].ID != "act-2" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Success || got[1].Message != "denied" || !got[1].At.Equal(base.Add(500*time.Millisecond)) {
		t.Fatalf("unexpected record: %+v", got[1])
	}
}

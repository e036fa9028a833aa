package service_test

import (
	"context"
	"errors"
	"testing"

	"devdeck/internal/modules/versions/domain"
	"devdeck/internal/modules/versions/service"
	apperrors "devdeck/internal/platform/errors"
)

type fakeCatalog struct {
	supports   bool
	current    string
	versions   []string
	installErr error
	installs   []string
	listCalls  int
}

func (c *fakeCatalog) SupportsVersions(context.Context, string) (bool, error) { return c.supports, nil }
func (c *fakeCatalog) CurrentVersion(context.Context, string) (string, error) { return c.current, nil }

func (c *fakeCatalog) ListVersions(context.Context, string) ([]string, error) {
	c.listCalls++
	return c.versions, nil
}

func (c *fakeCatalog) InstallVersion(_ context.Context, key, version string) (string, error) {
	c.installs = append(c.installs, key+"@"+version)
	if c.installErr != nil {
		return "", c.installErr
	}
	return "installed " + version, nil
}

func TestOpenRejectsSourcesWithoutVersions(t *testing.T) {
	t.Parallel()
	svc := service.NewVersionService(&fakeCatalog{supports: false}, nil, nil)
	snap, err := svc.Open(context.Background(), "cargo:ripgrep")
	if !errors.Is(err, apperrors.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if snap.Workflow.State() != domain.StateIdle {
		t.Fatalf("capability error must not change state")
	}
}

func TestSwitchRetryWithoutRelisting(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{supports: true, current: "5.3.3", versions: []string{"5.4.0", "5.3.3"}, installErr: errors.New("EACCES")}
	svc := service.NewVersionService(catalog, nil, nil)
	ctx := context.Background()

	if _, err := svc.Open(ctx, "npm:typescript"); err != nil {
		t.Fatalf("open: %v", err)
	}
	snap, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Workflow.State() != domain.StateVersionsReady {
		t.Fatalf("unexpected state %s", snap.Workflow.State())
	}

	snap, err = svc.Switch(ctx, "5.4.0")
	if err == nil || snap.Workflow.State() != domain.StateError {
		t.Fatalf("expected switch failure, got %v in %s", err, snap.Workflow.State())
	}
	if _, err := svc.Acknowledge(); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	catalog.installErr = nil
	snap, err = svc.Switch(ctx, "5.4.0")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.Workflow.State() != domain.StateIdle || snap.Message != "installed 5.4.0" {
		t.Fatalf("unexpected final snapshot: %s %q", snap.Workflow.State(), snap.Message)
	}
	if catalog.listCalls != 1 {
		t.Fatalf("retry must not re-list, list calls=%d", catalog.listCalls)
	}
	if len(catalog.installs) != 2 {
		t.Fatalf("expected two install attempts, got %v", catalog.installs)
	}
}

func TestLoadWithoutOpenFails(t *testing.T) {
	t.Parallel()
	svc := service.NewVersionService(&fakeCatalog{supports: true}, nil, nil)
	if _, err := svc.Load(context.Background()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

type fakeRuntimes struct {
	found []domain.Runtime
	err   error
}

func (r fakeRuntimes) Runtimes(context.Context) ([]domain.Runtime, error) { return r.found, r.err }

func TestRuntimesLeaveWorkflowAlone(t *testing.T) {
	t.Parallel()
	inventory := fakeRuntimes{found: []domain.Runtime{{Name: "Node.js", Version: "20.11.0", Manager: "nvm"}, {Name: "Go"}}}
	svc := service.NewVersionService(&fakeCatalog{supports: true}, inventory, nil)

	runtimes, err := svc.Runtimes(context.Background())
	if err != nil {
		t.Fatalf("runtimes: %v", err)
	}
	if len(runtimes) != 2 || !runtimes[0].Installed() || runtimes[1].Installed() {
		t.Fatalf("unexpected runtimes: %+v", runtimes)
	}
	snapshot := svc.Snapshot()
	if snapshot.Workflow.State() != domain.StateIdle {
		t.Fatalf("listing runtimes must not open the picker")
	}

	if _, err := service.NewVersionService(&fakeCatalog{}, nil, nil).Runtimes(context.Background()); !errors.Is(err, apperrors.ErrCapability) {
		t.Fatalf("expected capability error without an inventory, got %v", err)
	}
	failing := service.NewVersionService(&fakeCatalog{}, fakeRuntimes{err: errors.New("backend down")}, nil)
	if _, err := failing.Runtimes(context.Background()); err == nil {
		t.Fatalf("expected the inventory error")
	}
}

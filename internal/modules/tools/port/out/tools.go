package out

import (
	"context"

	"devdeck/internal/modules/tools/domain"
)

// Driver talks to one package manager.
type Driver interface {
	Source() domain.Source
	Scan(ctx context.Context) ([]domain.ToolRecord, error)
	Update(ctx context.Context, fullName string) (string, error)
	Uninstall(ctx context.Context, fullName string) (string, error)
}

// VersionLister is implemented by drivers whose package manager can list and
// pin published versions.
type VersionLister interface {
	ListVersions(ctx context.Context, fullName string) ([]string, error)
	InstallVersion(ctx context.Context, fullName, version string) (string, error)
}

// PackageFinder is implemented by drivers whose registry can be searched for
// packages that are not installed yet.
type PackageFinder interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Install(ctx context.Context, name string) (string, error)
}

// BatchBackend runs a whole batch in one call. The returned results may be
// incomplete; the caller reconciles them against the items.
type BatchBackend interface {
	Batch(ctx context.Context, kind domain.BatchKind, items []domain.BatchItem) ([]domain.BatchResult, error)
}

type ActionLog interface {
	Append(ctx context.Context, record domain.ActionRecord) error
	List(ctx context.Context, limit int) ([]domain.ActionRecord, error)
}

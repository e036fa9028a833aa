package out

import (
	"context"

	"devdeck/internal/modules/versions/domain"
)

// ToolCatalog is what the workflow needs from the installed-tools side.
// Keys are "source:fullName".
type ToolCatalog interface {
	SupportsVersions(ctx context.Context, key string) (bool, error)
	CurrentVersion(ctx context.Context, key string) (string, error)
	ListVersions(ctx context.Context, key string) ([]string, error)
	InstallVersion(ctx context.Context, key, version string) (string, error)
}

// RuntimeInventory reports the language runtimes installed on the machine.
type RuntimeInventory interface {
	Runtimes(ctx context.Context) ([]domain.Runtime, error)
}

package out

import (
	"context"

	"devdeck/internal/modules/system/domain"
)

// Inventory enumerates and acts on machine state through the backend.
type Inventory interface {
	Ports(ctx context.Context) ([]domain.Port, error)
	Processes(ctx context.Context) ([]domain.Process, error)
	Caches(ctx context.Context) ([]domain.Cache, error)
	EnvVariables(ctx context.Context) ([]domain.EnvVariable, error)
	PathEntries(ctx context.Context) ([]string, error)
	ClearCache(ctx context.Context, name string) (string, error)
	KillProcess(ctx context.Context, pid int) (string, error)
}

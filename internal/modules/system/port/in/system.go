package in

import (
	"context"

	"devdeck/internal/modules/system/dto"
)

type Usecase interface {
	Ports(ctx context.Context, refresh bool) (dto.PortsOutput, error)
	Processes(ctx context.Context, refresh bool) (dto.ProcessesOutput, error)
	Caches(ctx context.Context, refresh bool) (dto.CachesOutput, error)
	EnvVariables(ctx context.Context) ([]dto.EnvVariable, error)
	PathEntries(ctx context.Context) ([]string, error)
	ClearCache(ctx context.Context, name string) (dto.ActionOutput, error)
	KillProcess(ctx context.Context, pid int) (dto.ActionOutput, error)
	Invalidate(ctx context.Context) error
}

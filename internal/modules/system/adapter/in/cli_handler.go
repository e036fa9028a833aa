package in

import (
	"context"
	"fmt"
	"strconv"

	"devdeck/internal/modules/system/dto"
	systemin "devdeck/internal/modules/system/port/in"
)

type CLIHandler struct {
	usecase systemin.Usecase
}

func NewCLIHandler(usecase systemin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Ports(ctx context.Context, refresh bool) (dto.PortsOutput, error) {
	return h.usecase.Ports(ctx, refresh)
}

func (h CLIHandler) Processes(ctx context.Context, refresh bool) (dto.ProcessesOutput, error) {
	return h.usecase.Processes(ctx, refresh)
}

func (h CLIHandler) Caches(ctx context.Context, refresh bool) (dto.CachesOutput, error) {
	return h.usecase.Caches(ctx, refresh)
}

func (h CLIHandler) Env(ctx context.Context) ([]dto.EnvVariable, error) {
	return h.usecase.EnvVariables(ctx)
}

func (h CLIHandler) Path(ctx context.Context) ([]string, error) {
	return h.usecase.PathEntries(ctx)
}

func (h CLIHandler) ClearCache(ctx context.Context, name string) (dto.ActionOutput, error) {
	return h.usecase.ClearCache(ctx, name)
}

// Kill accepts the pid as typed on the command line.
func (h CLIHandler) Kill(ctx context.Context, rawPID string) (dto.ActionOutput, error) {
	pid, err := strconv.Atoi(rawPID)
	if err != nil {
		return dto.ActionOutput{}, fmt.Errorf("parse pid %q: %w", rawPID, err)
	}
	return h.usecase.KillProcess(ctx, pid)
}

func (h CLIHandler) Invalidate(ctx context.Context) error {
	return h.usecase.Invalidate(ctx)
}

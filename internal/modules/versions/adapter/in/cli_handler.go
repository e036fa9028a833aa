package in

import (
	"context"

	"devdeck/internal/modules/versions/dto"
	versionsin "devdeck/internal/modules/versions/port/in"
)

type CLIHandler struct {
	usecase versionsin.Usecase
}

func NewCLIHandler(usecase versionsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// List opens the picker for key and loads its versions.
func (h CLIHandler) List(ctx context.Context, key string) (dto.Workflow, error) {
	h.usecase.Close(ctx)
	if _, err := h.usecase.Open(ctx, key); err != nil {
		return dto.Workflow{}, err
	}
	return h.usecase.Load(ctx)
}

// Use lists the versions of key and switches to version.
func (h CLIHandler) Use(ctx context.Context, key, version string) (dto.Workflow, error) {
	if _, err := h.List(ctx, key); err != nil {
		return dto.Workflow{}, err
	}
	return h.usecase.Switch(ctx, version)
}

func (h CLIHandler) Runtimes(ctx context.Context) ([]dto.Runtime, error) {
	return h.usecase.Runtimes(ctx)
}

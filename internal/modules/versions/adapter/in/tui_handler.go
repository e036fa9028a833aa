package in

import (
	"context"

	"devdeck/internal/modules/versions/dto"
	versionsin "devdeck/internal/modules/versions/port/in"
)

// TUIHandler exposes each workflow step so the picker can render the states
// in between.
type TUIHandler struct {
	usecase versionsin.Usecase
}

func NewTUIHandler(usecase versionsin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Open(ctx context.Context, key string) (dto.Workflow, error) {
	h.usecase.Close(ctx)
	return h.usecase.Open(ctx, key)
}

func (h TUIHandler) Load(ctx context.Context) (dto.Workflow, error) {
	return h.usecase.Load(ctx)
}

func (h TUIHandler) Switch(ctx context.Context, version string) (dto.Workflow, error) {
	return h.usecase.Switch(ctx, version)
}

func (h TUIHandler) Acknowledge(ctx context.Context) (dto.Workflow, error) {
	return h.usecase.Acknowledge(ctx)
}

func (h TUIHandler) Close(ctx context.Context) dto.Workflow {
	return h.usecase.Close(ctx)
}

func (h TUIHandler) Runtimes(ctx context.Context) ([]dto.Runtime, error) {
	return h.usecase.Runtimes(ctx)
}

package in

import (
	"context"

	"devdeck/internal/modules/versions/dto"
)

// Usecase drives a single version picker. Open fails with a capability error
// and leaves the picker untouched when the tool cannot list versions.
type Usecase interface {
	Open(ctx context.Context, key string) (dto.Workflow, error)
	Load(ctx context.Context) (dto.Workflow, error)
	Switch(ctx context.Context, version string) (dto.Workflow, error)
	Acknowledge(ctx context.Context) (dto.Workflow, error)
	Close(ctx context.Context) dto.Workflow
	Current(ctx context.Context) dto.Workflow
	Runtimes(ctx context.Context) ([]dto.Runtime, error)
}

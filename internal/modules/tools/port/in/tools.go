package in

import (
	"context"

	"devdeck/internal/modules/tools/dto"
)

// Usecase is the tools surface. Keys are "source:fullName".
type Usecase interface {
	List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error)
	Get(ctx context.Context, key string) (dto.Tool, error)
	Summary(ctx context.Context) (dto.SummaryOutput, error)
	Update(ctx context.Context, key string) (dto.ActionOutput, error)
	Uninstall(ctx context.Context, key string) (dto.ActionOutput, error)
	Batch(ctx context.Context, input dto.BatchInput) (dto.BatchOutput, error)
	SupportsVersions(ctx context.Context, key string) (bool, error)
	ListVersions(ctx context.Context, key string) ([]string, error)
	InstallVersion(ctx context.Context, input dto.InstallVersionInput) (dto.ActionOutput, error)
	Search(ctx context.Context, input dto.SearchInput) (dto.SearchOutput, error)
	Install(ctx context.Context, key string) (dto.ActionOutput, error)
	Invalidate(ctx context.Context) error
	History(ctx context.Context, limit int) ([]dto.HistoryEntry, error)
}

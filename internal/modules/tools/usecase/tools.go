package usecase

import (
	"context"
	"fmt"

	"devdeck/internal/modules/tools/domain"
	"devdeck/internal/modules/tools/dto"
	toolsin "devdeck/internal/modules/tools/port/in"
	"devdeck/internal/modules/tools/service"
	apperrors "devdeck/internal/platform/errors"
)

type Interactor struct {
	svc *service.ToolService
}

func NewInteractor(svc *service.ToolService) toolsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error) {
	entry, err := i.svc.List(ctx, input.Refresh)
	if err != nil {
		return dto.ListOutput{}, err
	}
	var source domain.Source
	if input.Source != "" {
		source = domain.ParseSource(input.Source)
	}
	records := domain.Filter(entry.Items, source, input.Query)
	out := dto.ListOutput{
		Tools:       make([]dto.Tool, 0, len(records)),
		Loading:     entry.Loading,
		Fresh:       i.svc.Fresh(),
		LastFetchAt: entry.LastFetchAt,
	}
	for _, r := range records {
		out.Tools = append(out.Tools, toTool(r))
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, key string) (dto.Tool, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return dto.Tool{}, err
	}
	record, err := i.svc.Get(ctx, parsed)
	if err != nil {
		return dto.Tool{}, err
	}
	return toTool(record), nil
}

func (i *Interactor) Summary(ctx context.Context) (dto.SummaryOutput, error) {
	summary, err := i.svc.Summary(ctx)
	if err != nil {
		return dto.SummaryOutput{}, err
	}
	out := dto.SummaryOutput{TotalTools: summary.TotalTools, TotalSizeBytes: summary.TotalSizeBytes, BySource: map[string]int{}}
	for source, count := range summary.BySource {
		out.BySource[string(source)] = count
	}
	return out, nil
}

func (i *Interactor) Update(ctx context.Context, key string) (dto.ActionOutput, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	message, err := i.svc.Update(ctx, parsed)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Key: parsed.String(), Message: message}, nil
}

func (i *Interactor) Uninstall(ctx context.Context, key string) (dto.ActionOutput, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	message, err := i.svc.Uninstall(ctx, parsed)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Key: parsed.String(), Message: message}, nil
}

func (i *Interactor) Batch(ctx context.Context, input dto.BatchInput) (dto.BatchOutput, error) {
	items := make([]domain.BatchItem, 0, len(input.Items)+len(input.Keys))
	for _, item := range input.Items {
		items = append(items, domain.BatchItem{Source: domain.ParseSource(item.Source), Name: item.Name})
	}
	for _, raw := range input.Keys {
		key, err := domain.ParseKey(raw)
		if err != nil {
			return dto.BatchOutput{}, err
		}
		items = append(items, domain.BatchItem{Source: key.Source, Name: key.FullName})
	}
	results, err := i.svc.Batch(ctx, domain.BatchKind(input.Kind), items)
	if err != nil {
		return dto.BatchOutput{}, err
	}
	out := dto.BatchOutput{Results: make([]dto.BatchResult, 0, len(results)), Failed: domain.FailedCount(results)}
	for _, r := range results {
		out.Results = append(out.Results, dto.BatchResult{
			Key:     domain.Key{Source: r.Source, FullName: r.Name}.String(),
			Source:  string(r.Source),
			Name:    r.Name,
			Success: r.Success,
			Message: r.Message,
		})
	}
	return out, nil
}

func (i *Interactor) SupportsVersions(_ context.Context, key string) (bool, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return false, err
	}
	return i.svc.SupportsVersions(parsed.Source), nil
}

func (i *Interactor) ListVersions(ctx context.Context, key string) ([]string, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return nil, err
	}
	return i.svc.ListVersions(ctx, parsed)
}

func (i *Interactor) InstallVersion(ctx context.Context, input dto.InstallVersionInput) (dto.ActionOutput, error) {
	parsed, err := domain.ParseKey(input.Key)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	message, err := i.svc.InstallVersion(ctx, parsed, input.Version)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Key: parsed.String(), Message: message}, nil
}

// Search marks results that match a cached tool as installed.
func (i *Interactor) Search(ctx context.Context, input dto.SearchInput) (dto.SearchOutput, error) {
	var source domain.Source
	if input.Source != "" {
		source = domain.ParseSource(input.Source)
		if source == domain.SourceUnknown {
			return dto.SearchOutput{}, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedSource, input.Source)
		}
	}
	outcome, err := i.svc.Search(ctx, source, input.Query)
	if err != nil {
		return dto.SearchOutput{}, err
	}
	installed := map[domain.Key]struct{}{}
	for _, r := range i.svc.Cached().Items {
		installed[r.Key()] = struct{}{}
	}
	out := dto.SearchOutput{Results: make([]dto.SearchResult, 0, len(outcome.Results))}
	for _, r := range outcome.Results {
		_, ok := installed[r.Key()]
		out.Results = append(out.Results, dto.SearchResult{
			Key:         r.Key().String(),
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			Source:      string(r.Source),
			Installed:   ok,
		})
	}
	for _, failure := range outcome.Failures {
		out.Failures = append(out.Failures, failure.Error())
	}
	return out, nil
}

func (i *Interactor) Install(ctx context.Context, key string) (dto.ActionOutput, error) {
	parsed, err := domain.ParseKey(key)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	message, err := i.svc.Install(ctx, parsed)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Key: parsed.String(), Message: message}, nil
}

func (i *Interactor) Invalidate(context.Context) error {
	i.svc.Invalidate()
	return nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	records, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, dto.HistoryEntry{ID: r.ID, Kind: string(r.Kind), Target: r.Target, Success: r.Success, Message: r.Message, At: r.At})
	}
	return out, nil
}

func toTool(r domain.ToolRecord) dto.Tool {
	return dto.Tool{
		Key:         r.Key().String(),
		Name:        r.Name,
		Scope:       r.Scope,
		FullName:    r.FullName,
		Version:     r.Version,
		Source:      string(r.Source),
		InstallPath: r.InstallPath,
		SizeBytes:   r.SizeBytes,
		Description: r.Description,
	}
}

package service

import (
	"context"
	"fmt"

	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
	apperrors "devdeck/internal/platform/errors"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

const noResultMessage = "no result reported"

// Dispatcher applies one action to many tools and always answers with one
// result per item. It never touches the tools cache.
type Dispatcher struct {
	drivers     map[domain.Source]toolsout.Driver
	batch       toolsout.BatchBackend
	concurrency int
	logger      hclog.Logger
}

// NewDispatcher builds a dispatcher. When batch is nil each item becomes its
// own driver call, at most concurrency at a time.
func NewDispatcher(drivers []toolsout.Driver, batch toolsout.BatchBackend, concurrency int, logger hclog.Logger) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	bySource := make(map[domain.Source]toolsout.Driver, len(drivers))
	for _, d := range drivers {
		bySource[d.Source()] = d
	}
	return &Dispatcher{drivers: bySource, batch: batch, concurrency: concurrency, logger: logger.Named("dispatch")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, items []domain.BatchItem, kind domain.BatchKind) []domain.BatchResult {
	if len(items) == 0 {
		return nil
	}
	if err := kind.Validate(); err != nil {
		return failAll(items, err.Error())
	}
	if d.batch != nil {
		return d.dispatchBatch(ctx, items, kind)
	}
	return d.dispatchEach(ctx, items, kind)
}

func (d *Dispatcher) dispatchBatch(ctx context.Context, items []domain.BatchItem, kind domain.BatchKind) []domain.BatchResult {
	reported, err := d.batch.Batch(ctx, kind, items)
	if err != nil {
		d.logger.Warn("batch call failed", "kind", kind, "items", len(items), "error", err)
		return failAll(items, err.Error())
	}
	return reconcile(items, reported)
}

func (d *Dispatcher) dispatchEach(ctx context.Context, items []domain.BatchItem, kind domain.BatchKind) []domain.BatchResult {
	results := make([]domain.BatchResult, len(items))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = d.runOne(ctx, item, kind)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) runOne(ctx context.Context, item domain.BatchItem, kind domain.BatchKind) domain.BatchResult {
	result := domain.BatchResult{Source: item.Source, Name: item.Name}
	driver, ok := d.drivers[item.Source]
	if !ok {
		result.Message = fmt.Errorf("%w: %s", apperrors.ErrUnsupportedSource, item.Source).Error()
		return result
	}
	var (
		message string
		err     error
	)
	switch kind {
	case domain.BatchUpdate:
		message, err = driver.Update(ctx, item.Name)
	case domain.BatchUninstall:
		message, err = driver.Uninstall(ctx, item.Name)
	}
	if err != nil {
		d.logger.Debug("batch item failed", "kind", kind, "key", item.Key().String(), "error", err)
		result.Message = err.Error()
		return result
	}
	result.Success = true
	result.Message = message
	return result
}

// reconcile returns exactly one result per item in item order. Reported
// results are matched by key first and by bare name when the backend left
// the source out. Unmatched items fail; surplus results are dropped.
func reconcile(items []domain.BatchItem, reported []domain.BatchResult) []domain.BatchResult {
	byKey := map[domain.Key][]domain.BatchResult{}
	byName := map[string][]domain.BatchResult{}
	for _, r := range reported {
		if r.Source == "" {
			byName[r.Name] = append(byName[r.Name], r)
			continue
		}
		key := domain.Key{Source: r.Source, FullName: r.Name}
		byKey[key] = append(byKey[key], r)
	}

	out := make([]domain.BatchResult, 0, len(items))
	for _, item := range items {
		if r, ok := pop(byKey, item.Key()); ok {
			out = append(out, r)
			continue
		}
		if r, ok := pop(byName, item.Name); ok {
			r.Source = item.Source
			out = append(out, r)
			continue
		}
		out = append(out, domain.BatchResult{Source: item.Source, Name: item.Name, Message: noResultMessage})
	}
	return out
}

func pop[K comparable](m map[K][]domain.BatchResult, key K) (domain.BatchResult, bool) {
	queue := m[key]
	if len(queue) == 0 {
		return domain.BatchResult{}, false
	}
	m[key] = queue[1:]
	return queue[0], true
}

func failAll(items []domain.BatchItem, message string) []domain.BatchResult {
	out := make([]domain.BatchResult, 0, len(items))
	for _, item := range items {
		out = append(out, domain.BatchResult{Source: item.Source, Name: item.Name, Message: message})
	}
	return out
}

package service

import (
	"context"
	"fmt"

	"devdeck/internal/modules/system/domain"
	systemout "devdeck/internal/modules/system/port/out"
	"devdeck/internal/platform/entitycache"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

type Slots struct {
	Ports     *entitycache.Slot[domain.Port]
	Processes *entitycache.Slot[domain.Process]
	Caches    *entitycache.Slot[domain.Cache]
}

// RegisterSlots creates the system kinds on store.
func RegisterSlots(store *entitycache.Store) Slots {
	return Slots{
		Ports:     entitycache.Register[domain.Port](store, entitycache.KindPorts),
		Processes: entitycache.Register[domain.Process](store, entitycache.KindProcesses),
		Caches:    entitycache.Register[domain.Cache](store, entitycache.KindCaches),
	}
}

type SystemService struct {
	inventory systemout.Inventory
	slots     Slots
	logger    hclog.Logger
}

func NewSystemService(inventory systemout.Inventory, slots Slots, logger hclog.Logger) *SystemService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SystemService{inventory: inventory, slots: slots, logger: logger.Named("system")}
}

func (s *SystemService) Ports(ctx context.Context, force bool) (entitycache.Entry[domain.Port], error) {
	return cached(ctx, s.logger, s.slots.Ports, force, func(ctx context.Context) ([]domain.Port, error) {
		ports, err := s.inventory.Ports(ctx)
		return domain.NormalizePorts(ports), err
	})
}

func (s *SystemService) Processes(ctx context.Context, force bool) (entitycache.Entry[domain.Process], error) {
	return cached(ctx, s.logger, s.slots.Processes, force, func(ctx context.Context) ([]domain.Process, error) {
		processes, err := s.inventory.Processes(ctx)
		return domain.SortProcesses(processes), err
	})
}

func (s *SystemService) Caches(ctx context.Context, force bool) (entitycache.Entry[domain.Cache], error) {
	return cached(ctx, s.logger, s.slots.Caches, force, s.inventory.Caches)
}

// EnvVariables is read live on every call.
func (s *SystemService) EnvVariables(ctx context.Context) ([]domain.EnvVariable, error) {
	vars, err := s.inventory.EnvVariables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list env variables: %w", err)
	}
	return vars, nil
}

func (s *SystemService) PathEntries(ctx context.Context) ([]string, error) {
	entries, err := s.inventory.PathEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list path entries: %w", err)
	}
	return entries, nil
}

// ClearCache empties one known cache and then rescans caches. A failed
// rescan is logged; the clear already happened.
func (s *SystemService) ClearCache(ctx context.Context, name string) (string, error) {
	entry, err := s.Caches(ctx, false)
	if err != nil {
		return "", err
	}
	cache, err := domain.FindCache(entry.Items, name)
	if err != nil {
		return "", err
	}
	message, err := s.inventory.ClearCache(ctx, cache.Name)
	if err != nil {
		return "", fmt.Errorf("clear cache %s: %w", cache.Name, err)
	}
	s.logger.Info("cache cleared", "name", cache.Name, "path", cache.Path)
	if _, err := s.Caches(ctx, true); err != nil {
		s.logger.Warn("cache rescan failed", "error", err)
	}
	return message, nil
}

// KillProcess stops pid and rescans processes and ports together.
func (s *SystemService) KillProcess(ctx context.Context, pid int) (string, error) {
	if err := domain.ValidatePID(pid); err != nil {
		return "", err
	}
	message, err := s.inventory.KillProcess(ctx, pid)
	if err != nil {
		return "", fmt.Errorf("kill process %d: %w", pid, err)
	}
	s.logger.Info("process killed", "pid", pid)

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Processes(ctx, true)
		return err
	})
	g.Go(func() error {
		_, err := s.Ports(ctx, true)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("rescan after kill failed", "error", err)
	}
	return message, nil
}

func (s *SystemService) Invalidate() {
	s.slots.Ports.Invalidate()
	s.slots.Processes.Invalidate()
	s.slots.Caches.Invalidate()
}

// cached serves slot while fresh. On a failed fetch the loading flag is
// cleared and the previous items stay in place.
func cached[T any](
	ctx context.Context,
	logger hclog.Logger,
	slot *entitycache.Slot[T],
	force bool,
	fetch func(context.Context) ([]T, error),
) (entitycache.Entry[T], error) {
	if !force && slot.Valid() {
		return slot.Get(), nil
	}
	slot.SetLoading(true)
	items, err := fetch(ctx)
	if err != nil {
		slot.SetLoading(false)
		logger.Warn("scan failed", "kind", slot.Kind(), "error", err)
		return slot.Get(), fmt.Errorf("scan %s: %w", slot.Kind(), err)
	}
	slot.Set(items)
	return slot.Get(), nil
}

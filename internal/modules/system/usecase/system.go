package usecase

import (
	"context"
	"strconv"
	"time"

	"devdeck/internal/modules/system/domain"
	"devdeck/internal/modules/system/dto"
	systemin "devdeck/internal/modules/system/port/in"
	"devdeck/internal/modules/system/service"
	"devdeck/internal/platform/clock"
	"devdeck/internal/platform/entitycache"
)

type Interactor struct {
	svc *service.SystemService
	clk clock.Clock
}

func NewInteractor(svc *service.SystemService, clk clock.Clock) systemin.Usecase {
	return &Interactor{svc: svc, clk: clk}
}

func (i *Interactor) Ports(ctx context.Context, refresh bool) (dto.PortsOutput, error) {
	entry, err := i.svc.Ports(ctx, refresh)
	out := dto.PortsOutput{Freshness: freshness(entry, i.clk.Now())}
	for _, p := range entry.Items {
		out.Ports = append(out.Ports, dto.Port{Port: p.Port, Protocol: p.Protocol, PID: p.PID, ProcessName: p.ProcessName, State: p.State})
	}
	return out, err
}

func (i *Interactor) Processes(ctx context.Context, refresh bool) (dto.ProcessesOutput, error) {
	entry, err := i.svc.Processes(ctx, refresh)
	out := dto.ProcessesOutput{Freshness: freshness(entry, i.clk.Now())}
	for _, p := range entry.Items {
		out.Processes = append(out.Processes, dto.Process{PID: p.PID, Name: p.Name, CPUPercent: p.CPUPercent, MemoryMB: p.MemoryMB, Status: p.Status})
	}
	return out, err
}

func (i *Interactor) Caches(ctx context.Context, refresh bool) (dto.CachesOutput, error) {
	entry, err := i.svc.Caches(ctx, refresh)
	out := dto.CachesOutput{Freshness: freshness(entry, i.clk.Now()), Reclaimable: domain.ReclaimableBytes(entry.Items)}
	for _, c := range entry.Items {
		out.Caches = append(out.Caches, dto.Cache{Name: c.Name, Path: c.Path, SizeBytes: c.SizeBytes, Exists: c.Exists})
	}
	return out, err
}

func (i *Interactor) EnvVariables(ctx context.Context) ([]dto.EnvVariable, error) {
	vars, err := i.svc.EnvVariables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EnvVariable, 0, len(vars))
	for _, v := range vars {
		out = append(out, dto.EnvVariable{Name: v.Name, Value: v.Value, IsPath: v.IsPath})
	}
	return out, nil
}

func (i *Interactor) PathEntries(ctx context.Context) ([]string, error) {
	return i.svc.PathEntries(ctx)
}

func (i *Interactor) ClearCache(ctx context.Context, name string) (dto.ActionOutput, error) {
	message, err := i.svc.ClearCache(ctx, name)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Target: name, Message: message}, nil
}

func (i *Interactor) KillProcess(ctx context.Context, pid int) (dto.ActionOutput, error) {
	message, err := i.svc.KillProcess(ctx, pid)
	if err != nil {
		return dto.ActionOutput{}, err
	}
	return dto.ActionOutput{Target: strconv.Itoa(pid), Message: message}, nil
}

func (i *Interactor) Invalidate(context.Context) error {
	i.svc.Invalidate()
	return nil
}

func freshness[T any](entry entitycache.Entry[T], now time.Time) dto.Freshness {
	return dto.Freshness{
		Loading:     entry.Loading,
		Fresh:       entitycache.IsValid(now, entry.LastFetchAt, entitycache.TTL),
		LastFetchAt: entry.LastFetchAt,
	}
}

package out

import (
	"context"

	backenddto "devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
	"devdeck/internal/modules/system/domain"
	systemout "devdeck/internal/modules/system/port/out"
)

type GatewayInventory struct {
	gateway backendin.Gateway
}

func NewGatewayInventory(gateway backendin.Gateway) systemout.Inventory {
	return &GatewayInventory{gateway: gateway}
}

func (g *GatewayInventory) Ports(ctx context.Context) ([]domain.Port, error) {
	var wire []backenddto.Port
	if err := g.gateway.Invoke(ctx, backenddto.OpScanPorts, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Port, 0, len(wire))
	for _, p := range wire {
		out = append(out, domain.Port{Port: p.Port, Protocol: p.Protocol, PID: p.PID, ProcessName: p.ProcessName, State: p.State})
	}
	return out, nil
}

func (g *GatewayInventory) Processes(ctx context.Context) ([]domain.Process, error) {
	var wire []backenddto.Process
	if err := g.gateway.Invoke(ctx, backenddto.OpScanProcesses, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Process, 0, len(wire))
	for _, p := range wire {
		out = append(out, domain.Process{PID: p.PID, Name: p.Name, CPUPercent: p.CPUPercent, MemoryMB: p.MemoryMB, Status: p.Status})
	}
	return out, nil
}

func (g *GatewayInventory) Caches(ctx context.Context) ([]domain.Cache, error) {
	var wire []backenddto.Cache
	if err := g.gateway.Invoke(ctx, backenddto.OpScanCaches, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Cache, 0, len(wire))
	for _, c := range wire {
		out = append(out, domain.Cache{Name: c.Name, Path: c.Path, SizeBytes: c.SizeBytes, Exists: c.Exists})
	}
	return out, nil
}

func (g *GatewayInventory) EnvVariables(ctx context.Context) ([]domain.EnvVariable, error) {
	var wire []backenddto.EnvVariable
	if err := g.gateway.Invoke(ctx, backenddto.OpEnvVariables, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.EnvVariable, 0, len(wire))
	for _, v := range wire {
		out = append(out, domain.EnvVariable{Name: v.Name, Value: v.Value, IsPath: v.IsPath})
	}
	return out, nil
}

func (g *GatewayInventory) PathEntries(ctx context.Context) ([]string, error) {
	var entries []string
	if err := g.gateway.Invoke(ctx, backenddto.OpPathEntries, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *GatewayInventory) ClearCache(ctx context.Context, name string) (string, error) {
	out := backenddto.Message{}
	if err := g.gateway.Invoke(ctx, backenddto.OpClearCache, backenddto.CacheArgs{Name: name}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (g *GatewayInventory) KillProcess(ctx context.Context, pid int) (string, error) {
	out := backenddto.Message{}
	if err := g.gateway.Invoke(ctx, backenddto.OpKillProcess, backenddto.KillArgs{PID: pid}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

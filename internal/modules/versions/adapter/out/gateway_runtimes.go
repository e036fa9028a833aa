package out

import (
	"context"

	backenddto "devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
	"devdeck/internal/modules/versions/domain"
	versionsout "devdeck/internal/modules/versions/port/out"
)

// GatewayRuntimes asks the backend which runtimes are on PATH.
type GatewayRuntimes struct {
	gateway backendin.Gateway
}

func NewGatewayRuntimes(gateway backendin.Gateway) versionsout.RuntimeInventory {
	return &GatewayRuntimes{gateway: gateway}
}

func (g *GatewayRuntimes) Runtimes(ctx context.Context) ([]domain.Runtime, error) {
	var wire []backenddto.RuntimeVersion
	if err := g.gateway.Invoke(ctx, backenddto.OpRuntimeVersions, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Runtime, 0, len(wire))
	for _, r := range wire {
		out = append(out, domain.Runtime{Name: r.Name, Version: r.Version, Path: r.Path, Manager: r.Manager})
	}
	return out, nil
}

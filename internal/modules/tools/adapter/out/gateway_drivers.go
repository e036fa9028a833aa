package out

import (
	"context"
	"fmt"

	backenddto "devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
)

// GatewayDriver reaches one package manager through the backend.
type GatewayDriver struct {
	source  domain.Source
	gateway backendin.Gateway
}

// RegistryDriver adds registry search and fresh installs for the sources
// the backend can search.
type RegistryDriver struct {
	GatewayDriver
}

// NpmDriver adds version listing and pinning, which only npm supports.
type NpmDriver struct {
	RegistryDriver
}

// NewGatewayDrivers builds one driver per configured source, in order.
func NewGatewayDrivers(gateway backendin.Gateway, sources []string) []toolsout.Driver {
	drivers := make([]toolsout.Driver, 0, len(sources))
	for _, raw := range sources {
		source := domain.ParseSource(raw)
		base := GatewayDriver{source: source, gateway: gateway}
		switch source {
		case domain.SourceNpm:
			drivers = append(drivers, &NpmDriver{RegistryDriver: RegistryDriver{GatewayDriver: base}})
		case domain.SourceCargo, domain.SourcePip:
			drivers = append(drivers, &RegistryDriver{GatewayDriver: base})
		default:
			drivers = append(drivers, &base)
		}
	}
	return drivers
}

func (d *GatewayDriver) Source() domain.Source {
	return d.source
}

func (d *GatewayDriver) Scan(ctx context.Context) ([]domain.ToolRecord, error) {
	var wire []backenddto.Tool
	if err := d.gateway.Invoke(ctx, backenddto.OpScan, backenddto.ScanArgs{Source: string(d.source)}, &wire); err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.source, err)
	}
	out := make([]domain.ToolRecord, 0, len(wire))
	for _, t := range wire {
		out = append(out, toRecord(t, d.source))
	}
	return out, nil
}

func (d *GatewayDriver) Update(ctx context.Context, fullName string) (string, error) {
	return d.message(ctx, backenddto.OpUpdateTool, backenddto.ToolArgs{Source: string(d.source), FullName: fullName})
}

func (d *GatewayDriver) Uninstall(ctx context.Context, fullName string) (string, error) {
	return d.message(ctx, backenddto.OpUninstallTool, backenddto.ToolArgs{Source: string(d.source), FullName: fullName})
}

func (d *GatewayDriver) message(ctx context.Context, op backenddto.Operation, args any) (string, error) {
	out := backenddto.Message{}
	if err := d.gateway.Invoke(ctx, op, args, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (d *RegistryDriver) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var wire []backenddto.PackageSearchResult
	if err := d.gateway.Invoke(ctx, backenddto.OpSearchPackages, backenddto.SearchArgs{Source: string(d.source), Query: query}, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, 0, len(wire))
	for _, r := range wire {
		source := d.source
		if r.Source != "" {
			source = domain.ParseSource(r.Source)
		}
		out = append(out, domain.SearchResult{Name: r.Name, Version: r.Version, Description: r.Description, Source: source})
	}
	return out, nil
}

func (d *RegistryDriver) Install(ctx context.Context, name string) (string, error) {
	return d.message(ctx, backenddto.OpInstallPackage, backenddto.InstallArgs{Source: string(d.source), Name: name})
}

func (d *NpmDriver) ListVersions(ctx context.Context, fullName string) ([]string, error) {
	var versions []string
	if err := d.gateway.Invoke(ctx, backenddto.OpListVersions, backenddto.VersionArgs{FullName: fullName}, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (d *NpmDriver) InstallVersion(ctx context.Context, fullName, version string) (string, error) {
	return d.message(ctx, backenddto.OpInstallVersion, backenddto.VersionArgs{FullName: fullName, Version: version})
}

func toRecord(t backenddto.Tool, fallback domain.Source) domain.ToolRecord {
	source := fallback
	if t.Source != "" {
		source = domain.ParseSource(t.Source)
	}
	fullName := t.FullName
	if fullName == "" {
		fullName = t.Name
	}
	return domain.ToolRecord{
		Name:        t.Name,
		Scope:       deref(t.Scope),
		FullName:    fullName,
		Version:     deref(t.Version),
		Source:      source,
		InstallPath: t.InstallPath,
		SizeBytes:   t.SizeBytes,
		Description: deref(t.Description),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GatewayBatch sends a whole batch as one backend call.
type GatewayBatch struct {
	gateway backendin.Gateway
}

func NewGatewayBatch(gateway backendin.Gateway) toolsout.BatchBackend {
	return &GatewayBatch{gateway: gateway}
}

func (b *GatewayBatch) Batch(ctx context.Context, kind domain.BatchKind, items []domain.BatchItem) ([]domain.BatchResult, error) {
	op := backenddto.OpBatchUpdate
	if kind == domain.BatchUninstall {
		op = backenddto.OpBatchUninstall
	}
	args := backenddto.BatchArgs{Items: make([]backenddto.BatchItem, 0, len(items))}
	for _, item := range items {
		args.Items = append(args.Items, backenddto.BatchItem{Source: string(item.Source), Name: item.Name})
	}
	var wire []backenddto.BatchResult
	if err := b.gateway.Invoke(ctx, op, args, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.BatchResult, 0, len(wire))
	for _, r := range wire {
		result := domain.BatchResult{Name: r.Name, Success: r.Success, Message: r.Message}
		if r.Source != "" {
			result.Source = domain.ParseSource(r.Source)
		}
		out = append(out, result)
	}
	return out, nil
}

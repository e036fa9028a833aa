package out

import (
	"context"

	toolsdto "devdeck/internal/modules/tools/dto"
	toolsin "devdeck/internal/modules/tools/port/in"
	versionsout "devdeck/internal/modules/versions/port/out"
)

// ToolsCatalog serves the version workflow from the tools module.
type ToolsCatalog struct {
	tools toolsin.Usecase
}

func NewToolsCatalog(tools toolsin.Usecase) versionsout.ToolCatalog {
	return &ToolsCatalog{tools: tools}
}

func (c *ToolsCatalog) SupportsVersions(ctx context.Context, key string) (bool, error) {
	return c.tools.SupportsVersions(ctx, key)
}

func (c *ToolsCatalog) CurrentVersion(ctx context.Context, key string) (string, error) {
	tool, err := c.tools.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return tool.Version, nil
}

func (c *ToolsCatalog) ListVersions(ctx context.Context, key string) ([]string, error) {
	return c.tools.ListVersions(ctx, key)
}

func (c *ToolsCatalog) InstallVersion(ctx context.Context, key, version string) (string, error) {
	out, err := c.tools.InstallVersion(ctx, toolsdto.InstallVersionInput{Key: key, Version: version})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

package out

import (
	"context"

	configout "devdeck/internal/modules/configedit/port/out"
	toolsin "devdeck/internal/modules/tools/port/in"
)

// ToolsDirectory resolves keys against the installed-tools list.
type ToolsDirectory struct {
	tools toolsin.Usecase
}

func NewToolsDirectory(tools toolsin.Usecase) configout.ToolDirectory {
	return &ToolsDirectory{tools: tools}
}

func (d *ToolsDirectory) Lookup(ctx context.Context, key string) (string, string, error) {
	tool, err := d.tools.Get(ctx, key)
	if err != nil {
		return "", "", err
	}
	return tool.Name, tool.Source, nil
}

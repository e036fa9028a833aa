package in

import (
	"context"
	"fmt"
	"strings"

	"devdeck/internal/modules/configedit/dto"
	configin "devdeck/internal/modules/configedit/port/in"
)

type CLIHandler struct {
	usecase configin.Usecase
}

func NewCLIHandler(usecase configin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Files(ctx context.Context, toolKey string) (dto.DiscoverOutput, error) {
	return h.usecase.Discover(ctx, toolKey)
}

func (h CLIHandler) Show(ctx context.Context, path string) (dto.Document, error) {
	return h.usecase.Load(ctx, path)
}

func (h CLIHandler) Set(ctx context.Context, path, key, value string) (dto.Document, error) {
	return h.usecase.SaveFields(ctx, dto.SaveFieldsInput{Path: path, Edits: map[string]string{key: value}})
}

func (h CLIHandler) Write(ctx context.Context, path, raw string) error {
	return h.usecase.SaveRaw(ctx, dto.SaveRawInput{Path: path, Raw: raw})
}

// FormatDocument prints structured documents as "key = value" lines and
// opaque ones as their raw text.
func FormatDocument(doc dto.Document) string {
	if !doc.Structured {
		return doc.Raw
	}
	var sb strings.Builder
	for _, f := range doc.Fields {
		fmt.Fprintf(&sb, "%s = %s\n", f.Key, f.Value)
	}
	return sb.String()
}

// FormatDiscovery prints files grouped by directory.
func FormatDiscovery(out dto.DiscoverOutput) string {
	if len(out.Files) == 0 {
		return fmt.Sprintf("no config files found for %s (%d locations checked)\n", out.ToolKey, len(out.Lookups))
	}
	var sb strings.Builder
	for _, g := range out.Groups {
		fmt.Fprintf(&sb, "%s/\n", g.Dir)
		for _, f := range g.Files {
			fmt.Fprintf(&sb, "  %s\t%s\n", f.Name, f.Path)
		}
	}
	return sb.String()
}

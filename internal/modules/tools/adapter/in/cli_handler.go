package in

import (
	"context"
	"fmt"
	"strings"

	"devdeck/internal/modules/tools/dto"
	toolsin "devdeck/internal/modules/tools/port/in"
)

type CLIHandler struct {
	usecase toolsin.Usecase
}

func NewCLIHandler(usecase toolsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error) {
	return h.usecase.List(ctx, input)
}

func (h CLIHandler) Summary(ctx context.Context) (dto.SummaryOutput, error) {
	return h.usecase.Summary(ctx)
}

func (h CLIHandler) Update(ctx context.Context, key string) (dto.ActionOutput, error) {
	return h.usecase.Update(ctx, key)
}

func (h CLIHandler) Uninstall(ctx context.Context, key string) (dto.ActionOutput, error) {
	return h.usecase.Uninstall(ctx, key)
}

func (h CLIHandler) Batch(ctx context.Context, kind string, keys []string) (dto.BatchOutput, error) {
	parsed, err := SplitKeys(strings.Join(keys, ","))
	if err != nil {
		return dto.BatchOutput{}, err
	}
	return h.usecase.Batch(ctx, dto.BatchInput{Kind: kind, Keys: parsed})
}

func (h CLIHandler) Search(ctx context.Context, input dto.SearchInput) (dto.SearchOutput, error) {
	return h.usecase.Search(ctx, input)
}

func (h CLIHandler) Install(ctx context.Context, key string) (dto.ActionOutput, error) {
	return h.usecase.Install(ctx, key)
}

func (h CLIHandler) Invalidate(ctx context.Context) error {
	return h.usecase.Invalidate(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	return h.usecase.History(ctx, limit)
}

// SplitKeys turns "npm:eslint, pip:black" into trimmed tool keys.
func SplitKeys(raw string) ([]string, error) {
	keys := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if source, name, ok := strings.Cut(part, ":"); !ok || source == "" || name == "" {
			return nil, fmt.Errorf("tool key %q must look like source:name", part)
		}
		keys = append(keys, part)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one tool key is required")
	}
	return keys, nil
}

// FormatBatch renders one line per result followed by a tally.
func FormatBatch(out dto.BatchOutput) string {
	var sb strings.Builder
	for _, r := range out.Results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "%-6s %s", status, r.Key)
		if r.Message != "" {
			fmt.Fprintf(&sb, "  %s", firstLine(r.Message))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%d succeeded, %d failed\n", len(out.Results)-out.Failed, out.Failed)
	return sb.String()
}

// FormatSearch renders one line per match, marking installed packages.
func FormatSearch(out dto.SearchOutput) string {
	var sb strings.Builder
	for _, r := range out.Results {
		mark := " "
		if r.Installed {
			mark = "*"
		}
		version := r.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(&sb, "%s %s  %s", mark, r.Key, version)
		if r.Description != "" {
			fmt.Fprintf(&sb, "  %s", firstLine(r.Description))
		}
		sb.WriteByte('\n')
	}
	if len(out.Results) == 0 {
		sb.WriteString("No packages found.\n")
	}
	for _, failure := range out.Failures {
		fmt.Fprintf(&sb, "skipped: %s\n", failure)
	}
	return sb.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

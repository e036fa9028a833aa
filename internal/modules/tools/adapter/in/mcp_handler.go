package in

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"devdeck/internal/modules/tools/dto"
	toolsin "devdeck/internal/modules/tools/port/in"
)

// RegisterMCPTools exposes the tools surface to MCP clients.
func RegisterMCPTools(s *server.MCPServer, usecase toolsin.Usecase) {
	s.AddTool(listTool(), listHandler(usecase))
	s.AddTool(batchTool("update_tools", "Update several installed tools in one batch."), batchHandler(usecase, dto.BatchUpdate))
	s.AddTool(batchTool("uninstall_tools", "Uninstall several installed tools in one batch."), batchHandler(usecase, dto.BatchUninstall))
	s.AddTool(listVersionsTool(), listVersionsHandler(usecase))
	s.AddTool(installVersionTool(), installVersionHandler(usecase))
	s.AddTool(searchTool(), searchHandler(usecase))
	s.AddTool(installTool(), installHandler(usecase))
}

func listTool() mcp.Tool {
	return mcp.NewTool("list_tools",
		mcp.WithDescription("List globally installed developer tools. Each line starts with the tool key (source:name)."),
		mcp.WithString("source",
			mcp.Description("Only list tools from this package manager (npm, cargo, pip)."),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive substring matched against name and scope."),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Rescan instead of using the cached list."),
		),
	)
}

func listHandler(usecase toolsin.Usecase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := usecase.List(ctx, dto.ListInput{
			Source:  req.GetString("source", ""),
			Query:   req.GetString("query", ""),
			Refresh: req.GetBool("refresh", false),
		})
		if err != nil {
			return toolError(err)
		}
		if len(out.Tools) == 0 {
			return mcp.NewToolResultText("No tools found."), nil
		}
		var sb strings.Builder
		for _, tool := range out.Tools {
			version := tool.Version
			if version == "" {
				version = "-"
			}
			fmt.Fprintf(&sb, "%s  %s\n", tool.Key, version)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func batchTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description+" Reports one line per tool."),
		mcp.WithString("keys",
			mcp.Required(),
			mcp.Description("Comma-separated tool keys, e.g. npm:eslint,pip:black"),
		),
	)
}

func batchHandler(usecase toolsin.Usecase, kind string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keys, err := SplitKeys(req.GetString("keys", ""))
		if err != nil {
			return toolError(err)
		}
		out, err := usecase.Batch(ctx, dto.BatchInput{Kind: kind, Keys: keys})
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(FormatBatch(out)), nil
	}
}

func listVersionsTool() mcp.Tool {
	return mcp.NewTool("list_versions",
		mcp.WithDescription("List published versions of an npm tool, newest first."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Tool key, e.g. npm:typescript"),
		),
	)
}

func listVersionsHandler(usecase toolsin.Usecase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		versions, err := usecase.ListVersions(ctx, req.GetString("key", ""))
		if err != nil {
			return toolError(err)
		}
		if len(versions) == 0 {
			return mcp.NewToolResultText("No versions published."), nil
		}
		return mcp.NewToolResultText(strings.Join(versions, "\n")), nil
	}
}

func installVersionTool() mcp.Tool {
	return mcp.NewTool("install_version",
		mcp.WithDescription("Install a specific version of an npm tool globally."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Tool key, e.g. npm:typescript"),
		),
		mcp.WithString("version",
			mcp.Required(),
			mcp.Description("Version to install"),
		),
	)
}

func installVersionHandler(usecase toolsin.Usecase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := usecase.InstallVersion(ctx, dto.InstallVersionInput{
			Key:     req.GetString("key", ""),
			Version: req.GetString("version", ""),
		})
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(out.Message), nil
	}
}

func searchTool() mcp.Tool {
	return mcp.NewTool("search_packages",
		mcp.WithDescription("Search package registries for tools that can be installed. Installed matches are marked with *."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Package name or search terms. pip only matches exact project names."),
		),
		mcp.WithString("source",
			mcp.Description("Only search this registry (npm, cargo, pip)."),
		),
	)
}

func searchHandler(usecase toolsin.Usecase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := usecase.Search(ctx, dto.SearchInput{
			Source: req.GetString("source", ""),
			Query:  req.GetString("query", ""),
		})
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(FormatSearch(out)), nil
	}
}

func installTool() mcp.Tool {
	return mcp.NewTool("install_package",
		mcp.WithDescription("Install a package globally with its package manager."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Package key as returned by search_packages, e.g. cargo:ripgrep"),
		),
	)
}

func installHandler(usecase toolsin.Usecase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := usecase.Install(ctx, req.GetString("key", ""))
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(out.Message), nil
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

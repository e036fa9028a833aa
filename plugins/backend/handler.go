package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"

	hclog "github.com/hashicorp/go-hclog"
)

// runner executes an external command and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

type handler struct {
	home   string
	goos   string
	run    runner
	logger hclog.Logger
}

func newHandler(home, goos string, run runner, logger hclog.Logger) *handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &handler{home: home, goos: goos, run: run, logger: logger}
}

func (h *handler) Handle(ctx context.Context, req domain.Request) domain.Response {
	if err := req.Validate(); err != nil {
		return domain.Fail(err)
	}
	h.logger.Debug("handle", "op", req.Op)
	result, err := h.dispatch(ctx, req)
	if err != nil {
		h.logger.Warn("operation failed", "op", req.Op, "error", err)
		return domain.Fail(err)
	}
	return domain.Succeed(result)
}

func (h *handler) dispatch(ctx context.Context, req domain.Request) (any, error) {
	switch req.Op {
	case dto.OpPing:
		return dto.PingOutput{Name: pluginName, Version: version, Home: h.home}, nil
	case dto.OpScan:
		var args dto.ScanArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return h.scan(ctx, args.Source)
	case dto.OpUpdateTool, dto.OpUninstallTool:
		var args dto.ToolArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		msg, err := h.manage(ctx, req.Op == dto.OpUninstallTool, args.Source, args.FullName)
		if err != nil {
			return nil, err
		}
		return dto.Message{Message: msg}, nil
	case dto.OpBatchUpdate, dto.OpBatchUninstall:
		var args dto.BatchArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return h.batch(ctx, req.Op == dto.OpBatchUninstall, args.Items), nil
	case dto.OpListVersions:
		var args dto.VersionArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return h.listVersions(ctx, args.FullName)
	case dto.OpInstallVersion:
		var args dto.VersionArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		msg, err := h.installVersion(ctx, args.FullName, args.Version)
		if err != nil {
			return nil, err
		}
		return dto.Message{Message: msg}, nil
	case dto.OpListFilesRecursive:
		var args dto.DirArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return listConfigFiles(args.DirPath)
	case dto.OpReadFile:
		var args dto.PathArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return readFile(args.Path)
	case dto.OpWriteFile:
		var args dto.WriteArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		if err := writeFile(args.Path, args.Content); err != nil {
			return nil, err
		}
		return dto.Message{Message: "saved " + args.Path}, nil
	case dto.OpGetHomePath:
		return h.home, nil
	case dto.OpScanPorts:
		return h.scanPorts(ctx)
	case dto.OpScanProcesses:
		return h.scanProcesses(ctx)
	case dto.OpScanCaches:
		return h.scanCaches(), nil
	case dto.OpClearCache:
		var args dto.CacheArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		msg, err := h.clearCache(ctx, args.Name)
		if err != nil {
			return nil, err
		}
		return dto.Message{Message: msg}, nil
	case dto.OpKillProcess:
		var args dto.KillArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		msg, err := killProcess(args.PID)
		if err != nil {
			return nil, err
		}
		return dto.Message{Message: msg}, nil
	case dto.OpEnvVariables:
		return envVariables(environ()), nil
	case dto.OpPathEntries:
		return pathEntries(getenv("PATH")), nil
	case dto.OpSearchPackages:
		var args dto.SearchArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		return h.searchPackages(ctx, args.Source, args.Query)
	case dto.OpInstallPackage:
		var args dto.InstallArgs
		if err := decode(req, &args); err != nil {
			return nil, err
		}
		msg, err := h.installPackage(ctx, args.Source, args.Name)
		if err != nil {
			return nil, err
		}
		return dto.Message{Message: msg}, nil
	case dto.OpRuntimeVersions:
		return h.runtimeVersions(ctx), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownOperation, req.Op)
}

func decode(req domain.Request, v any) error {
	if len(req.Args) == 0 {
		return fmt.Errorf("%s requires arguments", req.Op)
	}
	if err := json.Unmarshal(req.Args, v); err != nil {
		return fmt.Errorf("decode %s args: %w", req.Op, err)
	}
	return nil
}

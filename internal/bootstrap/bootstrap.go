package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/server"

	backendinadapter "devdeck/internal/modules/backend/adapter/in"
	backendoutadapter "devdeck/internal/modules/backend/adapter/out"
	backendout "devdeck/internal/modules/backend/port/out"
	backendservice "devdeck/internal/modules/backend/service"
	backendusecase "devdeck/internal/modules/backend/usecase"
	configinadapter "devdeck/internal/modules/configedit/adapter/in"
	configoutadapter "devdeck/internal/modules/configedit/adapter/out"
	configservice "devdeck/internal/modules/configedit/service"
	configusecase "devdeck/internal/modules/configedit/usecase"
	systeminadapter "devdeck/internal/modules/system/adapter/in"
	systemoutadapter "devdeck/internal/modules/system/adapter/out"
	systemservice "devdeck/internal/modules/system/service"
	systemusecase "devdeck/internal/modules/system/usecase"
	toolsinadapter "devdeck/internal/modules/tools/adapter/in"
	toolsoutadapter "devdeck/internal/modules/tools/adapter/out"
	toolsdomain "devdeck/internal/modules/tools/domain"
	toolsin "devdeck/internal/modules/tools/port/in"
	toolsout "devdeck/internal/modules/tools/port/out"
	toolsservice "devdeck/internal/modules/tools/service"
	toolsusecase "devdeck/internal/modules/tools/usecase"
	versionsinadapter "devdeck/internal/modules/versions/adapter/in"
	versionsoutadapter "devdeck/internal/modules/versions/adapter/out"
	versionsservice "devdeck/internal/modules/versions/service"
	versionsusecase "devdeck/internal/modules/versions/usecase"
	"devdeck/internal/platform/clock"
	"devdeck/internal/platform/config"
	"devdeck/internal/platform/entitycache"
	"devdeck/internal/platform/id"
	"devdeck/internal/platform/logging"
	"devdeck/internal/platform/sqlitedb"
	uiapp "devdeck/internal/ui/app"
)

type App struct {
	Config config.Config
	Logger hclog.Logger
	Cache  *entitycache.Store

	BackendCLI  backendinadapter.CLIHandler
	ToolsCLI    toolsinadapter.CLIHandler
	VersionsCLI versionsinadapter.CLIHandler
	VersionsTUI versionsinadapter.TUIHandler
	ConfigCLI   configinadapter.CLIHandler
	ConfigTUI   configinadapter.TUIHandler
	SystemCLI   systeminadapter.CLIHandler

	tools   toolsin.Usecase
	closers []io.Closer
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, logCloser, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	app := &App{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}

	clk := clock.SystemClock{}
	ids := id.RandomHex{}

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open state db: %w", err)
	}
	app.closers = append(app.closers, db)

	snapshots, err := entitycache.NewSQLiteSnapshots(ctx, db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new cache snapshots: %w", err)
	}
	app.Cache = entitycache.New(clk, snapshots, logger)

	transport := newTransport(cfg, logger)
	app.closers = append(app.closers, transport)
	gatewaySvc := backendservice.NewGatewayService(transport, cfg.Backend.CallTimeout, logger)
	backendUC := backendusecase.NewInteractor(gatewaySvc)

	actions, err := newActionLog(ctx, db)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	drivers := toolsoutadapter.NewGatewayDrivers(backendUC, cfg.Sources)
	var batch toolsout.BatchBackend
	if cfg.Batch.UseBackend {
		batch = toolsoutadapter.NewGatewayBatch(backendUC)
	}
	dispatcher := toolsservice.NewDispatcher(drivers, batch, cfg.Batch.Concurrency, logger)
	toolsSlot := entitycache.Register[toolsdomain.ToolRecord](app.Cache, entitycache.KindTools)
	toolsUC := toolsusecase.NewInteractor(toolsservice.NewToolService(drivers, dispatcher, toolsSlot, actions, clk, ids, logger))

	versionsUC := versionsusecase.NewInteractor(versionsservice.NewVersionService(
		versionsoutadapter.NewToolsCatalog(toolsUC),
		versionsoutadapter.NewGatewayRuntimes(backendUC),
		logger,
	))

	configUC := configusecase.NewInteractor(configservice.NewConfigService(
		configoutadapter.NewGatewayFS(backendUC),
		configoutadapter.NewToolsDirectory(toolsUC),
		logger,
	))

	systemUC := systemusecase.NewInteractor(systemservice.NewSystemService(
		systemoutadapter.NewGatewayInventory(backendUC),
		systemservice.RegisterSlots(app.Cache),
		logger,
	), clk)

	app.tools = toolsUC
	app.BackendCLI = backendinadapter.NewCLIHandler(backendUC)
	app.ToolsCLI = toolsinadapter.NewCLIHandler(toolsUC)
	app.VersionsCLI = versionsinadapter.NewCLIHandler(versionsUC)
	app.VersionsTUI = versionsinadapter.NewTUIHandler(versionsUC)
	app.ConfigCLI = configinadapter.NewCLIHandler(configUC)
	app.ConfigTUI = configinadapter.NewTUIHandler(configUC)
	app.SystemCLI = systeminadapter.NewCLIHandler(systemUC)
	return app, nil
}

// newTransport dials a running daemon when a socket is configured and
// launches the backend as a plugin child otherwise.
func newTransport(cfg config.Config, logger hclog.Logger) backendout.Transport {
	if cfg.Backend.Socket != "" {
		logger.Debug("using backend socket", "path", cfg.Backend.Socket)
		return backendoutadapter.NewSocketTransport(cfg.Backend.Socket, cfg.Backend.CallTimeout)
	}
	binary, err := backendoutadapter.ResolveBinary(cfg.Backend.Path)
	if err != nil {
		// The first call reports the failure; commands that never reach the
		// backend keep working.
		logger.Warn("backend binary not resolved", "path", cfg.Backend.Path, "error", err)
		binary = cfg.Backend.Path
	}
	return backendoutadapter.NewPluginTransport(binary, cfg.Backend.SHA256, logger)
}

func newActionLog(ctx context.Context, db *sql.DB) (toolsout.ActionLog, error) {
	actions, err := toolsoutadapter.NewSQLiteActionLog(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("new action log: %w", err)
	}
	return actions, nil
}

// Close stops the backend child and releases the state db and log file, in
// reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// InvalidateAll marks every cached kind stale.
func (a *App) InvalidateAll(ctx context.Context) error {
	if err := a.ToolsCLI.Invalidate(ctx); err != nil {
		return err
	}
	return a.SystemCLI.Invalidate(ctx)
}

// MCPServer exposes the tools surface over MCP.
func (a *App) MCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer("devdeck", version, server.WithToolCapabilities(true))
	toolsinadapter.RegisterMCPTools(s, a.tools)
	return s
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.ToolsCLI, app.VersionsTUI, app.ConfigTUI, app.SystemCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Command devdeck-backend answers gateway operations for devdeck. It is
// normally launched by the host as a go-plugin child; with --socket it runs
// as a standalone daemon instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	backendoutadapter "devdeck/internal/modules/backend/adapter/out"
	pluginrpc "devdeck/internal/modules/backend/adapter/out/rpc"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

const pluginName = "devdeck-backend"

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var socketPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:           pluginName,
		Short:         "Backend process for devdeck",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// go-plugin forwards JSON lines on stderr into the host's logger.
			logger := hclog.New(&hclog.LoggerOptions{
				Name:       pluginName,
				Level:      hclog.LevelFromString(logLevel),
				Output:     os.Stderr,
				JSONFormat: socketPath == "",
			})
			home, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}
			h := newHandler(home, runtime.GOOS, execRunner, logger)

			if socketPath == "" {
				plugin.Serve(&plugin.ServeConfig{
					HandshakeConfig: pluginrpc.HandshakeConfig,
					Plugins:         pluginrpc.PluginMap(pluginrpc.HandlerServer(h)),
					GRPCServer:      plugin.DefaultGRPCServer,
					Logger:          logger,
				})
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger.Info("serving on socket", "path", socketPath)
			return backendoutadapter.NewSocketServer().Serve(ctx, socketPath, h)
		},
	}
	cmd.Flags().StringVar(&socketPath, "socket", "", "serve JSON-RPC on this unix socket instead of as a plugin")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

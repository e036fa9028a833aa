package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"devdeck/internal/platform/config"
)

// New opens the log file named in cfg and returns the root logger. The closer
// must be closed when the process is done logging. Logs never go to the
// terminal so the TUI stays clean.
func New(cfg config.Config) (hclog.Logger, io.Closer, error) {
	if strings.EqualFold(cfg.Log.Level, "off") {
		return hclog.NewNullLogger(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "devdeck",
		Level:  hclog.LevelFromString(cfg.Log.Level),
		Output: file,
	})
	return logger, file, nil
}

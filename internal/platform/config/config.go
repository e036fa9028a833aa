package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const appName = "devdeck"

type Config struct {
	Sources  []string      `yaml:"sources"`
	StateDir string        `yaml:"state_dir"`
	Batch    BatchConfig   `yaml:"batch"`
	Backend  BackendConfig `yaml:"backend"`
	Log      LogConfig     `yaml:"log"`

	// Resolved after load.
	Path   string `yaml:"-"`
	DBPath string `yaml:"-"`
}

// BatchConfig controls multi-item actions. With UseBackend the whole batch is
// sent as one backend call; otherwise items are dispatched one call each,
// at most Concurrency at a time.
type BatchConfig struct {
	UseBackend  bool `yaml:"use_backend"`
	Concurrency int  `yaml:"concurrency"`
}

// BackendConfig selects how the privileged backend is reached. When Socket is
// set the client dials a running daemon; otherwise Path is launched as a
// go-plugin child process.
type BackendConfig struct {
	Path        string        `yaml:"path"`
	SHA256      string        `yaml:"sha256"`
	Socket      string        `yaml:"socket"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Sources:  []string{"npm", "cargo", "pip"},
		StateDir: filepath.Join(xdg.StateHome, appName),
		Batch:    BatchConfig{UseBackend: true, Concurrency: 4},
		Backend: BackendConfig{
			Path:        appName + "-backend",
			CallTimeout: 60 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file at the
// default location is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("expand config path: %w", err)
	}
	cfg.Path = expanded

	raw, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", expanded, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	stateDir, err := homedir.Expand(c.StateDir)
	if err != nil {
		return fmt.Errorf("expand state dir: %w", err)
	}
	c.StateDir = stateDir
	c.DBPath = filepath.Join(stateDir, appName+".db")
	if c.Log.File == "" {
		c.Log.File = filepath.Join(stateDir, appName+".log")
	}
	if c.Backend.Socket != "" {
		socket, err := homedir.Expand(c.Backend.Socket)
		if err != nil {
			return fmt.Errorf("expand backend socket: %w", err)
		}
		c.Backend.Socket = socket
	}
	for i, s := range c.Sources {
		c.Sources[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Sources) == 0 {
		errs = append(errs, fmt.Errorf("sources must list at least one package manager"))
	}
	seen := map[string]struct{}{}
	for _, s := range c.Sources {
		if _, ok := seen[s]; ok {
			errs = append(errs, fmt.Errorf("duplicate source: %s", s))
		}
		seen[s] = struct{}{}
	}
	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("state_dir is required"))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be >= 1"))
	}
	if c.Backend.Socket == "" && c.Backend.Path == "" {
		errs = append(errs, fmt.Errorf("backend.path or backend.socket is required"))
	}
	if c.Backend.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.call_timeout must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not recognised", c.Log.Level))
	}
	return errors.Join(errs...)
}

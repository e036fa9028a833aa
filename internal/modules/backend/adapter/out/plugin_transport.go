package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	backendrpc "devdeck/internal/modules/backend/adapter/out/rpc"
	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
	backendout "devdeck/internal/modules/backend/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const defaultStartTimeout = 5 * time.Second

// PluginTransport launches the backend binary as a go-plugin child on first
// use and keeps it running until Close.
type PluginTransport struct {
	binary string
	sha256 string
	logger hclog.Logger

	mu     sync.Mutex
	client *plugin.Client
	rpc    backendrpc.BackendClient
}

func NewPluginTransport(binary, sha256Hex string, logger hclog.Logger) backendout.Transport {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginTransport{binary: binary, sha256: strings.ToLower(strings.TrimSpace(sha256Hex)), logger: logger}
}

func (t *PluginTransport) Call(ctx context.Context, req domain.Request) (domain.Response, error) {
	client, err := t.connect()
	if err != nil {
		return domain.Response{}, err
	}
	if req.Op == dto.OpPing {
		pong, err := client.Ping(ctx)
		if err != nil {
			return domain.Response{}, t.callError(err)
		}
		return domain.Succeed(dto.PingOutput{Name: pong.Name, Version: pong.Version, Home: pong.Home}), nil
	}
	resp, err := client.Invoke(ctx, &backendrpc.InvokeRequest{Op: string(req.Op), ArgsJSON: string(req.Args)})
	if err != nil {
		return domain.Response{}, t.callError(err)
	}
	out := domain.Response{Error: resp.Error}
	if resp.ResultJSON != "" {
		out.Result = json.RawMessage(resp.ResultJSON)
	}
	return out, nil
}

func (t *PluginTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Kill()
		t.client = nil
		t.rpc = nil
	}
	return nil
}

func (t *PluginTransport) connect() (backendrpc.BackendClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil && !t.client.Exited() {
		return t.rpc, nil
	}

	binary, err := ResolveBinary(t.binary)
	if err != nil {
		return nil, err
	}
	if t.sha256 != "" {
		if err := checksumMatches(binary, t.sha256); err != nil {
			return nil, err
		}
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  backendrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          backendrpc.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           t.logger.Named("plugin"),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: start %s: %v", domain.ErrBackendUnavailable, filepath.Base(binary), err)
	}
	raw, err := rpcClient.Dispense(backendrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense backend: %w", err)
	}
	typed, ok := raw.(backendrpc.BackendClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("backend rpc client type mismatch")
	}
	t.client = client
	t.rpc = typed
	t.logger.Debug("backend started", "binary", binary)
	return typed, nil
}

func (t *PluginTransport) callError(err error) error {
	t.mu.Lock()
	exited := t.client != nil && t.client.Exited()
	t.mu.Unlock()
	if exited {
		return fmt.Errorf("%w: backend exited: %v", domain.ErrBackendUnavailable, err)
	}
	return err
}

// ResolveBinary finds the backend executable: absolute paths are used as is,
// bare names are looked up on PATH and then next to the running executable.
func ResolveBinary(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no backend path configured", domain.ErrBackendUnavailable)
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, name)
		}
		return name, nil
	}
	if found, err := exec.LookPath(name); err == nil {
		return found, nil
	}
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), filepath.Base(name))
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found", domain.ErrBackendUnavailable, name)
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backend binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

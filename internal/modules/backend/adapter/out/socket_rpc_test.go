package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	out "devdeck/internal/modules/backend/adapter/out"
	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, req domain.Request) domain.Response {
	switch req.Op {
	case dto.OpPing:
		return domain.Succeed(dto.PingOutput{Name: "devdeck-backend", Version: "test"})
	case dto.OpReadFile:
		args := dto.PathArgs{}
		if err := json.Unmarshal(req.Args, &args); err != nil {
			return domain.Fail(err)
		}
		return domain.Succeed("contents of " + args.Path)
	default:
		return domain.Fail(errors.New("not supported"))
	}
}

func TestSocketServerTransportContract(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "backend.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- out.NewSocketServer().Serve(ctx, socketPath, echoHandler{})
	}()

	transport := out.NewSocketTransport(socketPath, 2*time.Second)
	defer transport.Close()

	var (
		resp domain.Response
		err  error
	)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = transport.Call(context.Background(), domain.Request{Op: dto.OpPing})
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	pong := dto.PingOutput{}
	if err := json.Unmarshal(resp.Result, &pong); err != nil || pong.Name != "devdeck-backend" {
		t.Fatalf("unexpected ping result: %s (%v)", resp.Result, err)
	}

	args, _ := json.Marshal(dto.PathArgs{Path: "/tmp/a.json"})
	resp, err = transport.Call(context.Background(), domain.Request{Op: dto.OpReadFile, Args: args})
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var text string
	if err := json.Unmarshal(resp.Result, &text); err != nil || text != "contents of /tmp/a.json" {
		t.Fatalf("unexpected read result: %s", resp.Result)
	}

	resp, err = transport.Call(context.Background(), domain.Request{Op: dto.OpKillProcess})
	if err != nil {
		t.Fatalf("backend errors must travel in the response, got %v", err)
	}
	if resp.Error != "not supported" {
		t.Fatalf("unexpected error payload: %+v", resp)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestSocketTransportUnavailable(t *testing.T) {
	t.Parallel()
	transport := out.NewSocketTransport(filepath.Join(t.TempDir(), "missing.sock"), time.Second)
	_, err := transport.Call(context.Background(), domain.Request{Op: dto.OpPing})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend unavailable, got %v", err)
	}
}

func TestResolveBinary(t *testing.T) {
	t.Parallel()
	if _, err := out.ResolveBinary(""); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable for empty path, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := out.ResolveBinary(missing); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable for missing binary, got %v", err)
	}
}

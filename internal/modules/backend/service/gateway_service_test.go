package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
	"devdeck/internal/modules/backend/service"
)

type fakeTransport struct {
	calls    []domain.Request
	response domain.Response
	err      error
	deadline bool
}

func (f *fakeTransport) Call(ctx context.Context, req domain.Request) (domain.Response, error) {
	f.calls = append(f.calls, req)
	_, f.deadline = ctx.Deadline()
	return f.response, f.err
}

func (f *fakeTransport) Close() error { return nil }

func TestInvokeEncodesArgsAndDecodesResult(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{response: domain.Succeed(dto.FileListing{Exists: true, Files: []dto.ConfigFile{{Path: "/h/.npmrc", Name: ".npmrc", Dir: "."}}})}
	svc := service.NewGatewayService(transport, time.Minute, nil)

	listing := dto.FileListing{}
	if err := svc.Invoke(context.Background(), dto.OpListFilesRecursive, dto.DirArgs{DirPath: "/h/.npm"}, &listing); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !listing.Exists || len(listing.Files) != 1 {
		t.Fatalf("unexpected listing: %+v", listing)
	}
	if len(transport.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(transport.calls))
	}
	args := dto.DirArgs{}
	if err := json.Unmarshal(transport.calls[0].Args, &args); err != nil || args.DirPath != "/h/.npm" {
		t.Fatalf("unexpected args on the wire: %s", transport.calls[0].Args)
	}
	if !transport.deadline {
		t.Fatalf("call timeout must be applied")
	}
}

func TestInvokeMapsBackendError(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{response: domain.Response{Error: "npm not found"}}
	svc := service.NewGatewayService(transport, time.Minute, nil)

	err := svc.Invoke(context.Background(), dto.OpUpdateTool, dto.ToolArgs{Source: "npm", FullName: "eslint"}, nil)
	var opErr *dto.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected operation error, got %v", err)
	}
	if opErr.Op != dto.OpUpdateTool || opErr.Message != "npm not found" {
		t.Fatalf("unexpected operation error: %+v", opErr)
	}
}

func TestInvokeWrapsTransportError(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{err: domain.ErrBackendUnavailable}
	svc := service.NewGatewayService(transport, time.Minute, nil)
	err := svc.Invoke(context.Background(), dto.OpScan, dto.ScanArgs{Source: "npm"}, nil)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestInvokeRejectsUnknownOperation(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{}
	svc := service.NewGatewayService(transport, time.Minute, nil)
	err := svc.Invoke(context.Background(), dto.Operation("formatDisk"), nil, nil)
	if !errors.Is(err, domain.ErrUnknownOperation) {
		t.Fatalf("expected unknown operation, got %v", err)
	}
	if len(transport.calls) != 0 {
		t.Fatalf("unknown operations must not reach the transport")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{response: domain.Succeed(dto.PingOutput{Name: "devdeck-backend", Version: "1.0.0", Home: "/home/dev"})}
	svc := service.NewGatewayService(transport, 0, nil)
	pong, err := svc.Ping(context.Background())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if pong.Home != "/home/dev" {
		t.Fatalf("unexpected ping: %+v", pong)
	}
	if transport.deadline {
		t.Fatalf("zero timeout must not add a deadline")
	}
}

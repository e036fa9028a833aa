package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"time"

	"devdeck/internal/modules/backend/domain"
	backendout "devdeck/internal/modules/backend/port/out"
)

const socketServiceName = "Backend"

// SocketServer exposes a Handler as JSON-RPC on a unix socket, for a backend
// that runs as a long-lived privileged daemon.
type SocketServer struct{}

// SocketTransport dials the daemon once per call.
type SocketTransport struct {
	socketPath string
	deadline   time.Duration
}

func NewSocketServer() backendout.Server {
	return &SocketServer{}
}

func NewSocketTransport(socketPath string, deadline time.Duration) backendout.Transport {
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	return &SocketTransport{socketPath: socketPath, deadline: deadline}
}

type rpcHandler struct {
	ctx context.Context
	h   backendout.Handler
}

func (s *rpcHandler) Invoke(req domain.Request, resp *domain.Response) error {
	*resp = s.h.Handle(s.ctx, req)
	return nil
}

func (s *SocketServer) Serve(ctx context.Context, socketPath string, handler backendout.Handler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(socketServiceName, &rpcHandler{ctx: ctx, h: handler}); err != nil {
		return fmt.Errorf("register socket handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (t *SocketTransport) Call(ctx context.Context, req domain.Request) (domain.Response, error) {
	client, err := t.dial(ctx)
	if err != nil {
		return domain.Response{}, err
	}
	defer client.Close()

	resp := domain.Response{}
	call := client.Go(socketServiceName+".Invoke", req, &resp, nil)
	select {
	case <-ctx.Done():
		return domain.Response{}, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return domain.Response{}, fmt.Errorf("socket call %s: %w", req.Op, done.Error)
		}
	}
	return resp, nil
}

func (t *SocketTransport) Close() error {
	return nil
}

func (t *SocketTransport) dial(ctx context.Context) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrBackendUnavailable, t.socketPath, err)
	}
	deadline := time.Now().Add(t.deadline)
	if ctxDeadline, ok := ctx.Deadline(); ok {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}

package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
	backendout "devdeck/internal/modules/backend/port/out"
)

type handlerServer struct {
	handler backendout.Handler
}

// HandlerServer adapts a request handler to the gRPC service the host dials.
func HandlerServer(handler backendout.Handler) BackendServer {
	return &handlerServer{handler: handler}
}

func (s *handlerServer) Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error) {
	req := domain.Request{Op: dto.Operation(in.Op)}
	if in.ArgsJSON != "" {
		req.Args = json.RawMessage(in.ArgsJSON)
	}
	resp := s.handler.Handle(ctx, req)
	return &InvokeResponse{ResultJSON: string(resp.Result), Error: resp.Error}, nil
}

func (s *handlerServer) Ping(ctx context.Context, _ *Empty) (*PingResponse, error) {
	resp := s.handler.Handle(ctx, domain.Request{Op: dto.OpPing})
	if resp.Error != "" {
		return nil, fmt.Errorf("ping: %s", resp.Error)
	}
	out := dto.PingOutput{}
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		return nil, fmt.Errorf("decode ping: %w", err)
	}
	return &PingResponse{Name: out.Name, Version: out.Version, Home: out.Home}, nil
}

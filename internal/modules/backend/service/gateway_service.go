package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"devdeck/internal/modules/backend/domain"
	"devdeck/internal/modules/backend/dto"
	backendout "devdeck/internal/modules/backend/port/out"

	hclog "github.com/hashicorp/go-hclog"
)

type GatewayService struct {
	transport   backendout.Transport
	callTimeout time.Duration
	logger      hclog.Logger
}

func NewGatewayService(transport backendout.Transport, callTimeout time.Duration, logger hclog.Logger) *GatewayService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GatewayService{transport: transport, callTimeout: callTimeout, logger: logger.Named("gateway")}
}

func (s *GatewayService) Invoke(ctx context.Context, op dto.Operation, args any, out any) error {
	req := domain.Request{Op: op}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("encode %s args: %w", op, err)
		}
		req.Args = raw
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if s.transport == nil {
		return fmt.Errorf("%w: no transport", domain.ErrBackendUnavailable)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	started := time.Now()
	resp, err := s.transport.Call(callCtx, req)
	if err != nil {
		s.logger.Warn("backend call failed", "op", op, "error", err)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("call %s: timed out after %s: %w", op, s.callTimeout, err)
		}
		return fmt.Errorf("call %s: %w", op, err)
	}
	s.logger.Debug("backend call", "op", op, "elapsed", time.Since(started))
	if resp.Error != "" {
		return &dto.OperationError{Op: op, Message: resp.Error}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	return nil
}

func (s *GatewayService) Ping(ctx context.Context) (dto.PingOutput, error) {
	out := dto.PingOutput{}
	if err := s.Invoke(ctx, dto.OpPing, nil, &out); err != nil {
		return dto.PingOutput{}, err
	}
	return out, nil
}

func (s *GatewayService) Close() error {
	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}

func (s *GatewayService) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok || s.callTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.callTimeout)
}

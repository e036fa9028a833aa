package in

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
)

type CLIHandler struct {
	usecase backendin.Usecase
}

func NewCLIHandler(usecase backendin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Ping(ctx context.Context) (dto.PingOutput, error) {
	return h.usecase.Ping(ctx)
}

// Invoke runs a raw operation with JSON arguments and returns the raw result.
func (h CLIHandler) Invoke(ctx context.Context, op string, argsJSON string) (json.RawMessage, error) {
	var args any
	if trimmed := strings.TrimSpace(argsJSON); trimmed != "" {
		raw := json.RawMessage(trimmed)
		if !json.Valid(raw) {
			return nil, fmt.Errorf("args must be valid JSON")
		}
		args = raw
	}
	var out json.RawMessage
	if err := h.usecase.Invoke(ctx, dto.Operation(op), args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

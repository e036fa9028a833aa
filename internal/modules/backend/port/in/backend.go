package in

import (
	"context"

	"devdeck/internal/modules/backend/dto"
)

// Gateway is the single call contract every other module uses to reach the
// backend. args is encoded as JSON; out, when non-nil, receives the decoded
// result. Backend-reported failures are returned as *dto.OperationError.
type Gateway interface {
	Invoke(ctx context.Context, op dto.Operation, args any, out any) error
}

type Usecase interface {
	Gateway
	Ping(ctx context.Context) (dto.PingOutput, error)
}

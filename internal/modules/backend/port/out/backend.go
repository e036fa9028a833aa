package out

import (
	"context"

	"devdeck/internal/modules/backend/domain"
)

// Transport moves one request to the backend and returns its response.
type Transport interface {
	Call(ctx context.Context, req domain.Request) (domain.Response, error)
	Close() error
}

// Handler is implemented by the backend process to answer requests.
type Handler interface {
	Handle(ctx context.Context, req domain.Request) domain.Response
}

// Server exposes a Handler on a unix socket.
type Server interface {
	Serve(ctx context.Context, socketPath string, handler Handler) error
}

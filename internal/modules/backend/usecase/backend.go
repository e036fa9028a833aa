package usecase

import (
	"context"

	"devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
	"devdeck/internal/modules/backend/service"
)

type Interactor struct {
	svc *service.GatewayService
}

func NewInteractor(svc *service.GatewayService) backendin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Invoke(ctx context.Context, op dto.Operation, args any, out any) error {
	return i.svc.Invoke(ctx, op, args, out)
}

func (i *Interactor) Ping(ctx context.Context) (dto.PingOutput, error) {
	return i.svc.Ping(ctx)
}

package usecase

import (
	"context"

	"devdeck/internal/modules/versions/dto"
	versionsin "devdeck/internal/modules/versions/port/in"
	"devdeck/internal/modules/versions/service"
)

type Interactor struct {
	svc *service.VersionService
}

func NewInteractor(svc *service.VersionService) versionsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Open(ctx context.Context, key string) (dto.Workflow, error) {
	snap, err := i.svc.Open(ctx, key)
	return toDTO(snap), err
}

func (i *Interactor) Load(ctx context.Context) (dto.Workflow, error) {
	snap, err := i.svc.Load(ctx)
	return toDTO(snap), err
}

func (i *Interactor) Switch(ctx context.Context, version string) (dto.Workflow, error) {
	snap, err := i.svc.Switch(ctx, version)
	return toDTO(snap), err
}

func (i *Interactor) Acknowledge(context.Context) (dto.Workflow, error) {
	snap, err := i.svc.Acknowledge()
	return toDTO(snap), err
}

func (i *Interactor) Close(context.Context) dto.Workflow {
	return toDTO(i.svc.Close())
}

func (i *Interactor) Current(context.Context) dto.Workflow {
	return toDTO(i.svc.Snapshot())
}

func (i *Interactor) Runtimes(ctx context.Context) ([]dto.Runtime, error) {
	runtimes, err := i.svc.Runtimes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Runtime, 0, len(runtimes))
	for _, r := range runtimes {
		out = append(out, dto.Runtime{Name: r.Name, Version: r.Version, Path: r.Path, Manager: r.Manager, Installed: r.Installed()})
	}
	return out, nil
}

func toDTO(snap service.Snapshot) dto.Workflow {
	wf := snap.Workflow
	out := dto.Workflow{
		ToolKey: wf.ToolKey(),
		State:   string(wf.State()),
		Current: wf.Current(),
		Target:  wf.Target(),
		Error:   wf.Err(),
		Message: snap.Message,
	}
	for _, c := range wf.Candidates() {
		out.Candidates = append(out.Candidates, dto.Candidate{Version: c.Version, Active: c.Active})
	}
	return out
}

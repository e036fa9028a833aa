package in

import (
	"context"

	"devdeck/internal/modules/configedit/dto"
)

type Usecase interface {
	Discover(ctx context.Context, toolKey string) (dto.DiscoverOutput, error)
	Load(ctx context.Context, path string) (dto.Document, error)
	// SaveFields re-reads the file, applies the edits and writes it back.
	// Nothing is written if any edit is rejected.
	SaveFields(ctx context.Context, input dto.SaveFieldsInput) (dto.Document, error)
	SaveRaw(ctx context.Context, input dto.SaveRawInput) error
}

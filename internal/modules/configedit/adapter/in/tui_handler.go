package in

import (
	"context"

	"devdeck/internal/modules/configedit/dto"
	configin "devdeck/internal/modules/configedit/port/in"
)

type TUIHandler struct {
	usecase configin.Usecase
}

func NewTUIHandler(usecase configin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Discover(ctx context.Context, toolKey string) (dto.DiscoverOutput, error) {
	return h.usecase.Discover(ctx, toolKey)
}

func (h TUIHandler) Load(ctx context.Context, path string) (dto.Document, error) {
	return h.usecase.Load(ctx, path)
}

// Save writes field edits for structured documents and raw text otherwise.
func (h TUIHandler) Save(ctx context.Context, doc dto.Document, edits map[string]string) (dto.Document, error) {
	if doc.Structured {
		return h.usecase.SaveFields(ctx, dto.SaveFieldsInput{Path: doc.Path, Edits: edits})
	}
	if err := h.usecase.SaveRaw(ctx, dto.SaveRawInput{Path: doc.Path, Raw: doc.Raw}); err != nil {
		return dto.Document{}, err
	}
	return h.usecase.Load(ctx, doc.Path)
}

package usecase

import (
	"context"
	"encoding/json"

	"devdeck/internal/modules/configedit/domain"
	"devdeck/internal/modules/configedit/dto"
	configin "devdeck/internal/modules/configedit/port/in"
	"devdeck/internal/modules/configedit/service"
)

type Interactor struct {
	svc *service.ConfigService
}

func NewInteractor(svc *service.ConfigService) configin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Discover(ctx context.Context, toolKey string) (dto.DiscoverOutput, error) {
	found, err := i.svc.Discover(ctx, toolKey)
	if err != nil {
		return dto.DiscoverOutput{}, err
	}
	out := dto.DiscoverOutput{ToolKey: toolKey, Files: toFiles(found.Files)}
	for _, g := range domain.GroupByDir(found.Files) {
		out.Groups = append(out.Groups, dto.DirGroup{Dir: g.Dir, Files: toFiles(g.Files)})
	}
	for _, p := range found.Lookups {
		lookup := dto.Lookup{Dir: p.Dir, Status: string(p.Status), Files: len(p.Files)}
		if p.Err != nil {
			lookup.Error = p.Err.Error()
		}
		out.Lookups = append(out.Lookups, lookup)
	}
	return out, nil
}

func (i *Interactor) Load(ctx context.Context, path string) (dto.Document, error) {
	doc, err := i.svc.Load(ctx, path)
	if err != nil {
		return dto.Document{}, err
	}
	return toDocument(doc), nil
}

func (i *Interactor) SaveFields(ctx context.Context, input dto.SaveFieldsInput) (dto.Document, error) {
	doc, err := i.svc.SaveFields(ctx, input.Path, input.Edits)
	if err != nil {
		return dto.Document{}, err
	}
	return toDocument(doc), nil
}

func (i *Interactor) SaveRaw(ctx context.Context, input dto.SaveRawInput) error {
	return i.svc.SaveRaw(ctx, input.Path, input.Raw)
}

func toFiles(files []domain.ConfigFile) []dto.ConfigFile {
	out := make([]dto.ConfigFile, 0, len(files))
	for _, f := range files {
		out = append(out, dto.ConfigFile{Path: f.Path, Name: f.Name, Dir: f.Dir, Root: f.Root})
	}
	return out
}

func toDocument(doc domain.Document) dto.Document {
	out := dto.Document{Path: doc.Path, Structured: doc.Structured, Raw: doc.Raw}
	for _, key := range doc.Flat.Keys {
		v := doc.Flat.Values[key]
		out.Fields = append(out.Fields, dto.Field{Key: key, Value: domain.FormatValue(v), Kind: kindOf(v)})
	}
	return out
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case nil:
		return "null"
	case []any:
		return "array"
	default:
		return "object"
	}
}

package service

import (
	"context"
	"fmt"
	"sort"

	"devdeck/internal/modules/configedit/domain"
	configout "devdeck/internal/modules/configedit/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

type ConfigService struct {
	fs     configout.FileSystem
	tools  configout.ToolDirectory
	logger hclog.Logger
}

func NewConfigService(fs configout.FileSystem, tools configout.ToolDirectory, logger hclog.Logger) *ConfigService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ConfigService{fs: fs, tools: tools, logger: logger.Named("configedit")}
}

// Discover looks in every candidate directory of a tool. Missing directories and
// failed listings only lose their own files.
func (s *ConfigService) Discover(ctx context.Context, toolKey string) (domain.Discovery, error) {
	name, source, err := s.tools.Lookup(ctx, toolKey)
	if err != nil {
		return domain.Discovery{}, fmt.Errorf("lookup tool: %w", err)
	}
	home, err := s.fs.HomePath(ctx)
	if err != nil {
		return domain.Discovery{}, fmt.Errorf("resolve home: %w", err)
	}
	return domain.Collect(s.lookupAll(ctx, domain.CandidateDirs(home, name, source))), nil
}

func (s *ConfigService) lookupAll(ctx context.Context, dirs []string) []domain.Lookup {
	lookups := make([]domain.Lookup, len(dirs))
	var g errgroup.Group
	for i, dir := range dirs {
		g.Go(func() error {
			lookups[i] = s.lookup(ctx, dir)
			return nil
		})
	}
	_ = g.Wait()
	return lookups
}

func (s *ConfigService) lookup(ctx context.Context, dir string) domain.Lookup {
	files, exists, err := s.fs.ListFilesRecursive(ctx, dir)
	switch {
	case err != nil:
		s.logger.Warn("config lookup failed", "dir", dir, "error", err)
		return domain.Lookup{Dir: dir, Status: domain.LookupError, Err: err}
	case !exists:
		return domain.Lookup{Dir: dir, Status: domain.LookupNotPresent}
	default:
		return domain.Lookup{Dir: dir, Status: domain.LookupFound, Files: files}
	}
}

func (s *ConfigService) Load(ctx context.Context, path string) (domain.Document, error) {
	if path == "" {
		return domain.Document{}, fmt.Errorf("load config: empty path")
	}
	raw, err := s.fs.ReadFile(ctx, path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return domain.ParseDocument(path, raw), nil
}

// SaveFields applies edits to the current file contents. Every edit is
// validated before anything is written.
func (s *ConfigService) SaveFields(ctx context.Context, path string, edits map[string]string) (domain.Document, error) {
	doc, err := s.Load(ctx, path)
	if err != nil {
		return domain.Document{}, err
	}
	if !doc.Structured {
		return domain.Document{}, fmt.Errorf("save fields: %s is not a JSON object", path)
	}
	keys := make([]string, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := doc.Flat.SetField(k, edits[k]); err != nil {
			return domain.Document{}, err
		}
	}
	return s.Save(ctx, doc)
}

// SaveRaw writes text verbatim.
func (s *ConfigService) SaveRaw(ctx context.Context, path, raw string) error {
	_, err := s.Save(ctx, domain.Document{Path: path, Raw: raw})
	return err
}

// Save renders doc and writes it. The returned document reflects what was
// written.
func (s *ConfigService) Save(ctx context.Context, doc domain.Document) (domain.Document, error) {
	content, err := doc.Render()
	if err != nil {
		return domain.Document{}, fmt.Errorf("render config %s: %w", doc.Path, err)
	}
	if err := s.fs.WriteFile(ctx, doc.Path, content); err != nil {
		return domain.Document{}, fmt.Errorf("write config %s: %w", doc.Path, err)
	}
	s.logger.Info("config saved", "path", doc.Path, "structured", doc.Structured)
	doc.Raw = content
	return doc, nil
}

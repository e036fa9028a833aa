package out

import (
	"context"
	"fmt"

	backenddto "devdeck/internal/modules/backend/dto"
	backendin "devdeck/internal/modules/backend/port/in"
	"devdeck/internal/modules/configedit/domain"
	configout "devdeck/internal/modules/configedit/port/out"
)

// GatewayFS reads and writes the user's files through the backend.
type GatewayFS struct {
	gateway backendin.Gateway
}

func NewGatewayFS(gateway backendin.Gateway) configout.FileSystem {
	return &GatewayFS{gateway: gateway}
}

func (f *GatewayFS) HomePath(ctx context.Context) (string, error) {
	var home string
	if err := f.gateway.Invoke(ctx, backenddto.OpGetHomePath, nil, &home); err != nil {
		return "", err
	}
	if home == "" {
		return "", fmt.Errorf("backend reported an empty home path")
	}
	return home, nil
}

func (f *GatewayFS) ListFilesRecursive(ctx context.Context, dir string) ([]domain.ConfigFile, bool, error) {
	listing := backenddto.FileListing{}
	if err := f.gateway.Invoke(ctx, backenddto.OpListFilesRecursive, backenddto.DirArgs{DirPath: dir}, &listing); err != nil {
		return nil, false, err
	}
	files := make([]domain.ConfigFile, 0, len(listing.Files))
	for _, file := range listing.Files {
		files = append(files, domain.ConfigFile{Path: file.Path, Name: file.Name, Dir: file.Dir, Root: dir})
	}
	return files, listing.Exists, nil
}

func (f *GatewayFS) ReadFile(ctx context.Context, path string) (string, error) {
	var content string
	if err := f.gateway.Invoke(ctx, backenddto.OpReadFile, backenddto.PathArgs{Path: path}, &content); err != nil {
		return "", err
	}
	return content, nil
}

func (f *GatewayFS) WriteFile(ctx context.Context, path, content string) error {
	return f.gateway.Invoke(ctx, backenddto.OpWriteFile, backenddto.WriteArgs{Path: path, Content: content}, nil)
}

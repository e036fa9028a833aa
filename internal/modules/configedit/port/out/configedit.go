package out

import (
	"context"

	"devdeck/internal/modules/configedit/domain"
)

// FileSystem is the backend's view of the user's files.
type FileSystem interface {
	HomePath(ctx context.Context) (string, error)
	// ListFilesRecursive reports exists=false, not an error, for a missing dir.
	ListFilesRecursive(ctx context.Context, dir string) (files []domain.ConfigFile, exists bool, err error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
}

// ToolDirectory resolves a tool key to the name and source discovery uses.
type ToolDirectory interface {
	Lookup(ctx context.Context, key string) (name, source string, err error)
}

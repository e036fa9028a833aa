package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"devdeck/internal/modules/backend/dto"
)

var configExtensions = map[string]bool{".json": true, ".toml": true, ".yaml": true, ".yml": true}

var skippedDirs = map[string]bool{
	"node_modules": true, "cache": true, "_cacache": true,
	".git": true, ".svn": true, ".hg": true,
	"target": true, "dist": true, "build": true, "__pycache__": true,
}

// listConfigFiles walks root for config files. Dir is the slash-separated
// directory relative to root, "." for files directly inside it.
func listConfigFiles(root string) (dto.FileListing, error) {
	if root == "" {
		return dto.FileListing{}, fmt.Errorf("directory is required")
	}
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return dto.FileListing{Files: []dto.ConfigFile{}, Exists: false}, nil
	}
	if err != nil {
		return dto.FileListing{}, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return dto.FileListing{Files: []dto.ConfigFile{}, Exists: false}, nil
	}

	files := []dto.ConfigFile{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are skipped.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !configExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		files = append(files, dto.ConfigFile{Path: path, Name: d.Name(), Dir: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return dto.FileListing{}, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Dir != files[j].Dir {
			return files[i].Dir < files[j].Dir
		}
		return files[i].Name < files[j].Name
	})
	return dto.FileListing{Files: files, Exists: true}, nil
}

func readFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}

func writeFile(path, content string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// dirSize sums regular file sizes under root, ignoring unreadable entries.
func dirSize(root string) uint64 {
	var total uint64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += uint64(info.Size())
			}
		}
		return nil
	})
	return total
}

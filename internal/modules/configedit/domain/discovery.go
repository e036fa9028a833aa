package domain

import (
	"path"
	"sort"
	"strings"
)

// RootDir is the Dir of files that sit directly in a candidate directory.
const RootDir = "."

// ConfigFile is one listed file. Root is the candidate directory it was found
// under and Dir its directory relative to Root.
type ConfigFile struct {
	Path string
	Name string
	Dir  string
	Root string
}

type LookupStatus string

const (
	LookupFound      LookupStatus = "found"
	LookupNotPresent LookupStatus = "not-present"
	LookupError      LookupStatus = "error"
)

// Lookup is the outcome of listing one candidate directory.
type Lookup struct {
	Dir    string
	Status LookupStatus
	Files   []ConfigFile
	Err    error
}

// Discovery holds the files found across every lookup, in lookup order.
type Discovery struct {
	Files   []ConfigFile
	Lookups []Lookup
}

var knownConfigDirs = map[string][]string{
	"claudecode": {".claude"},
	"claude":     {".claude"},
	"eslint":     {".eslintrc", ".config/eslint"},
	"prettier":   {".prettierrc", ".config/prettier"},
	"typescript": {".config/typescript"},
	"npm":        {".npm", ".npmrc"},
	"pnpm":       {".pnpm", ".config/pnpm"},
	"yarn":       {".yarn", ".yarnrc"},
}

var sourceConfigDirs = map[string][]string{
	"cargo": {".cargo"},
	"pip":   {".pip", ".config/pip"},
}

// CandidateDirs lists the directories worth listing for a tool, without
// duplicates and in first-seen order.
func CandidateDirs(home, toolName, source string) []string {
	lower := strings.ToLower(toolName)
	var rel []string
	rel = append(rel, knownConfigDirs[strings.ReplaceAll(lower, "-", "")]...)
	rel = append(rel, "."+lower, ".config/"+lower)
	rel = append(rel, sourceConfigDirs[source]...)

	seen := map[string]struct{}{}
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		dir := path.Join(home, r)
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	return out
}

// Collect aggregates files from found lookups only. Nested candidates can list
// the same file twice; the first lookup to list a path keeps it.
func Collect(lookups []Lookup) Discovery {
	out := Discovery{Lookups: lookups}
	seen := map[string]struct{}{}
	for _, p := range lookups {
		if p.Status != LookupFound {
			continue
		}
		for _, f := range p.Files {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			if f.Root == "" {
				f.Root = p.Dir
			}
			out.Files = append(out.Files, f)
		}
	}
	return out
}

type DirGroup struct {
	Dir   string
	Files []ConfigFile
}

// GroupByDir buckets files by directory with directory names sorted. A file
// with a Root is keyed by its full directory, so the top levels of two
// candidates stay apart. Files with neither land in RootDir.
func GroupByDir(files []ConfigFile) []DirGroup {
	byDir := map[string][]ConfigFile{}
	for _, f := range files {
		byDir[f.GroupDir()] = append(byDir[f.GroupDir()], f)
	}
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	groups := make([]DirGroup, 0, len(dirs))
	for _, dir := range dirs {
		groups = append(groups, DirGroup{Dir: dir, Files: byDir[dir]})
	}
	return groups
}

// GroupDir is the directory a file is listed under.
func (f ConfigFile) GroupDir() string {
	dir := f.Dir
	if dir == "" {
		dir = RootDir
	}
	if f.Root == "" {
		return dir
	}
	return path.Join(f.Root, dir)
}

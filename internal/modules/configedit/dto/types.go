package dto

type ConfigFile struct {
	Path string
	Name string
	Dir  string
	Root string
}

type DirGroup struct {
	Dir   string
	Files []ConfigFile
}

type Lookup struct {
	Dir    string
	Status string
	Files  int
	Error  string
}

type DiscoverOutput struct {
	ToolKey string
	Files   []ConfigFile
	Groups  []DirGroup
	Lookups []Lookup
}

type Field struct {
	Key   string
	Value string
	Kind  string
}

// Document is a loaded config file. Fields is set for structured documents,
// Raw always holds the file text as read.
type Document struct {
	Path       string
	Structured bool
	Raw        string
	Fields     []Field
}

type SaveFieldsInput struct {
	Path  string
	Edits map[string]string
}

type SaveRawInput struct {
	Path string
	Raw  string
}

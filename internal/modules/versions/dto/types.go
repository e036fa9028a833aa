package dto

type Candidate struct {
	Version string
	Active  bool
}

// Workflow is a snapshot of the version picker for one tool.
type Workflow struct {
	ToolKey    string
	State      string
	Current    string
	Candidates []Candidate
	Target     string
	Error      string
	Message    string
}

type Runtime struct {
	Name      string
	Version   string
	Path      string
	Manager   string
	Installed bool
}

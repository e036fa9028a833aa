package domain

// Runtime is a language runtime as found on PATH. Version and Path are empty
// when it is not installed; Manager names the version manager that owns it,
// if any was recognised.
type Runtime struct {
	Name    string
	Version string
	Path    string
	Manager string
}

func (r Runtime) Installed() bool {
	return r.Version != ""
}

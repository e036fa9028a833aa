// Package dto is the wire contract shared by gateway clients and the backend
// process. Field names are the JSON argument names of each operation.
package dto

import "fmt"

type Operation string

const (
	OpPing               Operation = "ping"
	OpScan               Operation = "scan"
	OpUpdateTool         Operation = "updateTool"
	OpUninstallTool      Operation = "uninstallTool"
	OpBatchUpdate        Operation = "batchUpdate"
	OpBatchUninstall     Operation = "batchUninstall"
	OpListVersions       Operation = "listVersions"
	OpInstallVersion     Operation = "installVersion"
	OpListFilesRecursive Operation = "listFilesRecursive"
	OpReadFile           Operation = "readFile"
	OpWriteFile          Operation = "writeFile"
	OpGetHomePath        Operation = "getHomePath"
	OpScanPorts          Operation = "scanPorts"
	OpScanProcesses      Operation = "scanProcesses"
	OpScanCaches         Operation = "scanCaches"
	OpClearCache         Operation = "clearCache"
	OpKillProcess        Operation = "killProcess"
	OpEnvVariables       Operation = "envVariables"
	OpPathEntries        Operation = "pathEntries"
	OpSearchPackages     Operation = "searchPackages"
	OpInstallPackage     Operation = "installPackage"
	OpRuntimeVersions    Operation = "runtimeVersions"
)

// OperationError is a failure reported by the backend itself, as opposed to
// a transport failure. Message is meant for the user.
type OperationError struct {
	Op      Operation
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

type PingOutput struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Home    string `json:"home"`
}

type ScanArgs struct {
	Source string `json:"source"`
}

type Tool struct {
	Name        string  `json:"name"`
	Scope       *string `json:"scope"`
	FullName    string  `json:"full_name"`
	Version     *string `json:"version"`
	Source      string  `json:"source"`
	InstallPath string  `json:"install_path"`
	SizeBytes   uint64  `json:"size_bytes"`
	Description *string `json:"description"`
}

type ToolArgs struct {
	Source   string `json:"source"`
	FullName string `json:"fullName"`
}

type BatchItem struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

type BatchArgs struct {
	Items []BatchItem `json:"items"`
}

type BatchResult struct {
	Source  string `json:"source,omitempty"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VersionArgs struct {
	FullName string `json:"fullName"`
	Version  string `json:"version,omitempty"`
}

type DirArgs struct {
	DirPath string `json:"dirPath"`
}

type ConfigFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type FileListing struct {
	Files  []ConfigFile `json:"files"`
	Exists bool         `json:"exists"`
}

type PathArgs struct {
	Path string `json:"path"`
}

type WriteArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type Port struct {
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
	PID         int    `json:"pid"`
	ProcessName string `json:"process_name"`
	State       string `json:"state"`
}

type Process struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_usage"`
	MemoryMB   float64 `json:"memory_mb"`
	Status     string  `json:"status"`
}

type Cache struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes uint64 `json:"size_bytes"`
	Exists    bool   `json:"exists"`
}

type CacheArgs struct {
	Name string `json:"name"`
}

type KillArgs struct {
	PID int `json:"pid"`
}

type EnvVariable struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	IsPath bool   `json:"is_path"`
}

type SearchArgs struct {
	Source string `json:"source"`
	Query  string `json:"query"`
}

type PackageSearchResult struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type InstallArgs struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// RuntimeVersion describes one language runtime found on PATH. Version and
// Path are empty when the runtime is not installed.
type RuntimeVersion struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path,omitempty"`
	Manager string `json:"manager,omitempty"`
}

// Message is the confirmation string most mutating operations return.
type Message struct {
	Message string `json:"message"`
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"devdeck/internal/modules/backend/dto"
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrChecksumMismatch   = errors.New("backend checksum mismatch")
	ErrUnknownOperation   = errors.New("unknown backend operation")
)

var knownOperations = map[dto.Operation]struct{}{
	dto.OpPing: {}, dto.OpScan: {}, dto.OpUpdateTool: {}, dto.OpUninstallTool: {},
	dto.OpBatchUpdate: {}, dto.OpBatchUninstall: {}, dto.OpListVersions: {}, dto.OpInstallVersion: {},
	dto.OpListFilesRecursive: {}, dto.OpReadFile: {}, dto.OpWriteFile: {}, dto.OpGetHomePath: {},
	dto.OpScanPorts: {}, dto.OpScanProcesses: {}, dto.OpScanCaches: {}, dto.OpClearCache: {},
	dto.OpKillProcess: {}, dto.OpEnvVariables: {}, dto.OpPathEntries: {},
	dto.OpSearchPackages: {}, dto.OpInstallPackage: {}, dto.OpRuntimeVersions: {},
}

func ValidateOperation(op dto.Operation) error {
	if _, ok := knownOperations[op]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	return nil
}

// Request is one gateway call as it travels over a transport.
type Request struct {
	Op   dto.Operation   `json:"op"`
	Args json.RawMessage `json:"args"`
}

func (r Request) Validate() error {
	if err := ValidateOperation(r.Op); err != nil {
		return err
	}
	if len(r.Args) > 0 && !json.Valid(r.Args) {
		return fmt.Errorf("args for %s must be valid JSON", r.Op)
	}
	return nil
}

// Response carries either a JSON result or a backend error message.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Succeed encodes v as the result of a response.
func Succeed(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		return Fail(fmt.Errorf("encode result: %w", err))
	}
	return Response{Result: raw}
}

func Fail(err error) Response {
	return Response{Error: err.Error()}
}

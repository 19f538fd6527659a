// File: internal/session/storage.go
package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	homedir "github.com/mitchellh/go-homedir"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CanonicalizePath expands a leading "~", resolves the path against the
// current working directory, and normalizes redundant segments. The target
// does not need to exist yet.
func CanonicalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", NewConfigError("output_path must be a non-empty path")
	}

	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", NewConfigError("cannot expand home directory in %q: %v", path, err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", NewConfigError("cannot resolve path %q: %v", path, err)
	}
	return filepath.Clean(abs), nil
}

// ValidateTarget enforces the output-target rules shared by the interactive
// capture and the CDP export: an existing file requires overwrite, and an
// existing directory is never a valid target.
func ValidateTarget(path string, overwrite bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return NewConfigError("cannot inspect storage_state output %s: %v", path, err)
	}

	if info.IsDir() {
		return NewConfigError("storage_state output path is a directory: %s", path)
	}
	if !overwrite {
		return NewConfigError("storage_state output already exists: %s (use overwrite to replace)", path)
	}
	return nil
}

// WriteStorageState persists the captured payload as UTF-8 JSON, creating
// parent directories as needed, then re-reads and re-parses the file to
// confirm it holds a JSON object. The write is not crash-atomic: the
// round-trip check only detects corruption within the same call.
func WriteStorageState(path string, payload map[string]any) error {
	if payload == nil {
		return NewRuntimeError("captured storage_state must be a JSON object")
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return WrapRuntimeError(err, "failed to serialize storage_state")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapRuntimeError(err, "failed to create parent directory for %s", path)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return WrapRuntimeError(err, "failed to write storage_state to %s", path)
	}

	// Deterministic post-write validation.
	written, err := os.ReadFile(path)
	if err != nil {
		return WrapRuntimeError(err, "failed to re-read storage_state from %s", path)
	}
	var parsed any
	if err := json.Unmarshal(written, &parsed); err != nil {
		return WrapRuntimeError(err, "written storage_state is not valid JSON: %s", path)
	}
	if _, ok := parsed.(map[string]any); !ok {
		return NewRuntimeError("written storage_state is not a JSON object: %s", path)
	}
	return nil
}

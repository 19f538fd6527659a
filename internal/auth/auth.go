// File: internal/auth/auth.go

// Package auth validates and canonicalizes caller-supplied authentication
// references into a resolved, file-backed contract consumable by browser
// driver configuration.
package auth

import (
	"errors"
	"os"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
	"github.com/xkilldash9x/authcap-cli/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StorageStateKey is the single recognized field of an auth reference.
const StorageStateKey = "storage_state"

// Input is the closed set of auth reference shapes a caller may supply:
// a structured config value, a string-keyed map, or an already-resolved
// value.
type Input interface {
	authInput()
}

// ConfigInput is the structured auth reference.
type ConfigInput struct {
	StorageState string
}

func (ConfigInput) authInput() {}

// MapInput is the loosely-typed auth reference, e.g. decoded from JSON.
// Any key other than "storage_state" is rejected by name.
type MapInput map[string]any

func (MapInput) authInput() {}

// Resolved is a validated auth contract. StorageState, when non-empty, is an
// absolute path that existed, was a regular file, and parsed as a JSON
// object at resolution time. A Resolved value passed back into Resolve is
// returned unchanged.
type Resolved struct {
	StorageState string
}

func (*Resolved) authInput() {}

// Schema converts the resolved contract to its wire representation.
func (r *Resolved) Schema() schemas.ResolvedAuth {
	if r == nil {
		return schemas.ResolvedAuth{}
	}
	return schemas.ResolvedAuth{StorageState: r.StorageState}
}

// coerce normalizes any Input variant to the storage-state reference string,
// rejecting unsupported map keys by name.
func coerce(input Input) (string, error) {
	switch v := input.(type) {
	case ConfigInput:
		return v.StorageState, nil
	case MapInput:
		var unknown []string
		for key := range v {
			if key != StorageStateKey {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return "", session.NewConfigError(
				"unsupported auth fields: %s (only %q is recognized)",
				strings.Join(unknown, ", "), StorageStateKey)
		}
		raw, ok := v[StorageStateKey]
		if !ok || raw == nil {
			return "", nil
		}
		value, ok := raw.(string)
		if !ok {
			return "", session.NewConfigError("auth field %q must be a string, got %T", StorageStateKey, raw)
		}
		return value, nil
	default:
		return "", session.NewConfigError("unsupported auth input type %T", input)
	}
}

// Resolve validates an auth reference and returns the canonical file-backed
// contract. A nil input resolves to nil, an empty storage-state reference
// resolves to nil, and an already-resolved value passes through unchanged.
// The returned contract carries the canonical path, never the parsed
// content: consumers re-read the file when configuring a browser driver.
func Resolve(input Input) (*Resolved, error) {
	if input == nil {
		return nil, nil
	}
	if resolved, ok := input.(*Resolved); ok {
		return resolved, nil
	}

	reference, err := coerce(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, nil
	}

	canonical, err := session.CanonicalizePath(reference)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, session.NewConfigError("storage_state file does not exist: %s", canonical)
		}
		return nil, session.NewConfigError("cannot inspect storage_state file %s: %v", canonical, err)
	}
	if info.IsDir() {
		return nil, session.NewConfigError("storage_state path is a directory, not a file: %s", canonical)
	}
	if !info.Mode().IsRegular() {
		return nil, session.NewConfigError("storage_state path is not a regular file: %s", canonical)
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, session.NewConfigError("cannot read storage_state file %s: %v", canonical, err)
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, session.NewConfigError("storage_state file is not valid JSON: %s: %v", canonical, err)
	}
	if _, ok := parsed.(map[string]any); !ok {
		return nil, session.NewConfigError("storage_state file must contain a JSON object: %s", canonical)
	}

	return &Resolved{StorageState: canonical}, nil
}

// LoadInputFromFile reads an auth reference from a JSON file and returns it
// as a MapInput, so that Resolve applies the same unknown-key rejection to
// file-sourced references as to inline ones.
func LoadInputFromFile(path string) (Input, error) {
	canonical, err := session.CanonicalizePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, session.NewConfigError("auth config file does not exist: %s", canonical)
		}
		return nil, session.NewConfigError("cannot read auth config file %s: %v", canonical, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, session.NewConfigError("auth config file must contain a JSON object: %s: %v", canonical, err)
	}
	return MapInput(raw), nil
}

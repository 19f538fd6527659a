// File: internal/auth/profiles.go
package auth

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xkilldash9x/authcap-cli/internal/session"
)

// StorageStateFileName is the conventional file name a captured profile
// stores its state under.
const StorageStateFileName = "storage_state.json"

// Profile describes one saved capture profile directory.
type Profile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// ListProfiles enumerates the profile directories under dir, sorted by name.
// A missing profiles directory is not an error: it simply holds no profiles
// yet.
func ListProfiles(dir string) ([]Profile, error) {
	canonical, err := session.CanonicalizePath(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Profile{}, nil
		}
		return nil, session.NewConfigError("cannot read profiles directory %s: %v", canonical, err)
	}

	profiles := make([]Profile, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		profile := Profile{
			Name: entry.Name(),
			Path: filepath.Join(canonical, entry.Name()),
		}
		if info, infoErr := entry.Info(); infoErr == nil {
			profile.Modified = info.ModTime()
		}
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// ResolveProfileState returns the resolved storage-state contract for a
// profile directory, validating the state file through the standard
// pipeline. A profile without a state file resolves to nil.
func ResolveProfileState(profileDir string) (*Resolved, error) {
	canonical, err := session.CanonicalizePath(profileDir)
	if err != nil {
		return nil, err
	}

	statePath := filepath.Join(canonical, StorageStateFileName)
	if _, err := os.Stat(statePath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return Resolve(ConfigInput{StorageState: statePath})
}

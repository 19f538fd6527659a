// File: internal/session/select.go
package session

import "github.com/xkilldash9x/authcap-cli/api/schemas"

// ResolveContextIndex applies the selection policy for a CDP export when the
// caller did not pin a context explicitly: exactly one listed session is
// selected automatically, anything else requires an explicit choice. Two open
// pages in the same browsing context count as two sessions and are ambiguous.
// The explicit index, when provided, is passed through untouched; range checks
// happen at export time against the live browser.
func ResolveContextIndex(entries []schemas.CdpSessionEntry, explicit *int) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}

	switch len(entries) {
	case 0:
		return 0, NewRuntimeError("connected browser has no sessions to export")
	case 1:
		return entries[0].ContextIndex, nil
	}

	distinct := map[int]struct{}{}
	for _, entry := range entries {
		distinct[entry.ContextIndex] = struct{}{}
	}
	return 0, NewConfigError(
		"multiple sessions found, select a context explicitly (valid range 0..%d)", len(distinct)-1)
}

// File: api/schemas/session.go
package schemas

// CaptureStatus is the terminal outcome of a session-capture flow.
type CaptureStatus string

const (
	// CaptureSuccess means the completion URL was observed (and confirmed)
	// and the storage state was written and validated.
	CaptureSuccess CaptureStatus = "success"
	// CaptureTimeout means the deadline elapsed before a confirmed match.
	// Nothing was written.
	CaptureTimeout CaptureStatus = "timeout"
	// CaptureAbort means the user closed the page before completion.
	// Nothing was written.
	CaptureAbort CaptureStatus = "abort"
)

// CaptureResult is the result contract for both the interactive capture flow
// and the CDP export flow.
//
// StorageStatePath is set if and only if Status is CaptureSuccess.
type CaptureResult struct {
	Status           CaptureStatus `json:"status"`
	Message          string        `json:"message"`
	StorageStatePath string        `json:"storage_state_path,omitempty"`
	FinalURL         *string       `json:"final_url,omitempty"`
}

// CdpSessionEntry is one selectable session candidate discovered in a
// running browser reached over a remote-debugging endpoint.
//
// A browsing context with no open pages is still listed, with a nil
// PageIndex and an empty URL, so the numbering of contexts stays complete.
type CdpSessionEntry struct {
	ContextIndex int     `json:"context_index"`
	PageIndex    *int    `json:"page_index,omitempty"`
	URL          string  `json:"url"`
	Title        *string `json:"title,omitempty"`
}

// ResolvedAuth is the file-backed authentication contract handed to browser
// driver configuration. StorageState, when non-empty, is an absolute path to
// an existing JSON-object file.
type ResolvedAuth struct {
	StorageState string `json:"storage_state,omitempty"`
}

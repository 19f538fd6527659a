// File: internal/mcp/types.go
package mcp

// CommandRequest is the incoming JSON envelope for the tool surface.
type CommandRequest struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// CommandResponse is the outgoing JSON envelope.
type CommandResponse struct {
	Status string `json:"status"` // "success" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CaptureParams are the parameters of the "capture_session" command. Zero
// durations fall back to the server's configured defaults. The remote surface
// always auto-confirms: there is no interactive prompt on this transport.
type CaptureParams struct {
	OutputPath           string `json:"output_path"`
	CompletionURLPattern string `json:"completion_url_pattern"`
	StartURL             string `json:"start_url,omitempty"`
	// Timeout and PollInterval are duration strings, e.g. "5m", "250ms".
	Timeout      string `json:"timeout,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`
	Overwrite    bool   `json:"overwrite,omitempty"`
	// Headless overrides the server's configured browser.headless when set.
	Headless *bool `json:"headless,omitempty"`
}

// ListSessionsParams are the parameters of the "list_cdp_sessions" command.
type ListSessionsParams struct {
	EndpointURL string `json:"endpoint_url"`
}

// ExportSessionParams are the parameters of the "export_cdp_session" command.
// A nil ContextIndex lets the server auto-select when exactly one session is
// listed on the endpoint.
type ExportSessionParams struct {
	EndpointURL  string `json:"endpoint_url"`
	ContextIndex *int   `json:"context_index,omitempty"`
	OutputPath   string `json:"output_path"`
	Overwrite    bool   `json:"overwrite,omitempty"`
}

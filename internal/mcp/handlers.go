// File: internal/mcp/handlers.go
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
	"github.com/xkilldash9x/authcap-cli/internal/auth"
	"github.com/xkilldash9x/authcap-cli/internal/config"
	"github.com/xkilldash9x/authcap-cli/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Capturer runs interactive session captures.
type Capturer interface {
	Run(ctx context.Context, opts session.CaptureOptions) (schemas.CaptureResult, error)
}

// Broker enumerates and exports sessions from a running browser.
type Broker interface {
	ListSessions(ctx context.Context, endpointURL string) ([]schemas.CdpSessionEntry, error)
	ExportSession(ctx context.Context, opts session.ExportOptions) (schemas.CaptureResult, error)
}

// Handlers routes tool-surface commands to the capture and export services.
type Handlers struct {
	log      *zap.Logger
	cfg      *config.Config
	capturer Capturer
	broker   Broker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, cfg *config.Config, capturer Capturer, broker Broker) *Handlers {
	return &Handlers{
		log:      logger.Named("handlers"),
		cfg:      cfg,
		capturer: capturer,
		broker:   broker,
	}
}

// RegisterRoutes sets up the routing for the tool surface.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/command", h.HandleCommand)
	})
}

// HandleHealthCheck confirms the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleCommand is the single entry point for tool commands.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	h.log.Info("Received command", zap.String("command", req.Command))

	switch strings.ToLower(req.Command) {
	case "capture_session":
		h.handleCaptureSession(w, r, req.Params)
	case "list_cdp_sessions":
		h.handleListSessions(w, r, req.Params)
	case "export_cdp_session":
		h.handleExportSession(w, r, req.Params)
	case "resolve_auth":
		h.handleResolveAuth(w, req.Params)
	case "ping":
		h.respondWithSuccess(w, http.StatusOK, map[string]string{"message": "pong"})
	default:
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleCaptureSession runs an interactive capture. Timeout and abort are
// terminal outcomes reported inside a success envelope, not errors.
func (h *Handlers) handleCaptureSession(w http.ResponseWriter, r *http.Request, paramsMap map[string]any) {
	params, err := mapToStruct[CaptureParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for capture_session: %v", err))
		return
	}

	opts := session.CaptureOptions{
		OutputPath:           params.OutputPath,
		CompletionURLPattern: params.CompletionURLPattern,
		StartURL:             params.StartURL,
		Timeout:              h.cfg.Capture.Timeout,
		PollInterval:         h.cfg.Capture.PollInterval,
		SettleDelay:          h.cfg.Capture.SettleDelay,
		Overwrite:            params.Overwrite,
		Headless:             h.cfg.Browser.Headless,
	}
	if params.Headless != nil {
		opts.Headless = *params.Headless
	}
	if params.Timeout != "" {
		if opts.Timeout, err = time.ParseDuration(params.Timeout); err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid timeout: %v", err))
			return
		}
	}
	if params.PollInterval != "" {
		if opts.PollInterval, err = time.ParseDuration(params.PollInterval); err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid poll_interval: %v", err))
			return
		}
	}

	result, err := h.capturer.Run(r.Context(), opts)
	if err != nil {
		h.respondWithCommandError(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, result)
}

func (h *Handlers) handleListSessions(w http.ResponseWriter, r *http.Request, paramsMap map[string]any) {
	params, err := mapToStruct[ListSessionsParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for list_cdp_sessions: %v", err))
		return
	}

	entries, err := h.broker.ListSessions(r.Context(), params.EndpointURL)
	if err != nil {
		h.respondWithCommandError(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]any{
		"count":    len(entries),
		"sessions": entries,
	})
}

func (h *Handlers) handleExportSession(w http.ResponseWriter, r *http.Request, paramsMap map[string]any) {
	params, err := mapToStruct[ExportSessionParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for export_cdp_session: %v", err))
		return
	}

	contextIndex := params.ContextIndex
	if contextIndex == nil {
		entries, listErr := h.broker.ListSessions(r.Context(), params.EndpointURL)
		if listErr != nil {
			h.respondWithCommandError(w, listErr)
			return
		}
		resolved, selErr := session.ResolveContextIndex(entries, nil)
		if selErr != nil {
			h.respondWithCommandError(w, selErr)
			return
		}
		contextIndex = &resolved
	}

	result, err := h.broker.ExportSession(r.Context(), session.ExportOptions{
		EndpointURL:  params.EndpointURL,
		ContextIndex: *contextIndex,
		OutputPath:   params.OutputPath,
		Overwrite:    params.Overwrite,
		SettleDelay:  h.cfg.Capture.SettleDelay,
	})
	if err != nil {
		h.respondWithCommandError(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, result)
}

// handleResolveAuth feeds the raw params map straight into the auth pipeline
// so unsupported keys are rejected by name.
func (h *Handlers) handleResolveAuth(w http.ResponseWriter, paramsMap map[string]any) {
	resolved, err := auth.Resolve(auth.MapInput(paramsMap))
	if err != nil {
		h.respondWithCommandError(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, resolved.Schema())
}

// respondWithCommandError maps the error kind to an HTTP status: usage and
// validation failures are the caller's fault, everything else is internal.
func (h *Handlers) respondWithCommandError(w http.ResponseWriter, err error) {
	var configErr *session.ConfigError
	if errors.As(err, &configErr) {
		h.respondWithError(w, http.StatusBadRequest, configErr.Error())
		return
	}
	h.log.Error("Command failed", zap.Error(err))
	h.respondWithError(w, http.StatusInternalServerError, err.Error())
}

// mapToStruct converts a generic params map to a typed struct via JSON.
func mapToStruct[T any](m map[string]any) (T, error) {
	var result T
	if m == nil {
		return result, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(data, &result)
	return result, err
}

// respondWithError sends a standardized JSON error response.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respondWithStatus(w, statusCode, "error", map[string]string{"error": message})
}

// respondWithSuccess sends a standardized JSON success response.
func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data any) {
	h.respondWithStatus(w, statusCode, "success", data)
}

func (h *Handlers) respondWithStatus(w http.ResponseWriter, statusCode int, status string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := CommandResponse{Status: status}

	if errMap, ok := data.(map[string]string); ok && errMap["error"] != "" {
		resp.Error = errMap["error"]
	} else {
		resp.Data = data
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

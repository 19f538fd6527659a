// File: internal/session/cdp.go
package session

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
)

// Broker attaches to an already-running browser over its remote-debugging
// endpoint, enumerates the live sessions, and exports the storage state of a
// chosen browsing context. It never owns the remote browser: detaching leaves
// the user's session running.
type Broker struct {
	driver Driver
	logger *zap.Logger
}

// NewBroker wires a CDP session broker to a browser driver.
func NewBroker(driver Driver, logger *zap.Logger) *Broker {
	return &Broker{driver: driver, logger: logger.Named("cdp")}
}

// ExportOptions configure a single CDP storage-state export.
type ExportOptions struct {
	// EndpointURL is the remote-debugging endpoint, e.g. http://localhost:9222.
	// Required.
	EndpointURL string
	// ContextIndex selects the browsing context to export.
	ContextIndex int
	// OutputPath is the storage-state file target. Required.
	OutputPath string
	// Overwrite allows replacing an existing output file.
	Overwrite bool
	// SettleDelay is an optional pause before the export, letting in-flight
	// writes land.
	SettleDelay time.Duration
}

func validateEndpoint(endpointURL string) error {
	if strings.TrimSpace(endpointURL) == "" {
		return NewConfigError("cdp endpoint URL must be provided")
	}
	return nil
}

// ListSessions connects to the endpoint and returns one entry per open page,
// plus one page-less entry per empty browsing context so that context
// numbering stays complete. Title lookups are best-effort: a page that fails
// to report its title is listed with a nil Title.
func (b *Broker) ListSessions(ctx context.Context, endpointURL string) (entries []schemas.CdpSessionEntry, err error) {
	if err := validateEndpoint(endpointURL); err != nil {
		return nil, err
	}

	browser, err := b.driver.Connect(ctx, endpointURL)
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to connect to CDP endpoint %s", endpointURL)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			b.logger.Warn("Failed to detach from CDP endpoint", zap.Error(closeErr))
			if err == nil {
				err = WrapRuntimeError(closeErr, "failed to detach from CDP endpoint")
			}
		}
	}()

	entries = make([]schemas.CdpSessionEntry, 0)
	for ci, bctx := range browser.Contexts() {
		pages := bctx.Pages()
		if len(pages) == 0 {
			entries = append(entries, schemas.CdpSessionEntry{ContextIndex: ci})
			continue
		}
		for pi, page := range pages {
			pageIndex := pi
			entry := schemas.CdpSessionEntry{
				ContextIndex: ci,
				PageIndex:    &pageIndex,
				URL:          page.URL(),
			}
			if title, titleErr := page.Title(ctx); titleErr == nil {
				entry.Title = &title
			}
			entries = append(entries, entry)
		}
	}

	b.logger.Debug("Enumerated CDP sessions",
		zap.String("endpoint", endpointURL),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// ExportSession connects to the endpoint, exports the storage state of the
// selected browsing context, and persists it to the output path. The result's
// FinalURL reflects the first open page of the chosen context, when any.
func (b *Broker) ExportSession(ctx context.Context, opts ExportOptions) (result schemas.CaptureResult, err error) {
	if err := validateEndpoint(opts.EndpointURL); err != nil {
		return schemas.CaptureResult{}, err
	}
	if opts.ContextIndex < 0 {
		return schemas.CaptureResult{}, NewConfigError("context index must not be negative, got %d", opts.ContextIndex)
	}
	output, err := CanonicalizePath(opts.OutputPath)
	if err != nil {
		return schemas.CaptureResult{}, err
	}
	if err := ValidateTarget(output, opts.Overwrite); err != nil {
		return schemas.CaptureResult{}, err
	}

	browser, err := b.driver.Connect(ctx, opts.EndpointURL)
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to connect to CDP endpoint %s", opts.EndpointURL)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			b.logger.Warn("Failed to detach from CDP endpoint", zap.Error(closeErr))
			if err == nil {
				err = WrapRuntimeError(closeErr, "failed to detach from CDP endpoint")
			}
		}
	}()

	contexts := browser.Contexts()
	if len(contexts) == 0 {
		return schemas.CaptureResult{}, NewRuntimeError("connected browser has no browsing contexts to export")
	}
	if opts.ContextIndex >= len(contexts) {
		return schemas.CaptureResult{}, NewConfigError(
			"context index %d out of range, valid range is 0..%d", opts.ContextIndex, len(contexts)-1)
	}
	chosen := contexts[opts.ContextIndex]

	if opts.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return schemas.CaptureResult{}, WrapRuntimeError(ctx.Err(), "export canceled")
		case <-time.After(opts.SettleDelay):
		}
	}

	state, err := chosen.StorageState(ctx)
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to export storage_state from context %d", opts.ContextIndex)
	}
	if err := WriteStorageState(output, state); err != nil {
		return schemas.CaptureResult{}, err
	}

	result = schemas.CaptureResult{
		Status:           schemas.CaptureSuccess,
		Message:          "Storage state exported from running browser session.",
		StorageStatePath: output,
	}
	if pages := chosen.Pages(); len(pages) > 0 {
		finalURL := pages[0].URL()
		result.FinalURL = &finalURL
	}

	b.logger.Info("Exported CDP session",
		zap.String("endpoint", opts.EndpointURL),
		zap.Int("context_index", opts.ContextIndex),
		zap.String("output", output),
		zap.Int("cookies", payloadListLen(state, "cookies")),
		zap.Int("origins", payloadListLen(state, "origins")),
	)
	return result, nil
}

// File: internal/session/capture.go
package session

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
)

// DefaultPollInterval is the loop cadence used when callers do not specify
// their own.
const DefaultPollInterval = 250 * time.Millisecond

// ConfirmFunc decides whether a completion-URL match should trigger the
// capture. Callers wrap synchronous logic in an ordinary function; an
// interactive implementation may block on user input. Returning false
// resumes polling, and a later tick matching the same URL will ask again.
type ConfirmFunc func(ctx context.Context, matchedURL string) (bool, error)

// CaptureOptions configure one interactive capture flow.
type CaptureOptions struct {
	// OutputPath is the storage-state file target. Required.
	OutputPath string
	// CompletionURLPattern is a regular expression matched against the
	// current page URL via substring search. Required.
	CompletionURLPattern string
	// StartURL, when non-empty, is opened before polling begins.
	StartURL string
	// Timeout bounds the whole poll loop. Must be positive.
	Timeout time.Duration
	// PollInterval is the sleep between loop iterations. Must be positive.
	PollInterval time.Duration
	// SettleDelay is an optional pause between a confirmed match and the
	// state export, letting late cookies land.
	SettleDelay time.Duration
	// Overwrite allows replacing an existing output file.
	Overwrite bool
	// Headless launches the browser without a window. Interactive logins
	// want this off.
	Headless bool
	// Confirm, when set, is consulted on every completion-URL match.
	Confirm ConfirmFunc
}

// Capturer drives a fresh browser through an interactive login flow and
// produces a terminal CaptureResult.
type Capturer struct {
	driver Driver
	logger *zap.Logger
}

// NewCapturer wires a capture orchestrator to a browser driver.
func NewCapturer(driver Driver, logger *zap.Logger) *Capturer {
	return &Capturer{driver: driver, logger: logger.Named("capture")}
}

// validate runs all pre-flight checks and returns the canonical output path
// and the compiled completion pattern. No browser resource is touched here.
func (c *Capturer) validate(opts CaptureOptions) (string, *regexp.Regexp, error) {
	output, err := CanonicalizePath(opts.OutputPath)
	if err != nil {
		return "", nil, err
	}
	if err := ValidateTarget(output, opts.Overwrite); err != nil {
		return "", nil, err
	}

	if opts.CompletionURLPattern == "" {
		return "", nil, NewConfigError("completion_url_pattern must be provided")
	}
	pattern, err := regexp.Compile(opts.CompletionURLPattern)
	if err != nil {
		return "", nil, NewConfigError("completion_url_pattern is not a valid regular expression: %v", err)
	}

	if opts.Timeout <= 0 {
		return "", nil, NewConfigError("timeout must be greater than 0")
	}
	if opts.PollInterval <= 0 {
		return "", nil, NewConfigError("poll_interval must be greater than 0")
	}
	return output, pattern, nil
}

// Run executes the capture state machine. TIMEOUT and ABORT are ordinary
// outcomes, not errors; the error return is reserved for config and runtime
// failures. The browser is released on every exit path, and a release
// failure surfaces as a secondary error rather than being swallowed.
func (c *Capturer) Run(ctx context.Context, opts CaptureOptions) (result schemas.CaptureResult, err error) {
	output, pattern, err := c.validate(opts)
	if err != nil {
		return schemas.CaptureResult{}, err
	}

	captureID := uuid.New().String()
	logger := c.logger.With(zap.String("capture_id", captureID))
	logger.Info("Starting interactive session capture",
		zap.String("output", output),
		zap.String("pattern", opts.CompletionURLPattern),
		zap.Duration("timeout", opts.Timeout),
		zap.Duration("poll_interval", opts.PollInterval),
	)

	browser, err := c.driver.Launch(ctx, LaunchOptions{Headless: opts.Headless})
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to launch browser")
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			logger.Warn("Failed to release browser after capture", zap.Error(closeErr))
			if err == nil {
				err = WrapRuntimeError(closeErr, "failed to release browser")
			}
		}
	}()

	bctx, err := browser.NewContext(ctx)
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to create browsing context")
	}
	page, err := bctx.NewPage(ctx)
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to open page")
	}

	if opts.StartURL != "" {
		if err := page.Navigate(ctx, opts.StartURL); err != nil {
			return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to navigate to start URL %s", opts.StartURL)
		}
	}

	started := time.Now()
	for {
		if page.IsClosed() {
			logger.Info("Capture aborted: page closed before completion")
			return schemas.CaptureResult{
				Status:  schemas.CaptureAbort,
				Message: "Capture aborted: browser page was closed before completion.",
			}, nil
		}

		currentURL := page.URL()
		if pattern.MatchString(currentURL) {
			confirmed := true
			if opts.Confirm != nil {
				confirmed, err = opts.Confirm(ctx, currentURL)
				if err != nil {
					return schemas.CaptureResult{}, WrapRuntimeError(err, "confirmation callback failed")
				}
			}

			if confirmed {
				return c.finish(ctx, logger, bctx, output, currentURL, opts.SettleDelay)
			}
			logger.Debug("Completion URL match declined, resuming poll", zap.String("url", currentURL))
		}

		if time.Since(started) >= opts.Timeout {
			logger.Info("Capture timed out", zap.String("last_url", currentURL), zap.Duration("timeout", opts.Timeout))
			finalURL := currentURL
			return schemas.CaptureResult{
				Status:   schemas.CaptureTimeout,
				Message:  "Capture timed out before completion URL was observed (timeout=" + opts.Timeout.String() + ").",
				FinalURL: &finalURL,
			}, nil
		}

		select {
		case <-ctx.Done():
			return schemas.CaptureResult{}, WrapRuntimeError(ctx.Err(), "capture canceled")
		case <-time.After(opts.PollInterval):
		}
	}
}

// finish exports and persists the storage state after a confirmed match.
// A write failure here propagates as an error, never as a CaptureResult.
func (c *Capturer) finish(
	ctx context.Context,
	logger *zap.Logger,
	bctx BrowserContext,
	output string,
	finalURL string,
	settleDelay time.Duration,
) (schemas.CaptureResult, error) {
	if settleDelay > 0 {
		select {
		case <-ctx.Done():
			return schemas.CaptureResult{}, WrapRuntimeError(ctx.Err(), "capture canceled")
		case <-time.After(settleDelay):
		}
	}

	state, err := bctx.StorageState(ctx)
	if err != nil {
		return schemas.CaptureResult{}, WrapRuntimeError(err, "failed to export storage_state")
	}
	if err := WriteStorageState(output, state); err != nil {
		return schemas.CaptureResult{}, err
	}

	logger.Info("Capture completed",
		zap.String("output", output),
		zap.String("final_url", finalURL),
		zap.Int("cookies", payloadListLen(state, "cookies")),
		zap.Int("origins", payloadListLen(state, "origins")),
	)

	return schemas.CaptureResult{
		Status:           schemas.CaptureSuccess,
		Message:          "Capture completed and storage_state collected.",
		StorageStatePath: output,
		FinalURL:         &finalURL,
	}, nil
}

// payloadListLen counts entries of a list-valued key in a generic JSON
// object, for diagnostics only.
func payloadListLen(payload map[string]any, key string) int {
	if list, ok := payload[key].([]any); ok {
		return len(list)
	}
	return 0
}

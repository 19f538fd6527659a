// File: internal/session/capture_test.go
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testCaptureOptions(t *testing.T) CaptureOptions {
	t.Helper()
	return CaptureOptions{
		OutputPath:           filepath.Join(t.TempDir(), "state.json"),
		CompletionURLPattern: `dashboard`,
		StartURL:             "https://example.com/login",
		Timeout:              2 * time.Second,
		PollInterval:         time.Millisecond,
	}
}

func newTestCapturer(t *testing.T, driver Driver) *Capturer {
	t.Helper()
	return NewCapturer(driver, zaptest.NewLogger(t))
}

func TestCaptureSucceedsOnMatch(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"

	result, err := capturer.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "success", string(result.Status))
	require.NotNil(t, result.FinalURL)
	assert.Equal(t, "https://example.com/dashboard", *result.FinalURL)
	assert.True(t, filepath.IsAbs(result.StorageStatePath))

	_, statErr := os.Stat(result.StorageStatePath)
	assert.NoError(t, statErr, "storage state must be written on success")
	assert.True(t, driver.browser.isClosed(), "browser must be released")
}

func TestCaptureWaitsForURLChange(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)
	opts := testCaptureOptions(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Let a few poll cycles pass on the login URL, then "log in".
		time.Sleep(10 * time.Millisecond)
		contexts := driver.browser.Contexts()
		if len(contexts) == 1 {
			pages := contexts[0].Pages()
			if len(pages) == 1 {
				pages[0].(*fakePage).setURL("https://example.com/dashboard")
			}
		}
	}()

	result, err := capturer.Run(context.Background(), opts)
	<-done
	require.NoError(t, err)
	assert.Equal(t, "success", string(result.Status))
}

func TestCaptureDeclineResumesPolling(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"

	var calls atomic.Int32
	opts.Confirm = func(ctx context.Context, matchedURL string) (bool, error) {
		assert.Equal(t, "https://example.com/dashboard", matchedURL)
		return calls.Add(1) >= 3, nil
	}

	result, err := capturer.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "success", string(result.Status))
	// A declined match is asked again on later ticks, never remembered.
	assert.Equal(t, int32(3), calls.Load())
}

func TestCaptureConfirmErrorIsRuntime(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"
	opts.Confirm = func(ctx context.Context, matchedURL string) (bool, error) {
		return false, errors.New("stdin closed")
	}

	_, err := capturer.Run(context.Background(), opts)
	var runtimeErr *RuntimeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &runtimeErr))
	assert.True(t, driver.browser.isClosed())
}

func TestCaptureAbortsWhenPageCloses(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)
	opts := testCaptureOptions(t)

	go func() {
		time.Sleep(5 * time.Millisecond)
		contexts := driver.browser.Contexts()
		if len(contexts) == 1 {
			pages := contexts[0].Pages()
			if len(pages) == 1 {
				pages[0].(*fakePage).close()
			}
		}
	}()

	result, err := capturer.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "abort", string(result.Status))
	assert.Nil(t, result.FinalURL, "a closed page has no trustworthy URL")
	assert.Empty(t, result.StorageStatePath)

	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "abort must not write state")
	assert.True(t, driver.browser.isClosed())
}

func TestCaptureTimesOut(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.Timeout = 15 * time.Millisecond

	result, err := capturer.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "timeout", string(result.Status))
	require.NotNil(t, result.FinalURL)
	assert.Equal(t, "https://example.com/login", *result.FinalURL)
	assert.Empty(t, result.StorageStatePath)

	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "timeout must not write state")
	assert.True(t, driver.browser.isClosed())
}

func TestCapturePreflightValidation(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "taken.json")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	testCases := []struct {
		name   string
		mutate func(*CaptureOptions)
	}{
		{"empty output path", func(o *CaptureOptions) { o.OutputPath = "" }},
		{"empty pattern", func(o *CaptureOptions) { o.CompletionURLPattern = "" }},
		{"invalid pattern", func(o *CaptureOptions) { o.CompletionURLPattern = "[unclosed" }},
		{"zero timeout", func(o *CaptureOptions) { o.Timeout = 0 }},
		{"negative poll interval", func(o *CaptureOptions) { o.PollInterval = -time.Second }},
		{"existing output without overwrite", func(o *CaptureOptions) { o.OutputPath = existing }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			driver := &fakeDriver{browser: &fakeBrowser{}}
			capturer := newTestCapturer(t, driver)

			opts := testCaptureOptions(t)
			tc.mutate(&opts)

			_, err := capturer.Run(context.Background(), opts)
			var configErr *ConfigError
			require.Error(t, err)
			assert.True(t, errors.As(err, &configErr), "want ConfigError, got %T", err)
			assert.Zero(t, driver.launchCount(), "validation must run before launch")
		})
	}
}

func TestCaptureLaunchFailure(t *testing.T) {
	driver := &fakeDriver{launchErr: errors.New("no chromium")}
	capturer := newTestCapturer(t, driver)

	_, err := capturer.Run(context.Background(), testCaptureOptions(t))
	var runtimeErr *RuntimeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &runtimeErr))
}

func TestCaptureNilStateIsRuntimeError(t *testing.T) {
	browser := &fakeBrowser{nilState: true}
	driver := &fakeDriver{browser: browser}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"

	_, err := capturer.Run(context.Background(), opts)
	var runtimeErr *RuntimeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &runtimeErr))

	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "a failed export must not write state")
	assert.True(t, browser.isClosed())
}

func TestCaptureStateExportFailure(t *testing.T) {
	browser := &fakeBrowser{stateErr: errors.New("target crashed")}
	driver := &fakeDriver{browser: browser}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"

	_, err := capturer.Run(context.Background(), opts)
	var runtimeErr *RuntimeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &runtimeErr))
	assert.True(t, browser.isClosed())
}

func TestCaptureCloseErrorSurfaces(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{closeErr: errors.New("zombie process")}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"

	result, err := capturer.Run(context.Background(), opts)
	// The capture itself succeeded; the release failure is reported too.
	assert.Equal(t, "success", string(result.Status))
	var runtimeErr *RuntimeError
	require.Error(t, err)
	assert.True(t, errors.As(err, &runtimeErr))
}

func TestCaptureHonorsContextCancel(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	opts := testCaptureOptions(t)
	opts.Timeout = time.Minute

	_, err := capturer.Run(ctx, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, driver.browser.isClosed())
}

func TestCapturePassesHeadlessThrough(t *testing.T) {
	driver := &fakeDriver{browser: &fakeBrowser{}}
	capturer := newTestCapturer(t, driver)

	opts := testCaptureOptions(t)
	opts.StartURL = "https://example.com/dashboard"
	opts.Headless = true

	_, err := capturer.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, driver.lastLaunch.Headless)
}

// File: internal/session/driver.go
package session

import "context"

// LaunchOptions control how a fresh browser instance is started for an
// interactive capture.
type LaunchOptions struct {
	Headless bool
}

// Driver is the narrow browser-automation contract the capture and export
// flows consume. The production implementation is Playwright-backed; tests
// substitute fakes. The driver owns nothing beyond a single Launch or
// Connect call: the returned Browser must be closed by the caller on every
// exit path.
type Driver interface {
	// Launch starts a new browser process.
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	// Connect attaches to an already-running browser over its
	// remote-debugging endpoint. The process is never owned: Close detaches
	// without terminating it.
	Connect(ctx context.Context, endpointURL string) (Browser, error)
}

// Browser is a connected or launched browser instance.
type Browser interface {
	// NewContext creates a fresh, isolated browsing context.
	NewContext(ctx context.Context) (BrowserContext, error)
	// Contexts returns the browsing contexts currently open, in a stable
	// order.
	Contexts() []BrowserContext
	// Close releases the browser resource (or detaches, for a connected
	// browser).
	Close() error
}

// BrowserContext is an isolated cookie-jar/storage boundary holding zero or
// more pages.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	Pages() []Page
	// StorageState exports cookies plus per-origin local storage as a
	// generic JSON object.
	StorageState(ctx context.Context) (map[string]any, error)
}

// Page is a single open page inside a browsing context.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL() string
	IsClosed() bool
	Title(ctx context.Context) (string, error)
}

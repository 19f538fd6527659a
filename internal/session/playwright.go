// File: internal/session/playwright.go
package session

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/internal/config"
)

const playwrightInstallTimeout = 5 * time.Minute

// PlaywrightDriver is the production Driver backed by the Playwright runtime.
// Each Launch or Connect call starts its own driver process so that closing
// the returned Browser tears everything down without shared state.
type PlaywrightDriver struct {
	logger *zap.Logger
	cfg    config.BrowserConfig
}

// NewPlaywrightDriver builds the production browser driver.
func NewPlaywrightDriver(cfg config.BrowserConfig, logger *zap.Logger) *PlaywrightDriver {
	return &PlaywrightDriver{logger: logger.Named("playwright"), cfg: cfg}
}

// ensureInstallation verifies the Chromium runtime is present. The install
// call blocks, so it runs under its own timeout.
func (d *PlaywrightDriver) ensureInstallation(ctx context.Context) error {
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapRuntimeError(err, "failed to install playwright browsers")
		}
		return nil
	case <-installCtx.Done():
		return WrapRuntimeError(installCtx.Err(), "timeout waiting for playwright installation")
	}
}

// Launch starts a fresh Chromium instance. The returned Browser owns both the
// browser process and the Playwright driver behind it.
func (d *PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := d.ensureInstallation(ctx); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to start playwright driver")
	}

	// Hide the automation banner so login providers treat the window as a
	// regular browser.
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--no-first-run",
		"--no-default-browser-check",
	}
	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     append(args, d.cfg.Args...),
		Timeout:  playwright.Float(60000),
	}
	browser, err := pw.Chromium.Launch(launchOptions)
	if err != nil {
		pw.Stop()
		return nil, WrapRuntimeError(err, "failed to launch browser instance")
	}

	d.logger.Debug("Launched browser", zap.Bool("headless", opts.Headless), zap.String("version", browser.Version()))
	return &pwBrowser{pw: pw, browser: browser, viewport: d.viewport(), userAgent: d.cfg.UserAgent}, nil
}

func (d *PlaywrightDriver) viewport() *playwright.Size {
	if d.cfg.ViewportWidth > 0 && d.cfg.ViewportHeight > 0 {
		return &playwright.Size{Width: d.cfg.ViewportWidth, Height: d.cfg.ViewportHeight}
	}
	return &playwright.Size{Width: 1280, Height: 900}
}

// Connect attaches to a running browser over its remote-debugging endpoint.
// Closing the returned Browser detaches without terminating the remote
// process.
func (d *PlaywrightDriver) Connect(ctx context.Context, endpointURL string) (Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to start playwright driver")
	}

	browser, err := pw.Chromium.ConnectOverCDP(endpointURL)
	if err != nil {
		pw.Stop()
		return nil, WrapRuntimeError(err, "failed to connect over CDP to %s", endpointURL)
	}

	d.logger.Debug("Connected over CDP", zap.String("endpoint", endpointURL), zap.String("version", browser.Version()))
	return &pwBrowser{pw: pw, browser: browser, viewport: d.viewport(), userAgent: d.cfg.UserAgent}, nil
}

type pwBrowser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	viewport  *playwright.Size
	userAgent string
}

func (b *pwBrowser) NewContext(_ context.Context) (BrowserContext, error) {
	ctxOptions := playwright.BrowserNewContextOptions{Viewport: b.viewport}
	if b.userAgent != "" {
		ctxOptions.UserAgent = playwright.String(b.userAgent)
	}
	bctx, err := b.browser.NewContext(ctxOptions)
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to create browser context")
	}
	return &pwContext{bctx: bctx}, nil
}

func (b *pwBrowser) Contexts() []BrowserContext {
	raw := b.browser.Contexts()
	contexts := make([]BrowserContext, len(raw))
	for i, bctx := range raw {
		contexts[i] = &pwContext{bctx: bctx}
	}
	return contexts
}

func (b *pwBrowser) Close() error {
	closeErr := b.browser.Close()
	stopErr := b.pw.Stop()
	if closeErr != nil {
		return WrapRuntimeError(closeErr, "failed to close browser")
	}
	if stopErr != nil {
		return WrapRuntimeError(stopErr, "failed to stop playwright driver")
	}
	return nil
}

type pwContext struct {
	bctx playwright.BrowserContext
}

func (c *pwContext) NewPage(_ context.Context) (Page, error) {
	page, err := c.bctx.NewPage()
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to open page")
	}
	return &pwPage{page: page}, nil
}

func (c *pwContext) Pages() []Page {
	raw := c.bctx.Pages()
	pages := make([]Page, len(raw))
	for i, page := range raw {
		pages[i] = &pwPage{page: page}
	}
	return pages
}

// StorageState re-encodes Playwright's typed state into the generic JSON
// object the writer persists, keeping the on-disk format driver-agnostic.
func (c *pwContext) StorageState(_ context.Context) (map[string]any, error) {
	state, err := c.bctx.StorageState()
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to read storage state")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, WrapRuntimeError(err, "failed to encode storage state")
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, WrapRuntimeError(err, "failed to decode storage state")
	}
	return payload, nil
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Navigate(_ context.Context, url string) error {
	if _, err := p.page.Goto(url); err != nil {
		return WrapRuntimeError(err, "failed to navigate to %s", url)
	}
	return nil
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) IsClosed() bool { return p.page.IsClosed() }

func (p *pwPage) Title(_ context.Context) (string, error) {
	title, err := p.page.Title()
	if err != nil {
		return "", WrapRuntimeError(err, "failed to read page title")
	}
	return title, nil
}

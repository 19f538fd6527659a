// File: internal/session/fakes_test.go
package session

import (
	"context"
	"sync"
)

// fakeDriver satisfies Driver for tests without touching a real browser.
type fakeDriver struct {
	mu sync.Mutex

	browser    *fakeBrowser
	launchErr  error
	connectErr error

	launches     int
	connects     int
	lastLaunch   LaunchOptions
	lastEndpoint string
}

func (d *fakeDriver) Launch(_ context.Context, opts LaunchOptions) (Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launches++
	d.lastLaunch = opts
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	return d.browser, nil
}

func (d *fakeDriver) Connect(_ context.Context, endpointURL string) (Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connects++
	d.lastEndpoint = endpointURL
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return d.browser, nil
}

func (d *fakeDriver) launchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launches
}

func (d *fakeDriver) connectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects
}

type fakeBrowser struct {
	mu sync.Mutex

	contexts      []*fakeContext
	newContextErr error
	closeErr      error
	closed        bool

	// nilState makes freshly created contexts export a nil payload.
	nilState bool
	// stateErr makes freshly created contexts fail their export.
	stateErr error
}

func (b *fakeBrowser) NewContext(_ context.Context) (BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newContextErr != nil {
		return nil, b.newContextErr
	}
	bctx := &fakeContext{state: map[string]any{"cookies": []any{}, "origins": []any{}}, stateErr: b.stateErr}
	if b.nilState {
		bctx.state = nil
	}
	b.contexts = append(b.contexts, bctx)
	return bctx, nil
}

func (b *fakeBrowser) Contexts() []BrowserContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	contexts := make([]BrowserContext, len(b.contexts))
	for i, bctx := range b.contexts {
		contexts[i] = bctx
	}
	return contexts
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.closeErr
}

func (b *fakeBrowser) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type fakeContext struct {
	mu sync.Mutex

	pages      []*fakePage
	state      map[string]any
	stateErr   error
	newPageErr error
}

func (c *fakeContext) NewPage(_ context.Context) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.newPageErr != nil {
		return nil, c.newPageErr
	}
	page := &fakePage{}
	c.pages = append(c.pages, page)
	return page, nil
}

func (c *fakeContext) Pages() []Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := make([]Page, len(c.pages))
	for i, page := range c.pages {
		pages[i] = page
	}
	return pages
}

func (c *fakeContext) StorageState(_ context.Context) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateErr != nil {
		return nil, c.stateErr
	}
	return c.state, nil
}

type fakePage struct {
	mu sync.Mutex

	url      string
	title    string
	titleErr error
	navErr   error
	closed   bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *fakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePage) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePage) Title(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleErr != nil {
		return "", p.titleErr
	}
	return p.title, nil
}

// internal/devtools/client.go
package devtools

import "context"

// Client is the uniform operation surface over one browser debugging
// session. Implementations exist for the Chromium WebSocket protocol and
// the Firefox actor protocol; external tooling consumes only this
// interface.
//
// All methods are safe for concurrent use. Commands block their caller
// until a matching reply, the command timeout, or connection teardown,
// whichever comes first. Exactly one live connection exists per client;
// Connect tears down any previous one.
type Client interface {
	// Connect discovers and attaches to a debugging endpoint. A port of 0
	// scans the protocol's default port range in ascending order and
	// takes the first endpoint that answers.
	Connect(ctx context.Context, port int) error
	Close() error
	IsConnected() bool

	// BrowserIdentity returns the product string reported by the browser
	// during discovery, e.g. "Chrome/120.0.6099.71".
	BrowserIdentity() string
	Vendor() Vendor

	EnableConsole(ctx context.Context) error
	// ConsoleMessages returns captured console history, oldest first.
	// levelFilter narrows to one level when non-empty.
	ConsoleMessages(levelFilter string) []ConsoleMessage
	ClearConsole()

	EnableNetwork(ctx context.Context) error
	// NetworkEntries returns completed network exchanges, oldest first.
	// urlFilter is a substring match; methodFilter an exact match.
	NetworkEntries(urlFilter, methodFilter string) []NetworkEntry
	ClearNetwork()

	// Navigate loads url. When waitForLoad is set, it additionally waits
	// for document.readyState to reach "complete"; failures of the wait
	// step alone are swallowed, failures of the navigation are not.
	Navigate(ctx context.Context, url string, waitForLoad bool) error

	// CaptureScreenshot renders the current page. quality is only
	// meaningful for JPEG.
	CaptureScreenshot(ctx context.Context, format ImageFormat, quality int) (*Screenshot, error)

	// Document fetches the DOM tree to the given depth (-1 for the full
	// tree) in the protocol's native serialization.
	Document(ctx context.Context, depth int) (RawDocument, error)

	// QuerySelectorAll resolves a CSS selector against the current
	// document. A selector matching nothing returns an empty slice, not
	// an error.
	QuerySelectorAll(ctx context.Context, selector string) ([]NodeRef, error)

	// OuterHTML returns the serialized HTML of the first node matching
	// selector. found is false when the selector matches nothing.
	OuterHTML(ctx context.Context, selector string) (html string, found bool, err error)

	// Attributes returns the attribute map of the first node matching
	// selector. found is false when the selector matches nothing.
	Attributes(ctx context.Context, selector string) (attrs map[string]string, found bool, err error)

	// Evaluate runs a JavaScript expression in the page. Script
	// exceptions come back as an EvalResult with IsException set.
	Evaluate(ctx context.Context, expression string, awaitPromise bool) (*EvalResult, error)

	ClickElement(ctx context.Context, selector string) (Outcome, error)
	SetElementValue(ctx context.Context, selector, value string) (Outcome, error)
}

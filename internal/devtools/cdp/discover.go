// internal/devtools/cdp/discover.go

// Package cdp implements the devtools.Client interface over the Chromium
// remote-debugging protocol: JSON-RPC-shaped commands and events carried
// on a WebSocket, discovered through the browser's local HTTP metadata
// endpoint.
package cdp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// Default port range scanned when no explicit port is configured.
// Chromium binds 9222 by convention; a handful of consecutive ports
// covers multi-profile setups.
const (
	ScanPortFirst = 9222
	ScanPortLast  = 9229
)

// versionInfo is the JSON document served at /json/version.
type versionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// endpoint is a discovered debugging target.
type endpoint struct {
	wsURL    string
	identity string
	vendor   devtools.Vendor
	port     int
}

// classifyBrowser maps the reported Browser string onto a vendor. Edge is
// checked first: its identity ("Edg/…") would otherwise be misfiled by
// builds that also mention Chrome.
func classifyBrowser(browser string) devtools.Vendor {
	switch {
	case strings.Contains(browser, "Edg"):
		return devtools.VendorEdge
	case strings.Contains(browser, "Chrome"):
		return devtools.VendorChrome
	default:
		return devtools.VendorUnknown
	}
}

// probe fetches /json/version from one port. The timeout is short: a
// listening debugger answers instantly, anything else is not our target.
func probe(ctx context.Context, host string, port int, timeout time.Duration) (*endpoint, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d/json/version", host, port)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// One-shot probe; keeping the connection alive buys nothing.
	req.Close = true

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint on port %d returned %s", port, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var info versionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("invalid metadata document on port %d: %w", port, err)
	}
	if info.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("metadata document on port %d has no webSocketDebuggerUrl", port)
	}

	return &endpoint{
		wsURL:    info.WebSocketDebuggerURL,
		identity: info.Browser,
		vendor:   classifyBrowser(info.Browser),
		port:     port,
	}, nil
}

// discover locates a debugging endpoint. With an explicit port only that
// port is tried; with port 0 the default range is scanned in ascending
// order and the first responder wins.
func discover(ctx context.Context, host string, port int, timeout time.Duration, logger *zap.Logger) (*endpoint, error) {
	if port != 0 {
		ep, err := probe(ctx, host, port, timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: no DevTools endpoint on %s:%d (is the browser running with --remote-debugging-port=%d?): %v",
				devtools.ErrNoEndpoint, host, port, port, err)
		}
		return ep, nil
	}

	for p := ScanPortFirst; p <= ScanPortLast; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ep, err := probe(ctx, host, p, timeout)
		if err != nil {
			logger.Debug("Port probe missed.", zap.Int("port", p), zap.Error(err))
			continue
		}
		return ep, nil
	}

	return nil, fmt.Errorf("%w: no DevTools endpoint answered on %s ports %d-%d; start the browser with --remote-debugging-port=<port>",
		devtools.ErrNoEndpoint, host, ScanPortFirst, ScanPortLast)
}

// internal/devtools/cdp/ops.go
package cdp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// EnableConsole turns on Runtime notifications and starts recording
// console-API events.
func (c *Client) EnableConsole(ctx context.Context) error {
	if _, err := c.call(ctx, "Runtime.enable", nil); err != nil {
		return err
	}
	if cn := c.current(); cn != nil {
		cn.console.SetEnabled(true)
	}
	return nil
}

// ConsoleMessages returns captured console history.
func (c *Client) ConsoleMessages(levelFilter string) []devtools.ConsoleMessage {
	if cn := c.current(); cn != nil {
		return cn.console.Messages(levelFilter)
	}
	return nil
}

// ClearConsole discards captured console history.
func (c *Client) ClearConsole() {
	if cn := c.current(); cn != nil {
		cn.console.Clear()
	}
}

// EnableNetwork turns on Network lifecycle notifications and starts
// recording completed exchanges.
func (c *Client) EnableNetwork(ctx context.Context) error {
	if _, err := c.call(ctx, "Network.enable", nil); err != nil {
		return err
	}
	if cn := c.current(); cn != nil {
		cn.network.SetEnabled(true)
	}
	return nil
}

// NetworkEntries returns captured network history.
func (c *Client) NetworkEntries(urlFilter, methodFilter string) []devtools.NetworkEntry {
	if cn := c.current(); cn != nil {
		return cn.network.Entries(urlFilter, methodFilter)
	}
	return nil
}

// ClearNetwork discards captured network history.
func (c *Client) ClearNetwork() {
	if cn := c.current(); cn != nil {
		cn.network.Clear()
	}
}

// Navigate loads url and optionally waits for the document to finish
// loading. The wait is best effort: a failure there is swallowed, only
// the navigation itself can fail the call.
func (c *Client) Navigate(ctx context.Context, url string, waitForLoad bool) error {
	// Page lifecycle notifications are not required for the navigation
	// itself; enable failures only cost us events.
	if _, err := c.call(ctx, "Page.enable", nil); err != nil {
		c.logger.Debug("Page.enable failed before navigation.", zap.Error(err))
	}

	res, err := c.call(ctx, "Page.navigate", map[string]any{"url": url})
	if err != nil {
		return err
	}
	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if err := json.Unmarshal(res, &nav); err == nil && nav.ErrorText != "" {
		return &devtools.ProtocolError{Message: fmt.Sprintf("navigation to %s failed: %s", url, nav.ErrorText)}
	}

	if waitForLoad {
		_, err := c.Evaluate(ctx, devtools.LoadCompletePromiseScript, true)
		if err != nil {
			c.logger.Debug("Load wait failed; continuing.", zap.Error(err))
		}
	}
	return nil
}

// CaptureScreenshot renders the current page as PNG or JPEG. The quality
// parameter is only forwarded for JPEG.
func (c *Client) CaptureScreenshot(ctx context.Context, format devtools.ImageFormat, quality int) (*devtools.Screenshot, error) {
	params := map[string]any{"format": string(format)}
	if format == devtools.FormatJPEG && quality > 0 {
		params["quality"] = quality
	}

	res, err := c.call(ctx, "Page.captureScreenshot", params)
	if err != nil {
		return nil, err
	}

	var shot struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(res, &shot); err != nil {
		return nil, fmt.Errorf("decoding screenshot reply: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(shot.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot payload: %w", err)
	}

	mime := "image/png"
	if format == devtools.FormatJPEG {
		mime = "image/jpeg"
	}
	return &devtools.Screenshot{MIMEType: mime, Data: data}, nil
}

// Document fetches the DOM tree to the given depth (-1 for everything).
func (c *Client) Document(ctx context.Context, depth int) (devtools.RawDocument, error) {
	res, err := c.call(ctx, "DOM.getDocument", map[string]any{"depth": depth})
	if err != nil {
		return nil, err
	}
	var doc struct {
		Root json.RawMessage `json:"root"`
	}
	if err := json.Unmarshal(res, &doc); err != nil {
		return nil, fmt.Errorf("decoding document reply: %w", err)
	}
	return devtools.RawDocument(doc.Root), nil
}

// rootNodeID fetches the document root's node id, the anchor for all
// selector resolution.
func (c *Client) rootNodeID(ctx context.Context) (int64, error) {
	res, err := c.call(ctx, "DOM.getDocument", map[string]any{"depth": 0})
	if err != nil {
		return 0, err
	}
	var doc struct {
		Root struct {
			NodeID int64 `json:"nodeId"`
		} `json:"root"`
	}
	if err := json.Unmarshal(res, &doc); err != nil {
		return 0, fmt.Errorf("decoding document reply: %w", err)
	}
	return doc.Root.NodeID, nil
}

// QuerySelectorAll resolves a CSS selector to node handles. No matches
// yields an empty slice, never an error.
func (c *Client) QuerySelectorAll(ctx context.Context, selector string) ([]devtools.NodeRef, error) {
	root, err := c.rootNodeID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.call(ctx, "DOM.querySelectorAll", map[string]any{
		"nodeId":   root,
		"selector": selector,
	})
	if err != nil {
		return nil, err
	}
	var reply struct {
		NodeIDs []int64 `json:"nodeIds"`
	}
	if err := json.Unmarshal(res, &reply); err != nil {
		return nil, fmt.Errorf("decoding querySelectorAll reply: %w", err)
	}

	refs := make([]devtools.NodeRef, 0, len(reply.NodeIDs))
	for _, id := range reply.NodeIDs {
		refs = append(refs, devtools.NodeRef{ID: strconv.FormatInt(id, 10)})
	}
	return refs, nil
}

// querySelector resolves the first match of selector; node id 0 means no
// match.
func (c *Client) querySelector(ctx context.Context, selector string) (int64, error) {
	root, err := c.rootNodeID(ctx)
	if err != nil {
		return 0, err
	}
	res, err := c.call(ctx, "DOM.querySelector", map[string]any{
		"nodeId":   root,
		"selector": selector,
	})
	if err != nil {
		return 0, err
	}
	var reply struct {
		NodeID int64 `json:"nodeId"`
	}
	if err := json.Unmarshal(res, &reply); err != nil {
		return 0, fmt.Errorf("decoding querySelector reply: %w", err)
	}
	return reply.NodeID, nil
}

// OuterHTML fetches the serialized HTML of the first node matching
// selector. An absent node is a normal result, not an error.
func (c *Client) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	nodeID, err := c.querySelector(ctx, selector)
	if err != nil {
		return "", false, err
	}
	if nodeID == 0 {
		return "", false, nil
	}

	res, err := c.call(ctx, "DOM.getOuterHTML", map[string]any{"nodeId": nodeID})
	if err != nil {
		return "", false, err
	}
	var reply struct {
		OuterHTML string `json:"outerHTML"`
	}
	if err := json.Unmarshal(res, &reply); err != nil {
		return "", false, fmt.Errorf("decoding outerHTML reply: %w", err)
	}
	return reply.OuterHTML, true, nil
}

// Attributes fetches the attribute map of the first node matching
// selector. The wire format is a flat [name, value, ...] array.
func (c *Client) Attributes(ctx context.Context, selector string) (map[string]string, bool, error) {
	nodeID, err := c.querySelector(ctx, selector)
	if err != nil {
		return nil, false, err
	}
	if nodeID == 0 {
		return nil, false, nil
	}

	res, err := c.call(ctx, "DOM.getAttributes", map[string]any{"nodeId": nodeID})
	if err != nil {
		return nil, false, err
	}
	var reply struct {
		Attributes []string `json:"attributes"`
	}
	if err := json.Unmarshal(res, &reply); err != nil {
		return nil, false, fmt.Errorf("decoding attributes reply: %w", err)
	}

	attrs := make(map[string]string, len(reply.Attributes)/2)
	for i := 0; i+1 < len(reply.Attributes); i += 2 {
		attrs[reply.Attributes[i]] = reply.Attributes[i+1]
	}
	return attrs, true, nil
}

// Evaluate runs a JavaScript expression in the page. Script exceptions
// come back as an EvalResult with IsException set; only protocol and
// transport failures use the error channel.
func (c *Client) Evaluate(ctx context.Context, expression string, awaitPromise bool) (*devtools.EvalResult, error) {
	res, err := c.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"awaitPromise":  awaitPromise,
		"returnByValue": false,
	})
	if err != nil {
		return nil, err
	}

	var reply struct {
		Result           remoteObject `json:"result"`
		ExceptionDetails *struct {
			Text      string        `json:"text"`
			Exception *remoteObject `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(res, &reply); err != nil {
		return nil, fmt.Errorf("decoding evaluate reply: %w", err)
	}

	if ed := reply.ExceptionDetails; ed != nil {
		desc := ed.Text
		if ed.Exception != nil && ed.Exception.Description != "" {
			desc = ed.Exception.Description
		}
		return &devtools.EvalResult{Value: desc, IsException: true}, nil
	}
	return &devtools.EvalResult{Value: renderRemoteObject(reply.Result)}, nil
}

// ClickElement clicks the first node matching selector via injected
// JavaScript.
func (c *Client) ClickElement(ctx context.Context, selector string) (devtools.Outcome, error) {
	return c.interact(ctx, devtools.ClickScript(selector))
}

// SetElementValue writes value into the first node matching selector via
// injected JavaScript.
func (c *Client) SetElementValue(ctx context.Context, selector, value string) (devtools.Outcome, error) {
	return c.interact(ctx, devtools.SetValueScript(selector, value))
}

func (c *Client) interact(ctx context.Context, script string) (devtools.Outcome, error) {
	res, err := c.Evaluate(ctx, script, false)
	if err != nil {
		return devtools.OutcomeNotFound, err
	}
	if res.IsException {
		return devtools.OutcomeNotFound, &devtools.ProtocolError{Message: res.Value}
	}
	return devtools.DecodeOutcome(res.Value)
}

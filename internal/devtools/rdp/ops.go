// internal/devtools/rdp/ops.go
package rdp

import (
	"context"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

const (
	// readyStatePollInterval paces the navigation wait: the protocol has
	// no native load-complete primitive, so readyState is polled.
	readyStatePollInterval = 500 * time.Millisecond
	readyStatePollBudget   = 30 * time.Second
)

// EnableConsole subscribes to console-API events on the tab's console
// actor and starts recording them.
func (c *Client) EnableConsole(ctx context.Context) error {
	cn := c.current()
	if cn == nil {
		return devtools.ErrNotConnected
	}
	consoleActor := cn.chain().console
	if consoleActor == "" {
		return devtools.ErrCapabilityMissing
	}
	_, err := c.call(ctx, consoleActor, "startListeners", map[string]any{
		"listeners": []string{"ConsoleAPI"},
	})
	if err != nil {
		return err
	}
	cn.console.SetEnabled(true)
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

// EnableNetwork subscribes to network lifecycle events and starts
// recording completed exchanges.
func (c *Client) EnableNetwork(ctx context.Context) error {
	cn := c.current()
	if cn == nil {
		return devtools.ErrNotConnected
	}
	consoleActor := cn.chain().console
	if consoleActor == "" {
		return devtools.ErrCapabilityMissing
	}
	_, err := c.call(ctx, consoleActor, "startListeners", map[string]any{
		"listeners": []string{"NetworkActivity"},
	})
	if err != nil {
		return err
	}
	cn.network.SetEnabled(true)
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

// Navigate points the tab at url. With waitForLoad set, readyState is
// polled every 500ms for up to 30 seconds; poll failures are swallowed,
// only the navigation command itself can fail the call.
func (c *Client) Navigate(ctx context.Context, url string, waitForLoad bool) error {
	cn := c.current()
	if cn == nil {
		return devtools.ErrNotConnected
	}
	tab := cn.chain().tab
	if tab == "" {
		return devtools.ErrCapabilityMissing
	}

	if _, err := c.call(ctx, tab, "navigateTo", map[string]any{"url": url}); err != nil {
		return err
	}

	if waitForLoad {
		c.waitForReadyState(ctx)
	}
	return nil
}

func (c *Client) waitForReadyState(ctx context.Context) {
	deadline := time.Now().Add(readyStatePollBudget)
	ticker := time.NewTicker(readyStatePollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		res, err := c.Evaluate(ctx, devtools.ReadyStateScript, false)
		if err == nil && !res.IsException && res.Value == "complete" {
			return
		}
		if err != nil {
			c.logger.Debug("readyState poll failed; continuing.", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CaptureScreenshot is not available over this protocol: there is no
// guaranteed screenshot actor, so the gap is reported rather than
// retried.
func (c *Client) CaptureScreenshot(ctx context.Context, format devtools.ImageFormat, quality int) (*devtools.Screenshot, error) {
	return nil, fmt.Errorf("screenshots over the Firefox debugging protocol: %w", devtools.ErrCapabilityMissing)
}

// Document fetches the document node from the walker. The protocol
// serializes nodes shallowly; depth is accepted for interface symmetry
// but the walker decides how much structure it returns.
func (c *Client) Document(ctx context.Context, depth int) (devtools.RawDocument, error) {
	cn := c.current()
	if cn == nil {
		return nil, devtools.ErrNotConnected
	}
	walker := cn.chain().walker
	if walker == "" {
		return nil, devtools.ErrCapabilityMissing
	}

	raw, err := c.call(ctx, walker, "document", nil)
	if err != nil {
		return nil, err
	}
	var reply struct {
		Node json.RawMessage `json:"node"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding document reply: %w", err)
	}
	return devtools.RawDocument(reply.Node), nil
}

// nodeInfo is the walker's node form, reduced to what the facade needs.
type nodeInfo struct {
	Actor    string `json:"actor"`
	NodeName string `json:"nodeName"`
	Attrs    []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"attrs"`
}

// QuerySelectorAll resolves a CSS selector through the walker. No matches
// yields an empty slice, never an error.
func (c *Client) QuerySelectorAll(ctx context.Context, selector string) ([]devtools.NodeRef, error) {
	cn := c.current()
	if cn == nil {
		return nil, devtools.ErrNotConnected
	}
	chain := cn.chain()
	if chain.walker == "" {
		return nil, devtools.ErrCapabilityMissing
	}

	raw, err := c.call(ctx, chain.walker, "querySelectorAll", map[string]any{
		"node":     chain.rootNode,
		"selector": selector,
	})
	if err != nil {
		return nil, err
	}
	var reply struct {
		Nodes []nodeInfo `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding querySelectorAll reply: %w", err)
	}

	refs := make([]devtools.NodeRef, 0, len(reply.Nodes))
	for _, n := range reply.Nodes {
		refs = append(refs, devtools.NodeRef{ID: n.Actor, Description: n.NodeName})
	}
	return refs, nil
}

// querySelector resolves the first match; an empty actor means no match.
func (c *Client) querySelector(ctx context.Context, selector string) (*nodeInfo, error) {
	cn := c.current()
	if cn == nil {
		return nil, devtools.ErrNotConnected
	}
	chain := cn.chain()
	if chain.walker == "" {
		return nil, devtools.ErrCapabilityMissing
	}

	raw, err := c.call(ctx, chain.walker, "querySelector", map[string]any{
		"node":     chain.rootNode,
		"selector": selector,
	})
	if err != nil {
		return nil, err
	}
	var reply struct {
		Node nodeInfo `json:"node"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding querySelector reply: %w", err)
	}
	if reply.Node.Actor == "" {
		return nil, nil
	}
	return &reply.Node, nil
}

// OuterHTML fetches the serialized HTML of the first node matching
// selector. An absent node is a normal result, not an error.
func (c *Client) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	node, err := c.querySelector(ctx, selector)
	if err != nil {
		return "", false, err
	}
	if node == nil {
		return "", false, nil
	}

	cn := c.current()
	if cn == nil {
		return "", false, devtools.ErrNotConnected
	}
	raw, err := c.call(ctx, cn.chain().walker, "outerHTML", map[string]any{"node": node.Actor})
	if err != nil {
		return "", false, err
	}
	var reply struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", false, fmt.Errorf("decoding outerHTML reply: %w", err)
	}
	return reply.Value, true, nil
}

// Attributes returns the attribute map of the first node matching
// selector, taken from the walker's node serialization.
func (c *Client) Attributes(ctx context.Context, selector string) (map[string]string, bool, error) {
	node, err := c.querySelector(ctx, selector)
	if err != nil {
		return nil, false, err
	}
	if node == nil {
		return nil, false, nil
	}

	attrs := make(map[string]string, len(node.Attrs))
	for _, a := range node.Attrs {
		attrs[a.Name] = a.Value
	}
	return attrs, true, nil
}

// Evaluate runs a JavaScript expression through the console actor.
// awaitPromise is accepted for interface symmetry; evaluateJS has no
// promise-await switch. Script exceptions come back as an EvalResult with
// IsException set.
func (c *Client) Evaluate(ctx context.Context, expression string, awaitPromise bool) (*devtools.EvalResult, error) {
	cn := c.current()
	if cn == nil {
		return nil, devtools.ErrNotConnected
	}
	consoleActor := cn.chain().console
	if consoleActor == "" {
		return nil, devtools.ErrCapabilityMissing
	}

	raw, err := c.call(ctx, consoleActor, "evaluateJS", map[string]any{"text": expression})
	if err != nil {
		return nil, err
	}

	var reply struct {
		Result           json.RawMessage `json:"result"`
		Exception        json.RawMessage `json:"exception"`
		ExceptionMessage string          `json:"exceptionMessage"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding evaluateJS reply: %w", err)
	}

	if len(reply.Exception) > 0 && string(reply.Exception) != "null" {
		desc := reply.ExceptionMessage
		if desc == "" {
			desc = renderGrip(reply.Exception)
		}
		return &devtools.EvalResult{Value: desc, IsException: true}, nil
	}
	return &devtools.EvalResult{Value: renderEvalResult(reply.Result)}, nil
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

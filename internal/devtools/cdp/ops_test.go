// internal/devtools/cdp/ops_test.go
package cdp_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// scriptedHandler replies to known methods from a canned table and sends
// an empty result for everything else.
func scriptedHandler(replies map[string]map[string]any) func(map[string]any) []map[string]any {
	return func(cmd map[string]any) []map[string]any {
		method, _ := cmd["method"].(string)
		if result, ok := replies[method]; ok {
			return []map[string]any{{"id": cmd["id"], "result": result}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}
}

func TestConsoleCapture_DisabledThenEnabled(t *testing.T) {
	// Scenario: console events arriving while capture is disabled leave
	// no trace; after enabling, an identical event is recorded.
	fake := newFakeDevTools(t, "Chrome/126")
	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	event := map[string]any{
		"method": "Runtime.consoleAPICalled",
		"params": map[string]any{
			"type":      "error",
			"timestamp": float64(1717000000000),
			"args": []map[string]any{
				{"type": "string", "value": "kaboom"},
			},
		},
	}

	fake.push(event)
	// Force a round-trip so the event has been processed before asserting.
	_, err := c.Document(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, c.ConsoleMessages(""), "disabled capture must record nothing")

	require.NoError(t, c.EnableConsole(context.Background()))
	fake.push(event)

	assert.Eventually(t, func() bool { return len(c.ConsoleMessages("")) == 1 }, time.Second, 10*time.Millisecond)
	got := c.ConsoleMessages("")[0]
	assert.Equal(t, "error", got.Level)
	assert.Equal(t, "kaboom", got.Text)
	assert.Equal(t, time.UnixMilli(1717000000000), got.Timestamp)

	assert.Len(t, c.ConsoleMessages("error"), 1)
	assert.Empty(t, c.ConsoleMessages("warning"))

	c.ClearConsole()
	assert.Empty(t, c.ConsoleMessages(""))
}

func TestConsoleCapture_ArgumentRenderingFallback(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	require.NoError(t, c.EnableConsole(context.Background()))

	fake.push(map[string]any{
		"method": "Runtime.consoleAPICalled",
		"params": map[string]any{
			"type": "log",
			"args": []map[string]any{
				{"type": "string", "value": "plain"},
				{"type": "number", "value": 42},
				{"type": "object", "description": "HTMLDivElement"},
			},
		},
	})

	assert.Eventually(t, func() bool { return len(c.ConsoleMessages("")) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "plain 42 HTMLDivElement", c.ConsoleMessages("")[0].Text)
}

func TestNetworkCapture_Lifecycle(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	require.NoError(t, c.EnableNetwork(context.Background()))

	fake.push(map[string]any{
		"method": "Network.requestWillBeSent",
		"params": map[string]any{
			"requestId": "req-1",
			"wallTime":  float64(1717000000),
			"request": map[string]any{
				"url":     "https://example.com/api/data",
				"method":  "POST",
				"headers": map[string]any{"Content-Type": "application/json"},
				"postData": `{"q":1}`,
			},
		},
	})
	fake.push(map[string]any{
		"method": "Network.responseReceived",
		"params": map[string]any{
			"requestId": "req-1",
			"response": map[string]any{
				"status":   201,
				"mimeType": "application/json",
				"headers":  map[string]any{"Server": "test"},
			},
		},
	})

	// No terminal event yet: nothing visible.
	_, err := c.Document(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, c.NetworkEntries("", ""))

	fake.push(map[string]any{
		"method": "Network.loadingFinished",
		"params": map[string]any{"requestId": "req-1"},
	})

	assert.Eventually(t, func() bool { return len(c.NetworkEntries("", "")) == 1 }, time.Second, 10*time.Millisecond)
	e := c.NetworkEntries("", "")[0]
	assert.Equal(t, "https://example.com/api/data", e.URL)
	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, 201, e.Status)
	assert.Equal(t, "application/json", e.MIMEType)
	assert.Equal(t, `{"q":1}`, e.PostData)
	assert.Equal(t, "test", e.ResponseHeaders["Server"])

	assert.Len(t, c.NetworkEntries("api", "POST"), 1)
	assert.Empty(t, c.NetworkEntries("", "GET"))
}

func TestNetworkCapture_FailureTerminal(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	require.NoError(t, c.EnableNetwork(context.Background()))

	fake.push(map[string]any{
		"method": "Network.requestWillBeSent",
		"params": map[string]any{
			"requestId": "req-2",
			"request":   map[string]any{"url": "https://down.test/", "method": "GET"},
		},
	})
	fake.push(map[string]any{
		"method": "Network.loadingFailed",
		"params": map[string]any{"requestId": "req-2", "errorText": "net::ERR_CONNECTION_REFUSED"},
	})

	assert.Eventually(t, func() bool { return len(c.NetworkEntries("", "")) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "net::ERR_CONNECTION_REFUSED", c.NetworkEntries("", "")[0].ErrorText)
}

func TestNavigate(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	var sawNavigate, sawWait bool
	fake.handler = func(cmd map[string]any) []map[string]any {
		switch cmd["method"] {
		case "Page.navigate":
			sawNavigate = true
			return []map[string]any{{"id": cmd["id"], "result": map[string]any{"frameId": "F1"}}}
		case "Runtime.evaluate":
			sawWait = true
			return []map[string]any{{"id": cmd["id"], "result": map[string]any{
				"result": map[string]any{"type": "string", "value": "complete"},
			}}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	require.NoError(t, c.Navigate(context.Background(), "https://example.com", true))
	assert.True(t, sawNavigate)
	assert.True(t, sawWait)
}

func TestNavigate_ErrorTextFailsCall(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	fake.handler = func(cmd map[string]any) []map[string]any {
		if cmd["method"] == "Page.navigate" {
			return []map[string]any{{"id": cmd["id"], "result": map[string]any{"errorText": "net::ERR_NAME_NOT_RESOLVED"}}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	err := c.Navigate(context.Background(), "https://no.such.host", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
}

func TestNavigate_WaitFailureSwallowed(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	fake.handler = func(cmd map[string]any) []map[string]any {
		switch cmd["method"] {
		case "Runtime.evaluate":
			return []map[string]any{{"id": cmd["id"], "error": map[string]any{"code": -32000, "message": "Execution context destroyed"}}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	// The wait step failing must not fail the navigation.
	require.NoError(t, c.Navigate(context.Background(), "https://example.com", true))
}

func TestCaptureScreenshot(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	fake := newFakeDevTools(t, "Chrome/126")
	var gotQuality any
	fake.handler = func(cmd map[string]any) []map[string]any {
		if cmd["method"] == "Page.captureScreenshot" {
			params, _ := cmd["params"].(map[string]any)
			gotQuality = params["quality"]
			return []map[string]any{{"id": cmd["id"], "result": map[string]any{
				"data": base64.StdEncoding.EncodeToString(payload),
			}}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	shot, err := c.CaptureScreenshot(context.Background(), devtools.FormatPNG, 80)
	require.NoError(t, err)
	assert.Equal(t, "image/png", shot.MIMEType)
	assert.Equal(t, payload, shot.Data)
	assert.Nil(t, gotQuality, "quality must not be sent for PNG")

	_, err = c.CaptureScreenshot(context.Background(), devtools.FormatJPEG, 80)
	require.NoError(t, err)
	assert.Equal(t, float64(80), gotQuality, "quality forwarded for JPEG")
}

func TestDOMQueries(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	fake.handler = scriptedHandler(map[string]map[string]any{
		"DOM.getDocument":      {"root": map[string]any{"nodeId": 1, "nodeName": "#document"}},
		"DOM.querySelector":    {"nodeId": 42},
		"DOM.querySelectorAll": {"nodeIds": []int{42, 43, 44}},
		"DOM.getOuterHTML":     {"outerHTML": "<div id=\"x\">hi</div>"},
		"DOM.getAttributes":    {"attributes": []string{"id", "x", "class", "box"}},
	})

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	ctx := context.Background()

	doc, err := c.Document(ctx, -1)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "#document")

	refs, err := c.QuerySelectorAll(ctx, "div")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "42", refs[0].ID)

	html, found, err := c.OuterHTML(ctx, "#x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, html, "hi")

	attrs, found, err := c.Attributes(ctx, "#x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]string{"id": "x", "class": "box"}, attrs)
}

func TestDOMQueries_NotFoundIsNotAnError(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	fake.handler = scriptedHandler(map[string]map[string]any{
		"DOM.getDocument":      {"root": map[string]any{"nodeId": 1}},
		"DOM.querySelector":    {"nodeId": 0},
		"DOM.querySelectorAll": {"nodeIds": []int{}},
	})

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	ctx := context.Background()

	refs, err := c.QuerySelectorAll(ctx, ".missing")
	require.NoError(t, err)
	assert.Empty(t, refs)

	_, found, err := c.OuterHTML(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Attributes(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEvaluate_ExceptionIsResultNotError(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	fake.handler = scriptedHandler(map[string]map[string]any{
		"Runtime.evaluate": {
			"result": map[string]any{"type": "object", "subtype": "error"},
			"exceptionDetails": map[string]any{
				"text":      "Uncaught",
				"exception": map[string]any{"type": "object", "description": "ReferenceError: x is not defined"},
			},
		},
	})

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()

	res, err := c.Evaluate(context.Background(), "x", false)
	require.NoError(t, err, "script exceptions must not surface as Go errors")
	assert.True(t, res.IsException)
	assert.Contains(t, res.Value, "ReferenceError")
}

func TestClickAndSetValue(t *testing.T) {
	fake := newFakeDevTools(t, "Chrome/126")
	var lastExpr string
	sentinel := "clicked"
	fake.handler = func(cmd map[string]any) []map[string]any {
		if cmd["method"] == "Runtime.evaluate" {
			params, _ := cmd["params"].(map[string]any)
			lastExpr, _ = params["expression"].(string)
			return []map[string]any{{"id": cmd["id"], "result": map[string]any{
				"result": map[string]any{"type": "string", "value": sentinel},
			}}}
		}
		return []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
	}

	c := newTestClient(t, 5*time.Second)
	require.NoError(t, c.Connect(context.Background(), fake.port()))
	defer c.Close()
	ctx := context.Background()

	out, err := c.ClickElement(ctx, "#submit")
	require.NoError(t, err)
	assert.Equal(t, devtools.OutcomeClicked, out)
	assert.Contains(t, lastExpr, `"#submit"`)

	sentinel = "set"
	out, err = c.SetElementValue(ctx, "input[name=q]", `va"lue`)
	require.NoError(t, err)
	assert.Equal(t, devtools.OutcomeValueSet, out)
	assert.Contains(t, lastExpr, `va\"lue`)

	sentinel = "not_found"
	out, err = c.ClickElement(ctx, ".missing")
	require.NoError(t, err)
	assert.Equal(t, devtools.OutcomeNotFound, out)
}

// internal/devtools/cdp/events.go
package cdp

import (
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// remoteObject is the protocol's value mirror, reduced to the fields the
// event router needs for textual rendering.
type remoteObject struct {
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
}

type consoleAPIEvent struct {
	Type      string         `json:"type"`
	Args      []remoteObject `json:"args"`
	Timestamp float64        `json:"timestamp"` // ms since epoch
}

type requestWillBeSentEvent struct {
	RequestID string  `json:"requestId"`
	WallTime  float64 `json:"wallTime"` // s since epoch
	Request   struct {
		URL      string            `json:"url"`
		Method   string            `json:"method"`
		Headers  map[string]string `json:"headers"`
		PostData string            `json:"postData"`
	} `json:"request"`
}

type responseReceivedEvent struct {
	RequestID string `json:"requestId"`
	Response  struct {
		Status   int               `json:"status"`
		Headers  map[string]string `json:"headers"`
		MIMEType string            `json:"mimeType"`
	} `json:"response"`
}

// networkLifecycleEvent covers both terminal loading events; errorText
// is only present on loadingFailed.
type networkLifecycleEvent struct {
	RequestID string `json:"requestId"`
	ErrorText string `json:"errorText"`
}

// routeEvent classifies an unsolicited frame and folds it into the
// connection's history state. Unknown events are ignored; decode failures
// are dropped like any other malformed frame.
func (c *Client) routeEvent(cn *conn, method string, params json.RawMessage) {
	switch method {
	case "Runtime.consoleAPICalled":
		var ev consoleAPIEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			c.logger.Debug("Dropping undecodable console event.", zap.Error(err))
			return
		}
		cn.console.Record(devtools.ConsoleMessage{
			Level:     ev.Type,
			Text:      renderArgs(ev.Args),
			Timestamp: time.UnixMilli(int64(ev.Timestamp)),
		})

	case "Network.requestWillBeSent":
		var ev requestWillBeSentEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			return
		}
		ts := time.Now()
		if ev.WallTime > 0 {
			ts = time.UnixMilli(int64(ev.WallTime * 1000))
		}
		cn.network.Begin(ev.RequestID, ev.Request.URL, ev.Request.Method, ev.Request.Headers, ev.Request.PostData, ts)

	case "Network.responseReceived":
		var ev responseReceivedEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			return
		}
		cn.network.Meta(ev.RequestID, ev.Response.Status, ev.Response.MIMEType, ev.Response.Headers)

	case "Network.loadingFinished":
		var ev networkLifecycleEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			return
		}
		cn.network.Finish(ev.RequestID)

	case "Network.loadingFailed":
		var ev networkLifecycleEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			return
		}
		cn.network.Fail(ev.RequestID, ev.ErrorText)
	}
}

// renderArgs flattens console arguments to one line of text. Each
// argument falls back through value, then description, then its raw
// serialization, in that order.
func renderArgs(args []remoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, renderRemoteObject(a))
	}
	return strings.Join(parts, " ")
}

func renderRemoteObject(obj remoteObject) string {
	if len(obj.Value) > 0 {
		// Strings render bare, everything else as its JSON form.
		var s string
		if err := json.Unmarshal(obj.Value, &s); err == nil {
			return s
		}
		return string(obj.Value)
	}
	if obj.Description != "" {
		return obj.Description
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return obj.Type
	}
	return string(raw)
}

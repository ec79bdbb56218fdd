// internal/devtools/rdp/events.go
package rdp

import (
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// eventTypes is the fixed allowlist of unsolicited frame types. A frame
// with one of these types is always routed as an event, even when its
// `from` field would match a pending command key.
var eventTypes = map[string]struct{}{
	"consoleAPICall":     {},
	"pageError":          {},
	"networkEvent":       {},
	"networkEventUpdate": {},
	"tabNavigated":       {},
	"frameUpdate":        {},
	"tabDetached":        {},
}

func isEventType(t string) bool {
	_, ok := eventTypes[t]
	return ok
}

type consoleAPICallEvent struct {
	Message struct {
		Level     string            `json:"level"`
		TimeStamp float64           `json:"timeStamp"` // ms since epoch
		Arguments []json.RawMessage `json:"arguments"`
	} `json:"message"`
}

type networkEventEvent struct {
	EventActor struct {
		Actor           string `json:"actor"`
		URL             string `json:"url"`
		Method          string `json:"method"`
		StartedDateTime string `json:"startedDateTime"`
	} `json:"eventActor"`
}

type networkEventUpdateEvent struct {
	From       string `json:"from"`
	UpdateType string `json:"updateType"`
	Response   struct {
		Status   int               `json:"status"`
		MIMEType string            `json:"mimeType"`
		Headers  map[string]string `json:"headers"`
	} `json:"response"`
	ErrorText string `json:"errorText"`
}

type tabNavigatedEvent struct {
	State string `json:"state"`
	URL   string `json:"url"`
}

// routeEvent folds an unsolicited frame into the connection's history
// state. Unknown types are dropped.
func (c *Client) routeEvent(cn *conn, env *envelope, raw json.RawMessage) {
	switch env.Type {
	case "consoleAPICall":
		var ev consoleAPICallEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.Debug("Dropping undecodable console event.", zap.Error(err))
			return
		}
		ts := time.Now()
		if ev.Message.TimeStamp > 0 {
			ts = time.UnixMilli(int64(ev.Message.TimeStamp))
		}
		cn.console.Record(devtools.ConsoleMessage{
			Level:     ev.Message.Level,
			Text:      renderGripArgs(ev.Message.Arguments),
			Timestamp: ts,
		})

	case "networkEvent":
		var ev networkEventEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.EventActor.Actor == "" {
			return
		}
		ts := time.Now()
		if parsed, err := time.Parse(time.RFC3339, ev.EventActor.StartedDateTime); err == nil {
			ts = parsed
		}
		cn.network.Begin(ev.EventActor.Actor, ev.EventActor.URL, ev.EventActor.Method, nil, "", ts)

	case "networkEventUpdate":
		var ev networkEventUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		switch ev.UpdateType {
		case "responseStart", "responseContent":
			cn.network.Meta(ev.From, ev.Response.Status, ev.Response.MIMEType, ev.Response.Headers)
		case "eventTimings":
			// The timings update is the protocol's completion signal.
			cn.network.Finish(ev.From)
		case "failed":
			cn.network.Fail(ev.From, ev.ErrorText)
		}

	case "tabNavigated":
		var ev tabNavigatedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		if ev.State == "stop" && ev.URL != "" {
			cn.actorMu.Lock()
			cn.curURL = ev.URL
			cn.actorMu.Unlock()
		}

	case "pageError", "frameUpdate", "tabDetached":
		// Known but uncaptured; dropping them here keeps them from being
		// mistaken for command replies.

	default:
		c.logger.Debug("Dropping unroutable frame.",
			zap.String("from", env.From), zap.String("type", env.Type))
	}
}

// renderGripArgs flattens console arguments to one line. Primitives render
// as their value; object grips fall back through displayString, then
// class, then raw serialization.
func renderGripArgs(args []json.RawMessage) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += renderGrip(a)
	}
	return out
}

func renderGrip(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var grip struct {
		Type          string `json:"type"`
		Class         string `json:"class"`
		DisplayString string `json:"displayString"`
	}
	if err := json.Unmarshal(raw, &grip); err == nil {
		if grip.DisplayString != "" {
			return grip.DisplayString
		}
		if grip.Class != "" {
			return grip.Class
		}
	}

	// Numbers, booleans and anything unrecognized keep their wire form.
	return string(raw)
}

// renderEvalResult renders an evaluateJS result value the same way
// console arguments render.
func renderEvalResult(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return renderGrip(raw)
}

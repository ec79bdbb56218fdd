// internal/devtools/types.go

// Package devtools defines the protocol-agnostic surface of the browser
// remote-debugging layer: the Client interface implemented once per wire
// protocol (Chromium's WebSocket JSON-RPC dialect and Firefox's
// length-prefixed actor protocol) and the data types crossing it.
package devtools

import (
	"encoding/json"
	"time"
)

// Vendor classifies the browser behind a debugging endpoint.
type Vendor string

const (
	VendorChrome  Vendor = "chrome"
	VendorEdge    Vendor = "edge"
	VendorFirefox Vendor = "firefox"
	VendorUnknown Vendor = "unknown"
)

// ConsoleMessage is one captured console-API call. Immutable once
// recorded.
type ConsoleMessage struct {
	Level     string
	Text      string
	Timestamp time.Time
}

// NetworkEntry is one completed network exchange. Entries are assembled
// incrementally from lifecycle events but only become visible to readers
// after their terminal event (finished or failed).
type NetworkEntry struct {
	RequestID       string
	URL             string
	Method          string
	Status          int
	MIMEType        string
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	PostData        string
	ErrorText       string
	Timestamp       time.Time
}

// Screenshot is a rendered frame returned by CaptureScreenshot.
type Screenshot struct {
	MIMEType string
	// Data holds the decoded image bytes (the wire carries base64).
	Data []byte
}

// EvalResult is the outcome of a JavaScript evaluation. Script exceptions
// are carried as a result with IsException set, never as a Go error; the
// error channel is reserved for protocol and transport failures.
type EvalResult struct {
	Value       string
	IsException bool
}

// NodeRef is an opaque handle to a DOM node resolved from a selector.
// The ID is protocol-specific (a numeric node id for CDP, an actor
// string for the Firefox walker).
type NodeRef struct {
	ID          string
	Description string
}

// Outcome is the discriminated result of a page interaction. The injected
// JavaScript reports a small set of sentinel strings on the wire; clients
// decode them into this type at the facade boundary.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeClicked
	OutcomeValueSet
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClicked:
		return "clicked"
	case OutcomeValueSet:
		return "set"
	default:
		return "not_found"
	}
}

// ImageFormat selects the screenshot encoding.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// RawDocument is the protocol-native serialization of a DOM subtree as
// returned by Document. Its shape differs between the two protocols.
type RawDocument = json.RawMessage

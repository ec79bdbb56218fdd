// internal/devtools/scripts.go
package devtools

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Click and set-value are implemented as injected JavaScript rather than
// native DOM commands; the page-side script reports one of a small fixed
// set of sentinel strings which DecodeOutcome translates back into an
// Outcome. The wire-level sentinels are shared browser-side behavior and
// must not change independently per protocol.
const (
	sentinelNotFound = "not_found"
	sentinelClicked  = "clicked"
	sentinelSet      = "set"
)

// quoteJS returns s as a JavaScript string literal. JSON string encoding
// is valid JS and handles quotes and control characters.
func quoteJS(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail; keep the signature simple.
		return `""`
	}
	return string(b)
}

// ClickScript builds the injected click expression for a CSS selector.
func ClickScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { return %q; }
	el.click();
	return %q;
})()`, quoteJS(selector), sentinelNotFound, sentinelClicked)
}

// SetValueScript builds the injected set-value expression. Input and
// change events are dispatched so framework bindings observe the write.
func SetValueScript(selector, value string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { return %q; }
	el.value = %s;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return %q;
})()`, quoteJS(selector), sentinelNotFound, quoteJS(value), sentinelSet)
}

// ReadyStateScript is a polling probe for document.readyState, used where
// the protocol lacks a native load-complete primitive.
const ReadyStateScript = `document.readyState`

// LoadCompletePromiseScript resolves once the document has finished
// loading; evaluated with promise-await on protocols that support it.
const LoadCompletePromiseScript = `new Promise((resolve) => {
	if (document.readyState === 'complete') { resolve('complete'); return; }
	window.addEventListener('load', () => resolve('complete'), { once: true });
})`

// DecodeOutcome maps a wire sentinel to its Outcome. Unknown sentinels are
// an error: they mean the injected script and this decoder have drifted.
func DecodeOutcome(sentinel string) (Outcome, error) {
	switch sentinel {
	case sentinelNotFound:
		return OutcomeNotFound, nil
	case sentinelClicked:
		return OutcomeClicked, nil
	case sentinelSet:
		return OutcomeValueSet, nil
	default:
		return OutcomeNotFound, fmt.Errorf("unexpected interaction sentinel %q", sentinel)
	}
}

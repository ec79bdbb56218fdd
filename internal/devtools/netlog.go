// internal/devtools/netlog.go
package devtools

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/lancet-cli/internal/history"
)

// NetworkCapacity is the fixed size of the network history buffer.
const NetworkCapacity = 200

// NetworkLog assembles network lifecycle events into completed entries.
// A request-started event seeds a pending entry; response-metadata events
// mutate it in place; only a terminal event (finished or failed) moves it
// into the bounded history buffer. Entries that never reach a terminal
// event are never exposed to readers.
type NetworkLog struct {
	enabled atomic.Bool

	mu      sync.Mutex
	pending map[string]*NetworkEntry

	buf *history.Buffer[NetworkEntry]
}

// NewNetworkLog creates a disabled network log with the standard capacity.
func NewNetworkLog() *NetworkLog {
	return &NetworkLog{
		pending: make(map[string]*NetworkEntry),
		buf:     history.NewBuffer[NetworkEntry](NetworkCapacity),
	}
}

// SetEnabled toggles capture. Disabling does not clear existing history.
func (n *NetworkLog) SetEnabled(on bool) { n.enabled.Store(on) }

// Enabled reports whether network events are currently being recorded.
func (n *NetworkLog) Enabled() bool { return n.enabled.Load() }

// Begin seeds a pending entry for a request-started event. A second Begin
// for the same id (e.g. a redirect re-send) restarts the entry.
func (n *NetworkLog) Begin(id, url, method string, reqHeaders map[string]string, postData string, ts time.Time) {
	if !n.enabled.Load() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[id] = &NetworkEntry{
		RequestID:      id,
		URL:            url,
		Method:         method,
		RequestHeaders: reqHeaders,
		PostData:       postData,
		Timestamp:      ts,
	}
}

// Meta folds response metadata into the pending entry for id. Unknown ids
// are ignored (the start event may have predated capture).
func (n *NetworkLog) Meta(id string, status int, mimeType string, respHeaders map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.pending[id]
	if !ok {
		return
	}
	if status != 0 {
		e.Status = status
	}
	if mimeType != "" {
		e.MIMEType = mimeType
	}
	if respHeaders != nil {
		e.ResponseHeaders = respHeaders
	}
}

// Finish is the success terminal event: the pending entry is removed and
// appended to history with whatever metadata arrived before termination.
func (n *NetworkLog) Finish(id string) {
	n.terminate(id, "")
}

// Fail is the failure terminal event.
func (n *NetworkLog) Fail(id, errorText string) {
	n.terminate(id, errorText)
}

func (n *NetworkLog) terminate(id, errorText string) {
	n.mu.Lock()
	e, ok := n.pending[id]
	if ok {
		delete(n.pending, id)
	}
	n.mu.Unlock()
	if !ok {
		return
	}
	e.ErrorText = errorText
	n.buf.Append(*e)
}

// Entries returns completed exchanges oldest first. urlFilter narrows by
// substring, methodFilter by exact (case-insensitive) match.
func (n *NetworkLog) Entries(urlFilter, methodFilter string) []NetworkEntry {
	all := n.buf.Snapshot()
	if urlFilter == "" && methodFilter == "" {
		return all
	}
	out := make([]NetworkEntry, 0, len(all))
	for _, e := range all {
		if urlFilter != "" && !strings.Contains(e.URL, urlFilter) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(e.Method, methodFilter) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Clear discards completed history and any half-assembled pending entries.
func (n *NetworkLog) Clear() {
	n.mu.Lock()
	n.pending = make(map[string]*NetworkEntry)
	n.mu.Unlock()
	n.buf.Clear()
}

// PendingCount reports entries still awaiting a terminal event.
func (n *NetworkLog) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

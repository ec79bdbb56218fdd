// internal/devtools/console.go
package devtools

import (
	"sync/atomic"

	"github.com/xkilldash9x/lancet-cli/internal/history"
)

// ConsoleCapacity is the fixed size of the console history buffer.
const ConsoleCapacity = 200

// ConsoleLog folds unsolicited console-API events into bounded history.
// Events arriving while capture is disabled are discarded, not queued.
// Shared by both protocol clients; safe for concurrent use from the
// receive loop and from caller threads reading history.
type ConsoleLog struct {
	enabled atomic.Bool
	buf     *history.Buffer[ConsoleMessage]
}

// NewConsoleLog creates a disabled console log with the standard capacity.
func NewConsoleLog() *ConsoleLog {
	return &ConsoleLog{buf: history.NewBuffer[ConsoleMessage](ConsoleCapacity)}
}

// SetEnabled toggles capture. Disabling does not clear existing history.
func (c *ConsoleLog) SetEnabled(on bool) { c.enabled.Store(on) }

// Enabled reports whether console events are currently being recorded.
func (c *ConsoleLog) Enabled() bool { return c.enabled.Load() }

// Record appends msg when capture is enabled; otherwise it is a no-op.
func (c *ConsoleLog) Record(msg ConsoleMessage) {
	if !c.enabled.Load() {
		return
	}
	c.buf.Append(msg)
}

// Messages returns captured history oldest first, optionally narrowed to
// one level.
func (c *ConsoleLog) Messages(levelFilter string) []ConsoleMessage {
	all := c.buf.Snapshot()
	if levelFilter == "" {
		return all
	}
	out := make([]ConsoleMessage, 0, len(all))
	for _, m := range all {
		if m.Level == levelFilter {
			out = append(out, m)
		}
	}
	return out
}

// Clear discards all captured history.
func (c *ConsoleLog) Clear() { c.buf.Clear() }

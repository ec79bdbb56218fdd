// internal/devtools/errors.go
package devtools

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/lancet-cli/internal/pending"
)

var (
	// ErrNoEndpoint means discovery exhausted the scanned port range
	// without finding a debugging endpoint. Fatal to Connect.
	ErrNoEndpoint = errors.New("no debugging endpoint found")

	// ErrNotConnected is returned by operations invoked before Connect or
	// after Close.
	ErrNotConnected = errors.New("not connected to a browser")

	// ErrConnectionClosed fails every command still pending when the
	// connection is torn down or the transport dies. Callers must
	// reconnect; no automatic reconnection is attempted.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout is the per-command reply deadline. The connection stays
	// alive; only the failing call is affected.
	ErrTimeout = pending.ErrTimeout

	// ErrCapabilityMissing marks an operation the connected browser's
	// protocol cannot perform (e.g. screenshots over the actor protocol).
	ErrCapabilityMissing = errors.New("operation not supported by this browser's debugging protocol")
)

// ProtocolError is a failure reported by the browser itself. The
// connection remains usable; the error is local to the failing call.
type ProtocolError struct {
	Code    int64
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

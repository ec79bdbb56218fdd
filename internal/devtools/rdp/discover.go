// internal/devtools/rdp/discover.go
package rdp

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// Default port range scanned when no explicit port is configured.
// Firefox's debugger server binds 6000 by convention.
const (
	ScanPortFirst = 6000
	ScanPortLast  = 6009
)

// dialPort attempts a raw TCP connect to one candidate port.
func dialPort(ctx context.Context, host string, port int, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
}

// discover locates a debugger server socket. With an explicit port only
// that port is tried; with port 0 the default range is scanned in
// ascending order and the first accepting socket wins. The greeting is
// validated later, by the caller.
func discover(ctx context.Context, host string, port int, timeout time.Duration, logger *zap.Logger) (net.Conn, int, error) {
	if port != 0 {
		c, err := dialPort(ctx, host, port, timeout)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: no debugger server on %s:%d (is Firefox running with --start-debugger-server %d?): %v",
				devtools.ErrNoEndpoint, host, port, port, err)
		}
		return c, port, nil
	}

	for p := ScanPortFirst; p <= ScanPortLast; p++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		c, err := dialPort(ctx, host, p, timeout)
		if err != nil {
			logger.Debug("Port probe missed.", zap.Int("port", p), zap.Error(err))
			continue
		}
		return c, p, nil
	}

	return nil, 0, fmt.Errorf("%w: no debugger server answered on %s ports %d-%d; start Firefox with --start-debugger-server <port>",
		devtools.ErrNoEndpoint, host, ScanPortFirst, ScanPortLast)
}

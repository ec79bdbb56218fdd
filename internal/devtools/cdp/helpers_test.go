// internal/devtools/cdp/helpers_test.go
package cdp_test

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/cdp"
)

// fakeDevTools is an in-process Chromium debugging endpoint: it serves
// /json/version and a WebSocket that hands every decoded command to the
// test's handler.
type fakeDevTools struct {
	t       *testing.T
	srv     *httptest.Server
	browser string

	// handler decides the reply frames for one command. Nil means reply
	// {"id": N, "result": {}} to everything.
	handler func(cmd map[string]any) []map[string]any

	mu   sync.Mutex
	conn *websocket.Conn
}

func buildFakeDevTools(t *testing.T, browser string) (*fakeDevTools, *http.ServeMux) {
	f := &fakeDevTools{t: t, browser: browser}

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws://" + r.Host + "/devtools/browser"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Browser": %q, "Protocol-Version": "1.3", "webSocketDebuggerUrl": %q}`, f.browser, wsURL)
	})
	mux.HandleFunc("/devtools/browser", func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = c
		f.mu.Unlock()
		f.serve(c)
	})
	return f, mux
}

func newFakeDevTools(t *testing.T, browser string) *fakeDevTools {
	f, mux := buildFakeDevTools(t, browser)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// newFakeDevToolsOnPort binds the fake to an explicit loopback port, for
// the port-scan scenarios. Skips the test when the port is taken.
func newFakeDevToolsOnPort(t *testing.T, port int, browser string) *fakeDevTools {
	f, mux := buildFakeDevTools(t, browser)

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Skipf("port %d unavailable: %v", port, err)
	}
	srv := httptest.NewUnstartedServer(mux)
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)
	f.srv = srv
	return f
}

func (f *fakeDevTools) serve(c *websocket.Conn) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var cmd map[string]any
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}

		var frames []map[string]any
		if f.handler != nil {
			frames = f.handler(cmd)
		} else {
			frames = []map[string]any{{"id": cmd["id"], "result": map[string]any{}}}
		}
		for _, fr := range frames {
			f.write(fr)
		}
	}
}

// push injects an unsolicited frame (an event) into the stream.
func (f *fakeDevTools) push(frame map[string]any) {
	f.write(frame)
}

// pushRaw injects arbitrary bytes, for malformed-frame scenarios.
func (f *fakeDevTools) pushRaw(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		f.t.Error("fake endpoint has no active connection")
		return
	}
	_ = f.conn.WriteMessage(websocket.TextMessage, data)
}

func (f *fakeDevTools) write(frame map[string]any) {
	data, err := json.Marshal(frame)
	require.NoError(f.t, err)
	f.pushRaw(data)
}

// closeConn drops the websocket from the server side.
func (f *fakeDevTools) closeConn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

// port extracts the bound TCP port.
func (f *fakeDevTools) port() int {
	u, err := url.Parse(f.srv.URL)
	require.NoError(f.t, err)
	p, err := strconv.Atoi(u.Port())
	require.NoError(f.t, err)
	return p
}

// newTestClient builds a client pointed at loopback with short timeouts.
func newTestClient(t *testing.T, timeout time.Duration) *cdp.Client {
	cfg := config.ClientConfig{
		Protocol:         "chrome",
		Host:             "127.0.0.1",
		CommandTimeout:   timeout,
		DiscoveryTimeout: 500 * time.Millisecond,
	}
	return cdp.NewClient(cfg, zaptest.NewLogger(t))
}

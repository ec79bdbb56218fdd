// internal/devtools/rdp/helpers_test.go
package rdp_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/rdp"
)

// Actor handles used by the fake server's default attach dialect.
const (
	rootActor      = "root"
	tabActor       = "server1.conn0.tab1"
	consoleActor   = "server1.conn0.console2"
	inspectorActor = "server1.conn0.inspector3"
	walkerActor    = "server1.conn0.walker4"
	rootNodeActor  = "server1.conn0.node5"
)

// fakeServer is an in-process debugger server speaking the
// length-prefixed actor framing on a loopback TCP socket.
type fakeServer struct {
	t  *testing.T
	ln net.Listener

	// greeting is sent verbatim as the first frame of every connection.
	greeting map[string]any

	// handler decides the reply frames for one request; nil falls back to
	// defaultAttachHandler.
	handler func(req map[string]any) []map[string]any

	reqCount atomic.Int64

	mu   sync.Mutex
	conn net.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeServer{
		t:        t,
		ln:       ln,
		greeting: map[string]any{"from": rootActor, "applicationType": "browser"},
	}
	go f.acceptLoop()
	t.Cleanup(func() { _ = ln.Close(); f.closeConn() })
	return f
}

func (f *fakeServer) acceptLoop() {
	for {
		c, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = c
		f.mu.Unlock()

		f.writeFrame(f.greeting)
		go f.serve(c)
	}
}

func (f *fakeServer) serve(c net.Conn) {
	br := bufio.NewReader(c)
	for {
		req, err := readTestFrame(br)
		if err != nil {
			return
		}
		f.reqCount.Add(1)

		h := f.handler
		if h == nil {
			h = defaultAttachHandler
		}
		for _, frame := range h(req) {
			f.writeFrame(frame)
		}
	}
}

// defaultAttachHandler answers the attach chain and acknowledges
// everything else with a bare {from: to}.
func defaultAttachHandler(req map[string]any) []map[string]any {
	to, _ := req["to"].(string)
	msgType, _ := req["type"].(string)

	switch {
	case to == rootActor && msgType == "listTabs":
		return []map[string]any{{
			"from":     rootActor,
			"selected": 0,
			"tabs": []map[string]any{{
				"actor":          tabActor,
				"title":          "New Tab",
				"url":            "about:blank",
				"selected":       true,
				"consoleActor":   consoleActor,
				"inspectorActor": inspectorActor,
			}},
		}}
	case to == inspectorActor && msgType == "getWalker":
		return []map[string]any{{
			"from":   inspectorActor,
			"walker": map[string]any{"actor": walkerActor},
		}}
	case to == walkerActor && msgType == "getRootNode":
		return []map[string]any{{
			"from": walkerActor,
			"node": map[string]any{"actor": rootNodeActor, "nodeName": "#document"},
		}}
	default:
		return []map[string]any{{"from": to}}
	}
}

// overlayHandler keeps the attach dialect working and delegates only the
// given (actor, type) pairs to the test.
func overlayHandler(overrides map[string]func(req map[string]any) []map[string]any) func(map[string]any) []map[string]any {
	return func(req map[string]any) []map[string]any {
		to, _ := req["to"].(string)
		msgType, _ := req["type"].(string)
		if h, ok := overrides[to+"/"+msgType]; ok {
			return h(req)
		}
		return defaultAttachHandler(req)
	}
}

// push injects an unsolicited frame (an event) into the stream.
func (f *fakeServer) push(frame map[string]any) {
	f.writeFrame(frame)
}

// pushRaw injects arbitrary bytes, for framing-error scenarios.
func (f *fakeServer) pushRaw(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		f.t.Error("fake server has no active connection")
		return
	}
	_, _ = f.conn.Write(data)
}

func (f *fakeServer) writeFrame(frame map[string]any) {
	body, err := json.Marshal(frame)
	require.NoError(f.t, err)
	f.pushRaw([]byte(fmt.Sprintf("%d:%s", len(body), body)))
}

func (f *fakeServer) closeConn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
}

func (f *fakeServer) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func readTestFrame(br *bufio.Reader) (map[string]any, error) {
	header, err := br.ReadString(':')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(header[:len(header)-1])
	if err != nil {
		return nil, err
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, err
	}
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return req, nil
}

// newTestClient builds a client pointed at loopback with short timeouts.
func newTestClient(t *testing.T, timeout time.Duration) *rdp.Client {
	cfg := config.ClientConfig{
		Protocol:         "firefox",
		Host:             "127.0.0.1",
		CommandTimeout:   timeout,
		DiscoveryTimeout: 500 * time.Millisecond,
	}
	return rdp.NewClient(cfg, zaptest.NewLogger(t))
}

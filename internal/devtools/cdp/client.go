// internal/devtools/cdp/client.go
package cdp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/devtools"
	"github.com/xkilldash9x/lancet-cli/internal/pending"
)

// wireMessage is every frame the protocol carries: commands (id+method),
// replies (id+result/error) and events (method+params, no id).
type wireMessage struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// conn bundles everything owned by one live connection. Reconnecting
// replaces the whole bundle; nothing is shared across connections.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	identity  string
	vendor    devtools.Vendor

	nextID   atomic.Int64
	pend     *pending.Table[int64, json.RawMessage]
	console  *devtools.ConsoleLog
	network  *devtools.NetworkLog
	loopDone chan struct{}
}

// Client is the devtools.Client implementation for Chromium-family
// browsers. Safe for concurrent use; at most one live connection exists
// at a time.
type Client struct {
	cfg    config.ClientConfig
	logger *zap.Logger

	mu        sync.Mutex // guards cur during connect/close
	cur       *conn
	connected atomic.Bool
}

var _ devtools.Client = (*Client)(nil)

// NewClient creates a disconnected client.
func NewClient(cfg config.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger.Named("cdp"),
	}
}

// Connect discovers an endpoint, dials its WebSocket and starts the
// receive loop. Any previous connection is torn down first.
func (c *Client) Connect(ctx context.Context, port int) error {
	if err := c.Close(); err != nil {
		return err
	}

	ep, err := discover(ctx, c.cfg.Host, port, c.cfg.DiscoveryTimeout, c.logger)
	if err != nil {
		return err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, ep.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", ep.wsURL, err)
	}

	cn := &conn{
		ws:        ws,
		sessionID: uuid.New().String(),
		identity:  ep.identity,
		vendor:    ep.vendor,
		pend:      pending.NewTable[int64, json.RawMessage](),
		console:   devtools.NewConsoleLog(),
		network:   devtools.NewNetworkLog(),
		loopDone:  make(chan struct{}),
	}

	c.mu.Lock()
	c.cur = cn
	c.mu.Unlock()
	c.connected.Store(true)

	c.logger.Info("Connected to DevTools endpoint.",
		zap.String("session_id", cn.sessionID),
		zap.String("browser", ep.identity),
		zap.Int("port", ep.port))

	go c.readLoop(cn)
	return nil
}

// Close tears down the connection: the receive loop stops, the transport
// closes and every pending command fails with ErrConnectionClosed.
// Closing a disconnected client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	cn := c.cur
	c.cur = nil
	c.mu.Unlock()

	c.connected.Store(false)
	if cn == nil {
		return nil
	}

	err := cn.ws.Close()
	<-cn.loopDone
	return err
}

// IsConnected reports whether the transport is live.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// BrowserIdentity returns the Browser string from discovery metadata.
func (c *Client) BrowserIdentity() string {
	if cn := c.current(); cn != nil {
		return cn.identity
	}
	return ""
}

// Vendor classifies the connected browser.
func (c *Client) Vendor() devtools.Vendor {
	if cn := c.current(); cn != nil {
		return cn.vendor
	}
	return devtools.VendorUnknown
}

func (c *Client) current() *conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// call sends one command and blocks until its reply, the command timeout
// or connection teardown. The pending entry is registered before the
// bytes go out so a fast reply cannot race the registration.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	cn := c.current()
	if cn == nil || !c.connected.Load() {
		return nil, devtools.ErrNotConnected
	}

	msg := wireMessage{ID: cn.nextID.Add(1), Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding %s params: %w", method, err)
		}
		msg.Params = raw
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}

	h := cn.pend.Register(msg.ID, c.cfg.CommandTimeout)

	// gorilla/websocket allows one concurrent writer; WriteMessage locks
	// internally per message, which is the granularity we need.
	if err := cn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		cn.pend.Fail(msg.ID, err)
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	res, err := h.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return res, nil
}

// readLoop is the single receiver for one connection. It runs until the
// transport closes or faults, then fails every still-pending command.
// Frame processing is strictly sequential; the loop never runs
// concurrently with itself.
func (c *Client) readLoop(cn *conn) {
	defer close(cn.loopDone)
	defer func() {
		c.connected.Store(false)
		cn.pend.FailAll(devtools.ErrConnectionClosed)
	}()

	for {
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("Receive loop ended.",
				zap.String("session_id", cn.sessionID),
				zap.Error(err))
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped; the loop must survive them.
			c.logger.Debug("Dropping unparsable frame.", zap.Error(err))
			continue
		}

		switch {
		case msg.ID != 0:
			c.resolve(cn, &msg)
		case msg.Method != "":
			c.routeEvent(cn, msg.Method, msg.Params)
		default:
			// Neither a reply nor an event; silently dropped.
		}
	}
}

// resolve completes the pending command matching a reply frame. Replies
// with no matching id (late arrivals after a timeout, duplicates) are
// dropped without side effects.
func (c *Client) resolve(cn *conn, msg *wireMessage) {
	if msg.Error != nil {
		matched := cn.pend.Fail(msg.ID, &devtools.ProtocolError{
			Code:    msg.Error.Code,
			Message: msg.Error.Message,
		})
		if !matched {
			c.logger.Debug("Error reply with no pending command.", zap.Int64("id", msg.ID))
		}
		return
	}
	if !cn.pend.Resolve(msg.ID, msg.Result) {
		c.logger.Debug("Reply with no pending command.", zap.Int64("id", msg.ID))
	}
}

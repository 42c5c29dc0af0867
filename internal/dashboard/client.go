package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kayz/biometrics/internal/logger"
)

const (
	PushPath      = "/ws/dashboard"
	BootstrapPath = "/api/dashboard/data"

	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Connection banners.
const (
	MsgConnected       = "Connected to BIOMETRICS"
	MsgConnectionError = "Connection error - retrying..."
)

// Client feeds a Board from the dashboard server: one bootstrap fetch and
// a push channel that reconnects on a fixed delay.
type Client struct {
	baseURL string
	board   *Board

	// ReconnectDelay defaults to ReconnectDelay.
	ReconnectDelay time.Duration
	HTTPClient     *http.Client
	Dialer         *websocket.Dialer

	mu     sync.Mutex
	ctx    context.Context
	conn   *websocket.Conn
	closed bool
}

// NewClient targets the server at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, board *Board) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		board:          board,
		ReconnectDelay: ReconnectDelay,
		HTTPClient:     &http.Client{Timeout: 10 * time.Second},
		Dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		ctx:            context.Background(),
	}
}

// PushURL is the websocket URL derived from the base URL.
func (c *Client) PushURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse dashboard url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + PushPath
	return u.String(), nil
}

// Bootstrap loads the initial snapshot. When the server cannot be reached
// the board switches to synthetic data and the error is returned for
// logging only.
func (c *Client) Bootstrap(ctx context.Context) error {
	snap, err := c.fetch(ctx)
	if err != nil {
		logger.Info("[Dashboard] bootstrap failed, using synthetic data: %v", err)
		c.board.StartSynthetic()
		return err
	}
	c.board.Load(*snap)
	return nil
}

func (c *Client) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BootstrapPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bootstrap returned %d", resp.StatusCode)
	}
	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode bootstrap: %w", err)
	}
	return &snap, nil
}

// Run connects and keeps reconnecting until ctx is done.
func (c *Client) Run(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.Connect()
	<-ctx.Done()
	c.Close()
}

// Connect dials the push channel once. Failures schedule a reconnect.
func (c *Client) Connect() {
	c.mu.Lock()
	ctx, closed := c.ctx, c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	target, err := c.PushURL()
	if err != nil {
		c.fail(err)
		return
	}
	logger.Debug("[Dashboard] connecting to %s", target)

	conn, _, err := c.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		c.fail(err)
		return
	}

	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.board.SetConnected(true)
	c.board.Alert(MsgConnected, SeveritySuccess)
	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.conn == conn
			if current {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			if current {
				c.fail(err)
			}
			return
		}

		env, err := Decode(data)
		if err != nil {
			logger.Warn("[Dashboard] %v", err)
			continue
		}
		if err := c.board.Apply(env); err != nil {
			logger.Warn("[Dashboard] %v", err)
		}
	}
}

// fail reports the error and arms the single reconnect timer.
func (c *Client) fail(err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	logger.Debug("[Dashboard] push channel: %v", err)
	c.board.SetConnected(false)
	c.board.Alert(MsgConnectionError, SeverityError)
	c.board.Scheduler().After(timerReconnect, c.ReconnectDelay, c.Connect)
}

// Close drops the connection and stops reconnecting.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.board.Scheduler().Cancel(timerReconnect)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		conn.Close()
	}
}

package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// LogNotification is one logsNotification payload.
type LogNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
	Logs      []string
}

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	WriteTimeout      time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient maintains a logsSubscribe stream over a single WebSocket
// connection, reconnecting with backoff and resubscribing after drops.
type WSClient struct {
	endpoint string
	mentions []string // program addresses the subscription filters on
	config   WSConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	requestID atomic.Uint64
	closed    atomic.Bool

	out  chan LogNotification
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient connects and subscribes to logs mentioning the given programs.
// Notifications are delivered on the returned client's channel until Close.
func NewWSClient(ctx context.Context, endpoint string, mentions []string, cfg *WSConfig, logger *log.Logger) (*WSClient, error) {
	c := &WSClient{
		endpoint: endpoint,
		mentions: mentions,
		config:   DefaultWSConfig(),
		logger:   logger,
		out:      make(chan LogNotification, 256),
		done:     make(chan struct{}),
	}
	if cfg != nil {
		c.config = *cfg
	}
	if c.logger == nil {
		c.logger = log.Default()
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.subscribe(); err != nil {
		c.conn.Close()
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Notifications returns the log notification stream.
func (c *WSClient) Notifications() <-chan LogNotification {
	return c.out
}

// Close shuts the client down and closes the notification channel.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.out)
	return nil
}

func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.endpoint, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

func (c *WSClient) subscribe() error {
	filter := map[string]interface{}{"mentions": c.mentions}
	if len(c.mentions) == 0 {
		filter = map[string]interface{}{"all": nil}
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "logsSubscribe",
		Params: []interface{}{
			filter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send logsSubscribe: %w", err)
	}
	return nil
}

// wsMessage covers both subscription confirmations and notifications.
type wsMessage struct {
	Method string `json:"method"`
	Params *struct {
		Result struct {
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string      `json:"signature"`
				Err       interface{} `json:"err"`
				Logs      []string    `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Printf("[ws] read error, reconnecting: %v", err)
			if !c.reconnect() {
				return
			}
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Printf("[ws] unmarshal message: %v", err)
			continue
		}
		if msg.Method != "logsNotification" || msg.Params == nil {
			continue
		}

		notif := LogNotification{
			Signature: msg.Params.Result.Value.Signature,
			Slot:      msg.Params.Result.Context.Slot,
			Err:       msg.Params.Result.Value.Err,
			Logs:      msg.Params.Result.Value.Logs,
		}

		select {
		case c.out <- notif:
		case <-c.done:
			return
		default:
			// Drop on backpressure: discovery is best-effort and a
			// missed event is recovered by the backfill path.
			c.logger.Printf("[ws] notification buffer full, dropping %s", notif.Signature)
		}
	}
}

// reconnect re-establishes the connection and resubscribes. Returns false
// when the client is shutting down.
func (c *WSClient) reconnect() bool {
	delay := c.config.ReconnectDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			if err := c.subscribe(); err == nil {
				c.logger.Printf("[ws] reconnected to %s", c.endpoint)
				return true
			}
		}

		c.logger.Printf("[ws] reconnect failed: %v", err)
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.Printf("[ws] ping failed: %v", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}

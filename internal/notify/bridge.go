package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFactor   = 0.3
)

// Frame types exchanged with the front-end.
const (
	FrameShow     = "notification_show"
	FrameWithdraw = "notification_withdraw"
	FrameAction   = "notification_action"
)

// ErrNotConnected is returned by Show and Withdraw while the bridge has no
// live connection.
var ErrNotConnected = errors.New("notification bridge not connected")

// Frame is one JSON message on the bridge.
type Frame struct {
	Type         string        `json:"type"`
	Tag          string        `json:"tag,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Action       string        `json:"action,omitempty"`
}

// ActionHandler is called for every action the front-end reports, e.g. a
// clicked notification button.
type ActionHandler func(action string)

// Bridge forwards notifications to a front-end listening on a websocket and
// relays the actions it reports back.
type Bridge struct {
	url      string
	onAction ActionHandler

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewBridge returns a bridge to url. onAction may be nil.
func NewBridge(url string, onAction ActionHandler) *Bridge {
	return &Bridge{url: url, onAction: onAction}
}

// Connect dials the front-end once.
func (b *Bridge) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, b.url, http.Header{})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", b.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	b.connMu.Lock()
	if b.conn != nil {
		b.conn.Close()
	}
	b.conn = conn
	b.connMu.Unlock()

	log.Info("bridge connected", "url", b.url)
	return nil
}

// Run keeps the bridge connected until ctx is done, reconnecting with
// jittered exponential backoff and dispatching incoming actions.
func (b *Bridge) Run(ctx context.Context) {
	backoff := initialBackoff
	for ctx.Err() == nil {
		if err := b.Connect(ctx); err != nil {
			log.Warn("bridge connection failed", "error", err)

			jitter := time.Duration(float64(backoff) * jitterFactor * (rand.Float64()*2 - 1))
			sleep := backoff + jitter
			if sleep < 0 {
				sleep = backoff
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}

			backoff = time.Duration(float64(backoff) * backoffFactor)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		done := make(chan struct{})
		go b.pingLoop(ctx, done)
		b.readLoop()
		close(done)
		b.drop()
	}
}

// Close shuts the current connection down.
func (b *Bridge) Close() error {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	if b.conn == nil {
		return nil
	}
	b.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *Bridge) Show(n Notification) error {
	return b.send(Frame{Type: FrameShow, Tag: n.Tag, Notification: &n})
}

func (b *Bridge) Withdraw(tag string) error {
	return b.send(Frame{Type: FrameWithdraw, Tag: tag})
}

func (b *Bridge) send(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", f.Type, err)
	}

	b.connMu.Lock()
	defer b.connMu.Unlock()
	if b.conn == nil {
		return ErrNotConnected
	}
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Type, err)
	}
	return nil
}

func (b *Bridge) current() *websocket.Conn {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return b.conn
}

func (b *Bridge) drop() {
	b.connMu.Lock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	b.connMu.Unlock()
}

func (b *Bridge) readLoop() {
	conn := b.current()
	if conn == nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("bridge read error", "error", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(message, &f); err != nil {
			log.Warn("failed to parse bridge frame", "error", err)
			continue
		}
		if f.Type != FrameAction || f.Action == "" {
			continue
		}
		log.Debug("bridge action", "action", f.Action)
		if b.onAction != nil {
			b.onAction(f.Action)
		}
	}
}

func (b *Bridge) pingLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			b.Close()
			return
		case <-ticker.C:
			b.connMu.Lock()
			if b.conn != nil {
				b.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					b.conn.Close()
				}
			}
			b.connMu.Unlock()
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// frontEnd is a test websocket server that records frames and can push
// frames back to the bridge.
type frontEnd struct {
	srv    *httptest.Server
	frames chan Frame
	conns  chan *websocket.Conn
}

func newFrontEnd(t *testing.T) *frontEnd {
	t.Helper()
	fe := &frontEnd{frames: make(chan Frame, 16), conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	fe.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fe.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f Frame
			if json.Unmarshal(data, &f) == nil {
				fe.frames <- f
			}
		}
	}))
	t.Cleanup(fe.srv.Close)
	return fe
}

func (fe *frontEnd) url() string {
	return "ws" + strings.TrimPrefix(fe.srv.URL, "http")
}

func (fe *frontEnd) next(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-fe.frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestBridgeNotConnected(t *testing.T) {
	b := NewBridge("ws://127.0.0.1:1/none", nil)
	if err := b.Show(Notification{Tag: UpdatesTag}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestBridgeSendsFrames(t *testing.T) {
	fe := newFrontEnd(t)
	b := NewBridge(fe.url(), nil)
	if err := b.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer b.Close()

	if err := b.Withdraw(UpdatesTag); err != nil {
		t.Fatal(err)
	}
	n := Notification{Tag: UpdatesTag, Texts: []string{"Updates found!"}, Action: ActionShowUpdates, ExpiresOnReboot: true}
	if err := b.Show(n); err != nil {
		t.Fatal(err)
	}

	if f := fe.next(t); f.Type != FrameWithdraw || f.Tag != UpdatesTag {
		t.Fatalf("first frame = %+v", f)
	}
	f := fe.next(t)
	if f.Type != FrameShow || f.Notification == nil {
		t.Fatalf("second frame = %+v", f)
	}
	if f.Notification.Title() != "Updates found!" || !f.Notification.ExpiresOnReboot {
		t.Fatalf("notification = %+v", f.Notification)
	}
}

func TestBridgeRunDispatchesActions(t *testing.T) {
	fe := newFrontEnd(t)
	actions := make(chan string, 1)
	b := NewBridge(fe.url(), func(a string) { actions <- a })

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(stopped)
	}()

	var conn *websocket.Conn
	select {
	case conn = <-fe.conns:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge never connected")
	}
	conn.WriteJSON(Frame{Type: "something_else"})
	conn.WriteJSON(Frame{Type: FrameAction, Action: ActionUpdateAll})

	select {
	case a := <-actions:
		if a != ActionUpdateAll {
			t.Fatalf("action = %q", a)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("action not dispatched")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

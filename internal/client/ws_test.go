package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
)

// pubsubServer accepts one subscription per connection and pushes a
// notification for every value sent on notify.
type pubsubServer struct {
	t        *testing.T
	subID    uint64
	reject   bool
	requests chan subscribeRequest
	notify   chan uint64
}

func newPubsubServer(t *testing.T) (*pubsubServer, string) {
	t.Helper()
	p := &pubsubServer{
		t:        t,
		subID:    77,
		requests: make(chan subscribeRequest, 4),
		notify:   make(chan uint64, 4),
	}
	srv := httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(srv.Close)
	return p, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (p *pubsubServer) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req subscribeRequest
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	p.requests <- req

	if p.reject {
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32602, "message": "Invalid param"},
		})
		return
	}

	// Unrelated traffic first; the watcher must skip it.
	conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "method": "slotNotification", "params": map[string]interface{}{"subscription": 1}})
	conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": p.subID})

	for slot := range p.notify {
		msg := map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  methodAccountNotification,
			"params": map[string]interface{}{
				"subscription": p.subID,
				"result": map[string]interface{}{
					"context": map[string]interface{}{"slot": slot},
					"value":   nil,
				},
			},
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func TestWatcherSubscribesAndNotifies(t *testing.T) {
	p, url := newPubsubServer(t)
	addr := solana.NewWallet().PublicKey()
	w := NewAccountWatcher(url, addr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := w.Listen(ctx)()
	connected, ok := msg.(WatchConnectedMsg)
	if !ok {
		t.Fatalf("Listen() = %T, want WatchConnectedMsg", msg)
	}
	if connected.Address != addr {
		t.Errorf("connected address = %s, want %s", connected.Address, addr)
	}
	if !w.Connected() {
		t.Error("Connected() = false after subscribe")
	}

	req := <-p.requests
	if req.Method != methodAccountSubscribe {
		t.Errorf("method = %q, want %q", req.Method, methodAccountSubscribe)
	}
	raw, _ := json.Marshal(req.Params)
	if !strings.Contains(string(raw), addr.String()) || !strings.Contains(string(raw), `"commitment":"confirmed"`) {
		t.Errorf("params = %s, want address and confirmed commitment", raw)
	}

	p.notify <- 42
	msg = w.ReadLoop(ctx)()
	changed, ok := msg.(AccountChangedMsg)
	if !ok {
		t.Fatalf("ReadLoop() = %T, want AccountChangedMsg", msg)
	}
	if changed.Slot != 42 || changed.Address != addr {
		t.Errorf("AccountChangedMsg = %+v", changed)
	}
}

func TestWatcherDisconnect(t *testing.T) {
	p, url := newPubsubServer(t)
	w := NewAccountWatcher(url, solana.NewWallet().PublicKey(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, ok := w.Listen(ctx)().(WatchConnectedMsg); !ok {
		t.Fatal("Listen() did not connect")
	}
	close(p.notify) // server handler returns and closes the connection

	msg := w.ReadLoop(ctx)()
	if _, ok := msg.(WatchDisconnectedMsg); !ok {
		t.Fatalf("ReadLoop() = %T, want WatchDisconnectedMsg", msg)
	}
	if w.Connected() {
		t.Error("Connected() = true after disconnect")
	}
}

func TestWatcherCancelStopsRetry(t *testing.T) {
	p, url := newPubsubServer(t)
	p.reject = true
	w := NewAccountWatcher(url, solana.NewWallet().PublicKey(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan interface{}, 1)
	go func() { done <- w.Listen(ctx)() }()

	<-p.requests // first attempt rejected, watcher is now backing off
	cancel()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("Listen() after cancel = %T, want nil", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen() kept retrying after cancel")
	}
}

func TestReadLoopWithoutConnection(t *testing.T) {
	w := NewAccountWatcher("ws://127.0.0.1:1", solana.NewWallet().PublicKey(), nil)
	if _, ok := w.ReadLoop(context.Background())().(WatchDisconnectedMsg); !ok {
		t.Error("ReadLoop() without connection should report disconnect")
	}
}

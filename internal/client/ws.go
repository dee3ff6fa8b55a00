package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
	subscribeTimeout   = 10 * time.Second
)

// AccountWatcher subscribes to changes of one account over the RPC node's
// pubsub WebSocket. It only signals that the account changed; callers read
// the account through the transport.
type AccountWatcher struct {
	url     string
	address solana.PublicKey
	logger  *slog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (ping, subscribe)
	conn    *websocket.Conn
	subID   uint64
	pingCtx context.CancelFunc // cancels the active ping goroutine
}

// NewAccountWatcher creates a watcher for address on the pubsub endpoint url.
func NewAccountWatcher(url string, address solana.PublicKey, logger *slog.Logger) *AccountWatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AccountWatcher{url: url, address: address, logger: logger}
}

// Address returns the watched account.
func (w *AccountWatcher) Address() solana.PublicKey { return w.address }

// --- Bubble Tea messages ---

// WatchConnectedMsg is sent when the subscription is active.
type WatchConnectedMsg struct{ Address solana.PublicKey }

// WatchDisconnectedMsg is sent when the connection drops.
type WatchDisconnectedMsg struct {
	Address solana.PublicKey
	Err     error
}

// AccountChangedMsg is sent for every account notification.
type AccountChangedMsg struct {
	Address solana.PublicKey
	Slot    uint64
}

// Listen returns a Bubble Tea command that connects and subscribes,
// retrying with exponential backoff until it succeeds or ctx is done.
func (w *AccountWatcher) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			if ctx.Err() != nil {
				return nil
			}

			conn, subID, err := w.connect(ctx)
			if err != nil {
				w.logger.Warn("watch connect failed", "address", w.address, "err", err, "retry", delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			// Cancel any previous ping goroutine.
			w.mu.Lock()
			if w.pingCtx != nil {
				w.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			w.conn = conn
			w.subID = subID
			w.pingCtx = pingCancel
			w.mu.Unlock()

			go w.pingLoop(pingCtx, conn)

			w.logger.Info("watch subscribed", "address", w.address, "subscription", subID)
			return WatchConnectedMsg{Address: w.address}
		}
	}
}

// connect dials and performs accountSubscribe. The connection isn't shared
// yet, so no write mutex is needed.
func (w *AccountWatcher) connect(ctx context.Context) (*websocket.Conn, uint64, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, 0, err
	}

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  methodAccountSubscribe,
		Params: []interface{}{
			w.address.String(),
			subscribeOptions{Encoding: "base64", Commitment: "confirmed"},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, 0, err
	}

	conn.SetReadDeadline(time.Now().Add(subscribeTimeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return nil, 0, err
		}
		if msg.ID == nil || *msg.ID != req.ID {
			continue
		}
		if msg.Error != nil {
			conn.Close()
			return nil, 0, fmt.Errorf("%s: %s (%d)", methodAccountSubscribe, msg.Error.Message, msg.Error.Code)
		}
		var subID uint64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			conn.Close()
			return nil, 0, fmt.Errorf("%s: bad subscription id: %w", methodAccountSubscribe, err)
		}
		return conn, subID, nil
	}
}

// ReadLoop returns a Bubble Tea command that waits for the next account
// notification. It should be started after WatchConnectedMsg and re-issued
// after every AccountChangedMsg.
func (w *AccountWatcher) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		w.mu.Lock()
		conn := w.conn
		subID := w.subID
		w.mu.Unlock()
		if conn == nil {
			return WatchDisconnectedMsg{Address: w.address, Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				w.mu.Lock()
				if w.conn == conn {
					w.conn = nil
				}
				w.mu.Unlock()
				conn.Close()
				if ctx.Err() != nil {
					return nil
				}
				return WatchDisconnectedMsg{Address: w.address, Err: err}
			}

			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Method != methodAccountNotification || msg.Params == nil || msg.Params.Subscription != subID {
				continue
			}
			return AccountChangedMsg{Address: w.address, Slot: msg.Params.Result.Context.Slot}
		}
	}
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes; cancellation also closes
// the connection so a blocked ReadLoop returns.
func (w *AccountWatcher) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.writeMu.Lock()
			conn.Close()
			w.writeMu.Unlock()
			return
		case <-ticker.C:
			w.mu.Lock()
			cc := w.conn
			w.mu.Unlock()
			if cc != conn {
				return
			}
			w.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			w.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Connected reports whether a subscription is live.
func (w *AccountWatcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

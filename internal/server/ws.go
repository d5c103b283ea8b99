package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/obitec/bodyway/internal/channel"
	"github.com/obitec/bodyway/internal/session"
)

const (
	writeTimeout = 5 * time.Second
	closeGrace   = 500 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// OverlaySource publishes overlays to subscribers.
type OverlaySource interface {
	Subscribe() (<-chan session.Overlay, func())
}

// Message types sent to websocket clients.
const (
	MessageOverlay = "overlay"
	MessageResult  = "result"
)

// Message is the envelope for every websocket message sent to clients.
type Message struct {
	Type    string           `json:"type"`
	Overlay *session.Overlay `json:"overlay,omitempty"`
	Result  *channel.Result  `json:"result,omitempty"`
}

// OverlayHandler pushes overlays over a websocket and answers method calls
// sent by the client. Query parameters width and height fit overlays to the
// client's view.
type OverlayHandler struct {
	source  OverlaySource
	channel *channel.Handler
	logger  *zap.Logger
}

// NewOverlayHandler creates a new OverlayHandler.
func NewOverlayHandler(source OverlaySource, ch *channel.Handler, logger *zap.Logger) *OverlayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverlayHandler{source: source, channel: ch, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	viewW, _ := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	viewH, _ := strconv.ParseFloat(r.URL.Query().Get("height"), 64)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	overlays, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	var writeMu sync.Mutex
	send := func(msg Message) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readCalls(conn, send)
	}()

	// After the session closes the subscription, pending call results get a
	// short grace period before the connection is closed.
	var closing <-chan time.Time
	for {
		select {
		case <-done:
			return
		case <-closing:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session disposed"),
				time.Now().Add(writeTimeout))
			return
		case ov, ok := <-overlays:
			if !ok {
				overlays = nil
				closing = time.After(closeGrace)
				continue
			}
			ov = ov.Fit(viewW, viewH)
			if err := send(Message{Type: MessageOverlay, Overlay: &ov}); err != nil {
				h.logger.Debug("websocket write", zap.Error(err))
				return
			}
		}
	}
}

// readCalls answers method calls until the connection closes.
func (h *OverlayHandler) readCalls(conn *websocket.Conn, send func(Message) error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var call channel.MethodCall
		var result channel.Result
		if err := json.Unmarshal(data, &call); err != nil || call.Method == "" {
			result = channel.Result{Error: &channel.Error{Code: channel.CodeBadArgs, Message: "invalid method call"}}
		} else if h.channel == nil {
			result = channel.Result{NotImplemented: true}
		} else {
			result = h.channel.Handle(call)
		}

		if err := send(Message{Type: MessageResult, Result: &result}); err != nil {
			return
		}
	}
}

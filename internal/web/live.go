package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(h.origins, r.Header.Get("Origin"))
		},
	}
}

// Live upgrades to a websocket and pushes a fresh view on connect and every
// refresh interval until the client goes away or the server shuts down.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	log := h.log.WithField("client_id", clientID)
	log.Info("Live feed client connected")

	metrics.WebsocketClients.Inc()
	defer metrics.WebsocketClients.Dec()

	ctx, cancel := context.WithCancel(h.shutdown)
	defer cancel()

	go readPump(conn, cancel, log)

	if err := h.pushView(ctx, conn); err != nil {
		log.WithError(err).Debug("Initial push failed")
		return
	}

	refresh := time.NewTicker(h.refresh)
	defer refresh.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			log.Info("Live feed client disconnected")
			return

		case <-refresh.C:
			if err := h.pushView(ctx, conn); err != nil {
				log.WithError(err).Debug("Push failed, closing")
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) pushView(ctx context.Context, conn *websocket.Conn) error {
	view := h.views.BuildView(ctx)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(view)
}

// readPump drains client frames so pongs and close frames are processed; it
// cancels the feed when the connection drops.
func readPump(conn *websocket.Conn, cancel context.CancelFunc, log *logrus.Entry) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("Live feed read error")
			}
			return
		}
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Package live streams progression events to the admin console over a
// WebSocket.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/technomatra/missions/internal/missions"
)

// Feed is the subscription side of the event broker.
type Feed interface {
	Subscribe(topic string) chan []byte
	Unsubscribe(topic string, ch chan []byte)
}

type Handler struct {
	feed   Feed
	logger *slog.Logger
	ping   time.Duration
}

func NewHandler(logger *slog.Logger, feed Feed) *Handler {
	return &Handler{feed: feed, logger: logger, ping: 30 * time.Second}
}

// ServeHTTP upgrades the connection and forwards every admin topic event
// as a text message until either side goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.feed.Subscribe(missions.AdminTopic)
	defer h.feed.Unsubscribe(missions.AdminTopic, ch)

	// The admin never sends anything; CloseRead handles control frames and
	// cancels ctx when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(h.ping)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("live feed closed", "error", ctx.Err())
			return
		case data := <-ch:
			if err := write(ctx, conn, data); err != nil {
				h.logger.Debug("live feed write failed", "error", err)
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				h.logger.Debug("live feed ping failed", "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

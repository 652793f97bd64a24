package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/deribit-index/internal/model"
	"github.com/rickgao/deribit-index/internal/stream"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage is one committed batch as sent to websocket clients.
type streamMessage struct {
	TickID    string          `json:"tick_id"`
	CreatedAt int64           `json:"created_at"`
	Prices    []priceResponse `json:"prices"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	filter := model.NormalizeTicker(r.URL.Query().Get("ticker"))

	sub, err := s.stream.Subscribe()
	if err != nil {
		s.setErrorResponse(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("stream subscriber connected",
		"remote", r.RemoteAddr,
		"ticker", filter,
	)

	// Reading detects the client going away; inbound messages are ignored.
	go func() {
		defer sub.Close()
		conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		e, ok := sub.Next()
		if !ok {
			break
		}

		msg, ok := buildStreamMessage(e, filter)
		if !ok {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("stream write failed", "error", err)
			break
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.logger.Info("stream subscriber disconnected", "remote", r.RemoteAddr)
}

// buildStreamMessage applies the ticker filter. It reports false when no
// observation survives.
func buildStreamMessage(e stream.Event, filter string) (streamMessage, bool) {
	msg := streamMessage{
		TickID:    e.TickID,
		CreatedAt: e.Batch.CreatedAt,
	}
	for _, o := range e.Batch.Observations {
		if filter != "" && o.Ticker != filter {
			continue
		}
		msg.Prices = append(msg.Prices, toResponse(o))
	}
	return msg, len(msg.Prices) > 0
}

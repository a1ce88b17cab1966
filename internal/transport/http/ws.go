package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/heywon01/math-quiz/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleLeaderboardWS streams leaderboard snapshots: the current board on
// connect, then one message per score change. The connection is read only to
// detect the client going away; all writes happen on this goroutine.
func (h *Handler) handleLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before the initial snapshot so a score change racing the
	// snapshot load is queued rather than lost.
	updates, cancel := h.hub.Subscribe()
	defer cancel()

	initial, err := h.users.Leaderboard(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: initial}); err != nil {
		return
	}

	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, update); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerGone:
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, lb domain.Leaderboard) error {
	return conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: lb})
}

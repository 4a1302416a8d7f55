// Package http exposes the operational HTTP surface: a health endpoint and a
// read-only websocket feed streaming ranking snapshots. Game clients never
// use this port; they speak the TLS text protocol.
package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
)

// RankingFeed pushes a ranking snapshot to each websocket subscriber whenever
// the scoreboard or the roster changes.
type RankingFeed struct {
	game     *game.Game
	upgrader websocket.Upgrader
}

func NewRankingFeed(g *game.Game) *RankingFeed {
	return &RankingFeed{
		game: g,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string         `json:"type"`
	Payload domain.Ranking `json:"payload"`
}

// ServeWS upgrades the request and streams ranking updates until the client
// disconnects. The connection is outbound-only; inbound frames are drained
// solely to detect the close.
func (h *RankingFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ops] ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.game.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
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
			if err := conn.WriteJSON(outboundMessage{Type: "ranking", Payload: update}); err != nil {
				log.Printf("[ops] ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

// NewMux builds the ops mux: /healthz and the /ws ranking feed.
func NewMux(feed *RankingFeed) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", feed.ServeWS)
	return mux
}

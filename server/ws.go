package server

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hearthside/keeper/assistant"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Voice clients connect from app webviews with arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS speaks the same request/response frames as the HTTP endpoint,
// one JSON message per utterance. The connection closes after a result
// with the close action.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Frames without a session ID share one session per connection.
	connSession := uuid.NewString()

	for {
		var req voiceRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] WebSocket read failed: %v", err)
			}
			return
		}

		if req.SessionID == "" {
			req.SessionID = connSession
		}

		res, err := s.engine.HandleUtterance(r.Context(), req.UID, req.SessionID, req.Text)
		if err != nil {
			log.Printf("[SERVER] WebSocket utterance failed: %v", err)
			res = assistant.Result{
				Action: assistant.ActionReply,
				Reply:  "Sorry, something went wrong. Please try again.",
				Intent: "error",
			}
		}

		if err := conn.WriteJSON(res); err != nil {
			log.Printf("[SERVER] WebSocket write failed: %v", err)
			return
		}
		if res.Action == assistant.ActionClose {
			return
		}
	}
}

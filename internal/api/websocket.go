package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// maxCloseReason is the longest reason that fits a close control frame
const maxCloseReason = 123

// EchoHandler upgrades connections and echoes every frame back to the sender.
// It is a placeholder for pushing live observations and never touches the store.
type EchoHandler struct {
	upgrader websocket.Upgrader
}

// NewEchoHandler creates a new echo WebSocket handler
func NewEchoHandler() *EchoHandler {
	return &EchoHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles one WebSocket connection until it closes or fails
func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		log.Printf("Error upgrading websocket: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.New()
	log.Printf("WebSocket %s connected from %s", id, r.RemoteAddr)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); ok {
				log.Printf("WebSocket %s closed: %v", id, err)
				return
			}
			log.Printf("WebSocket %s error receiving message: %v", id, err)
			sendCloseMessage(conn, websocket.CloseInternalServerErr, fmt.Sprintf("Error occured: %v", err))
			return
		}

		var reply string
		switch msgType {
		case websocket.TextMessage:
			log.Printf("WebSocket %s text received: %s", id, payload)
			reply = fmt.Sprintf("Echo back text: %s", payload)
		case websocket.BinaryMessage:
			log.Printf("WebSocket %s received bytes of length: %d", id, len(payload))
			reply = fmt.Sprintf("Received bytes of length: %d", len(payload))
		default:
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			log.Printf("WebSocket %s error sending: %v", id, err)
			sendCloseMessage(conn, websocket.CloseInternalServerErr, fmt.Sprintf("Error occured: %v", err))
			return
		}
	}
}

func sendCloseMessage(conn *websocket.Conn, code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

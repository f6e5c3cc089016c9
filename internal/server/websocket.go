package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to WebSocket and streams parsed log entries to
// the client until it disconnects or the capture ends.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	entries := s.hub.Subscribe()

	// Read pump — detect client disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Write pump — one JSON message per entry.
	for entry := range entries {
		msg := struct {
			Level     string `json:"level"`
			Letter    string `json:"letter"`
			Timestamp string `json:"timestamp"`
			Tag       string `json:"tag"`
			Message   string `json:"message"`
			Raw       string `json:"raw"`
		}{
			Level:     entry.Level.String(),
			Letter:    entry.Level.Letter(),
			Timestamp: entry.Timestamp,
			Tag:       entry.Tag,
			Message:   entry.Message,
			Raw:       entry.Raw,
		}

		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

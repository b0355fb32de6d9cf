package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Upgrader builds the websocket upgrader for dashboard connections. An empty
// or "*" allowedOrigin accepts any origin.
func Upgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
}

// ServeWS upgrades the request and streams instanceID's frames to it until
// either side goes away.
func (h *Hub) ServeWS(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, instanceID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade websocket")
		return
	}

	client := NewClient(instanceID, conn)
	if !h.Register(client) {
		conn.Close()
		return
	}
	logger := h.logger.WithFields(logrus.Fields{
		"client":   client.ID,
		"instance": instanceID,
	})
	logger.Info("Dashboard connected")

	// Read pump: nothing is expected from the dashboard, reading detects close.
	go func() {
		defer func() {
			h.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.WithError(err).Warn("Websocket read error")
				}
				return
			}
		}
	}()

	// Write pump
	go func() {
		defer func() {
			conn.Close()
			logger.Info("Dashboard disconnected")
		}()
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.WithError(err).Debug("Websocket write error")
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()
}

package ws

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

// WSHandler upgrades an authenticated request and parks the connection in
// the user's room until the client goes away. Incoming frames are ignored.
func WSHandler(hub *Hub, currentUser func(*http.Request) *models.User, log *logger.ZapLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			http.Error(w, "Please login first", http.StatusUnauthorized)
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Log(logger.LogEntry{
				Level:   "error",
				Message: "[WS] upgrade failed",
				Error:   err,
			})
			return
		}

		roomID := ports.UserRoom(user.ID)
		hub.Register(roomID, conn)
		defer hub.Unregister(roomID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

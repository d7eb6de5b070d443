package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/casa/internal/auth"
)

// HandleWebSocket upgrades an authenticated request into a change feed for
// the calling user. It must sit behind the auth middleware.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // mobile and web clients connect from any origin
		})
		if err != nil {
			logger.Warn("websocket accept", "user", userID, "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "user", userID)
		err = NewClient(hub, conn, userID).Serve(r.Context())
		switch {
		case err == nil:
			conn.Close(ws.StatusGoingAway, "feed closed")
		case errors.Is(err, context.Canceled), ws.CloseStatus(err) != -1:
			logger.Debug("websocket disconnected", "user", userID)
		default:
			logger.Info("websocket dropped", "user", userID, "error", err)
		}
	}
}

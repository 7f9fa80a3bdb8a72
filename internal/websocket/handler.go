package websocket

import (
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades GET /ws to a change-feed connection. The optional
// family_id query parameter limits the feed to one family. originPatterns
// follows ws.AcceptOptions; an empty list accepts only same-origin requests
// unless it contains "*".
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	allowAll := false
	for _, p := range originPatterns {
		if p == "*" {
			allowAll = true
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var familyID int64
		if v := r.URL.Query().Get("family_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "invalid family_id", http.StatusBadRequest)
				return
			}
			familyID = id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: allowAll,
			OriginPatterns:     originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		NewClient(hub, conn, familyID).Run(r.Context())
	}
}

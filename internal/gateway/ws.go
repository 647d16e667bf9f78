package gateway

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// wsError is sent to the client when a frame cannot be processed.
type wsError struct {
	Error string `json:"error"`
}

// handleWS upgrades to WebSocket and runs a chat loop: each JSON frame is a
// ChatRequest, each reply a domain.Response. The userId query parameter
// identifies the user for frames that omit one.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	defaultUser := strings.TrimSpace(r.URL.Query().Get("userId"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket connected")

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		if req.UserID == "" {
			req.UserID = defaultUser
		}
		if strings.TrimSpace(req.UserID) == "" {
			if err := conn.WriteJSON(wsError{Error: "userId is required"}); err != nil {
				return
			}
			continue
		}

		resp, err := s.orch.Handle(r.Context(), req.UserID, req.Message, req.SessionID)
		if err != nil {
			s.log.Error().Err(err).Msg("websocket chat failed")
			if err := conn.WriteJSON(wsError{Error: "internal error"}); err != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is the outgoing WebSocket message format.
type wsFrame struct {
	Type    string       `json:"type"` // "delta", "answer" or "error"
	Content string       `json:"content,omitempty"`
	Answer  *askResponse `json:"answer,omitempty"`
}

// handleWebSocket answers each incoming askRequest, streaming the model
// output as "delta" frames followed by one "answer" frame.
func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.log.WithError(err).Warn("websocket read")
			}
			return
		}

		var req askRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.send(conn, wsFrame{Type: "error", Content: "invalid message format"})
			continue
		}

		// Deltas are written from this goroutine, so the connection keeps a
		// single writer.
		ans, err := d.engine.Ask(r.Context(), req.Question, req.Documents, func(delta string) {
			d.send(conn, wsFrame{Type: "delta", Content: delta})
		})
		if err != nil {
			d.send(conn, wsFrame{Type: "error", Content: apperr.Message(err)})
			continue
		}
		resp := d.toResponse(ans)
		d.send(conn, wsFrame{Type: "answer", Answer: &resp})
	}
}

func (d *Dashboard) send(conn *websocket.Conn, frame wsFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		d.log.WithError(err).Debug("websocket write")
	}
}

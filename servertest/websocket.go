package servertest

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"snake-client/constants"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	p := s.addPeer(r)
	go s.writePump(p, conn)
	s.readPump(p, conn)
}

func (s *Server) readPump(p *peer, conn *websocket.Conn) {
	defer func() {
		s.removePeer(p.id)
		p.stop()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(constants.PONG_WAIT))
	conn.SetReadLimit(constants.MAX_MESSAGE_SIZE)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(constants.PONG_WAIT))
		return nil
	})

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read", zap.String("peer", p.id), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.deliver(p, message)
	}
}

// writePump sends one frame per message. Clients parse each frame as a
// single JSON document, so queued frames are never joined.
func (s *Server) writePump(p *peer, conn *websocket.Conn) {
	ticker := time.NewTicker(constants.PING_PERIOD)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case f := <-p.frames:
			conn.SetWriteDeadline(time.Now().Add(constants.WRITE_WAIT))
			if f.close {
				msg := websocket.FormatCloseMessage(f.code, string(f.data))
				conn.WriteMessage(websocket.CloseMessage, msg)
				// Give the client a moment to answer before the socket drops.
				time.Sleep(50 * time.Millisecond)
				p.stop()
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := conn.WriteMessage(kind, f.data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(constants.WRITE_WAIT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(constants.WRITE_WAIT))
			return
		}
	}
}

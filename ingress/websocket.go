package ingress

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// wsReply answers the frame with the same sequence number, counted from 1.
type wsReply struct {
	Seq    uint64 `json:"seq"`
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxCommandBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Replies and pings share the connection; gorilla allows one writer.
	writes := make(chan wsReply)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer close(done)
	go func() {
		defer close(writerDone)
		s.wsWriter(conn, writes, done)
	}()

	base := chimw.GetReqID(r.Context())
	ctx := r.Context()
	var seq uint64
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		seq++

		reply := wsReply{Seq: seq, OK: true}
		status, err := s.submit(ctx, base+"-"+strconv.FormatUint(seq, 10), "websocket", data)
		reply.Status = status
		if err != nil {
			body := newErrorBody(err)
			reply.OK, reply.Error, reply.Kind = false, body.Error, body.Kind
		}

		select {
		case writes <- reply:
		case <-writerDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) wsWriter(conn *websocket.Conn, writes <-chan wsReply, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case reply := <-writes:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(reply); err != nil {
				s.logger.Debug("websocket write", zap.Error(err))
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

package chat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the app origin; token auth guards
	// the REST surface and join guards the socket.
	CheckOrigin: func(*http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the session until the socket
// drops. One goroutine reads, the write pump owns the socket's writes.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("ws upgrade from %s: %v", c.ClientIP(), err)
		return
	}

	client := NewClient(uuid.NewString(), ws, s.conf.SendQueueSize)
	s.reg.AddSession(client)
	safe.Go("chat.writePump", func() {
		client.WritePump(s.conf.PingInterval, s.conf.WriteWait)
	})

	client.Enqueue(BuildEvent(EvtConnected, map[string]any{
		"sessionId": client.ConnID,
		"gatewayId": s.conf.GatewayID,
	}))
	logger.Infof("session %s connected from %s", client.ConnID, c.ClientIP())

	s.readLoop(client)
	s.handleDisconnect(client)
}

func (s *Server) readLoop(client *Client) {
	ws := client.ws
	ws.SetReadLimit(s.conf.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(s.conf.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(s.conf.ReadTimeout))
		if s.Presence != nil {
			if uid := client.UserID(); uid != "" {
				s.Presence.Renew(uid)
			}
		}
		return nil
	})

	ctx := &Context{S: s}
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("session %s read: %v", client.ConnID, err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(s.conf.ReadTimeout))

		frame, err := ParseFrame(raw)
		if err != nil {
			s.replyError(client, err)
			continue
		}
		if err := s.disp.Dispatch(ctx, frame, client); err != nil {
			s.replyError(client, err)
		}
	}
}

// replyError reports a failure to the offending session only.
func (s *Server) replyError(client *Client, err error) {
	var ce *errs.CodeError
	code, msg := errs.ErrUnknownEvent.Code, "internal error"
	if errs.As(err, &ce) {
		code, msg = ce.Code, ce.Msg
	}
	client.Enqueue(BuildEvent(EvtError, map[string]any{
		"code":    code,
		"message": msg,
	}))
	logger.Debugf("session %s error: %v", client.ConnID, err)
}

// handleDisconnect tears down everything a dead session touched. When
// the last session of the user goes, their calls fail and their typing
// indicators clear.
func (s *Server) handleDisconnect(client *Client) {
	client.Close()
	userID, wentOffline := s.reg.Unbind(client.ConnID)
	if userID == "" {
		logger.Infof("session %s closed before join", client.ConnID)
		return
	}
	logger.Infof("session %s of %s closed (offline=%v)", client.ConnID, userID, wentOffline)
	if !wentOffline {
		return
	}
	if s.Calls != nil {
		s.Calls.Disconnect(userID)
	}
	if s.Typing != nil {
		s.Typing.DropUser(userID)
	}
	if s.Presence != nil {
		s.Presence.DropWatcher(userID)
	}
}

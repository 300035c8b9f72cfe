package handlers

import (
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
)

// RegisterAll installs every inbound event handler on the server's
// dispatcher.
func RegisterAll(s *chat.Server) {
	d := s.Dispatcher()
	d.Register(JoinHandler{})
	d.Register(SendMessageHandler{})
	d.Register(DeliveredHandler{})
	d.Register(MarkAsReadHandler{})
	d.Register(TypingHandler{})
	d.Register(CallUserHandler{})
	d.Register(CallAcceptedHandler{})
	d.Register(CallRejectedHandler{})
	d.Register(EndCallHandler{})
	d.Register(ICECandidateHandler{})
}

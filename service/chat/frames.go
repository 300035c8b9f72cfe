package chat

import (
	"encoding/json"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// Client to core event names. Core to client names live next to the
// code that emits them.
const (
	EvtJoin             = "join"
	EvtCallUser         = "call-user"
	EvtCallAccepted     = "call-accepted"
	EvtCallRejected     = "call-rejected"
	EvtEndCall          = "end-call"
	EvtICECandidate     = "ice-candidate"
	EvtSendMessage      = "sendMessage"
	EvtMarkAsRead       = "markAsRead"
	EvtMessageDelivered = "messageDelivered"
	EvtTyping           = "typing"
)

// Core to client frames emitted by the transport layer itself.
const (
	EvtConnected   = "connected"
	EvtError       = "error"
	EvtMessageSent = "messageSent"
)

// Frame is the wire envelope. Every frame in either direction is a
// JSON object with an event name and an event specific data object.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// ParseFrame decodes one inbound frame. Unknown events are accepted
// here and refused by the dispatcher so the error carries the name.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrPayloadInvalid.WithDetail(err.Error())
	}
	if f.Event == "" {
		return nil, errs.ErrPayloadInvalid.WithDetail("missing event")
	}
	return &f, nil
}

// BuildEvent encodes an outbound frame. Data must marshal cleanly;
// a failure is a programming error and yields nil.
func BuildEvent(event string, data any) []byte {
	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		logger.Errorf("frames: encode %s: %v", event, err)
		return nil
	}
	return raw
}

// Inbound payload shapes. Field names follow the client contract, so
// several use lowerCamel ids rather than Go-ish names.

type JoinPayload struct {
	UserID string `json:"userId"`
}

type CallUserPayload struct {
	To    string `json:"to"`
	From  string `json:"from"`
	Type  string `json:"type"`
	Offer any    `json:"offer"`
}

type CallAcceptedPayload struct {
	To     string `json:"to"`
	From   string `json:"from"`
	Answer any    `json:"answer"`
}

type CallRejectedPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
}

type EndCallPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
}

type ICECandidatePayload struct {
	To        string `json:"to"`
	Candidate any    `json:"candidate"`
}

type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	SenderName string `json:"senderName"`
}

type MarkAsReadPayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

type DeliveredPayload struct {
	MessageID string `json:"messageId"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

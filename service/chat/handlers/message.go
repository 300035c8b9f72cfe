package handlers

import (
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
	"github.com/Bhawani9828/slack-clone-sub001/service/delivery"
	"github.com/Bhawani9828/slack-clone-sub001/tools/decode"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// SendMessageHandler pushes a direct message into the delivery
// pipeline and echoes the assigned id back to the sending session.
type SendMessageHandler struct{}

func (SendMessageHandler) Event() string { return chat.EvtSendMessage }

func (SendMessageHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	sender := c.UserID()
	if sender == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.SendMessagePayload](f.Data)
	if err != nil {
		return err
	}
	msg, err := ctx.S.Delivery.Send(sender, p.SenderName, p.ReceiverID, p.Content, delivery.Kind(p.Type))
	if err != nil {
		return err
	}
	ctx.S.Presence.WatchUser(sender, p.ReceiverID)
	ctx.S.ToSession(c.ConnID, chat.EvtMessageSent, map[string]any{
		"messageId": msg.ID,
		"status":    msg.State.String(),
	})
	return nil
}

// DeliveredHandler records a device's delivery receipt.
type DeliveredHandler struct{}

func (DeliveredHandler) Event() string { return chat.EvtMessageDelivered }

func (DeliveredHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	if c.UserID() == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.DeliveredPayload](f.Data)
	if err != nil {
		return err
	}
	// Unknown ids are absorbed; receipts can outlive the tracked
	// message after a gateway restart.
	ctx.S.Delivery.AckDelivered(p.MessageID)
	return nil
}

// MarkAsReadHandler records a read receipt.
type MarkAsReadHandler struct{}

func (MarkAsReadHandler) Event() string { return chat.EvtMarkAsRead }

func (MarkAsReadHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	if c.UserID() == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.MarkAsReadPayload](f.Data)
	if err != nil {
		return err
	}
	ctx.S.Delivery.AckRead(p.MessageID)
	return nil
}

// TypingHandler relays typing indicators.
type TypingHandler struct{}

func (TypingHandler) Event() string { return chat.EvtTyping }

func (TypingHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	sender := c.UserID()
	if sender == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.TypingPayload](f.Data)
	if err != nil {
		return err
	}
	ctx.S.Presence.WatchUser(sender, p.ReceiverID)
	ctx.S.Typing.Typing(sender, p.ReceiverID, p.IsTyping)
	return nil
}

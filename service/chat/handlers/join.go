package handlers

import (
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
	"github.com/Bhawani9828/slack-clone-sub001/tools/decode"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// JoinHandler binds a fresh session to the user announced in the join
// frame. Until this runs the session can receive nothing but transport
// frames.
type JoinHandler struct{}

func (JoinHandler) Event() string { return chat.EvtJoin }

func (JoinHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	p, err := decode.Map[chat.JoinPayload](f.Data)
	if err != nil {
		return err
	}
	if p.UserID == "" {
		return errs.ErrPayloadInvalid.WithDetail("join requires userId")
	}
	return ctx.S.Registry().Bind(c.ConnID, p.UserID)
}

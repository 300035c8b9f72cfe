package chat

import (
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// Context hands handlers the server they run inside.
type Context struct {
	S *Server
}

// Handler processes one inbound event type.
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, c *Client) error
}

// Dispatcher routes inbound frames by event name. Registration happens
// at boot; after that the map is read only.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.Event()] = h
}

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errs.ErrUnknownEvent.WithDetail(f.Event)
	}
	return h.Handle(ctx, f, c)
}

package handlers

import (
	"github.com/Bhawani9828/slack-clone-sub001/service/call"
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
	"github.com/Bhawani9828/slack-clone-sub001/tools/decode"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// Call signaling handlers. SDP offers, answers and ICE candidates pass
// through opaque; the call manager only moves the state machine.

type CallUserHandler struct{}

func (CallUserHandler) Event() string { return chat.EvtCallUser }

func (CallUserHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	caller := c.UserID()
	if caller == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.CallUserPayload](f.Data)
	if err != nil {
		return err
	}
	ctx.S.Presence.WatchUser(caller, p.To)
	if err := ctx.S.Calls.Place(caller, p.To, p.Offer, call.Media(p.Type)); err != nil {
		return callFailure(ctx, c, err)
	}
	return nil
}

type CallAcceptedHandler struct{}

func (CallAcceptedHandler) Event() string { return chat.EvtCallAccepted }

func (CallAcceptedHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	callee := c.UserID()
	if callee == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.CallAcceptedPayload](f.Data)
	if err != nil {
		return err
	}
	if err := ctx.S.Calls.Accept(callee, p.To, p.Answer); err != nil {
		return callFailure(ctx, c, err)
	}
	return nil
}

type CallRejectedHandler struct{}

func (CallRejectedHandler) Event() string { return chat.EvtCallRejected }

func (CallRejectedHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	callee := c.UserID()
	if callee == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.CallRejectedPayload](f.Data)
	if err != nil {
		return err
	}
	if err := ctx.S.Calls.Reject(callee, p.To); err != nil {
		// A reject racing the ring timer is not worth an error frame.
		if errs.Is(err, errs.ErrCallTerminal) || errs.Is(err, errs.ErrCallNotFound) {
			return nil
		}
		return err
	}
	return nil
}

type EndCallHandler struct{}

func (EndCallHandler) Event() string { return chat.EvtEndCall }

func (EndCallHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	from := c.UserID()
	if from == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.EndCallPayload](f.Data)
	if err != nil {
		return err
	}
	if err := ctx.S.Calls.End(from, p.To); err != nil {
		if errs.Is(err, errs.ErrCallTerminal) || errs.Is(err, errs.ErrCallNotFound) {
			return nil
		}
		return err
	}
	return nil
}

type ICECandidateHandler struct{}

func (ICECandidateHandler) Event() string { return chat.EvtICECandidate }

func (ICECandidateHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	from := c.UserID()
	if from == "" {
		return errs.ErrUnknownSession.WithDetail("join first")
	}
	p, err := decode.Map[chat.ICECandidatePayload](f.Data)
	if err != nil {
		return err
	}
	if err := ctx.S.Calls.Candidate(from, p.To, p.Candidate); err != nil {
		// Stragglers after teardown are routine, not reportable.
		if errs.Is(err, errs.ErrCallNotFound) || errs.Is(err, errs.ErrCallTerminal) {
			return nil
		}
		return err
	}
	return nil
}

// callFailure translates a signaling error into the call-failed frame
// the initiating session expects.
func callFailure(ctx *chat.Context, c *chat.Client, err error) error {
	msg := "Call failed"
	switch {
	case errs.Is(err, errs.ErrUserOffline):
		msg = "User not available"
	case errs.Is(err, errs.ErrCallInProgress):
		msg = "Call already in progress"
	case errs.Is(err, errs.ErrCallTerminal), errs.Is(err, errs.ErrCallNotFound):
		return nil
	default:
		return err
	}
	ctx.S.ToSession(c.ConnID, call.EvtCallFailed, map[string]any{"message": msg})
	return nil
}

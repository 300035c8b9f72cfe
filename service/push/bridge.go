package push

import (
	"context"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
)

// Bridge hands a payload off toward the user's registered devices.
// Dispatch reports whether the payload was accepted for delivery, not
// whether the device displayed it.
type Bridge interface {
	Dispatch(ctx context.Context, userID string, p Payload) bool
}

// DirectBridge resolves tokens and pushes inline on the caller's
// goroutine. It also prunes tokens the upstream reports as dead.
type DirectBridge struct {
	store  TokenStore
	sender Sender
}

func NewDirectBridge(store TokenStore, sender Sender) *DirectBridge {
	return &DirectBridge{store: store, sender: sender}
}

func (b *DirectBridge) Dispatch(ctx context.Context, userID string, p Payload) bool {
	bindings, err := b.store.List(ctx, userID)
	if err != nil {
		logger.Errorf("push: list tokens for %s: %v", userID, err)
		return false
	}
	if len(bindings) == 0 {
		logger.Debugf("push: no token for %s, dropping %s", userID, p.Data.Type)
		return false
	}
	ok := false
	for _, tb := range bindings {
		if err := b.sender.Send(ctx, tb, p); err != nil {
			logger.Warnf("push: send to %s/%s failed: %v", userID, tb.Platform, err)
			continue
		}
		ok = true
	}
	return ok
}

package presence

import (
	"context"
	"sync"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/service/storage"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

const EvtUserStatus = "user_status"

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Sender relays an event to every live session of a user.
type Sender interface {
	ToUser(userID, event string, data any) int
}

type Config struct {
	GatewayID string
	// Mirror writes presence keys and events to redis so peers and
	// other gateways can observe them. Best effort only.
	Mirror    bool
	MirrorTTL time.Duration
}

// Broadcaster turns registry online/offline edges into user_status
// events for the users who expressed interest in them.
type Broadcaster struct {
	conf   Config
	sender Sender

	mu       sync.RWMutex
	watchers map[string]map[string]struct{} // watched -> watcher set
}

func NewBroadcaster(sender Sender, conf Config) *Broadcaster {
	if conf.MirrorTTL <= 0 {
		conf.MirrorTTL = storage.DefaultPresenceTTL
	}
	return &Broadcaster{
		conf:     conf,
		sender:   sender,
		watchers: make(map[string]map[string]struct{}),
	}
}

// WatchUser subscribes watcher to status edges of watched. Watching
// yourself is a no-op.
func (b *Broadcaster) WatchUser(watcher, watched string) {
	if watcher == "" || watched == "" || watcher == watched {
		return
	}
	b.mu.Lock()
	set, ok := b.watchers[watched]
	if !ok {
		set = make(map[string]struct{})
		b.watchers[watched] = set
	}
	set[watcher] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) UnwatchUser(watcher, watched string) {
	b.mu.Lock()
	if set, ok := b.watchers[watched]; ok {
		delete(set, watcher)
		if len(set) == 0 {
			delete(b.watchers, watched)
		}
	}
	b.mu.Unlock()
}

// DropWatcher clears every subscription held by watcher, called when
// their last session goes away.
func (b *Broadcaster) DropWatcher(watcher string) {
	b.mu.Lock()
	for watched, set := range b.watchers {
		delete(set, watcher)
		if len(set) == 0 {
			delete(b.watchers, watched)
		}
	}
	b.mu.Unlock()
}

// UserOnline is the registry sink for a user's first live session.
func (b *Broadcaster) UserOnline(userID string) {
	b.broadcast(userID, StatusOnline)
	if b.conf.Mirror {
		safe.Go("presence.mirrorOnline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := storage.PresenceOnline(ctx, userID, b.conf.GatewayID, b.conf.MirrorTTL); err != nil {
				logger.Warnf("presence: mirror online %s: %v", userID, err)
				return
			}
			_ = storage.PublishPresence(ctx, storage.PresenceEvent{
				UserID:    userID,
				Status:    StatusOnline,
				GatewayID: b.conf.GatewayID,
				TS:        time.Now().UnixMilli(),
			})
		})
	}
}

// UserOffline is the registry sink for a user's last session closing.
func (b *Broadcaster) UserOffline(userID string) {
	b.broadcast(userID, StatusOffline)
	if b.conf.Mirror {
		safe.Go("presence.mirrorOffline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := storage.PresenceOffline(ctx, userID); err != nil {
				logger.Warnf("presence: mirror offline %s: %v", userID, err)
				return
			}
			_ = storage.PublishPresence(ctx, storage.PresenceEvent{
				UserID:    userID,
				Status:    StatusOffline,
				GatewayID: b.conf.GatewayID,
				TS:        time.Now().UnixMilli(),
			})
		})
	}
}

// Renew refreshes the presence TTL for a user with live traffic.
func (b *Broadcaster) Renew(userID string) {
	if !b.conf.Mirror {
		return
	}
	safe.Go("presence.renew", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := storage.PresenceRenew(ctx, userID, b.conf.MirrorTTL); err != nil {
			logger.Debugf("presence: renew %s: %v", userID, err)
		}
	})
}

func (b *Broadcaster) broadcast(userID, status string) {
	b.mu.RLock()
	set := b.watchers[userID]
	targets := make([]string, 0, len(set))
	for w := range set {
		targets = append(targets, w)
	}
	b.mu.RUnlock()

	data := map[string]any{"userId": userID, "status": status}
	for _, w := range targets {
		b.sender.ToUser(w, EvtUserStatus, data)
	}
	logger.Debugf("presence: %s is %s, notified %d watchers", userID, status, len(targets))
}

// WatcherCount reports how many users watch userID, for tests and
// health stats.
func (b *Broadcaster) WatcherCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watchers[userID])
}

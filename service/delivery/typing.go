package delivery

import (
	"sync"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

// Typing events pushed to the receiving user.
const (
	EvtTypingStarted = "typingStarted"
	EvtTypingStopped = "typingStopped"
)

const (
	DefaultTypingIdle  = 7 * time.Second
	defaultTypingSweep = time.Second
)

type typingKey struct {
	sender   string
	receiver string
}

type TypingConfig struct {
	// IdleExpiry is how long a typing indicator may go unrefreshed
	// before the receiver is told it stopped.
	IdleExpiry time.Duration
	SweepEvery time.Duration
	Clock      func() time.Time
}

// TypingBroadcaster relays typing indicators and expires stale ones so
// a client that crashed mid-keystroke never leaves a peer watching an
// eternal "typing..." line. Indicators are ephemeral; nothing here is
// persisted or pushed to offline users.
type TypingBroadcaster struct {
	conf   TypingConfig
	sender Sender

	mu     sync.Mutex
	active map[typingKey]time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewTypingBroadcaster(sender Sender, conf TypingConfig) *TypingBroadcaster {
	if conf.IdleExpiry <= 0 {
		conf.IdleExpiry = DefaultTypingIdle
	}
	if conf.SweepEvery <= 0 {
		conf.SweepEvery = defaultTypingSweep
	}
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	return &TypingBroadcaster{
		conf:   conf,
		sender: sender,
		active: make(map[typingKey]time.Time),
		stopCh: make(chan struct{}),
	}
}

// Start launches the expiry sweeper. Call Stop when shutting down.
func (t *TypingBroadcaster) Start() {
	safe.Go("delivery.typingSweeper", func() {
		ticker := time.NewTicker(t.conf.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				t.Sweep(t.conf.Clock())
			}
		}
	})
}

func (t *TypingBroadcaster) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// Typing handles one indicator from senderID about the conversation
// with receiverID. An offline receiver makes the whole thing a silent
// drop; typing is never worth a notification.
func (t *TypingBroadcaster) Typing(senderID, receiverID string, isTyping bool) {
	if senderID == "" || receiverID == "" || senderID == receiverID {
		return
	}
	key := typingKey{sender: senderID, receiver: receiverID}
	data := map[string]any{"userId": senderID}

	if !isTyping {
		t.mu.Lock()
		_, wasActive := t.active[key]
		delete(t.active, key)
		t.mu.Unlock()
		if wasActive {
			t.sender.ToUser(receiverID, EvtTypingStopped, data)
		}
		return
	}

	n := t.sender.ToUser(receiverID, EvtTypingStarted, data)
	if n == 0 {
		return
	}
	t.mu.Lock()
	t.active[key] = t.conf.Clock()
	t.mu.Unlock()
}

// Sweep expires indicators idle past the deadline and tells the
// receivers. Exported so tests can drive it with a fake clock.
func (t *TypingBroadcaster) Sweep(now time.Time) {
	var expired []typingKey
	t.mu.Lock()
	for key, started := range t.active {
		if now.Sub(started) >= t.conf.IdleExpiry {
			delete(t.active, key)
			expired = append(expired, key)
		}
	}
	t.mu.Unlock()

	for _, key := range expired {
		t.sender.ToUser(key.receiver, EvtTypingStopped, map[string]any{"userId": key.sender})
		logger.Debugf("typing: %s -> %s expired", key.sender, key.receiver)
	}
}

// DropUser clears indicators authored by userID when they disconnect,
// notifying each receiver.
func (t *TypingBroadcaster) DropUser(userID string) {
	var targets []typingKey
	t.mu.Lock()
	for key := range t.active {
		if key.sender == userID {
			delete(t.active, key)
			targets = append(targets, key)
		}
	}
	t.mu.Unlock()

	for _, key := range targets {
		t.sender.ToUser(key.receiver, EvtTypingStopped, map[string]any{"userId": key.sender})
	}
}

// ActiveCount reports live indicators, for tests.
func (t *TypingBroadcaster) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

package delivery

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/service/push"
	"github.com/Bhawani9828/slack-clone-sub001/service/storage"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
	"github.com/Bhawani9828/slack-clone-sub001/tools/ids"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

// Events pushed to clients along the message path.
const (
	EvtReceiveMessage   = "receiveMessage"
	EvtMessageDelivered = "messageDelivered"
	EvtMessageRead      = "messageRead"
)

const pairShards = 32

// Sender relays an event to every live session of a user and reports
// how many sessions received it.
type Sender interface {
	ToUser(userID, event string, data any) int
}

type Config struct {
	Clock func() time.Time
	// MirrorStream appends each message to the conversation's redis
	// stream. Best effort, never blocks the send path.
	MirrorStream bool
	// MaxContentLen caps the message body; longer bodies are refused.
	MaxContentLen int
}

// Pipeline moves direct messages from sender to receiver and tracks
// the sent/delivered/read ladder per message. Receipts for states the
// message already passed are absorbed silently.
type Pipeline struct {
	conf   Config
	sender Sender
	bridge push.Bridge

	mu   sync.RWMutex
	msgs map[string]*Message

	// pair locks order receipt races per conversation without one big
	// lock over all traffic.
	pairs [pairShards]sync.Mutex
}

func NewPipeline(sender Sender, bridge push.Bridge, conf Config) *Pipeline {
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	if conf.MaxContentLen <= 0 {
		conf.MaxContentLen = 64 * 1024
	}
	return &Pipeline{
		conf:   conf,
		sender: sender,
		bridge: bridge,
		msgs:   make(map[string]*Message),
	}
}

func (p *Pipeline) pairLock(a, b string) *sync.Mutex {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	h := fnv.New32a()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return &p.pairs[h.Sum32()%pairShards]
}

// Send accepts a message, relays it to the receiver's live sessions
// and falls back to a push notification when there are none. The
// message starts in sent regardless of the outcome; delivered is
// claimed only by an explicit receipt from a receiving device.
func (p *Pipeline) Send(senderID, senderName, receiverID, content string, kind Kind) (*Message, error) {
	if senderID == "" || receiverID == "" || senderID == receiverID {
		return nil, errs.ErrPayloadInvalid.WithDetail("bad sender/receiver pair")
	}
	if content == "" || len(content) > p.conf.MaxContentLen {
		return nil, errs.ErrPayloadInvalid.WithDetail("content empty or too large")
	}
	switch kind {
	case KindText, KindImage, KindFile:
	default:
		kind = KindText
	}

	msg := &Message{
		ID:         ids.GenerateString(),
		SenderID:   senderID,
		SenderName: senderName,
		ReceiverID: receiverID,
		Content:    content,
		Kind:       kind,
		State:      StateSent,
		CreatedAt:  p.conf.Clock(),
	}

	p.mu.Lock()
	p.msgs[msg.ID] = msg
	p.mu.Unlock()

	lock := p.pairLock(senderID, receiverID)
	lock.Lock()
	n := p.sender.ToUser(receiverID, EvtReceiveMessage, msg)
	lock.Unlock()

	if n == 0 {
		p.notifyOffline(msg)
	}
	if p.conf.MirrorStream {
		p.mirror(msg)
	}
	logger.Debugf("message %s: %s -> %s (%d sessions)", msg.ID, senderID, receiverID, n)
	return msg, nil
}

// AckDelivered records a device receipt for messageID. The sender
// hears messageDelivered only on the first receipt; repeats and
// receipts after read change nothing.
func (p *Pipeline) AckDelivered(messageID string) bool {
	msg := p.get(messageID)
	if msg == nil {
		return false
	}
	lock := p.pairLock(msg.SenderID, msg.ReceiverID)
	lock.Lock()
	if msg.State >= StateDelivered {
		lock.Unlock()
		return false
	}
	msg.State = StateDelivered
	lock.Unlock()

	p.sender.ToUser(msg.SenderID, EvtMessageDelivered, map[string]any{
		"messageId": msg.ID,
	})
	return true
}

// AckRead records a read receipt. Reading a message that never
// reported delivered implies delivered as well.
func (p *Pipeline) AckRead(messageID string) bool {
	msg := p.get(messageID)
	if msg == nil {
		return false
	}
	lock := p.pairLock(msg.SenderID, msg.ReceiverID)
	lock.Lock()
	if msg.State >= StateRead {
		lock.Unlock()
		return false
	}
	msg.State = StateRead
	lock.Unlock()

	// Read is terminal; drop the envelope so the index never grows
	// unbounded. Later receipts hit the unknown-id path and are
	// absorbed, which keeps the idempotence contract.
	p.mu.Lock()
	delete(p.msgs, msg.ID)
	p.mu.Unlock()

	p.sender.ToUser(msg.SenderID, EvtMessageRead, map[string]any{
		"messageId": msg.ID,
	})
	return true
}

// Lookup returns the tracked message, or nil for unknown ids.
func (p *Pipeline) Lookup(messageID string) *Message {
	return p.get(messageID)
}

func (p *Pipeline) get(messageID string) *Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.msgs[messageID]
}

func (p *Pipeline) notifyOffline(msg *Message) {
	if p.bridge == nil {
		return
	}
	body := msg.Content
	if msg.Kind != KindText {
		body = "Sent you a " + string(msg.Kind)
	} else if len(body) > 120 {
		cut := 120
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	title := msg.SenderName
	if title == "" {
		title = "New message"
	}
	payload := push.Payload{
		Notification: push.Notification{Title: title, Body: body},
		Data: push.Data{
			Type:       push.DataTypeMessage,
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			ChatID:     msg.SenderID,
		},
	}
	safe.Go("delivery.notifyOffline", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		p.bridge.Dispatch(ctx, msg.ReceiverID, payload)
	})
}

func (p *Pipeline) mirror(msg *Message) {
	safe.Go("delivery.mirror", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, err := storage.AppendDM(ctx, storage.DMKey(msg.SenderID, msg.ReceiverID), map[string]any{
			"messageId": msg.ID,
			"senderId":  msg.SenderID,
			"content":   msg.Content,
			"type":      string(msg.Kind),
			"ts":        msg.CreatedAt.UnixMilli(),
		})
		if err != nil {
			logger.Warnf("delivery: mirror %s: %v", msg.ID, err)
		}
	})
}

// TrackedCount reports messages still tracked, for health stats.
func (p *Pipeline) TrackedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.msgs)
}

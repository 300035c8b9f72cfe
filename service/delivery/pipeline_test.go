package delivery

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Bhawani9828/slack-clone-sub001/service/push"
)

type sentEvent struct {
	UserID string
	Event  string
	Data   any
}

// fakeSender records relayed events and simulates per-user liveness.
type fakeSender struct {
	mu      sync.Mutex
	online  map[string]int // userID -> session count
	events  []sentEvent
}

func newFakeSender(online map[string]int) *fakeSender {
	if online == nil {
		online = map[string]int{}
	}
	return &fakeSender{online: online}
}

func (s *fakeSender) ToUser(userID, event string, data any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.online[userID]
	if n > 0 {
		s.events = append(s.events, sentEvent{UserID: userID, Event: event, Data: data})
	}
	return n
}

func (s *fakeSender) eventsFor(userID string) []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentEvent
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// fakeBridge records push dispatches.
type fakeBridge struct {
	mu    sync.Mutex
	calls []push.Payload
	users []string
	done  chan struct{}
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{done: make(chan struct{}, 16)}
}

func (b *fakeBridge) Dispatch(_ context.Context, userID string, p push.Payload) bool {
	b.mu.Lock()
	b.calls = append(b.calls, p)
	b.users = append(b.users, userID)
	b.mu.Unlock()
	b.done <- struct{}{}
	return true
}

func (b *fakeBridge) wait(t *testing.T) (string, push.Payload) {
	t.Helper()
	select {
	case <-b.done:
	case <-time.After(2 * time.Second):
		t.Fatal("push dispatch never happened")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users[len(b.users)-1], b.calls[len(b.calls)-1]
}

func (b *fakeBridge) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func TestSendRelaysToOnlineReceiver(t *testing.T) {
	sender := newFakeSender(map[string]int{"bob": 1})
	bridge := newFakeBridge()
	p := NewPipeline(sender, bridge, Config{})

	msg, err := p.Send("alice", "Alice", "bob", "hello", KindText)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.State != StateSent {
		t.Fatalf("state = %v, want sent", msg.State)
	}

	got := sender.eventsFor("bob")
	if len(got) != 1 || got[0].Event != EvtReceiveMessage {
		t.Fatalf("bob events = %v, want one receiveMessage", got)
	}
	if bridge.count() != 0 {
		t.Fatal("online delivery must not push")
	}
}

func TestSendFallsBackToPushWhenOffline(t *testing.T) {
	sender := newFakeSender(nil)
	bridge := newFakeBridge()
	p := NewPipeline(sender, bridge, Config{})

	msg, err := p.Send("alice", "Alice", "bob", "hello", KindText)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	user, payload := bridge.wait(t)
	if user != "bob" {
		t.Fatalf("pushed to %q, want bob", user)
	}
	if payload.Data.Type != push.DataTypeMessage || payload.Data.SenderID != "alice" {
		t.Fatalf("push data = %+v", payload.Data)
	}
	if payload.Notification.Title != "Alice" {
		t.Fatalf("push title = %q", payload.Notification.Title)
	}
	// Still tracked as sent; delivery needs a device receipt.
	if msg.State != StateSent {
		t.Fatalf("state = %v, want sent", msg.State)
	}
}

func TestAckLadderIsMonotonic(t *testing.T) {
	sender := newFakeSender(map[string]int{"alice": 1, "bob": 1})
	p := NewPipeline(sender, nil, Config{})
	msg, err := p.Send("alice", "", "bob", "hi", KindText)
	if err != nil {
		t.Fatal(err)
	}

	if !p.AckDelivered(msg.ID) {
		t.Fatal("first delivered receipt should transition")
	}
	if p.AckDelivered(msg.ID) {
		t.Fatal("second delivered receipt must be absorbed")
	}
	if !p.AckRead(msg.ID) {
		t.Fatal("read receipt should transition")
	}
	if p.AckRead(msg.ID) {
		t.Fatal("second read receipt must be absorbed")
	}
	// A delivered receipt arriving after read changes nothing.
	if p.AckDelivered(msg.ID) {
		t.Fatal("delivered after read must be absorbed")
	}

	var receipts []string
	for _, e := range sender.eventsFor("alice") {
		receipts = append(receipts, e.Event)
	}
	want := []string{EvtMessageDelivered, EvtMessageRead}
	if len(receipts) != len(want) {
		t.Fatalf("sender receipts = %v, want %v", receipts, want)
	}
	for i := range want {
		if receipts[i] != want[i] {
			t.Fatalf("sender receipts = %v, want %v", receipts, want)
		}
	}
}

func TestReadWithoutDeliveredImpliesDelivered(t *testing.T) {
	sender := newFakeSender(map[string]int{"alice": 1, "bob": 1})
	p := NewPipeline(sender, nil, Config{})
	msg, _ := p.Send("alice", "", "bob", "hi", KindText)

	if !p.AckRead(msg.ID) {
		t.Fatal("read on a sent message should transition")
	}
	if msg.State != StateRead {
		t.Fatalf("state = %v, want read", msg.State)
	}
	if p.AckDelivered(msg.ID) {
		t.Fatal("late delivered receipt must be absorbed")
	}
}

func TestAckUnknownMessageIsNoop(t *testing.T) {
	sender := newFakeSender(map[string]int{"alice": 1})
	p := NewPipeline(sender, nil, Config{})
	if p.AckDelivered("nope") || p.AckRead("nope") {
		t.Fatal("unknown message receipts must be no-ops")
	}
	if len(sender.events) != 0 {
		t.Fatalf("events = %v, want none", sender.events)
	}
}

func TestPushBodyTruncatesOnRuneBoundary(t *testing.T) {
	sender := newFakeSender(nil)
	bridge := newFakeBridge()
	p := NewPipeline(sender, bridge, Config{})

	// One ASCII byte followed by 3-byte runes puts byte 120 inside a
	// rune, so a naive byte slice would emit invalid UTF-8.
	content := "a" + strings.Repeat("€", 50)
	if _, err := p.Send("alice", "Alice", "bob", content, KindText); err != nil {
		t.Fatal(err)
	}
	_, payload := bridge.wait(t)
	body := payload.Notification.Body
	if !utf8.ValidString(body) {
		t.Fatalf("push body is not valid UTF-8: %q", body)
	}
	if len(body) > 120 {
		t.Fatalf("push body = %d bytes, want <= 120", len(body))
	}
}

func TestReadEvictsTrackedMessage(t *testing.T) {
	sender := newFakeSender(map[string]int{"alice": 1, "bob": 1})
	p := NewPipeline(sender, nil, Config{})

	for i := 0; i < 100; i++ {
		msg, err := p.Send("alice", "", "bob", "hi", KindText)
		if err != nil {
			t.Fatal(err)
		}
		if !p.AckRead(msg.ID) {
			t.Fatal("read receipt should transition")
		}
	}
	if got := p.TrackedCount(); got != 0 {
		t.Fatalf("tracked after fully-read messages = %d, want 0", got)
	}
}

func TestReceiptsAfterEvictionAreAbsorbed(t *testing.T) {
	sender := newFakeSender(map[string]int{"alice": 1, "bob": 1})
	p := NewPipeline(sender, nil, Config{})
	msg, _ := p.Send("alice", "", "bob", "hi", KindText)

	if !p.AckRead(msg.ID) {
		t.Fatal("read receipt should transition")
	}
	if p.AckRead(msg.ID) || p.AckDelivered(msg.ID) {
		t.Fatal("receipts for an evicted message must be absorbed")
	}
	if p.Lookup(msg.ID) != nil {
		t.Fatal("read message should no longer be tracked")
	}
}

func TestSendValidation(t *testing.T) {
	p := NewPipeline(newFakeSender(nil), nil, Config{})
	if _, err := p.Send("alice", "", "alice", "hi", KindText); err == nil {
		t.Fatal("self message should fail")
	}
	if _, err := p.Send("alice", "", "bob", "", KindText); err == nil {
		t.Fatal("empty content should fail")
	}
	if _, err := p.Send("", "", "bob", "hi", KindText); err == nil {
		t.Fatal("empty sender should fail")
	}
}

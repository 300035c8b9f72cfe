package handlers

import (
	"testing"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/service/call"
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
	"github.com/Bhawani9828/slack-clone-sub001/service/delivery"
	"github.com/Bhawani9828/slack-clone-sub001/service/presence"
)

func newTestServer(t *testing.T) *chat.Server {
	t.Helper()
	reg := chat.NewRegistry(chat.RegistryConfig{})
	s := chat.NewServer(chat.Config{GatewayID: "gw-test"}, reg)
	s.Presence = presence.NewBroadcaster(s, presence.Config{GatewayID: "gw-test"})
	reg.SetPresenceSink(s.Presence)
	s.Delivery = delivery.NewPipeline(s, nil, delivery.Config{})
	s.Typing = delivery.NewTypingBroadcaster(s, delivery.TypingConfig{})
	s.Calls = call.NewManager(s, s, nil, call.Config{RingTimeout: time.Minute})
	RegisterAll(s)
	return s
}

func connect(t *testing.T, s *chat.Server, connID string) *chat.Client {
	t.Helper()
	c := chat.NewClient(connID, nil, 32)
	s.Registry().AddSession(c)
	return c
}

func dispatch(t *testing.T, s *chat.Server, c *chat.Client, raw string) error {
	t.Helper()
	f, err := chat.ParseFrame([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return s.Dispatcher().Dispatch(&chat.Context{S: s}, f, c)
}

func join(t *testing.T, s *chat.Server, c *chat.Client, userID string) {
	t.Helper()
	if err := dispatch(t, s, c, `{"event":"join","data":{"userId":"`+userID+`"}}`); err != nil {
		t.Fatalf("join %s: %v", userID, err)
	}
}

func TestJoinBindsSession(t *testing.T) {
	s := newTestServer(t)
	c := connect(t, s, "c1")
	join(t, s, c, "alice")

	if !s.IsOnline("alice") {
		t.Fatal("alice should be online after join")
	}
	if c.UserID() != "alice" {
		t.Fatalf("session user = %q, want alice", c.UserID())
	}
}

func TestJoinWithoutUserIDFails(t *testing.T) {
	s := newTestServer(t)
	c := connect(t, s, "c1")
	if err := dispatch(t, s, c, `{"event":"join","data":{}}`); err == nil {
		t.Fatal("join without userId should fail")
	}
}

func TestEventsBeforeJoinAreRefused(t *testing.T) {
	s := newTestServer(t)
	c := connect(t, s, "c1")

	frames := []string{
		`{"event":"sendMessage","data":{"receiverId":"bob","content":"hi"}}`,
		`{"event":"typing","data":{"receiverId":"bob","isTyping":true}}`,
		`{"event":"call-user","data":{"to":"bob","offer":{}}}`,
		`{"event":"markAsRead","data":{"messageId":"m1"}}`,
	}
	for _, raw := range frames {
		if err := dispatch(t, s, c, raw); err == nil {
			t.Fatalf("frame before join should fail: %s", raw)
		}
	}
}

func TestUnknownEventIsRefused(t *testing.T) {
	s := newTestServer(t)
	c := connect(t, s, "c1")
	if err := dispatch(t, s, c, `{"event":"self-destruct","data":{}}`); err == nil {
		t.Fatal("unknown event should be refused")
	}
}

func TestSendMessageTracksAndWatches(t *testing.T) {
	s := newTestServer(t)
	alice := connect(t, s, "c1")
	bob := connect(t, s, "c2")
	join(t, s, alice, "alice")
	join(t, s, bob, "bob")

	if err := dispatch(t, s, alice, `{"event":"sendMessage","data":{"receiverId":"bob","content":"hello","type":"text"}}`); err != nil {
		t.Fatalf("sendMessage: %v", err)
	}
	if s.Delivery.TrackedCount() != 1 {
		t.Fatalf("tracked = %d, want 1", s.Delivery.TrackedCount())
	}
	if s.Presence.WatcherCount("bob") != 1 {
		t.Fatal("sender should now watch the receiver's presence")
	}
}

func TestTypingWatchesReceiverPresence(t *testing.T) {
	s := newTestServer(t)
	alice := connect(t, s, "c1")
	bob := connect(t, s, "c2")
	join(t, s, alice, "alice")
	join(t, s, bob, "bob")

	if err := dispatch(t, s, alice, `{"event":"typing","data":{"receiverId":"bob","isTyping":true}}`); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if s.Presence.WatcherCount("bob") != 1 {
		t.Fatal("typing sender should now watch the receiver's presence")
	}
}

func TestCallPlacedViaFrames(t *testing.T) {
	s := newTestServer(t)
	alice := connect(t, s, "c1")
	bob := connect(t, s, "c2")
	join(t, s, alice, "alice")
	join(t, s, bob, "bob")

	if err := dispatch(t, s, alice, `{"event":"call-user","data":{"to":"bob","type":"video","offer":{"sdp":"v=0"}}}`); err != nil {
		t.Fatalf("call-user: %v", err)
	}
	if s.Calls.ActiveCount() != 1 {
		t.Fatalf("active calls = %d, want 1", s.Calls.ActiveCount())
	}

	if err := dispatch(t, s, bob, `{"event":"call-accepted","data":{"to":"alice","answer":{"sdp":"v=0"}}}`); err != nil {
		t.Fatalf("call-accepted: %v", err)
	}
	if err := dispatch(t, s, alice, `{"event":"end-call","data":{"to":"bob"}}`); err != nil {
		t.Fatalf("end-call: %v", err)
	}
	if s.Calls.ActiveCount() != 0 {
		t.Fatalf("active calls = %d, want 0", s.Calls.ActiveCount())
	}
}

func TestCallToOfflineUserDoesNotError(t *testing.T) {
	s := newTestServer(t)
	alice := connect(t, s, "c1")
	join(t, s, alice, "alice")

	// The failure is reported on the caller's socket as call-failed,
	// not as a dispatcher error.
	if err := dispatch(t, s, alice, `{"event":"call-user","data":{"to":"ghost","offer":{}}}`); err != nil {
		t.Fatalf("call-user to offline peer: %v", err)
	}
	if s.Calls.ActiveCount() != 0 {
		t.Fatal("no session may exist for an offline callee")
	}
}

package presence

import (
	"sync"
	"testing"
)

type sentEvent struct {
	UserID string
	Event  string
	Data   map[string]any
}

type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *fakeSender) ToUser(userID, event string, data any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := data.(map[string]any)
	s.events = append(s.events, sentEvent{UserID: userID, Event: event, Data: d})
	return 1
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

func TestWatcherHearsStatusEdges(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, Config{})

	b.WatchUser("alice", "bob")
	b.UserOnline("bob")
	b.UserOffline("bob")

	got := sender.eventsFor("alice")
	if len(got) != 2 {
		t.Fatalf("alice events = %v, want online+offline", got)
	}
	if got[0].Data["status"] != StatusOnline || got[1].Data["status"] != StatusOffline {
		t.Fatalf("alice events = %v", got)
	}
	if got[0].Data["userId"] != "bob" {
		t.Fatalf("status subject = %v, want bob", got[0].Data)
	}
}

func TestNonWatchersHearNothing(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, Config{})

	b.WatchUser("alice", "bob")
	b.UserOnline("carol")

	if len(sender.events) != 0 {
		t.Fatalf("events = %v, want none", sender.events)
	}
}

func TestUnwatchStopsUpdates(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, Config{})

	b.WatchUser("alice", "bob")
	b.UnwatchUser("alice", "bob")
	b.UserOnline("bob")

	if len(sender.eventsFor("alice")) != 0 {
		t.Fatal("unwatched user must not be notified")
	}
}

func TestDropWatcherClearsEverySubscription(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, Config{})

	b.WatchUser("alice", "bob")
	b.WatchUser("alice", "carol")
	b.DropWatcher("alice")

	b.UserOnline("bob")
	b.UserOnline("carol")
	if len(sender.eventsFor("alice")) != 0 {
		t.Fatal("dropped watcher must not be notified")
	}
	if b.WatcherCount("bob") != 0 || b.WatcherCount("carol") != 0 {
		t.Fatal("watcher sets should be empty")
	}
}

func TestSelfWatchIsNoop(t *testing.T) {
	sender := &fakeSender{}
	b := NewBroadcaster(sender, Config{})

	b.WatchUser("alice", "alice")
	if b.WatcherCount("alice") != 0 {
		t.Fatal("self watch should not register")
	}
}

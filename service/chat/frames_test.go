package chat

import (
	"encoding/json"
	"testing"

	"github.com/Bhawani9828/slack-clone-sub001/tools/decode"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"join","data":{"userId":"alice"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Event != EvtJoin {
		t.Fatalf("event = %q, want join", f.Event)
	}
	p, err := decode.Map[JoinPayload](f.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.UserID != "alice" {
		t.Fatalf("userId = %q, want alice", p.UserID)
	}
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	if _, err := ParseFrame([]byte(`{]`)); err == nil {
		t.Fatal("garbage should not parse")
	}
	if _, err := ParseFrame([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("missing event name should not parse")
	}
}

func TestBuildEventRoundTrip(t *testing.T) {
	raw := BuildEvent(EvtConnected, map[string]any{"sessionId": "s1"})
	if raw == nil {
		t.Fatal("build returned nil")
	}
	var env struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Event != EvtConnected || env.Data["sessionId"] != "s1" {
		t.Fatalf("round trip = %+v", env)
	}
}

func TestCallOfferPassesThroughOpaque(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"call-user","data":{"to":"bob","from":"alice","type":"video","offer":{"sdp":"v=0...","type":"offer"}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p, err := decode.Map[CallUserPayload](f.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	offer, ok := p.Offer.(map[string]any)
	if !ok {
		t.Fatalf("offer type = %T, want map", p.Offer)
	}
	if offer["sdp"] != "v=0..." {
		t.Fatalf("offer sdp = %v", offer["sdp"])
	}
}

func TestToUserDeliversToEverySession(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	s := NewServer(Config{GatewayID: "gw-test"}, r)

	c1 := NewClient("c1", nil, 8)
	c2 := NewClient("c2", nil, 8)
	r.AddSession(c1)
	r.AddSession(c2)
	if err := r.Bind("c1", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := r.Bind("c2", "alice"); err != nil {
		t.Fatal(err)
	}

	n := s.ToUser("alice", "user_status", map[string]any{"userId": "bob", "status": "online"})
	if n != 2 {
		t.Fatalf("ToUser = %d, want 2", n)
	}
	if s.ToUser("ghost", "user_status", nil) != 0 {
		t.Fatal("unknown user should deliver to zero sessions")
	}
}

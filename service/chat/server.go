package chat

import (
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/service/call"
	"github.com/Bhawani9828/slack-clone-sub001/service/delivery"
	"github.com/Bhawani9828/slack-clone-sub001/service/presence"
)

type Config struct {
	GatewayID     string
	SendQueueSize int
	PingInterval  time.Duration
	WriteWait     time.Duration
	ReadTimeout   time.Duration
	ReadLimit     int64
	FanoutWorkers int
	FanoutQueue   int
}

func (c *Config) fill() {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 64
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 256 * 1024
	}
}

// Server owns the transport side of the gateway: the session registry,
// the frame dispatcher and the outbound fanout. The domain services
// hang off it and talk back through ToUser.
type Server struct {
	conf Config
	reg  *Registry
	disp *Dispatcher
	fan  *Fanout

	Presence *presence.Broadcaster
	Delivery *delivery.Pipeline
	Typing   *delivery.TypingBroadcaster
	Calls    *call.Manager
}

func NewServer(conf Config, reg *Registry) *Server {
	conf.fill()
	return &Server{
		conf: conf,
		reg:  reg,
		disp: NewDispatcher(),
		fan:  NewFanout(conf.FanoutWorkers, conf.FanoutQueue),
	}
}

func (s *Server) Registry() *Registry     { return s.reg }
func (s *Server) Dispatcher() *Dispatcher { return s.disp }
func (s *Server) GatewayID() string       { return s.conf.GatewayID }

// ToUser relays one event to every live session of a user and reports
// how many sessions took it. Zero means the user is unreachable here.
func (s *Server) ToUser(userID, event string, data any) int {
	targets := s.reg.Resolve(userID)
	if len(targets) == 0 {
		return 0
	}
	payload := BuildEvent(event, data)
	if payload == nil {
		return 0
	}
	if len(targets) == 1 {
		if targets[0].Enqueue(payload) {
			return 1
		}
		return 0
	}
	s.fan.Broadcast(targets, payload)
	return len(targets)
}

// ToSession relays one event to a single session.
func (s *Server) ToSession(connID, event string, data any) bool {
	c := s.reg.GetSession(connID)
	if c == nil {
		return false
	}
	payload := BuildEvent(event, data)
	if payload == nil {
		return false
	}
	return c.Enqueue(payload)
}

// IsOnline answers liveness for the call manager.
func (s *Server) IsOnline(userID string) bool {
	return s.reg.IsOnline(userID)
}

// Stats is the health endpoint's snapshot.
func (s *Server) Stats() map[string]any {
	stats := map[string]any{
		"gatewayId": s.conf.GatewayID,
		"sessions":  s.reg.SessionCount(),
		"users":     s.reg.UserCount(),
	}
	if s.Calls != nil {
		stats["activeCalls"] = s.Calls.ActiveCount()
	}
	if s.Delivery != nil {
		stats["trackedMessages"] = s.Delivery.TrackedCount()
	}
	return stats
}

// Shutdown stops the fanout pool. Sessions close with their sockets.
func (s *Server) Shutdown() {
	if s.Typing != nil {
		s.Typing.Stop()
	}
	s.fan.Close()
}

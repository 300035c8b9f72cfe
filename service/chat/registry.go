package chat

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

const userShardCount = 64

// PresenceSink hears derived presence edges: the first session of a
// user coming up and the last one going away. Per-session churn in
// between is invisible to it.
type PresenceSink interface {
	UserOnline(userID string)
	UserOffline(userID string)
}

type RegistryConfig struct {
	// MaxSessionsPerUser caps concurrent devices; 0 means unlimited.
	// When the cap is hit the oldest session is evicted.
	MaxSessionsPerUser int
	Clock              func() time.Time
}

type userShard struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // userID -> connID -> client
}

// Registry tracks every live session on this gateway and the user each
// one is bound to. User buckets are sharded so hot users on one shard
// never serialize unrelated traffic.
type Registry struct {
	conf RegistryConfig
	sink PresenceSink

	connMu sync.RWMutex
	byConn map[string]*Client

	shards [userShardCount]*userShard
}

func NewRegistry(conf RegistryConfig) *Registry {
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	r := &Registry{
		conf:   conf,
		byConn: make(map[string]*Client),
	}
	for i := range r.shards {
		r.shards[i] = &userShard{byUser: make(map[string]map[string]*Client)}
	}
	return r
}

// SetPresenceSink installs the edge listener. Must be called before
// traffic starts.
func (r *Registry) SetPresenceSink(sink PresenceSink) { r.sink = sink }

func (r *Registry) shardFor(userID string) *userShard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%userShardCount]
}

// AddSession registers a not-yet-bound session.
func (r *Registry) AddSession(c *Client) {
	r.connMu.Lock()
	r.byConn[c.ConnID] = c
	r.connMu.Unlock()
}

// GetSession resolves a session by connection id.
func (r *Registry) GetSession(connID string) *Client {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	return r.byConn[connID]
}

// Bind attaches the session to a user. Binding the same pair again is
// a no-op; binding a session already owned by another user moves it.
// The first session of a user fires UserOnline.
func (r *Registry) Bind(connID, userID string) error {
	if userID == "" {
		return errs.ErrPayloadInvalid.WithDetail("empty userId")
	}
	r.connMu.RLock()
	c := r.byConn[connID]
	r.connMu.RUnlock()
	if c == nil {
		return errs.ErrUnknownSession
	}

	prev := c.UserID()
	if prev == userID {
		return nil
	}
	if prev != "" {
		r.detach(c, prev)
	}

	var evicted *Client
	shard := r.shardFor(userID)
	shard.mu.Lock()
	set, ok := shard.byUser[userID]
	if !ok {
		set = make(map[string]*Client)
		shard.byUser[userID] = set
	}
	wasOffline := len(set) == 0
	if r.conf.MaxSessionsPerUser > 0 && len(set) >= r.conf.MaxSessionsPerUser {
		evicted = oldestOf(set)
		if evicted != nil {
			delete(set, evicted.ConnID)
		}
	}
	set[connID] = c
	shard.mu.Unlock()

	c.setUserID(userID)

	if evicted != nil {
		logger.Infof("registry: evicting session %s of %s for newer device", evicted.ConnID, userID)
		r.dropConn(evicted)
		evicted.Close()
	}
	if wasOffline && r.sink != nil {
		r.sink.UserOnline(userID)
	}
	return nil
}

func oldestOf(set map[string]*Client) *Client {
	var oldest *Client
	for _, c := range set {
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
			oldest = c
		}
	}
	return oldest
}

// detach removes c from a user bucket and fires UserOffline when the
// bucket empties.
func (r *Registry) detach(c *Client, userID string) {
	shard := r.shardFor(userID)
	shard.mu.Lock()
	set := shard.byUser[userID]
	if set != nil {
		delete(set, c.ConnID)
		if len(set) == 0 {
			delete(shard.byUser, userID)
		}
	}
	nowOffline := set != nil && len(set) == 0
	shard.mu.Unlock()

	if nowOffline && r.sink != nil {
		r.sink.UserOffline(userID)
	}
}

func (r *Registry) dropConn(c *Client) {
	r.connMu.Lock()
	if r.byConn[c.ConnID] == c {
		delete(r.byConn, c.ConnID)
	}
	r.connMu.Unlock()
}

// Unbind removes a session entirely. It returns the user the session
// belonged to and whether that user just went offline. Unknown
// sessions are a no-op.
func (r *Registry) Unbind(connID string) (userID string, wentOffline bool) {
	r.connMu.Lock()
	c := r.byConn[connID]
	delete(r.byConn, connID)
	r.connMu.Unlock()
	if c == nil {
		return "", false
	}

	userID = c.UserID()
	if userID == "" {
		return "", false
	}

	shard := r.shardFor(userID)
	shard.mu.Lock()
	set := shard.byUser[userID]
	if set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(shard.byUser, userID)
			wentOffline = true
		}
	}
	shard.mu.Unlock()

	if wentOffline && r.sink != nil {
		r.sink.UserOffline(userID)
	}
	return userID, wentOffline
}

// Resolve returns every live session of a user.
func (r *Registry) Resolve(userID string) []*Client {
	shard := r.shardFor(userID)
	shard.mu.RLock()
	set := shard.byUser[userID]
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	shard.mu.RUnlock()
	return out
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID string) bool {
	shard := r.shardFor(userID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.byUser[userID]) > 0
}

// SessionCount counts every session, bound or not.
func (r *Registry) SessionCount() int {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	return len(r.byConn)
}

// UserCount counts users with at least one bound session.
func (r *Registry) UserCount() int {
	total := 0
	for _, shard := range r.shards {
		shard.mu.RLock()
		total += len(shard.byUser)
		shard.mu.RUnlock()
	}
	return total
}

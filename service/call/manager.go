package call

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/service/push"
	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
	"github.com/Bhawani9828/slack-clone-sub001/tools/ids"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

// Events pushed to clients during signaling.
const (
	EvtIncomingCall = "incoming-call"
	EvtCallAccepted = "call-accepted"
	EvtCallRejected = "call-rejected"
	EvtCallEnded    = "call-ended"
	EvtCallFailed   = "call-failed"
	EvtICECandidate = "ice-candidate"
)

const DefaultRingTimeout = 30 * time.Second

// Sender relays an event to every live session of a user and reports
// how many sessions received it.
type Sender interface {
	ToUser(userID, event string, data any) int
}

// Resolver answers liveness questions about users.
type Resolver interface {
	IsOnline(userID string) bool
}

type Config struct {
	RingTimeout time.Duration
	Clock       func() time.Time
}

// Manager owns every in-flight call session on this gateway. SDP and
// ICE blobs pass through opaque; only the state machine lives here.
type Manager struct {
	conf     Config
	sender   Sender
	resolver Resolver
	notifier push.Bridge

	mu     sync.RWMutex
	byID   map[string]*Session
	byPair map[string]*Session
}

func NewManager(sender Sender, resolver Resolver, notifier push.Bridge, conf Config) *Manager {
	if conf.RingTimeout <= 0 {
		conf.RingTimeout = DefaultRingTimeout
	}
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	return &Manager{
		conf:     conf,
		sender:   sender,
		resolver: resolver,
		notifier: notifier,
		byID:     make(map[string]*Session),
		byPair:   make(map[string]*Session),
	}
}

// pairKey is order independent so either party's events find the call.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

func (m *Manager) lookup(a, b string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byPair[pairKey(a, b)]
}

func (m *Manager) remove(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byID[sess.ID] == sess {
		delete(m.byID, sess.ID)
	}
	key := pairKey(sess.Caller, sess.Callee)
	if m.byPair[key] == sess {
		delete(m.byPair, key)
	}
}

// Place starts a call from caller to callee with the given SDP offer.
// The callee must be online; an offline callee never gets a session,
// only a best effort missed call push.
func (m *Manager) Place(caller, callee string, offer any, media Media) error {
	if caller == "" || callee == "" || caller == callee {
		return errs.ErrPayloadInvalid.WithDetail("bad caller/callee pair")
	}
	if media != MediaVideo {
		media = MediaAudio
	}
	if !m.resolver.IsOnline(callee) {
		m.pushMissedCall(caller, callee, media)
		return errs.ErrUserOffline
	}

	sess := &Session{
		ID:        ids.GenerateString(),
		Caller:    caller,
		Callee:    callee,
		Media:     media,
		CreatedAt: m.conf.Clock(),
		state:     StateRinging,
	}

	m.mu.Lock()
	key := pairKey(caller, callee)
	if cur, ok := m.byPair[key]; ok && !cur.State().Terminal() {
		m.mu.Unlock()
		return errs.ErrCallInProgress
	}
	m.byID[sess.ID] = sess
	m.byPair[key] = sess
	m.mu.Unlock()

	n := m.sender.ToUser(callee, EvtIncomingCall, map[string]any{
		"from":   caller,
		"type":   string(media),
		"offer":  offer,
		"callId": sess.ID,
	})
	if n == 0 {
		// Callee dropped between the liveness check and the relay.
		sess.transition(StateFailed, StateRinging)
		m.remove(sess)
		m.pushMissedCall(caller, callee, media)
		return errs.ErrUserOffline
	}

	sess.armTimer(time.AfterFunc(m.conf.RingTimeout, func() {
		m.timeout(sess)
	}))
	logger.Infof("call %s ringing: %s -> %s (%s)", sess.ID, caller, callee, media)
	return nil
}

// Accept moves a ringing call to accepted and relays the SDP answer
// back to the caller.
func (m *Manager) Accept(callee, caller string, answer any) error {
	sess := m.lookup(callee, caller)
	if sess == nil {
		return errs.ErrCallNotFound
	}
	if sess.Callee != callee {
		return errs.ErrCallState.WithDetail("only the callee can accept")
	}
	prev, ok := sess.transition(StateAccepted, StateRinging)
	if !ok {
		if prev.Terminal() {
			return errs.ErrCallTerminal
		}
		return errs.ErrCallState.WithDetail("accept in state " + prev.String())
	}
	n := m.sender.ToUser(caller, EvtCallAccepted, map[string]any{
		"from":   callee,
		"answer": answer,
	})
	if n == 0 {
		// The caller vanished mid-handshake; the callee survives and
		// must hear the teardown.
		m.fail(sess, caller)
		return errs.ErrUserOffline
	}
	logger.Infof("call %s accepted by %s", sess.ID, callee)
	return nil
}

// Reject declines a ringing call. The caller hears about it once.
func (m *Manager) Reject(callee, caller string) error {
	sess := m.lookup(callee, caller)
	if sess == nil {
		return errs.ErrCallNotFound
	}
	if sess.Callee != callee {
		return errs.ErrCallState.WithDetail("only the callee can reject")
	}
	prev, ok := sess.transition(StateRejected, StateRinging)
	if !ok {
		if prev.Terminal() {
			return errs.ErrCallTerminal
		}
		return errs.ErrCallState.WithDetail("reject in state " + prev.String())
	}
	m.remove(sess)
	m.sender.ToUser(caller, EvtCallRejected, map[string]any{"from": callee})
	logger.Infof("call %s rejected by %s", sess.ID, callee)
	return nil
}

// Candidate relays one ICE candidate to the peer. The first candidate
// seen after accept marks the call active.
func (m *Manager) Candidate(from, to string, candidate any) error {
	sess := m.lookup(from, to)
	if sess == nil {
		return errs.ErrCallNotFound
	}
	if sess.peer(from) != to {
		return errs.ErrCallState.WithDetail("candidate outside the pair")
	}
	st := sess.State()
	switch st {
	case StateRinging, StateActive:
	case StateAccepted:
		sess.transition(StateActive, StateAccepted)
	default:
		return errs.ErrCallState.WithDetail("candidate in state " + st.String())
	}
	n := m.sender.ToUser(to, EvtICECandidate, map[string]any{
		"from":      from,
		"candidate": candidate,
	})
	if n == 0 {
		m.fail(sess, to)
		return errs.ErrUserOffline
	}
	return nil
}

// End hangs up an established call from either side.
func (m *Manager) End(from, to string) error {
	sess := m.lookup(from, to)
	if sess == nil {
		return errs.ErrCallNotFound
	}
	peer := sess.peer(from)
	if peer != to {
		return errs.ErrCallState.WithDetail("end outside the pair")
	}
	prev, ok := sess.transition(StateEnded, StateAccepted, StateActive, StateRinging)
	if !ok {
		if prev.Terminal() {
			return errs.ErrCallTerminal
		}
		return errs.ErrCallState.WithDetail("end in state " + prev.String())
	}
	m.remove(sess)
	m.sender.ToUser(peer, EvtCallEnded, map[string]any{"from": from})
	logger.Infof("call %s ended by %s", sess.ID, from)
	return nil
}

// Disconnect fails every live call the user is part of, typically when
// their last transport drops. The surviving party hears call-ended
// exactly once.
func (m *Manager) Disconnect(userID string) {
	m.mu.RLock()
	var involved []*Session
	for _, sess := range m.byID {
		if sess.Caller == userID || sess.Callee == userID {
			involved = append(involved, sess)
		}
	}
	m.mu.RUnlock()

	for _, sess := range involved {
		m.fail(sess, userID)
	}
}

// fail moves a session to FAILED and tells the party other than
// culprit. The transition guard keeps the notification single-shot.
func (m *Manager) fail(sess *Session, culprit string) {
	_, ok := sess.transition(StateFailed, StateRinging, StateAccepted, StateActive)
	if !ok {
		return
	}
	m.remove(sess)
	if peer := sess.peer(culprit); peer != "" {
		m.sender.ToUser(peer, EvtCallEnded, map[string]any{"from": culprit})
	}
	logger.Warnf("call %s failed, %s dropped", sess.ID, culprit)
}

// timeout fires when nobody answered within the ring window.
func (m *Manager) timeout(sess *Session) {
	_, ok := sess.transition(StateTimedOut, StateRinging)
	if !ok {
		return
	}
	m.remove(sess)
	m.sender.ToUser(sess.Caller, EvtCallFailed, map[string]any{"message": "Call timed out"})
	m.sender.ToUser(sess.Callee, EvtCallEnded, map[string]any{"from": sess.Caller})
	m.pushMissedCall(sess.Caller, sess.Callee, sess.Media)
	logger.Infof("call %s timed out", sess.ID)
}

func (m *Manager) pushMissedCall(caller, callee string, media Media) {
	if m.notifier == nil {
		return
	}
	p := push.Payload{
		Notification: push.Notification{
			Title: "Missed call",
			Body:  "Missed " + string(media) + " call from " + caller,
		},
		Data: push.Data{
			Type:     push.DataTypeMissedCall,
			SenderID: caller,
			ChatID:   caller,
		},
	}
	safe.Go("call.pushMissedCall", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		m.notifier.Dispatch(ctx, callee, p)
	})
}

// ActiveCount reports sessions not yet removed, for health stats.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

package push

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
)

const (
	DefaultSubject = "im.push.jobs"
	DefaultQueue   = "im-push-workers"
)

// job is the wire shape published onto the push subject.
type job struct {
	UserID  string  `json:"userId"`
	Payload Payload `json:"payload"`
}

// Connect dials the NATS server with gateway-friendly defaults.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("push: nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("push: nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
}

// QueueBridge publishes push jobs onto a NATS subject instead of
// sending inline. A worker pool on the same subject drains them, so
// slow FCM round trips never block the event loop.
type QueueBridge struct {
	nc      *nats.Conn
	subject string
}

func NewQueueBridge(nc *nats.Conn, subject string) *QueueBridge {
	if subject == "" {
		subject = DefaultSubject
	}
	return &QueueBridge{nc: nc, subject: subject}
}

func (b *QueueBridge) Dispatch(_ context.Context, userID string, p Payload) bool {
	raw, err := json.Marshal(job{UserID: userID, Payload: p})
	if err != nil {
		logger.Errorf("push: encode job for %s: %v", userID, err)
		return false
	}
	if err := b.nc.Publish(b.subject, raw); err != nil {
		logger.Errorf("push: publish job for %s: %v", userID, err)
		return false
	}
	return true
}

// StartWorker joins the queue group on subject and delivers each job
// through delegate. Queue group semantics give one delivery per job
// even with several gateway instances running.
func StartWorker(nc *nats.Conn, subject, queue string, delegate Bridge) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if queue == "" {
		queue = DefaultQueue
	}
	return nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var j job
		if err := json.Unmarshal(msg.Data, &j); err != nil {
			logger.Errorf("push: bad job on %s: %v", subject, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		delegate.Dispatch(ctx, j.UserID, j.Payload)
	})
}

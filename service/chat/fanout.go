package chat

import (
	"sync"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/tools/safe"
)

type fanoutJob struct {
	targets []*Client
	payload []byte
}

// Fanout spreads one payload across many sessions on a small worker
// pool so a broadcast to a busy user never runs on the event goroutine.
type Fanout struct {
	jobs     chan fanoutJob
	stopOnce sync.Once
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 256
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		safe.Go("chat.fanoutWorker", f.worker)
	}
	return f
}

func (f *Fanout) worker() {
	for job := range f.jobs {
		for _, c := range job.targets {
			c.Enqueue(job.payload)
		}
	}
}

// Broadcast enqueues a job without blocking. Under overload the job is
// delivered inline instead of dropped.
func (f *Fanout) Broadcast(targets []*Client, payload []byte) {
	if len(targets) == 0 || payload == nil {
		return
	}
	select {
	case f.jobs <- fanoutJob{targets: targets, payload: payload}:
	default:
		logger.Warnf("fanout queue full, delivering inline to %d sessions", len(targets))
		for _, c := range targets {
			c.Enqueue(payload)
		}
	}
}

func (f *Fanout) Close() {
	f.stopOnce.Do(func() { close(f.jobs) })
}

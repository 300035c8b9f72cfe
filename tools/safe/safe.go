package safe

import (
	"github.com/Bhawani9828/slack-clone-sub001/logger"
)

// Go starts f on a new goroutine and recovers from any panic, so a single
// misbehaving side effect (push dispatch, mirror write) cannot take down the
// gateway process.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe] %s panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}

package safe

import (
	"relaygate/logger"
)

// Go starts f on a new goroutine and recovers any panic, so a
// misbehaving connection handler cannot take down the whole process.
// The name tags the recovery log line with the goroutine's role.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[%s] panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}

// Run invokes f inline with the same panic containment. Used around
// per-event dispatch so one bad frame never escapes the read loop.
func Run(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] panic recovered: %v", name, r)
		}
	}()
	f()
}

// Package signals converts asynchronous stop/reload requests into a latch
// the session loop drains at one well-defined point per tick.
package signals

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Latch holds the two loop-control conditions. Setters may run on any
// goroutine; TakeAndClear is called only from the session loop.
type Latch struct {
	stop   atomic.Bool
	reload atomic.Bool
}

// RequestStop asks the session to stop gracefully.
func (l *Latch) RequestStop() { l.stop.Store(true) }

// RequestReload asks the session to re-read the image from its path.
func (l *Latch) RequestReload() { l.reload.Store(true) }

// TakeAndClear returns both conditions and clears them. Each set request is
// observed exactly once.
func (l *Latch) TakeAndClear() (stop, reload bool) {
	return l.stop.Swap(false), l.reload.Swap(false)
}

// Notify installs the process signal handlers: SIGHUP requests a reload,
// SIGINT and SIGTERM request a graceful stop.
func Notify(l *Latch) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range ch {
			if sig == syscall.SIGHUP {
				l.RequestReload()
			} else {
				l.RequestStop()
			}
		}
	}()
}

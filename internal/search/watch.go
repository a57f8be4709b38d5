package search

import (
	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/store"
)

// Subscriber is the part of the store dispatcher Watch needs.
type Subscriber interface {
	State() store.State
	Subscribe(fn func(store.State)) (unsubscribe func())
}

// Watch keeps s in sync with the store from a background goroutine.
// Bursts of changes are coalesced; only the newest state is indexed. The
// returned function stops watching and waits for the goroutine to exit.
func Watch(d Subscriber, s Syncer) (stop func()) {
	pending := make(chan store.State, 1)
	done := make(chan struct{})
	quit := make(chan struct{})

	push := func(st store.State) {
		select {
		case <-pending:
		default:
		}
		select {
		case pending <- st:
		default:
		}
	}

	unsubscribe := d.Subscribe(push)
	push(d.State())

	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case st := <-pending:
				if err := s.Sync(st); err != nil {
					debuglog.Warnf("search index sync: %v", err)
				}
			}
		}
	}()

	return func() {
		unsubscribe()
		close(quit)
		<-done
	}
}

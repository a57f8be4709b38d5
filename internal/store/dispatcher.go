package store

import (
	"sync"

	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/model"
)

// Effect runs after an action has been applied. Effects are where side
// effects live (persistence, logging); Apply itself stays pure.
type Effect func(action Action, prev, next State)

// Dispatcher owns the single State instance. Dispatch calls are
// serialized, so every action runs to completion before the next one is
// applied. Subscribers and effects run in dispatch order and must not
// call Dispatch themselves.
type Dispatcher struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	state    State
	subs     map[int]func(State)
	nextSub  int
	effects  []Effect
}

func NewDispatcher(initial State, effects ...Effect) *Dispatcher {
	return &Dispatcher{
		state:   initial,
		subs:    make(map[int]func(State)),
		effects: effects,
	}
}

// State returns the current state. Callers must treat it as read-only.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Dispatch applies action and returns the resulting state.
func (d *Dispatcher) Dispatch(action Action) State {
	d.mu.Lock()
	prev := d.state
	next := Apply(prev, action)
	d.state = next
	subs := make([]func(State), 0, len(d.subs))
	for i := 0; i < d.nextSub; i++ {
		if fn, ok := d.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	effects := d.effects
	d.notifyMu.Lock()
	d.mu.Unlock()
	defer d.notifyMu.Unlock()

	for _, eff := range effects {
		eff(action, prev, next)
	}
	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription.
func (d *Dispatcher) Subscribe(fn func(State)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// UserSaver persists the authenticated user across launches.
type UserSaver interface {
	SaveUser(user *model.User) error
	ClearUser() error
}

// SnapshotUser returns an effect that mirrors the session user into saver.
func SnapshotUser(saver UserSaver) Effect {
	return func(action Action, _, next State) {
		switch action.(type) {
		case SetUser:
			if next.User == nil {
				return
			}
			if err := saver.SaveUser(next.User); err != nil {
				debuglog.WithFields(map[string]interface{}{"user": next.User.ID}).Warnf("saving user snapshot: %v", err)
			}
		case Logout:
			if err := saver.ClearUser(); err != nil {
				debuglog.Warnf("clearing user snapshot: %v", err)
			}
		}
	}
}

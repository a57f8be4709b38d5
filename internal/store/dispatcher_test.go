package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fwrdcast/internal/model"
)

type fakeSaver struct {
	mu      sync.Mutex
	user    *model.User
	cleared int
	err     error
}

func (f *fakeSaver) SaveUser(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *u
	f.user = &cp
	return nil
}

func (f *fakeSaver) ClearUser() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	f.cleared++
	return f.err
}

func TestDispatcher_SubscribeAndUnsubscribe(t *testing.T) {
	d := NewDispatcher(New())

	var seen []bool
	unsubscribe := d.Subscribe(func(s State) { seen = append(seen, s.UnreadOnly) })

	d.Dispatch(SetViewMode{UnreadOnly: true})
	d.Dispatch(SetViewMode{UnreadOnly: false})
	unsubscribe()
	unsubscribe()
	d.Dispatch(SetViewMode{UnreadOnly: true})

	assert.Equal(t, []bool{true, false}, seen)
	assert.True(t, d.State().UnreadOnly)
}

func TestDispatcher_SubscriberCanReadState(t *testing.T) {
	d := NewDispatcher(New())
	var got State
	d.Subscribe(func(State) { got = d.State() })

	next := d.Dispatch(SetViewMode{UnreadOnly: true})
	assert.Equal(t, next.UnreadOnly, got.UnreadOnly)
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	d := NewDispatcher(New())
	d.Dispatch(BatchAppend{Key: model.FeedList("f1"), Articles: page("a", 50)})

	var wg sync.WaitGroup
	for _, id := range d.State().List.IDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			d.Dispatch(Star{ID: id})
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 50, d.State().Totals.Star)
}

func TestSnapshotUser(t *testing.T) {
	saver := &fakeSaver{}
	d := NewDispatcher(New(), SnapshotUser(saver))

	d.Dispatch(SetUser{User: model.User{ID: "u1", Email: "me@example.com"}})
	require.NotNil(t, saver.user)
	assert.Equal(t, "u1", saver.user.ID)

	d.Dispatch(Logout{})
	assert.Nil(t, saver.user)
	assert.Equal(t, 1, saver.cleared)
	assert.Nil(t, d.State().User)
}

func TestSnapshotUser_ErrorsDoNotBlockDispatch(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	d := NewDispatcher(New(), SnapshotUser(saver))

	s := d.Dispatch(SetUser{User: model.User{ID: "u1"}})
	require.NotNil(t, s.User)
	assert.Nil(t, saver.user)
}

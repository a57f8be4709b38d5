// Package pager drives infinite-scroll fetching for article lists. Each
// list context has at most one fetch in flight; starting a new one cancels
// the previous, and a cancelled or superseded fetch never reaches the
// store.
package pager

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pders01/fwrdcast/internal/api"
	"github.com/pders01/fwrdcast/internal/cursor"
	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

type Fetcher interface {
	ListArticles(ctx context.Context, q api.ListQuery) ([]model.Article, error)
}

type Store interface {
	State() store.State
	Dispatch(action store.Action) store.State
}

// Task is one page fetch.
type Task struct {
	ID  string
	Key model.ListKey

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed once the task has finished, successfully or not.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the fetch error after Done is closed. Cancellation is not an
// error.
func (t *Task) Err() error {
	<-t.done
	return t.err
}

func (t *Task) Cancel() { t.cancel() }

// Loader dispatches while holding its lock, so store subscribers must not
// call back into it synchronously.
type Loader struct {
	fetcher  Fetcher
	store    Store
	pageSize int
	maxItems int

	mu    sync.Mutex
	tasks map[model.ListKey]*Task
}

func New(fetcher Fetcher, s Store, pageSize, maxItems int) *Loader {
	return &Loader{
		fetcher:  fetcher,
		store:    s,
		pageSize: pageSize,
		maxItems: maxItems,
		tasks:    make(map[model.ListKey]*Task),
	}
}

// Load fetches the next page of key. Switching to a key other than the
// one the store currently holds resets the list first. Exhausted lists
// are not fetched; the returned task is already done.
func (l *Loader) Load(ctx context.Context, key model.ListKey) *Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.store.State()
	if state.List.Key != key {
		l.cancelAllLocked()
		state = l.store.Dispatch(store.ClearList{Key: key})
	}
	if state.List.Exhausted {
		return finished(key)
	}

	if prev, ok := l.tasks[key]; ok {
		prev.cancel()
	}

	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:     uuid.NewString(),
		Key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	l.tasks[key] = t

	q := api.ListQuery{
		Key:     key,
		Cursor:  cursor.Next(state.Visible()),
		PerPage: l.pageSize,
	}
	l.store.Dispatch(store.ListLoading{Key: key})
	debuglog.WithFields(map[string]interface{}{"list": key.String(), "task": t.ID}).Debugf("fetching page")

	go l.run(tctx, t, q)
	return t
}

// Reset cancels everything in flight and empties the list for key.
func (l *Loader) Reset(key model.ListKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelAllLocked()
	l.store.Dispatch(store.ClearList{Key: key})
}

// Cancel stops the in-flight fetch for key, if any, without touching the
// store.
func (l *Loader) Cancel(key model.ListKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tasks[key]; ok {
		t.cancel()
		delete(l.tasks, key)
	}
}

// Close cancels every in-flight fetch.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelAllLocked()
}

func (l *Loader) run(ctx context.Context, t *Task, q api.ListQuery) {
	defer close(t.done)
	defer t.cancel()

	arts, err := l.fetcher.ListArticles(ctx, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.tasks[t.Key]
	if !ok || current.ID != t.ID {
		debuglog.Debugf("dropping page for %s (task %s): superseded", t.Key, t.ID)
		return
	}
	delete(l.tasks, t.Key)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		debuglog.Debugf("dropping page for %s (task %s): cancelled", t.Key, t.ID)
		return
	}

	if err != nil {
		t.err = err
		debuglog.WithFields(map[string]interface{}{"list": t.Key.String(), "task": t.ID}).Warnf("page fetch failed: %v", err)
		l.store.Dispatch(store.ListFailed{Key: t.Key, Err: err.Error()})
		return
	}

	l.store.Dispatch(store.BatchAppend{
		Key:      t.Key,
		Articles: arts,
		PageSize: l.pageSize,
		MaxItems: l.maxItems,
	})
}

func (l *Loader) cancelAllLocked() {
	for key, t := range l.tasks {
		t.cancel()
		delete(l.tasks, key)
	}
}

func finished(key model.ListKey) *Task {
	done := make(chan struct{})
	close(done)
	return &Task{ID: uuid.NewString(), Key: key, cancel: func() {}, done: done}
}

package media

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotLoaded = errors.New("no media loaded")

// Listener receives transport events. ClockTransport calls it from its own
// goroutine, never from inside one of its methods. load is the id Load
// returned for the media the event is about; an event may arrive after a
// newer Load, so listeners compare it with the id they hold.
type Listener interface {
	OnTimeUpdate(load int, position, duration float64)
	OnSeeked(load int, position, duration float64)
	OnEnded(load int)
}

// DurationProber returns the length of the media at url in seconds, or 0
// when it is unknown.
type DurationProber func(url string) (float64, error)

// ClockTransport tracks a playback position that advances with wall time
// scaled by the rate. It does not decode audio; it keeps the session in
// step while an external player or nothing at all produces sound.
type ClockTransport struct {
	interval time.Duration
	now      func() time.Time
	probe    DurationProber

	mu       sync.Mutex
	listener Listener
	gen      int
	stop     chan struct{}
	wake     chan struct{}

	url         string
	playing     bool
	rate        float64
	offset      float64
	anchor      time.Time
	duration    float64
	pendingSeek bool
}

type ClockOptions struct {
	// Interval between time updates. Defaults to one second.
	Interval time.Duration
	Now      func() time.Time
	Probe    DurationProber
}

func NewClockTransport(opts ClockOptions) *ClockTransport {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ClockTransport{
		interval: opts.Interval,
		now:      opts.Now,
		probe:    opts.Probe,
		rate:     1,
	}
}

// SetListener must be called before Load.
func (t *ClockTransport) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

func (t *ClockTransport) Load(url string) (int, error) {
	duration := 0.0
	if t.probe != nil {
		d, err := t.probe(url)
		if err != nil {
			return 0, fmt.Errorf("probing %s: %w", url, err)
		}
		duration = d
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.url = url
	t.playing = false
	t.offset = 0
	t.duration = duration
	t.pendingSeek = false
	t.anchor = t.now()

	t.gen++
	t.stop = make(chan struct{})
	t.wake = make(chan struct{}, 1)
	go t.run(t.gen, t.stop, t.wake)
	return t.gen, nil
}

func (t *ClockTransport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.url == "" {
		return ErrNotLoaded
	}
	if !t.playing {
		if t.duration > 0 && t.offset >= t.duration {
			t.offset = 0
		}
		t.anchor = t.now()
		t.playing = true
	}
	return nil
}

func (t *ClockTransport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.url == "" {
		return ErrNotLoaded
	}
	if t.playing {
		t.offset = t.positionLocked()
		t.playing = false
	}
	return nil
}

func (t *ClockTransport) Seek(seconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.url == "" {
		return ErrNotLoaded
	}
	seconds = max(seconds, 0)
	if t.duration > 0 {
		seconds = min(seconds, t.duration)
	}
	t.offset = seconds
	t.anchor = t.now()
	t.pendingSeek = true
	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

func (t *ClockTransport) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.playing {
		t.offset = t.positionLocked()
		t.anchor = t.now()
	}
	t.rate = rate
	return nil
}

// Close unloads the media. The transport can be loaded again.
func (t *ClockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	t.url = ""
	t.playing = false
	t.offset = 0
	t.duration = 0
	return nil
}

// Position returns the current position and duration in seconds.
func (t *ClockTransport) Position() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionLocked(), t.duration
}

func (t *ClockTransport) positionLocked() float64 {
	pos := t.offset
	if t.playing {
		pos += t.now().Sub(t.anchor).Seconds() * t.rate
	}
	if t.duration > 0 {
		pos = min(pos, t.duration)
	}
	return pos
}

func (t *ClockTransport) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

type clockEvent struct {
	seeked, update, ended bool
	position, duration    float64
}

func (t *ClockTransport) run(gen int, stop <-chan struct{}, wake <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-wake:
			t.deliver(gen, false)
		case <-ticker.C:
			t.deliver(gen, true)
		}
	}
}

func (t *ClockTransport) deliver(gen int, tick bool) {
	t.mu.Lock()
	if gen != t.gen || t.listener == nil {
		t.mu.Unlock()
		return
	}
	ev := clockEvent{duration: t.duration}
	if t.pendingSeek {
		t.pendingSeek = false
		ev.seeked = true
	}
	if tick && t.playing && !ev.seeked {
		ev.update = true
		if t.duration > 0 && t.positionLocked() >= t.duration {
			t.offset = t.duration
			t.playing = false
			ev.ended = true
		}
	}
	ev.position = t.positionLocked()
	l := t.listener
	t.mu.Unlock()

	switch {
	case ev.seeked:
		l.OnSeeked(gen, ev.position, ev.duration)
	case ev.update:
		l.OnTimeUpdate(gen, ev.position, ev.duration)
	}
	if ev.ended {
		l.OnEnded(gen)
	}
}

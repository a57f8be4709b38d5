// Package player controls the single podcast playback session. The
// session itself lives in the store; the controller drives the media
// transport, keeps the two in step and reports progress to the service.
package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pders01/fwrdcast/internal/api"
	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

var (
	ErrNoSession   = errors.New("no active playback session")
	ErrNotEpisode  = errors.New("article has no playable enclosure")
	ErrUnknownItem = errors.New("article not found")
)

// Status is the controller state derived from the session and the
// transient seeking flag.
type Status int

const (
	Idle Status = iota
	Paused
	Playing
	Seeking
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case Seeking:
		return "seeking"
	default:
		return "unknown"
	}
}

type Store interface {
	State() store.State
	Dispatch(action store.Action) store.State
}

// Transport is the media backend. Implementations deliver position
// updates and failures through the controller's On* callbacks and must
// not invoke them from inside a Transport method call. Load returns an id
// that is passed back with every event about that media.
type Transport interface {
	Load(url string) (int, error)
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetRate(rate float64) error
	Close() error
}

// positioner is implemented by transports that can report their position
// on demand rather than only through events.
type positioner interface {
	Position() (position, duration float64)
}

type Reporter interface {
	ReportProgress(ctx context.Context, p api.Progress) error
}

type Options struct {
	ProgressInterval time.Duration
	SkipOffset       time.Duration
	Rates            []float64
	ReportTimeout    time.Duration
	Now              func() time.Time
}

var DefaultRates = []float64{1, 1.25, 1.5, 1.75, 2, 0.75}

func DefaultOptions() Options {
	return Options{
		ProgressInterval: 10 * time.Second,
		SkipOffset:       30 * time.Second,
		Rates:            DefaultRates,
		ReportTimeout:    10 * time.Second,
		Now:              time.Now,
	}
}

type Controller struct {
	store     Store
	transport Transport
	reporter  Reporter
	opts      Options

	mu         sync.Mutex
	load       int
	seeking    bool
	lastReport time.Time
	lastErr    error
	reports    sync.WaitGroup
}

func New(s Store, t Transport, r Reporter, opts Options) *Controller {
	def := DefaultOptions()
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = def.ProgressInterval
	}
	if opts.SkipOffset <= 0 {
		opts.SkipOffset = def.SkipOffset
	}
	if len(opts.Rates) == 0 {
		opts.Rates = def.Rates
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = def.ReportTimeout
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Controller{store: s, transport: t, reporter: r, opts: opts}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	p := c.store.State().Player
	switch {
	case p == nil:
		return Idle
	case c.seeking:
		return Seeking
	case p.Playing:
		return Playing
	default:
		return Paused
	}
}

// Err returns the last transport error, cleared on the next selection.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Select starts playing articleID from the beginning.
func (c *Controller) Select(articleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(articleID)
}

func (c *Controller) selectLocked(articleID string) error {
	art, ok := c.find(articleID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, articleID)
	}
	if art.EnclosureURL == "" {
		return fmt.Errorf("%w: %s", ErrNotEpisode, art.ID)
	}

	c.seeking = false
	c.lastErr = nil
	c.store.Dispatch(store.PlayerSelect{ArticleID: art.ID})

	load, err := c.transport.Load(art.EnclosureURL)
	if err != nil {
		c.load = 0
		return c.failLocked(fmt.Errorf("loading episode: %w", err))
	}
	c.load = load
	if err := c.transport.SetRate(model.DefaultPlaybackRate); err != nil {
		return c.failLocked(fmt.Errorf("setting rate: %w", err))
	}
	if err := c.transport.Play(); err != nil {
		return c.failLocked(fmt.Errorf("starting playback: %w", err))
	}
	c.reportLocked()
	return nil
}

func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil {
		return ErrNoSession
	}
	if p.Playing {
		return nil
	}
	if err := c.transport.Play(); err != nil {
		return c.failLocked(fmt.Errorf("resuming playback: %w", err))
	}
	c.store.Dispatch(store.PlayerPlay{})
	c.reportLocked()
	return nil
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseLocked()
}

func (c *Controller) pauseLocked() error {
	p := c.store.State().Player
	if p == nil {
		return ErrNoSession
	}
	if !p.Playing {
		return nil
	}
	err := c.transport.Pause()
	if err != nil {
		debuglog.Warnf("transport pause failed: %v", err)
	}
	c.store.Dispatch(store.PlayerPause{})
	c.reportLocked()
	return err
}

// Toggle flips between playing and paused.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	p := c.store.State().Player
	c.mu.Unlock()

	if p == nil {
		return ErrNoSession
	}
	if p.Playing {
		return c.Pause()
	}
	return c.Play()
}

// Next selects the episode after the current one. At the end of the queue
// the session pauses instead of wrapping around.
func (c *Controller) Next() error { return c.step(1) }

// Prev selects the episode before the current one, pausing at the start
// of the queue.
func (c *Controller) Prev() error { return c.step(-1) }

func (c *Controller) step(dir int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked(dir)
}

func (c *Controller) stepLocked(dir int) error {
	s := c.store.State()
	if s.Player == nil {
		return ErrNoSession
	}
	queue := buildQueue(s)
	i := indexOf(queue, s.Player.ArticleID)
	j := i + dir
	if i < 0 || j < 0 || j >= len(queue) {
		return c.pauseLocked()
	}
	return c.selectLocked(queue[j].ID)
}

func (c *Controller) SkipForward() error {
	return c.skip(c.opts.SkipOffset.Seconds())
}

func (c *Controller) SkipRewind() error {
	return c.skip(-c.opts.SkipOffset.Seconds())
}

func (c *Controller) skip(delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil {
		return ErrNoSession
	}
	position, duration := p.Position(), p.Duration
	if tp, ok := c.transport.(positioner); ok && !c.seeking && c.load != 0 {
		position, duration = tp.Position()
		if duration <= 0 {
			duration = p.Duration
		}
	}
	return c.seekLocked(position+delta, duration)
}

// SeekTo scrubs to fraction (0..1) of the episode.
func (c *Controller) SeekTo(fraction float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil {
		return ErrNoSession
	}
	if p.Duration <= 0 || math.IsNaN(fraction) {
		return nil
	}
	return c.seekLocked(fraction*p.Duration, p.Duration)
}

func (c *Controller) seekLocked(target, duration float64) error {
	target = math.Max(target, 0)
	if duration > 0 {
		target = math.Min(target, duration)
	}
	c.seeking = true
	if err := c.transport.Seek(target); err != nil {
		c.seeking = false
		return c.failLocked(fmt.Errorf("seeking: %w", err))
	}
	return nil
}

// CycleRate advances to the next playback rate, wrapping at the end.
func (c *Controller) CycleRate() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil {
		return 0, ErrNoSession
	}
	next := nextRate(c.opts.Rates, p.PlaybackRate)
	if err := c.transport.SetRate(next); err != nil {
		return p.PlaybackRate, c.failLocked(fmt.Errorf("setting rate: %w", err))
	}
	c.store.Dispatch(store.PlayerRate{Rate: next})
	return next, nil
}

func (c *Controller) ToggleLoop() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil {
		return false, ErrNoSession
	}
	c.store.Dispatch(store.PlayerLoop{Loop: !p.Loop})
	return !p.Loop, nil
}

// Close flushes a final report and discards the session.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.State().Player == nil {
		return nil
	}
	c.syncLocked()
	final := progressOf(*c.store.State().Player)
	final.Open = false
	final.Playing = false
	c.send(final)

	err := c.transport.Close()
	c.seeking = false
	c.store.Dispatch(store.PlayerClose{})
	if err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}

// Tick sends a periodic progress report when playing and the report
// interval has elapsed since the last one.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil || !p.Playing {
		return
	}
	if c.opts.Now().Sub(c.lastReport) < c.opts.ProgressInterval {
		return
	}
	c.reportLocked()
}

// OnTimeUpdate receives the transport position. Updates are ignored while
// a seek is pending so the scrubber does not jump back, and so are updates
// about media that has since been replaced.
func (c *Controller) OnTimeUpdate(load int, position, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seeking || load != c.load {
		return
	}
	c.progressLocked(position, duration)
}

// OnSeeked confirms a seek and leaves the seeking sub-state.
func (c *Controller) OnSeeked(load int, position, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if load != c.load {
		return
	}
	c.seeking = false
	c.progressLocked(position, duration)
}

// OnError handles a transport failure by forcing a pause.
func (c *Controller) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.failLocked(err)
}

// OnEnded restarts the episode when looping, otherwise advances.
func (c *Controller) OnEnded(load int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.store.State().Player
	if p == nil || load != c.load {
		return
	}
	if p.Loop {
		if err := c.seekLocked(0, p.Duration); err != nil {
			return
		}
		if err := c.transport.Play(); err != nil {
			_ = c.failLocked(fmt.Errorf("restarting episode: %w", err))
		}
		return
	}
	if err := c.stepLocked(1); err != nil {
		debuglog.Warnf("advancing after episode end: %v", err)
	}
}

// Wait blocks until every outstanding progress report has finished.
func (c *Controller) Wait() {
	c.reports.Wait()
}

// Queue returns the known podcast episodes in playback order.
func (c *Controller) Queue() []model.Article {
	return buildQueue(c.store.State())
}

func (c *Controller) progressLocked(position, duration float64) {
	if c.store.State().Player == nil {
		return
	}
	played := 0.0
	if duration > 0 {
		played = position / duration
	}
	c.store.Dispatch(store.PlayerProgress{Played: played, Duration: duration, Position: position})
}

// syncLocked pulls the live position from transports that expose it, so
// reports do not lag behind the last time update.
func (c *Controller) syncLocked() {
	tp, ok := c.transport.(positioner)
	if !ok || c.seeking || c.load == 0 {
		return
	}
	position, duration := tp.Position()
	c.progressLocked(position, duration)
}

func (c *Controller) failLocked(err error) error {
	c.lastErr = err
	c.seeking = false
	debuglog.WithFields(map[string]interface{}{"component": "player"}).Errorf("transport error: %v", err)

	p := c.store.State().Player
	if p != nil && p.Playing {
		if perr := c.transport.Pause(); perr != nil {
			debuglog.Debugf("pause after transport error: %v", perr)
		}
		c.store.Dispatch(store.PlayerPause{})
		c.reportLocked()
	}
	return err
}

func (c *Controller) reportLocked() {
	if c.store.State().Player == nil {
		return
	}
	c.syncLocked()
	c.send(progressOf(*c.store.State().Player))
}

// send posts p in the background. Failures are logged and otherwise
// ignored; local transport state never depends on them.
func (c *Controller) send(p api.Progress) {
	c.lastReport = c.opts.Now()
	if c.reporter == nil {
		return
	}

	c.reports.Add(1)
	go func() {
		defer c.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.ReportTimeout)
		defer cancel()
		if err := c.reporter.ReportProgress(ctx, p); err != nil {
			debuglog.WithFields(map[string]interface{}{"article": p.ArticleID}).Warnf("progress report failed: %v", err)
		}
	}()
}

func progressOf(p model.PlayerSession) api.Progress {
	return api.Progress{
		ArticleID: p.ArticleID,
		Open:      p.Open,
		Playing:   p.Playing,
		Played:    p.Played,
		Duration:  p.Duration,
		Position:  p.Position(),
	}
}

func (c *Controller) find(id string) (model.Article, bool) {
	s := c.store.State()
	if a, ok := s.Lookup(id); ok {
		return a, true
	}
	if s.Current != nil && s.Current.ID == id {
		return *s.Current, true
	}
	return model.Article{}, false
}

func nextRate(rates []float64, current float64) float64 {
	for i, r := range rates {
		if math.Abs(r-current) < 1e-9 {
			return rates[(i+1)%len(rates)]
		}
	}
	return rates[0]
}

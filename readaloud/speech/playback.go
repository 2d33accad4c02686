package speech

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode"
)

// segment is one word of an utterance: the rune index it starts at, how long
// speaking it takes and, for engines producing real audio, the PCM covering it.
type segment struct {
	charIndex int
	duration  time.Duration
	audio     []byte
}

// wordSpans returns the rune index of every word start in text together with
// the number of runes up to the next word start (or the end of text).
func wordSpans(text string) (starts []int, lengths []int) {
	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if i == 0 || unicode.IsSpace(runes[i-1]) {
			starts = append(starts, i)
		}
	}
	lengths = make([]int, len(starts))
	for i, start := range starts {
		end := len(runes)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		lengths[i] = end - start
	}
	return starts, lengths
}

// player runs at most one utterance at a time and publishes its progress on a
// single events channel shared by all utterances. Engines embed it.
type player struct {
	mu     sync.Mutex
	nextID UtteranceID
	active *utterance
	closed bool

	events chan Event
	sink   io.Writer
	logger *slog.Logger
}

// planFunc prepares the segments of an utterance. It runs on the utterance
// goroutine so slow synthesis never blocks the caller of Speak.
type planFunc func(ctx context.Context) ([]segment, error)

type utterance struct {
	id   UtteranceID
	plan planFunc

	mu       sync.Mutex
	paused   bool
	finished bool
	notify   chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func newPlayer(bufferSize int, sink io.Writer, logger *slog.Logger) *player {
	if logger == nil {
		logger = slog.Default()
	}
	return &player{
		events: make(chan Event, bufferSize),
		sink:   sink,
		logger: logger,
	}
}

func (p *player) Events() <-chan Event {
	return p.events
}

// start cancels the active utterance and begins a new one.
func (p *player) start(plan planFunc) (UtteranceID, error) {
	p.Cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}

	p.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{
		id:     p.nextID,
		plan:   plan,
		notify: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.active = u
	go p.run(u)

	p.logger.Debug("utterance started", slog.Any("utterance", u.id))
	return u.id, nil
}

func (p *player) Pause() error {
	return p.setPaused(true)
}

func (p *player) Resume() error {
	return p.setPaused(false)
}

func (p *player) setPaused(paused bool) error {
	p.mu.Lock()
	u := p.active
	p.mu.Unlock()
	if u == nil {
		return ErrNoUtterance
	}

	u.mu.Lock()
	if u.finished {
		u.mu.Unlock()
		return ErrNoUtterance
	}
	u.paused = paused
	u.mu.Unlock()

	// never blocks: the utterance re-reads the flag when it wakes up
	select {
	case u.notify <- struct{}{}:
	default:
	}
	return nil
}

// Cancel stops the active utterance and waits until it can no longer emit.
func (p *player) Cancel() error {
	p.mu.Lock()
	u := p.active
	p.active = nil
	p.mu.Unlock()

	if u == nil {
		return nil
	}
	u.cancel()
	<-u.done
	p.logger.Debug("utterance cancelled", slog.Any("utterance", u.id))
	return nil
}

func (p *player) Close() error {
	p.Cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	return nil
}

func (p *player) run(u *utterance) {
	defer close(u.done)
	defer u.cancel()
	defer func() {
		u.mu.Lock()
		u.finished = true
		u.mu.Unlock()
	}()

	segments, err := u.plan(u.ctx)
	if err != nil {
		if u.ctx.Err() != nil {
			return
		}
		p.logger.Error("failed to prepare utterance", slog.Any("err", err), slog.Any("utterance", u.id))
		u.mu.Lock()
		u.finished = true
		u.mu.Unlock()
		if p.emit(u, NewErrorEvent(u.id, err)) {
			p.release(u)
		}
		return
	}

	for _, seg := range segments {
		if !p.emit(u, NewBoundaryEvent(u.id, seg.charIndex, UnitWord)) {
			return
		}
		if len(seg.audio) > 0 && p.sink != nil {
			if _, err := p.sink.Write(seg.audio); err != nil {
				p.logger.Warn("failed to write audio to sink", slog.Any("err", err), slog.Any("utterance", u.id))
			}
		}
		if !p.wait(u, seg) {
			return
		}
	}

	u.mu.Lock()
	u.finished = true
	u.mu.Unlock()
	if p.emit(u, NewEndEvent(u.id)) {
		p.release(u)
	}
}

// release forgets u once it has finished on its own.
func (p *player) release(u *utterance) {
	p.mu.Lock()
	if p.active == u {
		p.active = nil
	}
	p.mu.Unlock()
}

// wait sleeps for the duration of seg, honoring pause and resume requests.
// It returns false if the utterance was cancelled.
func (p *player) wait(u *utterance, seg segment) bool {
	remaining := seg.duration
	started := time.Now()
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	tick := timer.C
	paused := false

	for {
		select {
		case <-u.ctx.Done():
			return false
		case <-tick:
			return true
		case <-u.notify:
			u.mu.Lock()
			want := u.paused
			u.mu.Unlock()

			switch {
			case want && !paused:
				timer.Stop()
				tick = nil
				remaining -= time.Since(started)
				if remaining < 0 {
					remaining = 0
				}
				paused = true
				if !p.emit(u, NewPauseEvent(u.id, seg.charIndex)) {
					return false
				}
			case !want && paused:
				paused = false
				started = time.Now()
				timer.Reset(remaining)
				tick = timer.C
				if !p.emit(u, NewResumeEvent(u.id)) {
					return false
				}
			}
		}
	}
}

func (p *player) emit(u *utterance, event Event) bool {
	if u.ctx.Err() != nil {
		return false
	}

	select {
	case p.events <- event:
		return true
	case <-u.ctx.Done():
		return false
	}
}

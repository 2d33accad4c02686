package narration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/samber/lo"
)

// Snapshot is a copy of the controller state taken after a transition.
type Snapshot struct {
	State     State
	Text      string
	VoiceID   string
	Rate      float64
	Offset    int
	Highlight *Highlight
	Utterance speech.UtteranceID

	// Narrated is the text the active utterance was started with. Offset and
	// Highlight index into it. It equals Text unless Text changed mid-narration.
	Narrated string

	// Err is set on the snapshot published when the engine failed to speak.
	Err error
}

// Observer is notified after every state transition.
type Observer interface {
	OnSnapshot(snapshot Snapshot)
}

// Controller owns the playback state of one text. It is not safe for
// concurrent use; Runner serializes access to it.
type Controller struct {
	engine  speech.Engine
	logger  *slog.Logger
	text    string
	voiceID string
	rate    float64
	state   State
	active  speech.UtteranceID
	tracker *Tracker
	failure error

	observers []Observer
}

type Option func(c *Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithVoice(voiceID string) Option {
	return func(c *Controller) {
		c.voiceID = voiceID
	}
}

func WithRate(rate float64) Option {
	return func(c *Controller) {
		if !math.IsNaN(rate) {
			c.rate = normalizeRate(rate)
		}
	}
}

// New probes the engine and returns a controller in the Idle state.
func New(ctx context.Context, engine speech.Engine, opts ...Option) (*Controller, error) {
	if err := engine.Probe(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	c := &Controller{
		engine:  engine,
		logger:  slog.Default(),
		rate:    speech.DefaultRate,
		state:   Idle,
		tracker: NewTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetText replaces the working text. An utterance in progress keeps narrating
// the text it was started with.
func (c *Controller) SetText(text string) {
	c.text = text
	if c.state == Idle {
		c.tracker.SetText(text)
	}
	c.publish()
}

// SetVoice selects a voice. While Speaking narration restarts in place.
func (c *Controller) SetVoice(ctx context.Context, voiceID string) error {
	if voiceID == c.voiceID {
		return nil
	}
	c.voiceID = voiceID
	if c.state == Speaking {
		return c.restart(ctx, c.tracker.Offset())
	}
	c.publish()
	return nil
}

// SetRate selects a rate, clamped to [speech.MinRate, speech.MaxRate] and
// rounded to speech.RateStep. While
// Speaking narration restarts in place; while Paused the new rate applies to
// the next start only.
func (c *Controller) SetRate(ctx context.Context, rate float64) error {
	if math.IsNaN(rate) {
		return ErrInvalidRate
	}
	rate = normalizeRate(rate)
	if rate == c.rate {
		return nil
	}
	c.rate = rate
	if c.state == Speaking {
		return c.restart(ctx, c.tracker.Offset())
	}
	c.publish()
	return nil
}

// TogglePlayback starts, pauses or resumes narration depending on the state.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	if strings.TrimSpace(c.text) == "" {
		return ErrEmptyText
	}

	switch c.state {
	case Idle:
		offset := c.tracker.Offset()
		if offset >= len([]rune(c.text)) {
			offset = 0
		}
		return c.restart(ctx, offset)
	case Speaking:
		if err := c.engine.Pause(); err != nil {
			return fmt.Errorf("failed to pause narration: %w", err)
		}
		c.state = Paused
	case Paused:
		if err := c.engine.Resume(); err != nil {
			return fmt.Errorf("failed to resume narration: %w", err)
		}
		c.state = Speaking
	}
	c.publish()
	return nil
}

// Stop cancels narration and returns to Idle. The resume offset is kept.
func (c *Controller) Stop() error {
	if c.state == Idle {
		return nil
	}
	err := c.engine.Cancel()
	c.active = 0
	c.state = Idle
	c.tracker.ClearHighlight()
	c.tracker.SetText(c.text)
	c.publish()
	if err != nil {
		return fmt.Errorf("failed to cancel narration: %w", err)
	}
	return nil
}

// restart is the only path that cancels and starts narration. The request
// covers the working text from offset.
func (c *Controller) restart(ctx context.Context, offset int) error {
	if err := c.engine.Cancel(); err != nil {
		c.logger.Warn("Failed to cancel narration", slog.Any("err", err))
	}
	c.active = 0

	c.tracker.SetText(c.text)
	c.tracker.Start(offset)
	offset = c.tracker.Offset()

	request := speech.Request{
		Text:    string([]rune(c.text)[offset:]),
		VoiceID: c.voiceID,
		Rate:    c.rate,
	}
	id, err := c.engine.Speak(ctx, request)
	if err != nil {
		c.state = Idle
		c.publish()
		return fmt.Errorf("failed to start narration: %w", err)
	}

	c.logger.Debug("Started narration",
		slog.Uint64("utterance", uint64(id)),
		slog.Int("offset", offset),
		slog.String("voice", request.VoiceID),
		slog.Float64("rate", request.Rate),
	)
	c.active = id
	c.state = Speaking
	c.publish()
	return nil
}

// Handle applies one engine event. Events of any utterance other than the
// active one are ignored.
func (c *Controller) Handle(event speech.Event) {
	if c.active == 0 || event.Utterance != c.active {
		c.logger.Debug("Ignoring stale speech event", slog.String("event", event.String()))
		return
	}

	switch event.Kind {
	case speech.EventBoundary:
		c.tracker.Boundary(event.CharIndex)
	case speech.EventPause:
		c.tracker.PauseAt(event.CharIndex)
		c.state = Paused
	case speech.EventResume:
		c.state = Speaking
	case speech.EventEnd:
		c.active = 0
		c.state = Idle
		c.tracker.SetText(c.text)
		c.tracker.Reset()
	case speech.EventError:
		// the offset stays where speech stopped so the next start resumes there
		c.logger.Warn("Narration failed", slog.Uint64("utterance", uint64(event.Utterance)), slog.Any("err", event.Err))
		c.active = 0
		c.state = Idle
		c.tracker.ClearHighlight()
		c.tracker.SetText(c.text)
		c.failure = event.Err
		c.publish()
		c.failure = nil
		return
	default:
		return
	}
	c.publish()
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Offset() int {
	return c.tracker.Offset()
}

func (c *Controller) Snapshot() Snapshot {
	snapshot := Snapshot{
		State:     c.state,
		Text:      c.text,
		VoiceID:   c.voiceID,
		Rate:      c.rate,
		Offset:    c.tracker.Offset(),
		Utterance: c.active,
		Narrated:  c.tracker.Text(),
		Err:       c.failure,
	}
	if c.state == Speaking {
		if highlight, ok := c.tracker.Highlight(); ok {
			snapshot.Highlight = &highlight
		}
	}
	return snapshot
}

func (c *Controller) AddObserver(observer Observer) {
	c.observers = append(c.observers, observer)
}

func (c *Controller) RemoveObserver(observer Observer) {
	c.observers = lo.Reject(c.observers, func(o Observer, _ int) bool {
		return o == observer
	})
}

func (c *Controller) publish() {
	if len(c.observers) == 0 {
		return
	}
	snapshot := c.Snapshot()
	for _, observer := range c.observers {
		observer.OnSnapshot(snapshot)
	}
}

func normalizeRate(rate float64) float64 {
	rate = math.Max(speech.MinRate, math.Min(speech.MaxRate, rate))
	return math.Round(rate/speech.RateStep) / (1 / speech.RateStep)
}

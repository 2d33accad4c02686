package speech

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

var _ Engine = (*ClockEngine)(nil)

// ClockEngine narrates by pacing word boundaries against the wall clock. It
// produces no audio and is always available, which makes it the platform
// default when no synthesis backend is configured.
type ClockEngine struct {
	*player
	wordsPerMinute float64
	voices         []Voice
	ready          atomic.Bool
	voicesChanged  chan struct{}
	readyTimer     *time.Timer
}

type ClockConfig struct {
	WordsPerMinute float64
	Voices         []Voice
	// CatalogDelay postpones catalog readiness to mimic platforms that
	// populate their voices after start-up.
	CatalogDelay time.Duration
	Sink         io.Writer
	Logger       *slog.Logger
}

const (
	defaultWordsPerMinute = 180
	charsPerWord          = 6
	eventBufferSize       = 64
)

// DefaultClockVoices is the catalog of a ClockEngine created without voices.
var DefaultClockVoices = []Voice{
	{ID: "clock-en-us", Name: "Clock English (US)", Language: "en-US", Default: true},
	{ID: "clock-en-gb", Name: "Clock English (UK)", Language: "en-GB"},
	{ID: "clock-ja-jp", Name: "Clock Japanese", Language: "ja-JP"},
}

func NewClockEngine(cfg ClockConfig) *ClockEngine {
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = defaultWordsPerMinute
	}
	if cfg.Voices == nil {
		cfg.Voices = DefaultClockVoices
	}

	e := &ClockEngine{
		player:         newPlayer(eventBufferSize, cfg.Sink, cfg.Logger),
		wordsPerMinute: cfg.WordsPerMinute,
		voices:         cfg.Voices,
		voicesChanged:  make(chan struct{}, 1),
	}

	if cfg.CatalogDelay <= 0 {
		e.ready.Store(true)
	} else {
		e.readyTimer = time.AfterFunc(cfg.CatalogDelay, func() {
			e.ready.Store(true)
			select {
			case e.voicesChanged <- struct{}{}:
			default:
			}
		})
	}
	return e
}

func (e *ClockEngine) Name() string {
	return "clock"
}

func (e *ClockEngine) Probe(ctx context.Context) error {
	return ctx.Err()
}

func (e *ClockEngine) Voices(ctx context.Context) ([]Voice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.ready.Load() {
		return nil, nil
	}
	voices := make([]Voice, len(e.voices))
	copy(voices, e.voices)
	return voices, nil
}

func (e *ClockEngine) VoicesChanged() <-chan struct{} {
	return e.voicesChanged
}

func (e *ClockEngine) Speak(ctx context.Context, request Request) (UtteranceID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	segments := e.plan(request)
	return e.start(func(context.Context) ([]segment, error) {
		return segments, nil
	})
}

func (e *ClockEngine) plan(request Request) []segment {
	rate := ClampRate(request.Rate)
	perChar := time.Duration(float64(time.Minute) / (e.wordsPerMinute * charsPerWord) / rate)

	starts, lengths := wordSpans(request.Text)
	segments := make([]segment, len(starts))
	for i := range starts {
		segments[i] = segment{
			charIndex: starts[i],
			duration:  time.Duration(lengths[i]) * perChar,
		}
	}
	return segments
}

func (e *ClockEngine) Close() error {
	if e.readyTimer != nil {
		e.readyTimer.Stop()
	}
	return e.player.Close()
}

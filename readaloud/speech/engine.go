package speech

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by Probe when the engine cannot narrate at all.
	ErrUnavailable = errors.New("speech engine unavailable")
	// ErrNoUtterance is returned by Pause and Resume when nothing is being narrated.
	ErrNoUtterance = errors.New("no active utterance")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("speech engine closed")
)

const (
	MinRate     = 0.5
	MaxRate     = 2.0
	DefaultRate = 1.0
	// RateStep is the granularity rates are selected with.
	RateStep    = 0.1
)

// Engine is the platform speech capability the narration controller drives.
// Implementations narrate one utterance at a time; Speak implies cancelling
// whatever was active before.
type Engine interface {
	// Name returns the engine identifier, "clock" or "google". It is the name the
	// engine is selected by in the configuration.
	Name() string

	// Probe reports ErrUnavailable if the engine cannot be used.
	Probe(ctx context.Context) error

	// Voices returns the current voice catalog. It may be empty until
	// VoicesChanged fires.
	Voices(ctx context.Context) ([]Voice, error)
	// VoicesChanged signals that the catalog should be re-queried. It may return nil.
	VoicesChanged() <-chan struct{}

	// Speak begins asynchronous narration of the request.
	Speak(ctx context.Context, request Request) (UtteranceID, error)
	Pause() error
	Resume() error
	// Cancel stops the active utterance. No event of the cancelled utterance is
	// emitted after Cancel returns.
	Cancel() error

	// Events delivers progress of every utterance, in order.
	Events() <-chan Event

	Close() error
}

// Voice describes one entry of an engine's voice catalog.
type Voice struct {
	ID       string
	Name     string
	Language string
	Default  bool
}

func (v Voice) String() string {
	if v.Name == "" || v.Name == v.ID {
		return fmt.Sprintf("%s (%s)", v.ID, v.Language)
	}
	return fmt.Sprintf("%s - %s (%s)", v.ID, v.Name, v.Language)
}

// Request is a single narration job. VoiceID may be empty, in which case the
// engine uses its own default voice.
type Request struct {
	Text    string
	VoiceID string
	Rate    float64
}

// UtteranceID identifies one accepted Request.
type UtteranceID uint64

// ClampRate constrains r to [MinRate, MaxRate]. Zero means DefaultRate.
func ClampRate(r float64) float64 {
	switch {
	case r == 0:
		return DefaultRate
	case r < MinRate:
		return MinRate
	case r > MaxRate:
		return MaxRate
	}
	return r
}

package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/samber/lo"
)

var (
	ErrVoiceNotFound = errors.New("voice not found")
)

// Source is the part of a speech engine that provides the voice catalog.
type Source interface {
	Voices(ctx context.Context) ([]speech.Voice, error)
	VoicesChanged() <-chan struct{}
}

// Preference decides which voice is selected when nothing is selected yet.
type Preference struct {
	VoiceID  string
	Language string
}

// Observer is called after every refresh with the catalog and the selected
// voice ID, which is empty when the catalog is empty.
type Observer func(voices []speech.Voice, selected string)

// Catalog is a read-only snapshot of the engine's voices plus the current selection.
type Catalog struct {
	source     Source
	preference Preference

	mu        sync.RWMutex
	voices    []speech.Voice
	selected  string
	observers []Observer
}

func NewCatalog(source Source, preference Preference) *Catalog {
	return &Catalog{
		source:     source,
		preference: preference,
	}
}

// Refresh re-queries the source. An empty catalog is not an error.
func (c *Catalog) Refresh(ctx context.Context) ([]speech.Voice, error) {
	voices, err := c.source.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh voice catalog: %w", err)
	}

	c.mu.Lock()
	c.voices = voices
	if _, ok := c.find(c.selected); !ok {
		c.selected = c.pickDefault()
	}
	selected := c.selected
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	slog.Info("Refreshed voice catalog", slog.Int("voices", len(voices)), slog.String("selected", selected))
	for _, observer := range observers {
		observer(voices, selected)
	}
	return voices, nil
}

// pickDefault selects the preferred voice, a voice of the preferred language,
// the platform default or the first voice, in that order.
func (c *Catalog) pickDefault() string {
	if len(c.voices) == 0 {
		return ""
	}
	if v, ok := c.find(c.preference.VoiceID); ok {
		return v.ID
	}
	if c.preference.Language != "" {
		if v, ok := lo.Find(c.voices, func(v speech.Voice) bool {
			return strings.EqualFold(v.Language, c.preference.Language)
		}); ok {
			return v.ID
		}
	}
	if v, ok := lo.Find(c.voices, func(v speech.Voice) bool { return v.Default }); ok {
		return v.ID
	}
	return c.voices[0].ID
}

func (c *Catalog) find(id string) (speech.Voice, bool) {
	if id == "" {
		return speech.Voice{}, false
	}
	return lo.Find(c.voices, func(v speech.Voice) bool { return v.ID == id })
}

// Watch refreshes once, then again on every readiness signal of the source.
// While the catalog is empty it also polls every pollInterval, because some
// platforms never signal. Watch blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context, pollInterval time.Duration) {
	if _, err := c.Refresh(ctx); err != nil {
		slog.Warn("Initial voice catalog refresh failed", slog.Any("err", err))
	}

	var poll <-chan time.Time
	if pollInterval > 0 {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-c.source.VoicesChanged():
			if !ok {
				return
			}
			slog.Debug("Voice catalog changed")
		case <-poll:
			if len(c.Voices()) > 0 {
				continue
			}
		}
		if _, err := c.Refresh(ctx); err != nil {
			slog.Warn("Voice catalog refresh failed", slog.Any("err", err))
		}
	}
}

func (c *Catalog) Voices() []speech.Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]speech.Voice(nil), c.voices...)
}

func (c *Catalog) Find(id string) (speech.Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.find(id)
}

// Selected returns the selected voice, if any.
func (c *Catalog) Selected() (speech.Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.find(c.selected)
}

func (c *Catalog) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrVoiceNotFound, id)
	}
	c.selected = id
	return nil
}

func (c *Catalog) AddObserver(observer Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu      sync.Mutex
	voices  []speech.Voice
	err     error
	changed chan struct{}
}

func (s *stubSource) Voices(context.Context) ([]speech.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voices, s.err
}

func (s *stubSource) VoicesChanged() <-chan struct{} {
	return s.changed
}

func (s *stubSource) set(voices []speech.Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = voices
}

var sampleVoices = []speech.Voice{
	{ID: "alice", Language: "en-US"},
	{ID: "bob", Language: "en-GB", Default: true},
	{ID: "chiyo", Language: "ja-JP"},
}

func TestRefreshDefaultSelection(t *testing.T) {
	testcases := []struct {
		name       string
		voices     []speech.Voice
		preference Preference
		want       string
	}{
		{
			name:   "empty catalog leaves selection unset",
			voices: nil,
			want:   "",
		},
		{
			name:       "preferred voice",
			voices:     sampleVoices,
			preference: Preference{VoiceID: "chiyo", Language: "en-US"},
			want:       "chiyo",
		},
		{
			name:       "preferred language",
			voices:     sampleVoices,
			preference: Preference{VoiceID: "missing", Language: "ja-jp"},
			want:       "chiyo",
		},
		{
			name:   "platform default",
			voices: sampleVoices,
			want:   "bob",
		},
		{
			name:   "first voice",
			voices: []speech.Voice{{ID: "x"}, {ID: "y"}},
			want:   "x",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := NewCatalog(&stubSource{voices: tc.voices}, tc.preference)
			voices, err := catalog.Refresh(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.voices, voices)

			selected, ok := catalog.Selected()
			assert.Equal(t, tc.want != "", ok)
			assert.Equal(t, tc.want, selected.ID)
		})
	}
}

func TestRefreshKeepsExistingSelection(t *testing.T) {
	source := &stubSource{voices: sampleVoices}
	catalog := NewCatalog(source, Preference{})
	_, err := catalog.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, catalog.Select("alice"))
	_, err = catalog.Refresh(context.Background())
	require.NoError(t, err)

	selected, _ := catalog.Selected()
	assert.Equal(t, "alice", selected.ID)

	// selection disappears from the catalog: a new default is picked
	source.set(sampleVoices[1:])
	_, err = catalog.Refresh(context.Background())
	require.NoError(t, err)
	selected, _ = catalog.Selected()
	assert.Equal(t, "bob", selected.ID)
}

func TestRefreshError(t *testing.T) {
	catalog := NewCatalog(&stubSource{err: errors.New("boom")}, Preference{})
	_, err := catalog.Refresh(context.Background())
	assert.Error(t, err)
	assert.Empty(t, catalog.Voices())
}

func TestSelectUnknown(t *testing.T) {
	catalog := NewCatalog(&stubSource{voices: sampleVoices}, Preference{})
	_, err := catalog.Refresh(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, catalog.Select("nobody"), ErrVoiceNotFound)
	selected, _ := catalog.Selected()
	assert.Equal(t, "bob", selected.ID)
}

func TestWatchRefreshesOnSignal(t *testing.T) {
	source := &stubSource{changed: make(chan struct{}, 1)}
	catalog := NewCatalog(source, Preference{})

	updates := make(chan string, 4)
	catalog.AddObserver(func(voices []speech.Voice, selected string) {
		updates <- selected
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catalog.Watch(ctx, 0)

	assert.Equal(t, "", <-updates, "initial refresh sees an empty catalog")

	source.set(sampleVoices)
	source.changed <- struct{}{}

	select {
	case selected := <-updates:
		assert.Equal(t, "bob", selected)
	case <-time.After(time.Second):
		t.Fatal("catalog was not refreshed after the readiness signal")
	}
}

func TestWatchPollsWhileEmpty(t *testing.T) {
	source := &stubSource{}
	catalog := NewCatalog(source, Preference{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catalog.Watch(ctx, 5*time.Millisecond)

	source.set(sampleVoices)
	require.Eventually(t, func() bool {
		return len(catalog.Voices()) == len(sampleVoices)
	}, time.Second, 5*time.Millisecond)
}

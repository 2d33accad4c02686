package speech

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func TestWordSpans(t *testing.T) {
	testcases := []struct {
		name        string
		text        string
		wantStarts  []int
		wantLengths []int
	}{
		{
			name:        "two words",
			text:        "Hello world",
			wantStarts:  []int{0, 6},
			wantLengths: []int{6, 5},
		},
		{
			name:        "leading and repeated spaces",
			text:        "  a  bc ",
			wantStarts:  []int{2, 5},
			wantLengths: []int{3, 3},
		},
		{
			name:        "multibyte runes",
			text:        "こんにちは 世界",
			wantStarts:  []int{0, 6},
			wantLengths: []int{6, 2},
		},
		{
			name:        "only whitespace",
			text:        " \t\n",
			wantStarts:  nil,
			wantLengths: []int{},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			starts, lengths := wordSpans(tc.text)
			if diff := cmp.Diff(tc.wantStarts, starts); diff != "" {
				t.Errorf("wordSpans(%q) starts mismatch (-want +got):\n%s", tc.text, diff)
			}
			if diff := cmp.Diff(tc.wantLengths, lengths); diff != "" {
				t.Errorf("wordSpans(%q) lengths mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "events channel closed")
		return event
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, events <-chan Event, wait time.Duration) {
	t.Helper()
	select {
	case event := <-events:
		t.Fatalf("unexpected event %s", event)
	case <-time.After(wait):
	}
}

func TestClockEngineNarratesToEnd(t *testing.T) {
	engine := NewClockEngine(ClockConfig{WordsPerMinute: 60000})
	defer engine.Close()

	id, err := engine.Speak(context.Background(), Request{Text: "Hello big world", Rate: 1})
	require.NoError(t, err)

	want := []Event{
		NewBoundaryEvent(id, 0, UnitWord),
		NewBoundaryEvent(id, 6, UnitWord),
		NewBoundaryEvent(id, 10, UnitWord),
		NewEndEvent(id),
	}
	got := make([]Event, 0, len(want))
	for range want {
		got = append(got, nextEvent(t, engine.Events()))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClockEnginePauseResume(t *testing.T) {
	// one rune takes ~167ms, so the first word lasts a second
	engine := NewClockEngine(ClockConfig{WordsPerMinute: 60})
	defer engine.Close()

	id, err := engine.Speak(context.Background(), Request{Text: "Hello world", Rate: 1})
	require.NoError(t, err)
	assert.Equal(t, NewBoundaryEvent(id, 0, UnitWord), nextEvent(t, engine.Events()))

	require.NoError(t, engine.Pause())
	assert.Equal(t, NewPauseEvent(id, 0), nextEvent(t, engine.Events()))
	assertNoEvent(t, engine.Events(), 50*time.Millisecond)

	require.NoError(t, engine.Resume())
	assert.Equal(t, NewResumeEvent(id), nextEvent(t, engine.Events()))

	require.NoError(t, engine.Cancel())
	assertNoEvent(t, engine.Events(), 50*time.Millisecond)
	assert.ErrorIs(t, engine.Pause(), ErrNoUtterance)
}

func TestClockEngineSpeakCancelsPrevious(t *testing.T) {
	engine := NewClockEngine(ClockConfig{WordsPerMinute: 60})
	defer engine.Close()

	first, err := engine.Speak(context.Background(), Request{Text: "one two three"})
	require.NoError(t, err)
	assert.Equal(t, first, nextEvent(t, engine.Events()).Utterance)

	second, err := engine.Speak(context.Background(), Request{Text: "four five"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	event := nextEvent(t, engine.Events())
	assert.Equal(t, NewBoundaryEvent(second, 0, UnitWord), event)
}

func TestClockEngineCatalogReadiness(t *testing.T) {
	engine := NewClockEngine(ClockConfig{CatalogDelay: 20 * time.Millisecond})
	defer engine.Close()

	voices, err := engine.Voices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, voices)

	select {
	case <-engine.VoicesChanged():
	case <-time.After(testTimeout):
		t.Fatal("catalog never became ready")
	}

	voices, err = engine.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultClockVoices, voices)
}

func TestClockEngineClosed(t *testing.T) {
	engine := NewClockEngine(ClockConfig{})
	require.NoError(t, engine.Close())

	_, err := engine.Speak(context.Background(), Request{Text: "hello"})
	assert.ErrorIs(t, err, ErrClosed)

	_, ok := <-engine.Events()
	assert.False(t, ok)
}

func TestClampRate(t *testing.T) {
	testcases := []struct {
		in, want float64
	}{
		{0, DefaultRate},
		{0.1, MinRate},
		{1.5, 1.5},
		{3, MaxRate},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.want, ClampRate(tc.in), "ClampRate(%v)", tc.in)
	}
}

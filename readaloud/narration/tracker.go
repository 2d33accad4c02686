package narration

import (
	"unicode"
)

// Highlight is the span of the word currently being spoken. Start and End are
// rune indices into the full text, End exclusive.
type Highlight struct {
	Start int
	End   int
	Word  string
}

// Tracker maps engine progress, reported relative to the narrated substring,
// back onto the full text.
type Tracker struct {
	text      []rune
	base      int
	offset    int
	highlight *Highlight
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// SetText replaces the text offsets refer to, clamping the resume offset.
func (t *Tracker) SetText(text string) {
	t.text = []rune(text)
	t.offset = t.clamp(t.offset)
	t.base = t.clamp(t.base)
	if t.highlight != nil && t.highlight.End > len(t.text) {
		t.highlight = nil
	}
}

// Start marks a (re)start of narration at base.
func (t *Tracker) Start(base int) {
	t.base = t.clamp(base)
	t.offset = t.base
	t.highlight = nil
}

// Boundary records a boundary notification and returns the absolute offset.
// The offset never moves backward within one narration.
func (t *Tracker) Boundary(relative int) int {
	absolute := t.absolute(relative)
	if absolute < t.offset {
		return t.offset
	}
	t.offset = absolute
	if word, ok := WordAt(t.text, absolute); ok {
		t.highlight = &word
	} else {
		t.highlight = nil
	}
	return absolute
}

// PauseAt records the index an engine reported when pausing.
func (t *Tracker) PauseAt(relative int) int {
	absolute := t.absolute(relative)
	if absolute > t.offset {
		t.offset = absolute
	}
	return t.offset
}

// Reset is called when narration completes.
func (t *Tracker) Reset() {
	t.base = 0
	t.offset = 0
	t.highlight = nil
}

func (t *Tracker) ClearHighlight() {
	t.highlight = nil
}

func (t *Tracker) Text() string {
	return string(t.text)
}

func (t *Tracker) Offset() int {
	return t.offset
}

func (t *Tracker) Highlight() (Highlight, bool) {
	if t.highlight == nil {
		return Highlight{}, false
	}
	return *t.highlight, true
}

func (t *Tracker) absolute(relative int) int {
	if relative < 0 {
		relative = 0
	}
	return t.clamp(t.base + relative)
}

func (t *Tracker) clamp(offset int) int {
	switch {
	case offset < 0:
		return 0
	case offset > len(t.text):
		return len(t.text)
	}
	return offset
}

// WordAt returns the word containing index: it scans left to the preceding
// whitespace-to-non-whitespace transition and right to the next whitespace.
// No word is returned when index points at whitespace or past the end.
func WordAt(text []rune, index int) (Highlight, bool) {
	if index < 0 || index >= len(text) || unicode.IsSpace(text[index]) {
		return Highlight{}, false
	}

	start := index
	for start > 0 && !unicode.IsSpace(text[start-1]) {
		start--
	}
	end := index
	for end < len(text) && !unicode.IsSpace(text[end]) {
		end++
	}
	return Highlight{Start: start, End: end, Word: string(text[start:end])}, true
}

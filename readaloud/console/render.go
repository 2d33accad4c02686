package console

import (
	"fmt"
	"strings"

	"github.com/makeitchaccha/read-aloud/readaloud/i18n"
	"github.com/makeitchaccha/read-aloud/readaloud/narration"
	"github.com/makeitchaccha/read-aloud/readaloud/preference"
)

const (
	ansiReset      = "\x1b[0m"
	excerptContext = 24
)

type palette struct {
	label     string
	highlight string
	reset     string
}

func paletteFor(theme preference.Theme, color bool) palette {
	if !color {
		return palette{}
	}
	if theme == preference.ThemeDark {
		return palette{label: "\x1b[1;36m", highlight: "\x1b[30;46m", reset: ansiReset}
	}
	return palette{label: "\x1b[1;34m", highlight: "\x1b[30;43m", reset: ansiReset}
}

// Renderer formats controller snapshots into one status line.
type Renderer struct {
	Text  i18n.TextResource
	Theme preference.Theme
	Color bool
}

func (r Renderer) Status(s narration.Snapshot) string {
	p := paletteFor(r.Theme, r.Color)

	voiceID := s.VoiceID
	if voiceID == "" {
		voiceID = r.Text.Labels.DefaultVoice
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s %s: %s  %s: %.1fx  (%s)",
		p.label, r.stateLabel(s.State), p.reset,
		r.Text.Labels.Voice, voiceID,
		r.Text.Labels.Rate, s.Rate,
		r.controlLabel(s.State),
	)
	if s.Highlight != nil {
		b.WriteString("  ")
		b.WriteString(r.excerpt(s.Narrated, *s.Highlight, p))
	}
	return b.String()
}

func (r Renderer) stateLabel(state narration.State) string {
	switch state {
	case narration.Speaking:
		return r.Text.State.Speaking
	case narration.Paused:
		return r.Text.State.Paused
	}
	return r.Text.State.Idle
}

// controlLabel names what the play command does next.
func (r Renderer) controlLabel(state narration.State) string {
	switch state {
	case narration.Speaking:
		return r.Text.Controls.Pause
	case narration.Paused:
		return r.Text.Controls.Resume
	}
	return r.Text.Controls.Play
}

// excerpt shows the highlighted word with some context on each side.
func (r Renderer) excerpt(text string, h narration.Highlight, p palette) string {
	runes := []rune(text)
	if h.Start < 0 || h.End > len(runes) || h.Start >= h.End {
		return ""
	}

	from := max(0, h.Start-excerptContext)
	to := min(len(runes), h.End+excerptContext)

	openMark, closeMark := p.highlight, p.reset
	if !r.Color {
		openMark, closeMark = "[", "]"
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString("…")
	}
	b.WriteString(flatten(runes[from:h.Start]))
	b.WriteString(openMark)
	b.WriteString(string(runes[h.Start:h.End]))
	b.WriteString(closeMark)
	b.WriteString(flatten(runes[h.End:to]))
	if to < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

func flatten(runes []rune) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, string(runes))
}

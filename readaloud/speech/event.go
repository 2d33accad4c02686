package speech

import "fmt"

type EventKind int

const (
	EventBoundary EventKind = iota
	EventPause
	EventResume
	EventEnd
	// EventError ends an utterance that could not be spoken.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventBoundary:
		return "boundary"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// BoundaryUnit tells whether a boundary event marks a word or a single character.
type BoundaryUnit int

const (
	UnitWord BoundaryUnit = iota
	UnitChar
)

// Event is a progress notification of one utterance. CharIndex is a rune
// index relative to the Request text.
type Event struct {
	Utterance UtteranceID
	Kind      EventKind
	CharIndex int
	Unit      BoundaryUnit
	Err       error
}

func NewBoundaryEvent(id UtteranceID, charIndex int, unit BoundaryUnit) Event {
	return Event{Utterance: id, Kind: EventBoundary, CharIndex: charIndex, Unit: unit}
}

func NewPauseEvent(id UtteranceID, charIndex int) Event {
	return Event{Utterance: id, Kind: EventPause, CharIndex: charIndex}
}

func NewResumeEvent(id UtteranceID) Event {
	return Event{Utterance: id, Kind: EventResume}
}

func NewEndEvent(id UtteranceID) Event {
	return Event{Utterance: id, Kind: EventEnd}
}

func NewErrorEvent(id UtteranceID, err error) Event {
	return Event{Utterance: id, Kind: EventError, Err: err}
}

func (e Event) String() string {
	switch e.Kind {
	case EventBoundary, EventPause:
		return fmt.Sprintf("%s(utterance=%d, char=%d)", e.Kind, e.Utterance, e.CharIndex)
	case EventError:
		return fmt.Sprintf("%s(utterance=%d, err=%v)", e.Kind, e.Utterance, e.Err)
	}
	return fmt.Sprintf("%s(utterance=%d)", e.Kind, e.Utterance)
}

package console

import (
	"strings"
)

type CommandKind int

const (
	CommandText CommandKind = iota
	CommandPlay
	CommandStop
	CommandVoice
	CommandVoices
	CommandRate
	CommandTheme
	CommandHelp
	CommandQuit
	CommandUnknown
	CommandEmpty
)

var commandNames = map[string]CommandKind{
	"play":   CommandPlay,
	"p":      CommandPlay,
	"stop":   CommandStop,
	"s":      CommandStop,
	"voice":  CommandVoice,
	"voices": CommandVoices,
	"rate":   CommandRate,
	"theme":  CommandTheme,
	"help":   CommandHelp,
	"h":      CommandHelp,
	"quit":   CommandQuit,
	"q":      CommandQuit,
}

// Command is one line of user input. Lines starting with ':' are commands,
// anything else replaces the text to read.
type Command struct {
	Kind CommandKind
	Name string
	Arg  string
}

func ParseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandEmpty}
	}
	if !strings.HasPrefix(trimmed, ":") {
		return Command{Kind: CommandText, Arg: line}
	}

	name, arg, _ := strings.Cut(trimmed[1:], " ")
	name = strings.ToLower(name)
	kind, ok := commandNames[name]
	if !ok {
		kind = CommandUnknown
	}
	return Command{Kind: kind, Name: name, Arg: strings.TrimSpace(arg)}
}

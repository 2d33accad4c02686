package console

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	testcases := []struct {
		line string
		want Command
	}{
		{line: "", want: Command{Kind: CommandEmpty}},
		{line: "   ", want: Command{Kind: CommandEmpty}},
		{line: "Hello world", want: Command{Kind: CommandText, Arg: "Hello world"}},
		{line: "  indented text", want: Command{Kind: CommandText, Arg: "  indented text"}},
		{line: ":play", want: Command{Kind: CommandPlay, Name: "play"}},
		{line: ":P", want: Command{Kind: CommandPlay, Name: "p"}},
		{line: ":stop", want: Command{Kind: CommandStop, Name: "stop"}},
		{line: ":voice clock-en-gb", want: Command{Kind: CommandVoice, Name: "voice", Arg: "clock-en-gb"}},
		{line: ":voices", want: Command{Kind: CommandVoices, Name: "voices"}},
		{line: ":rate  1.5 ", want: Command{Kind: CommandRate, Name: "rate", Arg: "1.5"}},
		{line: ":theme", want: Command{Kind: CommandTheme, Name: "theme"}},
		{line: ":help", want: Command{Kind: CommandHelp, Name: "help"}},
		{line: ":q", want: Command{Kind: CommandQuit, Name: "q"}},
		{line: ":dance now", want: Command{Kind: CommandUnknown, Name: "dance", Arg: "now"}},
	}

	for _, tc := range testcases {
		t.Run(tc.line, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, ParseCommand(tc.line)); diff != "" {
				t.Errorf("ParseCommand(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}
}

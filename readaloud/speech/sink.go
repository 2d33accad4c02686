package speech

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

var ErrNoPlayerCommand = errors.New("no player command specified")

// CommandSink feeds PCM to the stdin of an external player process such as
// `aplay -q -f S16_LE -r 24000 -c 1`.
type CommandSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func NewCommandSink(argv []string) (*CommandSink, error) {
	if len(argv) == 0 {
		return nil, ErrNoPlayerCommand
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("player command %s not found: %w", argv[0], err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	slog.Info("Started audio player", slog.Any("argv", argv), slog.Int("pid", cmd.Process.Pid))
	return &CommandSink{cmd: cmd, stdin: stdin}, nil
}

func (s *CommandSink) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *CommandSink) Close() error {
	if err := s.stdin.Close(); err != nil {
		slog.Warn("failed to close player stdin", slog.Any("err", err))
	}
	return s.cmd.Wait()
}

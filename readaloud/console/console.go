package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/makeitchaccha/read-aloud/readaloud/i18n"
	"github.com/makeitchaccha/read-aloud/readaloud/narration"
	"github.com/makeitchaccha/read-aloud/readaloud/preference"
	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/makeitchaccha/read-aloud/readaloud/voice"
)

type Config struct {
	In          io.Reader
	Out         io.Writer
	Runner      *narration.Runner
	Catalog     *voice.Catalog
	Store       preference.Store
	Preferences preference.Preferences
	Text        i18n.TextResource
	Color       bool
}

// Console is the terminal surface: it turns input lines into controller
// commands and prints a status line after every state change.
type Console struct {
	in      io.Reader
	runner  *narration.Runner
	catalog *voice.Catalog
	store   preference.Store

	mu         sync.Mutex
	out        io.Writer
	prefs      preference.Preferences
	renderer   Renderer
	lastStatus string
}

var _ narration.Observer = (*Console)(nil)

func New(cfg Config) *Console {
	return &Console{
		in:      cfg.In,
		out:     cfg.Out,
		runner:  cfg.Runner,
		catalog: cfg.Catalog,
		store:   cfg.Store,
		prefs:   cfg.Preferences,
		renderer: Renderer{
			Text:  cfg.Text,
			Theme: cfg.Preferences.Theme,
			Color: cfg.Color,
		},
	}
}

// Attach subscribes the console to controller snapshots and catalog refreshes.
// Catalog selections are forwarded to the controller.
func (c *Console) Attach(ctx context.Context) error {
	err := c.runner.Do(ctx, func(_ context.Context, controller *narration.Controller) error {
		controller.AddObserver(c)
		return nil
	})
	if err != nil {
		return err
	}

	c.catalog.AddObserver(func(voices []speech.Voice, selected string) {
		if len(voices) == 0 {
			c.println(c.renderer.Text.Notices.EmptyCatalog)
			return
		}
		err := c.runner.Do(ctx, func(ctx context.Context, controller *narration.Controller) error {
			return controller.SetVoice(ctx, selected)
		})
		if err != nil && !errors.Is(err, narration.ErrRunnerStopped) {
			slog.Warn("Failed to apply catalog selection", slog.String("voice", selected), slog.Any("err", err))
		}
	})
	return nil
}

// OnSnapshot prints the status line when it changed, followed by the engine
// failure that caused the transition, if any.
func (c *Console) OnSnapshot(snapshot narration.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.renderer.Status(snapshot)
	if status != c.lastStatus {
		c.lastStatus = status
		fmt.Fprintln(c.out, status)
	}
	if snapshot.Err != nil {
		fmt.Fprintf(c.out, c.renderer.Text.Errors.SpeechFailed+"\n", snapshot.Err)
	}
}

// Run reads commands until :quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.println(c.renderer.Text.Notices.Welcome)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := c.Execute(ctx, ParseCommand(line))
			if err != nil {
				if errors.Is(err, narration.ErrRunnerStopped) {
					return nil
				}
				c.println(c.describe(err, line))
			}
			if quit {
				c.println(c.renderer.Text.Notices.Goodbye)
				return nil
			}
		}
	}
}

// Execute applies one command. The returned error is meant for the user.
func (c *Console) Execute(ctx context.Context, cmd Command) (bool, error) {
	switch cmd.Kind {
	case CommandEmpty:
		return false, nil

	case CommandText:
		err := c.runner.Do(ctx, func(_ context.Context, controller *narration.Controller) error {
			controller.SetText(cmd.Arg)
			return nil
		})
		if err == nil {
			c.println(fmt.Sprintf(c.renderer.Text.Notices.TextSet, utf8.RuneCountInString(cmd.Arg)))
		}
		return false, err

	case CommandPlay:
		return false, c.runner.Do(ctx, func(ctx context.Context, controller *narration.Controller) error {
			return controller.TogglePlayback(ctx)
		})

	case CommandStop:
		return false, c.runner.Do(ctx, func(_ context.Context, controller *narration.Controller) error {
			return controller.Stop()
		})

	case CommandVoice:
		if err := c.catalog.Select(cmd.Arg); err != nil {
			return false, err
		}
		err := c.runner.Do(ctx, func(ctx context.Context, controller *narration.Controller) error {
			return controller.SetVoice(ctx, cmd.Arg)
		})
		if err != nil {
			return false, err
		}
		return false, c.updatePreferences(ctx, func(prefs *preference.Preferences) {
			prefs.VoiceID = cmd.Arg
		})

	case CommandVoices:
		c.listVoices()
		return false, nil

	case CommandRate:
		rate, err := strconv.ParseFloat(cmd.Arg, 64)
		if err != nil {
			return false, narration.ErrInvalidRate
		}
		var applied float64
		err = c.runner.Do(ctx, func(ctx context.Context, controller *narration.Controller) error {
			if err := controller.SetRate(ctx, rate); err != nil {
				return err
			}
			applied = controller.Snapshot().Rate
			return nil
		})
		if err != nil {
			return false, err
		}
		return false, c.updatePreferences(ctx, func(prefs *preference.Preferences) {
			prefs.Rate = applied
		})

	case CommandTheme:
		return false, c.toggleTheme(ctx)

	case CommandHelp:
		c.printHelp()
		return false, nil

	case CommandQuit:
		return true, nil
	}

	return false, fmt.Errorf("%w: %s", errUnknownCommand, cmd.Name)
}

var errUnknownCommand = errors.New("unknown command")

func (c *Console) toggleTheme(ctx context.Context) error {
	var theme preference.Theme
	err := c.updatePreferences(ctx, func(prefs *preference.Preferences) {
		prefs.Theme = prefs.Theme.Toggle()
		theme = prefs.Theme
	})

	c.mu.Lock()
	c.renderer.Theme = theme
	c.lastStatus = ""
	c.mu.Unlock()
	c.println(fmt.Sprintf(c.renderer.Text.Notices.ThemeChanged, theme))

	snapshot, snapErr := c.runner.Snapshot(ctx)
	if snapErr == nil {
		c.OnSnapshot(snapshot)
	}
	return err
}

// updatePreferences applies fn and persists the result. A failed save keeps
// the in-memory change.
func (c *Console) updatePreferences(ctx context.Context, fn func(prefs *preference.Preferences)) error {
	c.mu.Lock()
	fn(&c.prefs)
	prefs := c.prefs
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := preference.Save(ctx, c.store, prefs); err != nil {
		slog.Warn("Failed to save preferences", slog.Any("err", err))
		return err
	}
	return nil
}

func (c *Console) Preferences() preference.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

func (c *Console) listVoices() {
	voices := c.catalog.Voices()
	if len(voices) == 0 {
		c.println(c.renderer.Text.Notices.EmptyCatalog)
		return
	}

	selected, _ := c.catalog.Selected()
	c.println(c.renderer.Text.Labels.Voices + ":")
	for _, v := range voices {
		line := "  " + v.String()
		if v.ID == selected.ID {
			line += " *" + c.renderer.Text.Labels.Selected
		}
		c.println(line)
	}
}

func (c *Console) printHelp() {
	help := c.renderer.Text.Help
	for _, line := range []string{help.Text, help.Play, help.Stop, help.Voice, help.Voices, help.Rate, help.Theme, help.Help, help.Quit} {
		c.println("  " + line)
	}
}

// describe turns an error into a localized message.
func (c *Console) describe(err error, line string) string {
	text := c.renderer.Text
	switch {
	case errors.Is(err, narration.ErrEmptyText):
		return text.Errors.EmptyText
	case errors.Is(err, narration.ErrInvalidRate):
		return fmt.Sprintf(text.Errors.InvalidRate, speech.MinRate, speech.MaxRate)
	case errors.Is(err, voice.ErrVoiceNotFound):
		return fmt.Sprintf(text.Errors.UnknownVoice, ParseCommand(line).Arg)
	case errors.Is(err, errUnknownCommand):
		return fmt.Sprintf(text.Errors.UnknownCommand, line)
	}
	return fmt.Sprintf(text.Errors.Generic, err)
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

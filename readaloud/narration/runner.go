package narration

import (
	"context"
	"log/slog"

	"github.com/makeitchaccha/read-aloud/readaloud/speech"
)

type command struct {
	ctx    context.Context
	fn     func(ctx context.Context, c *Controller) error
	result chan error
}

// Runner is the single consumer of a Controller: user commands and engine
// events are applied one at a time, in arrival order, on the goroutine that
// calls Run.
type Runner struct {
	controller *Controller
	events     <-chan speech.Event
	commands   chan command
	done       chan struct{}
	logger     *slog.Logger
}

func NewRunner(controller *Controller) *Runner {
	return &Runner{
		controller: controller,
		events:     controller.engine.Events(),
		commands:   make(chan command),
		done:       make(chan struct{}),
		logger:     controller.logger,
	}
}

// Run processes commands and events until ctx is done or the engine's event
// channel is closed. Narration in progress is cancelled on return.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer func() {
		if err := r.controller.Stop(); err != nil {
			r.logger.Warn("Failed to stop narration", slog.Any("err", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-r.events:
			if !ok {
				r.logger.Info("Speech engine closed its event stream")
				return nil
			}
			r.controller.Handle(event)
		case cmd := <-r.commands:
			cmd.result <- cmd.fn(cmd.ctx, r.controller)
		}
	}
}

// Do runs fn on the runner goroutine and returns its error.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context, c *Controller) error) error {
	cmd := command{
		ctx:    ctx,
		fn:     fn,
		result: make(chan error, 1),
	}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-cmd.result
}

// Snapshot returns the controller state as seen from the runner goroutine.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot
	err := r.Do(ctx, func(_ context.Context, c *Controller) error {
		snapshot = c.Snapshot()
		return nil
	})
	return snapshot, err
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

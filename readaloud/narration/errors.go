package narration

import "errors"

var (
	ErrEmptyText         = errors.New("text is empty")
	ErrInvalidRate       = errors.New("invalid rate")
	ErrEngineUnavailable = errors.New("speech engine unavailable")
	ErrRunnerStopped     = errors.New("runner stopped")
)

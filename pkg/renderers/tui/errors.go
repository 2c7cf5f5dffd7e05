package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCanceled is returned when the user declines to submit.
	ErrCanceled = errors.New("tui: submission canceled")
	// ErrSessionRequired is returned when Run is called without a session.
	ErrSessionRequired = errors.New("tui: session is required")
)

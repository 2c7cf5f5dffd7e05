package submission

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-onboarding/pkg/client"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
)

const (
	// DefaultSuccessWindow is how long Success stays set before decaying.
	DefaultSuccessWindow = 3 * time.Second
	// MsgSubmitFailed is the fallback user-facing failure text.
	MsgSubmitFailed = "Failed to submit form"
)

var (
	// ErrInFlight is returned when Submit is called while a submission runs.
	ErrInFlight = errors.New("submission: already in flight")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("submission: controller closed")

	errPanicked = errors.New(MsgSubmitFailed)
)

// Submitter writes a profile to the remote service.
type Submitter interface {
	SubmitProfile(ctx context.Context, data model.FormData) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, data model.FormData) error

// SubmitProfile calls f.
func (f SubmitFunc) SubmitProfile(ctx context.Context, data model.FormData) error {
	return f(ctx, data)
}

// Listener receives every state change.
type Listener func(model.SubmissionState)

// Option configures a Controller.
type Option func(*Controller)

// WithSuccessWindow overrides how long Success is displayed.
func WithSuccessWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller runs one profile submission at a time and tracks its outcome.
type Controller struct {
	submitter Submitter
	window    time.Duration
	logger    logger.Logger

	mu        sync.Mutex
	state     model.SubmissionState
	decay     *time.Timer
	decayGen  uint64
	closed    bool
	listeners []Listener
}

// New builds a controller around submitter.
func New(submitter Submitter, options ...Option) *Controller {
	c := &Controller{
		submitter: submitter,
		window:    DefaultSuccessWindow,
		logger:    logger.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Subscribe registers fn for state changes.
func (c *Controller) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current submission state.
func (c *Controller) State() model.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit sends data exactly once. The returned error mirrors the failure
// recorded in State; ErrInFlight and ErrClosed leave the state untouched.
// Submitting is cleared even when the submitter panics.
func (c *Controller) Submit(ctx context.Context, data model.FormData) (err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Submitting {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.stopDecayLocked()
	c.state = model.SubmissionState{Submitting: true}
	listeners, state := c.snapshotLocked()
	c.mu.Unlock()
	notify(listeners, state)

	returned := false
	defer func() {
		if !returned {
			c.finish(errPanicked)
			return
		}
		c.finish(err)
	}()

	err = c.submitter.SubmitProfile(ctx, data)
	returned = true
	return err
}

// finish records the outcome of the attempt started by Submit.
func (c *Controller) finish(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = model.SubmissionState{Error: UserMessage(err)}
		c.logger.WithError(err).Warn("profile submission failed", nil)
	} else {
		c.state = model.SubmissionState{Success: true}
		c.decayGen++
		gen := c.decayGen
		c.decay = time.AfterFunc(c.window, func() {
			c.expire(gen)
		})
	}
	listeners, state := c.snapshotLocked()
	c.mu.Unlock()
	notify(listeners, state)
}

// Close cancels a pending success decay and suppresses later updates.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopDecayLocked()
	c.listeners = nil
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.decayGen || !c.state.Success {
		c.mu.Unlock()
		return
	}
	c.decay = nil
	c.state = model.SubmissionState{}
	listeners, state := c.snapshotLocked()
	c.mu.Unlock()
	notify(listeners, state)
}

func (c *Controller) stopDecayLocked() {
	c.decayGen++
	if c.decay != nil {
		c.decay.Stop()
		c.decay = nil
	}
}

func (c *Controller) snapshotLocked() ([]Listener, model.SubmissionState) {
	if len(c.listeners) == 0 {
		return nil, c.state
	}
	out := make([]Listener, len(c.listeners))
	copy(out, c.listeners)
	return out, c.state
}

func notify(listeners []Listener, state model.SubmissionState) {
	for _, fn := range listeners {
		fn(state)
	}
}

// UserMessage turns a submission failure into display text: the service's
// message for rejected requests, the root cause for transport failures, and
// MsgSubmitFailed when neither is available.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return MsgSubmitFailed
	}
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	if msg := strings.TrimSpace(root.Error()); msg != "" {
		return msg
	}
	return MsgSubmitFailed
}

package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-onboarding/pkg/corporation"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/submission"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

var (
	// ErrInvalid is returned by Submit when local field rules fail. The
	// failures are exposed through View.
	ErrInvalid = errors.New("form: invalid fields")
	// ErrValidationPending is returned when the corporation number is still
	// being checked. No submission error is recorded.
	ErrValidationPending = errors.New("form: corporation number validation pending")
	// ErrRemoteInvalid is returned when the corporation number was rejected
	// by the remote check. No submission error is recorded.
	ErrRemoteInvalid = errors.New("form: corporation number rejected")
	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("form: session closed")
)

// Listener receives a fresh View after every state change.
type Listener func(View)

// Option configures a Session.
type Option func(*config)

type config struct {
	debounce      time.Duration
	successWindow time.Duration
	logger        logger.Logger
}

// WithDebounce overrides the corporation-number quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithSuccessWindow overrides how long a successful submission is shown.
func WithSuccessWindow(d time.Duration) Option {
	return func(c *config) {
		c.successWindow = d
	}
}

// WithLogger attaches a structured logger to the session and its components.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Session is one live onboarding form. It owns the field values, touched
// flags and displayed schema errors, and composes the remote corporation
// check with the submission controller.
type Session struct {
	remote *corporation.Validator
	submit *submission.Controller
	logger logger.Logger

	mu          sync.Mutex
	data        model.FormData
	touched     map[model.Field]bool
	errors      validation.Errors
	lastSuccess bool
	closed      bool
	listeners   []Listener
}

// New builds a session that checks corporation numbers through lookup and
// writes profiles through submitter.
func New(lookup corporation.Lookuper, submitter submission.Submitter, options ...Option) *Session {
	cfg := config{logger: logger.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	s := &Session{
		logger:  cfg.logger.With(map[string]any{"component": "form"}),
		touched: make(map[model.Field]bool, len(model.Fields)),
		errors:  validation.Errors{},
	}
	s.remote = corporation.New(lookup,
		corporation.WithDebounce(cfg.debounce),
		corporation.WithLogger(cfg.logger.With(map[string]any{"component": "corporation"})),
	)
	s.submit = submission.New(submitter,
		submission.WithSuccessWindow(cfg.successWindow),
		submission.WithLogger(cfg.logger.With(map[string]any{"component": "submission"})),
	)

	s.remote.Subscribe(func(model.ValidationState) {
		s.emit()
	})
	s.submit.Subscribe(s.onSubmission)
	return s
}

// Subscribe registers fn for view changes.
func (s *Session) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// FieldChanged records a new value and re-runs the field's rules for live
// feedback. Corporation number edits also reschedule the remote check.
func (s *Session) FieldChanged(field model.Field, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	previous := s.data.Get(field)
	s.data.Set(field, value)
	s.setErrorLocked(field, validation.ValidateField(s.data, field))
	touched := s.touched[field]
	s.mu.Unlock()

	if field == model.FieldCorporationNumber && previous != value {
		s.remote.Check(value, touched)
	}
	s.emit()
}

// FieldBlurred marks the field touched and finalizes its error. The first
// blur of the corporation number enables the remote check.
func (s *Session) FieldBlurred(field model.Field) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	wasTouched := s.touched[field]
	s.touched[field] = true
	s.setErrorLocked(field, validation.ValidateField(s.data, field))
	value := s.data.Get(field)
	s.mu.Unlock()

	if field == model.FieldCorporationNumber && !wasTouched {
		s.remote.Check(value, true)
	}
	s.emit()
}

// Submit validates every field and, when the form is complete and the remote
// check has settled without error, sends the profile. A pending or failed
// remote check withholds the submission without recording an error. Every
// field counts as touched afterwards, so an unchecked corporation number is
// queued for lookup and the attempt reports ErrValidationPending. A gate that
// only looked at the remote state would post such a form straight away; here
// the caller settles and submits again.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	corporationTouched := s.touched[model.FieldCorporationNumber]
	for _, field := range model.Fields {
		s.touched[field] = true
	}
	errs := validation.Validate(s.data)
	s.errors = validation.Errors{}
	for field, msg := range errs {
		s.errors[field] = msg
	}
	data := s.data
	s.mu.Unlock()

	if !corporationTouched {
		s.remote.Check(data.CorporationNumber, true)
	}
	if len(errs) > 0 {
		s.emit()
		return ErrInvalid
	}

	if s.remote.Pending() {
		s.emit()
		return ErrValidationPending
	}
	if s.remote.State().Error != "" {
		s.emit()
		return ErrRemoteInvalid
	}

	return s.submit.Submit(ctx, data)
}

// CanSubmit reports whether a submit attempt could start right now: nothing
// is being submitted and no remote check is running.
func (s *Session) CanSubmit() bool {
	return !s.submit.State().Submitting && !s.remote.State().Validating
}

// Settle waits for any scheduled or in-flight corporation check to finish.
func (s *Session) Settle(ctx context.Context) error {
	_, err := s.remote.Settled(ctx)
	return err
}

// Data returns the current field values.
func (s *Session) Data() model.FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// View assembles the presentation snapshot.
func (s *Session) View() View {
	remote := s.remote.State()
	sub := s.submit.State()

	s.mu.Lock()
	defer s.mu.Unlock()
	return buildView(s.data, s.touched, s.errors, remote, sub)
}

// Close tears the session down: pending checks, in-flight lookups and the
// success decay are canceled, and no listener fires afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.listeners = nil
	s.mu.Unlock()

	s.remote.Close()
	s.submit.Close()
}

func (s *Session) onSubmission(state model.SubmissionState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	reset := state.Success && !s.lastSuccess
	s.lastSuccess = state.Success
	if reset {
		s.data = model.FormData{}
		s.touched = make(map[model.Field]bool, len(model.Fields))
		s.errors = validation.Errors{}
	}
	s.mu.Unlock()

	if reset {
		s.logger.Info("profile submitted, form reset", nil)
		s.remote.Check("", false)
	}
	s.emit()
}

func (s *Session) setErrorLocked(field model.Field, msg string) {
	if msg == "" {
		delete(s.errors, field)
		return
	}
	s.errors[field] = msg
}

func (s *Session) emit() {
	s.mu.Lock()
	if s.closed || len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	view := s.View()
	for _, fn := range listeners {
		fn(view)
	}
}

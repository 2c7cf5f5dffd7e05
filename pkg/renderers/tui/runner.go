package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-onboarding/pkg/form"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

const (
	// Title is printed above the first prompt.
	Title = "Onboarding Form"
	// StepLabel is the progress label shown under the title.
	StepLabel = "Step 1 of 5"
	// MsgValidating is printed while the corporation number is checked.
	MsgValidating = "Validating..."
	// MsgSuccess is printed after the profile was accepted.
	MsgSuccess = "Form submitted successfully! Thank you for your submission."

	defaultSettleTimeout = 30 * time.Second
)

// Session is the slice of form.Session the runner drives.
type Session interface {
	FieldChanged(field model.Field, value string)
	FieldBlurred(field model.Field)
	Submit(ctx context.Context) error
	Settle(ctx context.Context) error
	Data() model.FormData
	View() form.View
}

// Runner walks a user through the onboarding form in a terminal. Each answer
// is fed to the session as a change followed by a blur, so the terminal sees
// the same validation as any other front end.
type Runner struct {
	driver        PromptDriver
	out           io.Writer
	theme         Theme
	settleTimeout time.Duration
	logger        logger.Logger
}

// New constructs a runner with defaults (survey driver writing to stdout).
func New(options ...Option) *Runner {
	r := &Runner{
		theme:         DefaultTheme,
		settleTimeout: defaultSettleTimeout,
		logger:        logger.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r
}

// Run prompts for every field, submits, and returns the submitted profile.
// Fields that fail validation are asked again; a rejected submission can be
// retried without re-entering values.
func (r *Runner) Run(ctx context.Context, s Session) (model.FormData, error) {
	if ctx == nil {
		return model.FormData{}, errors.New("tui: context is required")
	}
	if s == nil {
		return model.FormData{}, ErrSessionRequired
	}

	if err := r.info(ctx, Title); err != nil {
		return model.FormData{}, err
	}
	if err := r.info(ctx, StepLabel); err != nil {
		return model.FormData{}, err
	}

	pending := model.Fields
	for {
		for _, field := range pending {
			if err := r.promptField(ctx, s, field); err != nil {
				return model.FormData{}, err
			}
		}
		pending = nil

		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return model.FormData{}, err
		}
		if !ok {
			return model.FormData{}, ErrCanceled
		}

		data, retry, err := r.submit(ctx, s)
		if err != nil {
			return model.FormData{}, err
		}
		if len(retry) == 0 {
			return data, nil
		}
		pending = retry
	}
}

// submit runs attempts until the profile is accepted, the user gives up, or
// some fields need new answers. A non-empty retry lists those fields.
func (r *Runner) submit(ctx context.Context, s Session) (model.FormData, []model.Field, error) {
	data := s.Data()
	err := s.Submit(ctx)
	switch {
	case err == nil:
		if err := r.success(ctx, MsgSuccess); err != nil {
			return model.FormData{}, nil, err
		}
		return data, nil, nil

	case errors.Is(err, form.ErrInvalid):
		var retry []model.Field
		view := s.View()
		for _, field := range model.Fields {
			if msg := view.Field(field).Error; msg != "" {
				if err := r.fail(ctx, fmt.Sprintf("%s: %s", field.Label(), msg)); err != nil {
					return model.FormData{}, nil, err
				}
				retry = append(retry, field)
			}
		}
		if len(retry) == 0 {
			return model.FormData{}, nil, err
		}
		return model.FormData{}, retry, nil

	case errors.Is(err, form.ErrValidationPending):
		if err := r.settle(ctx, s); err != nil {
			return model.FormData{}, nil, err
		}
		if msg := s.View().CorporationNumber.Error; msg != "" {
			if err := r.fail(ctx, msg); err != nil {
				return model.FormData{}, nil, err
			}
			return model.FormData{}, []model.Field{model.FieldCorporationNumber}, nil
		}
		return r.submit(ctx, s)

	case errors.Is(err, form.ErrRemoteInvalid):
		if err := r.fail(ctx, s.View().CorporationNumber.Error); err != nil {
			return model.FormData{}, nil, err
		}
		return model.FormData{}, []model.Field{model.FieldCorporationNumber}, nil

	case errors.Is(err, form.ErrClosed):
		return model.FormData{}, nil, err
	}

	// the service refused the profile or could not be reached
	r.logger.WithError(err).Warn("submission failed", nil)
	msg := s.View().Submission.Error
	if msg == "" {
		msg = err.Error()
	}
	if err := r.fail(ctx, msg); err != nil {
		return model.FormData{}, nil, err
	}
	again, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
	if cerr != nil {
		return model.FormData{}, nil, cerr
	}
	if !again {
		return model.FormData{}, nil, err
	}
	return r.submit(ctx, s)
}

func (r *Runner) promptField(ctx context.Context, s Session, field model.Field) error {
	for {
		current := s.View().Field(field)
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: current.Label,
			Default: current.Value,
			Validator: func(value string) error {
				data := s.Data()
				data.Set(field, value)
				if msg := validation.ValidateField(data, field); msg != "" {
					return errors.New(msg)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}

		s.FieldChanged(field, answer)
		s.FieldBlurred(field)

		// the remote verdict may still belong to the previous answer, so wait
		// for the lookup of this one before reading the field error
		if field == model.FieldCorporationNumber && validation.ValidateField(s.Data(), field) == "" {
			if err := r.info(ctx, MsgValidating); err != nil {
				return err
			}
			if err := r.settle(ctx, s); err != nil {
				return err
			}
		}

		msg := s.View().Field(field).Error
		if msg == "" {
			return nil
		}
		if err := r.fail(ctx, msg); err != nil {
			return err
		}
	}
}

func (r *Runner) settle(ctx context.Context, s Session) error {
	ctx, cancel := context.WithTimeout(ctx, r.settleTimeout)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		return fmt.Errorf("tui: waiting for corporation number check: %w", err)
	}
	return nil
}

func (r *Runner) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Runner) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func (r *Runner) success(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.SuccessPrefix+msg)
}

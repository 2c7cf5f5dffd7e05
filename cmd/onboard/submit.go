package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-onboarding/internal/output"
	"github.com/goliatone/go-onboarding/pkg/form"
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/renderers/tui"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

type errRejected string

func (e errRejected) Error() string { return string(e) }

func newSubmitCmd(a *app) *cobra.Command {
	var (
		file    string
		profile model.FormData
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a profile without prompts",
		Long: `submit reads a profile from flags or from a json/yaml file (flags win),
validates it the same way the interactive form does and posts it once.`,
		Example: `  onboard submit --first-name John --last-name Doe --phone +13062776103 --corporation-number 826417395
  onboard submit --file profile.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := model.FormData{}
			if file != "" {
				loaded, err := readProfile(file)
				if err != nil {
					return withExitCode(ExitError, err)
				}
				data = loaded
			}
			for _, field := range model.Fields {
				if v := profile.Get(field); cmd.Flags().Changed(flagName(field)) {
					data.Set(field, v)
				}
			}
			return a.submit(cmd.Context(), data)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "json or yaml file holding the profile")
	flags.StringVar(&profile.FirstName, flagName(model.FieldFirstName), "", "first name")
	flags.StringVar(&profile.LastName, flagName(model.FieldLastName), "", "last name")
	flags.StringVar(&profile.Phone, flagName(model.FieldPhone), "", "Canadian phone number, e.g. +13062776103")
	flags.StringVar(&profile.CorporationNumber, flagName(model.FieldCorporationNumber), "", "9-digit corporation number")
	return cmd
}

func (a *app) submit(ctx context.Context, data model.FormData) error {
	session, err := a.newSession(batchDebounce)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer session.Close()

	for _, field := range model.Fields {
		session.FieldChanged(field, data.Get(field))
		session.FieldBlurred(field)
	}
	if err := session.Settle(ctx); err != nil {
		return err
	}

	err = session.Submit(ctx)
	if errors.Is(err, form.ErrValidationPending) {
		if err := session.Settle(ctx); err != nil {
			return err
		}
		err = session.Submit(ctx)
	}

	result := output.SubmitResult{Submitted: err == nil, Profile: data}
	view := session.View()
	switch {
	case err == nil:
		result.Message = tui.MsgSuccess
	case !view.Valid():
		errs := validation.Errors{}
		for _, field := range model.Fields {
			if msg := view.Field(field).Error; msg != "" {
				errs[field] = msg
			}
		}
		result.Errors = output.FieldErrors(errs)
		result.Message = "Profile has invalid fields"
	default:
		result.Message = view.Submission.Error
		if result.Message == "" {
			result.Message = err.Error()
		}
	}

	if werr := output.Write(a.stdout, a.output, result); werr != nil {
		return werr
	}
	if err != nil {
		a.logger.WithError(err).Warn("profile not submitted", nil)
		return withExitCode(ExitDataError, errRejected(result.Message))
	}
	return nil
}

func readProfile(path string) (model.FormData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.FormData{}, fmt.Errorf("read profile: %w", err)
	}
	var data model.FormData
	// yaml also accepts json documents
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return model.FormData{}, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return data, nil
}

func flagName(field model.Field) string {
	switch field {
	case model.FieldFirstName:
		return "first-name"
	case model.FieldLastName:
		return "last-name"
	case model.FieldPhone:
		return "phone"
	case model.FieldCorporationNumber:
		return "corporation-number"
	default:
		return field.String()
	}
}

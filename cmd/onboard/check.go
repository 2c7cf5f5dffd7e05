package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-onboarding/internal/output"
	"github.com/goliatone/go-onboarding/pkg/model"
)

const batchDebounce = time.Millisecond

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <corporation-number>",
		Short: "Check a corporation number against the onboarding service",
		Long: `check applies the corporation number rules locally and, when they pass,
asks the onboarding service whether the number is known. The exit code is 3
when the number is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]

			session, err := a.newSession(batchDebounce)
			if err != nil {
				return withExitCode(ExitConfigError, err)
			}
			defer session.Close()

			session.FieldChanged(model.FieldCorporationNumber, number)
			session.FieldBlurred(model.FieldCorporationNumber)
			if err := session.Settle(cmd.Context()); err != nil {
				return err
			}

			view := session.View().CorporationNumber
			result := output.CheckResult{
				CorporationNumber: number,
				Valid:             view.Error == "",
				Message:           view.Error,
			}
			if err := output.Write(a.stdout, a.output, result); err != nil {
				return err
			}
			if !result.Valid {
				return withExitCode(ExitDataError, errRejected(view.Error))
			}
			return nil
		},
	}
}

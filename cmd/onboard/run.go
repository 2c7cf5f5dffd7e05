package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-onboarding/pkg/renderers/tui"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fill in the onboarding form interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context())
		},
	}
}

func (a *app) runInteractive(ctx context.Context) error {
	session, err := a.newSession(a.cfg.Form.Debounce)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer session.Close()

	runner := tui.New(
		tui.WithOutput(a.stdout),
		tui.WithSettleTimeout(a.cfg.Form.SettleTimeout),
		tui.WithLogger(a.logger.With(map[string]any{"component": "tui"})),
	)
	if _, err := runner.Run(ctx, session); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, tui.ErrCanceled) {
			a.logger.Info("form closed without submitting", nil)
			return nil
		}
		return withExitCode(ExitDataError, err)
	}
	return nil
}

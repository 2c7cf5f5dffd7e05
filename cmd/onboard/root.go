package main

import (
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-onboarding/internal/config"
	"github.com/goliatone/go-onboarding/internal/output"
	"github.com/goliatone/go-onboarding/pkg/client"
	"github.com/goliatone/go-onboarding/pkg/form"
	"github.com/goliatone/go-onboarding/pkg/logger"
)

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	envFile    string
	baseURL    string
	logLevel   string
	format     string

	cfg    *config.Config
	logger logger.Logger
	output output.Format
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "onboard",
		Short: "Collect and submit onboarding profiles",
		Long: `onboard collects a profile (first name, last name, Canadian phone number and
corporation number), checks the corporation number against the onboarding
service and submits the profile.

Run without a subcommand for the interactive form.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           Version,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to a yaml config file (default ./onboard.yaml when present)")
	flags.StringVar(&a.envFile, "env-file", "", "path to a dotenv file (default ./.env when present)")
	flags.StringVar(&a.baseURL, "base-url", "", "onboarding service base URL")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&a.format, "output", "o", "pretty", "result format: pretty, json, yaml")

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newSubmitCmd(a),
		newStubServerCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{ConfigFile: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	format, err := output.ParseFormat(a.format)
	if err != nil {
		return withExitCode(ExitError, err)
	}

	log, err := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	a.cfg = cfg
	a.logger = log.With(map[string]any{"command": cmd.Name()})
	a.output = format
	return nil
}

func (a *app) newClient() (*client.Client, error) {
	return client.New(a.cfg.API.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}),
		client.WithUserAgent(a.cfg.API.UserAgent+"/"+Version),
		client.WithLogger(a.logger.With(map[string]any{"component": "client"})),
	)
}

// newSession builds a form session. Non-interactive commands pass a short
// debounce since every value arrives at once.
func (a *app) newSession(debounce time.Duration) (*form.Session, error) {
	c, err := a.newClient()
	if err != nil {
		return nil, err
	}
	return form.New(c, c,
		form.WithDebounce(debounce),
		form.WithSuccessWindow(a.cfg.Form.SuccessWindow),
		form.WithLogger(a.logger),
	), nil
}

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-onboarding/internal/stubapi"
)

func newStubServerCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Serve a local stand-in of the onboarding service",
		Long: `stub-server answers the corporation-number lookup and profile write on a
local address so the form can be used offline. Requests are checked against
the service contract; metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Stub.Addr
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv, err := stubapi.New(cmd.Context(),
				stubapi.WithValidNumbers(a.cfg.Stub.ValidNumbers...),
				stubapi.WithLogger(a.logger),
				stubapi.WithRegistry(reg),
			)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/credstore"
	"github.com/systmms/kvreport/internal/mail"
	"github.com/systmms/kvreport/internal/run"
)

func NewRunCommand(cfg *config.Config) *cobra.Command {
	var rangeFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the expiry report and mail it",
		Long: `Fetch the inventory from the configured source, classify every item by
time to expiration, and mail the rendered report to the configured
recipient.

When anything goes wrong - the source cannot be reached, the report
cannot be built, or the report mail cannot be delivered - the admin
address receives a single failure alert carrying the error, and the
command exits non-zero.

Examples:
  kvreport run                 # Use the range from kvreport.yaml
  kvreport run --range expired # Only already-expired items
  kvreport run --range 30      # Expired plus the next 30 days`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			mode, err := reportMode(cfg, rangeFlag)
			if err != nil {
				return err
			}

			_, src, err := buildReportSource(cfg)
			if err != nil {
				return err
			}

			password, err := cfg.ResolveSMTPPassword(credstore.New())
			if err != nil {
				return err
			}
			if password != nil {
				defer password.Destroy()
			}

			sender := mail.NewSender(mailConfig(cfg), password)

			opts := run.Options{
				Mode:      mode,
				Recipient: cfg.Definition.Report.Recipient,
				Admin:     cfg.Definition.Report.Admin,
			}
			if m := cfg.Definition.Metrics; m != nil {
				run.InitMetrics()
				opts.Gateway = m.Gateway
				opts.Job = m.JobName()
			}

			return run.New(src, sender, cfg.Logger).Execute(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&rangeFlag, "range", "", "Reporting range: expired, all, 30d, 60d, 90d (or 0, 1, 30, 60, 90)")

	return cmd
}

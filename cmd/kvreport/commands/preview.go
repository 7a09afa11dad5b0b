package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/run"
)

func NewPreviewCommand(cfg *config.Config) *cobra.Command {
	var (
		rangeFlag string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the report without sending any mail",
		Long: `Fetch the inventory, classify it, and write the HTML document a run
would mail, to stdout or a file. No SMTP connection is made, so only
the source's credentials are needed.

Examples:
  kvreport preview                       # HTML to stdout
  kvreport preview --output report.html  # HTML to a file
  kvreport preview --range expired       # Only already-expired items`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			mode, err := reportMode(cfg, rangeFlag)
			if err != nil {
				return err
			}

			name, src, err := buildReportSource(cfg)
			if err != nil {
				return err
			}

			r, err := run.New(src, nil, cfg.Logger).BuildReport(cmd.Context(), mode, time.Now())
			if err != nil {
				return err
			}

			cfg.Logger.Info("Report for %s: %d entries (%d items without expiration)",
				name, len(r.Entries), r.NoExpiry)

			if output == "" {
				fmt.Println(r.HTML)
				return nil
			}

			if err := os.WriteFile(output, []byte(r.HTML), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			cfg.Logger.Info("✓ Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeFlag, "range", "", "Reporting range: expired, all, 30d, 60d, 90d (or 0, 1, 30, 60, 90)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the HTML document to this file instead of stdout")

	return cmd
}

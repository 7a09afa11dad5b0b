package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/credstore"
	"github.com/systmms/kvreport/internal/mail"
	"github.com/systmms/kvreport/internal/sources"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check source connectivity and mail configuration",
		Long: `Verify that the configured sources are reachable and the mail setup is
complete enough for a run to deliver its report.

This command checks:
- Configuration file validity
- Source authentication and connectivity
- SMTP settings and password availability`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg.Logger.Info("Checking kvreport configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Logger.Info("✓ Configuration loaded successfully")

			registry := sources.NewRegistry()
			ctx := cmd.Context()
			results := make([]SourceHealth, 0)

			// Check each configured source
			for _, name := range cfg.Definition.SourceNames() {
				sourceConfig := cfg.Definition.Sources[name]
				health := SourceHealth{
					Name: name,
					Type: sourceConfig.Type,
				}

				src, err := registry.Create(name, sourceConfig.Type, sourceConfig.Settings)
				if err != nil {
					health.Status = "error"
					health.Error = err.Error()
					results = append(results, health)
					continue
				}

				if err := src.Validate(ctx); err != nil {
					health.Status = "error"
					health.Error = err.Error()
				} else {
					health.Status = "healthy"
					health.Message = "Source is ready"
				}

				results = append(results, health)
			}

			// Mail delivery is as load-bearing as the sources, so it gets a
			// row in the same table.
			results = append(results, checkMail(ctx, cfg))

			// Display results
			displayHealthResults(results, verbose)

			// Summary
			healthy := 0
			for _, result := range results {
				if result.Status == "healthy" {
					healthy++
				}
			}

			fmt.Printf("\nSummary: %d/%d checks healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some checks are not healthy")
			}

			cfg.Logger.Info("✓ All systems operational!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show full error detail for unhealthy checks")

	return cmd
}

// SourceHealth is one row of the doctor table
type SourceHealth struct {
	Name    string
	Type    string
	Status  string // healthy, error
	Error   string
	Message string
}

// checkMail verifies the sender could be built and is complete,
// without opening an SMTP connection.
func checkMail(ctx context.Context, cfg *config.Config) SourceHealth {
	health := SourceHealth{
		Name: "mail",
		Type: "smtp",
	}

	password, err := cfg.ResolveSMTPPassword(credstore.New())
	if err != nil {
		health.Status = "error"
		health.Error = err.Error()
		return health
	}
	if password != nil {
		defer password.Destroy()
	}

	sender := mail.NewSender(mailConfig(cfg), password)
	if err := sender.Validate(ctx); err != nil {
		health.Status = "error"
		health.Error = err.Error()
		return health
	}

	health.Status = "healthy"
	health.Message = fmt.Sprintf("Delivery via %s:%d",
		cfg.Definition.Mail.SMTP.Host, cfg.Definition.Mail.SMTP.Port)
	return health
}

// displayHealthResults shows the checks in a formatted table
func displayHealthResults(results []SourceHealth, verbose bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SOURCE\tTYPE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "------\t----\t------\t-------\n")

	for _, result := range results {
		status := result.Status
		message := result.Message
		if result.Error != "" {
			message = firstLine(result.Error)
		}

		// Add status glyph
		switch result.Status {
		case "healthy":
			status = "✓ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "? " + status
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			result.Name, result.Type, status, message)
	}

	_ = w.Flush()

	// Show full multi-line errors if verbose
	if verbose {
		for _, result := range results {
			if result.Status == "error" {
				fmt.Printf("\n%s (%s):\n%s\n", result.Name, result.Type, result.Error)
			}
		}
	}
}

// firstLine keeps multi-line errors from breaking the table layout
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

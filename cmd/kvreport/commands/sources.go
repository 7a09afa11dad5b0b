package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/sources"
)

func NewSourcesCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List available source types and configured sources",
		Long: `Display the built-in inventory source types and, when a configuration
file is present, the sources it configures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := sources.NewRegistry()

			fmt.Println("Built-in Source Types:")
			fmt.Println("======================")

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TYPE\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "----\t-----------\n")

			for _, sourceType := range registry.SupportedTypes() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", sourceType, getSourceDescription(sourceType))
			}
			_ = w.Flush()

			// Show configured sources if config is available
			if err := cfg.Load(); err == nil && cfg.Definition != nil {
				fmt.Println("\nConfigured Sources:")
				fmt.Println("===================")

				w2 := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintf(w2, "NAME\tTYPE\tSTATUS\n")
				_, _ = fmt.Fprintf(w2, "----\t----\t------\n")

				for _, name := range cfg.Definition.SourceNames() {
					sourceCfg := cfg.Definition.Sources[name]

					status := "configured"
					if name == cfg.Definition.Report.Source {
						status = "selected for report"
					}
					if !registry.IsSupported(sourceCfg.Type) {
						status = "unsupported"
					}

					_, _ = fmt.Fprintf(w2, "%s\t%s\t%s\n", name, sourceCfg.Type, status)
				}
				_ = w2.Flush()
			}

			return nil
		},
	}

	return cmd
}

// getSourceDescription returns a description for a source type
func getSourceDescription(sourceType string) string {
	descriptions := map[string]string{
		"mock":               "Fixed inventory for previews and tests",
		"azure.keyvault":     "Azure Key Vault keys, secrets, and certificates",
		"aws.secretsmanager": "AWS Secrets Manager secrets",
		"aws.parameterstore": "AWS SSM Parameter Store parameters",
		"gcp.secretmanager":  "Google Cloud Secret Manager secrets",
		"postgres.roles":     "PostgreSQL roles with password expiry (rolvaliduntil)",
		"mysql.users":        "MySQL accounts with password expiration",
	}

	if desc, exists := descriptions[sourceType]; exists {
		return desc
	}
	return "No description available"
}

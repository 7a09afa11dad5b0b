package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/kvreport/internal/config"
)

const exampleConfig = `version: 0

# Named inventory sources. All fields beyond 'type' are source-specific.
sources:
  corp-vault:
    type: azure.keyvault
    vault_url: https://corp-vault.vault.azure.net/

  # aws_sm:
  #   type: aws.secretsmanager
  #   region: us-east-1

  # aws_ps:
  #   type: aws.parameterstore
  #   region: us-east-1

  # gcp_sm:
  #   type: gcp.secretmanager
  #   project_id: my-project

  # db_roles:
  #   type: postgres.roles
  #   host: db.internal
  #   username: kvreport
  #   sslmode: verify-full

  # Fixed inventory, good for a first 'kvreport preview'
  demo:
    type: mock
    keys:
      - name: signing-key
        expires_in: 288h
    secrets:
      - name: api-token
        expires_in: 1080h
      - name: legacy-password
        expires: "2024-01-01T00:00:00Z"
    certificates:
      - name: tls-cert
        expires_in: 1920h

# What to report and who receives it
report:
  source: demo
  range: all            # expired | all | 30d | 60d | 90d
  recipient: security-team@example.com
  admin: vault-admin@example.com

# Outbound mail. The SMTP password does not live here: run
# 'kvreport login' to store it in the OS keychain, or set password_env.
mail:
  from: kvreport@example.com
  smtp:
    host: smtp.example.com
    port: 587
    username: kvreport@example.com
    tls: true

# Optional: push run metrics to a Prometheus Pushgateway
# metrics:
#   gateway: http://pushgateway.internal:9091
#   job: kvreport
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new kvreport configuration",
		Long:  "Create a kvreport.yaml file with example sources and mail settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check if the config file already exists
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("%s already exists. Remove it first if you want to reinitialize", cfg.Path)
			}

			// Write the file
			if err := os.WriteFile(cfg.Path, []byte(exampleConfig), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s with example sources and mail settings", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Edit %s to configure your sources and recipients", cfg.Path)
			cfg.Logger.Info("  2. Run 'kvreport doctor' to verify source connectivity")
			cfg.Logger.Info("  3. Run 'kvreport preview' to inspect the report without sending mail")
			cfg.Logger.Info("  4. Run 'kvreport login' to store the SMTP password, then 'kvreport run'")

			return nil
		},
	}

	return cmd
}

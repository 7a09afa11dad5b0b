package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/credstore"
	kverrors "github.com/systmms/kvreport/internal/errors"
)

func NewLogoutCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored SMTP password from the OS keychain",
		Long: `Remove the SMTP password that 'kvreport login' stored for the
configured mail.smtp.username and host. Removing an absent entry is
not an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			smtp := cfg.Definition.Mail.SMTP
			if smtp.Username == "" {
				return kverrors.ConfigError{
					Field:      "mail.smtp.username",
					Message:    "no SMTP username configured",
					Suggestion: "Set mail.smtp.username in kvreport.yaml so the keychain entry can be named",
				}
			}

			store := credstore.New()
			if err := store.Delete(smtp.Username, smtp.Host); err != nil {
				return kverrors.UserError{
					Message:    "Failed to remove the password from the OS keychain",
					Details:    err.Error(),
					Suggestion: "Check that the keychain service is available",
					Err:        err,
				}
			}

			cfg.Logger.Info("✓ Removed SMTP password for %s", credstore.Account(smtp.Username, smtp.Host))
			return nil
		},
	}

	return cmd
}

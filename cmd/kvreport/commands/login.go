package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/credstore"
	kverrors "github.com/systmms/kvreport/internal/errors"
)

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var passwordEnv string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the SMTP password in the OS keychain",
		Long: `Store the SMTP password in the OS keychain (macOS Keychain, Linux
Secret Service, Windows Credential Manager), keyed by the configured
mail.smtp.username and host.

The password is read from a terminal prompt, or from an environment
variable with --password-env. Once stored, kvreport.yaml needs neither
an inline password nor a password_env entry.

Examples:
  kvreport login                         # Prompt for the password
  kvreport login --password-env SMTP_PW  # Read it from $SMTP_PW`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			smtp := cfg.Definition.Mail.SMTP
			if smtp.Username == "" {
				return kverrors.ConfigError{
					Field:      "mail.smtp.username",
					Message:    "no SMTP username configured",
					Suggestion: "Set mail.smtp.username in kvreport.yaml before storing a password",
				}
			}

			password, err := readLoginPassword(cfg, passwordEnv)
			if err != nil {
				return err
			}

			store := credstore.New()
			if err := store.Set(smtp.Username, smtp.Host, password); err != nil {
				return kverrors.UserError{
					Message:    "Failed to store the password in the OS keychain",
					Details:    err.Error(),
					Suggestion: "Check that the keychain service is available, or use password_env instead",
					Err:        err,
				}
			}

			cfg.Logger.Info("✓ Stored SMTP password for %s", credstore.Account(smtp.Username, smtp.Host))
			cfg.Logger.Info("Run 'kvreport doctor' to verify mail delivery is ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&passwordEnv, "password-env", "", "Read the password from this environment variable instead of prompting")

	return cmd
}

// readLoginPassword picks up the new password from the environment or
// an interactive prompt. Prompting is refused in non-interactive mode.
func readLoginPassword(cfg *config.Config, passwordEnv string) (string, error) {
	if passwordEnv != "" {
		value, ok := os.LookupEnv(passwordEnv)
		if !ok || value == "" {
			return "", kverrors.UserError{
				Message:    fmt.Sprintf("environment variable %s is not set", passwordEnv),
				Suggestion: fmt.Sprintf("Export %s with the SMTP password before running 'kvreport login'", passwordEnv),
			}
		}
		return value, nil
	}

	if cfg.NonInteractive {
		return "", kverrors.UserError{
			Message:    "cannot prompt for a password in non-interactive mode",
			Suggestion: "Pass --password-env NAME to read the password from the environment",
		}
	}

	password, err := promptPassword("SMTP password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", kverrors.UserError{
			Message:    "empty password",
			Suggestion: "Type the SMTP password at the prompt, or pass --password-env NAME",
		}
	}

	return password, nil
}

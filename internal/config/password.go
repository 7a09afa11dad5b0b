package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/systmms/kvreport/internal/credstore"
	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/secure"
)

// ResolveSMTPPassword resolves the SMTP password into a secure buffer,
// trying the inline config value, then the password_env variable, then
// the OS keychain entry written by 'kvreport login'. Returns nil when
// no username is configured, meaning the server needs no auth.
func (c *Config) ResolveSMTPPassword(store *credstore.Store) (*secure.Buffer, error) {
	smtp := c.Definition.Mail.SMTP

	if smtp.Username == "" {
		return nil, nil
	}

	if smtp.Password != "" {
		if c.Logger != nil {
			c.Logger.Warn("SMTP password is stored inline in %s; prefer password_env or 'kvreport login'", c.Path)
		}
		return secure.NewBufferFromString(smtp.Password), nil
	}

	if smtp.PasswordEnv != "" {
		value, ok := os.LookupEnv(smtp.PasswordEnv)
		if !ok || value == "" {
			return nil, kverrors.ConfigError{
				Field:      "mail.smtp.password_env",
				Value:      smtp.PasswordEnv,
				Message:    "environment variable is not set",
				Suggestion: fmt.Sprintf("Export %s with the SMTP password before running", smtp.PasswordEnv),
			}
		}
		return secure.NewBufferFromString(value), nil
	}

	password, err := store.Get(smtp.Username, smtp.Host)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil, kverrors.UserError{
				Message: fmt.Sprintf("no SMTP password stored for %s", credstore.Account(smtp.Username, smtp.Host)),
				Suggestion: "Run 'kvreport login' to store the password in the OS keychain, " +
					"set mail.smtp.password_env to an environment variable, " +
					"or put the password inline in kvreport.yaml",
			}
		}
		return nil, kverrors.UserError{
			Message:    "Failed to read the SMTP password from the OS keychain",
			Details:    err.Error(),
			Suggestion: "Check that the keychain service is available, or use password_env instead",
			Err:        err,
		}
	}

	return secure.NewBufferFromString(password), nil
}

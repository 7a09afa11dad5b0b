package commands

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/systmms/kvreport/internal/config"
	"github.com/systmms/kvreport/internal/expiry"
	"github.com/systmms/kvreport/internal/mail"
	"github.com/systmms/kvreport/internal/sources"
	"github.com/systmms/kvreport/pkg/inventory"
)

// buildReportSource creates the source instance the report section
// selects.
func buildReportSource(cfg *config.Config) (string, inventory.Source, error) {
	name, sourceConfig, err := cfg.ReportSource()
	if err != nil {
		return "", nil, err
	}

	src, err := sources.NewRegistry().Create(name, sourceConfig.Type, sourceConfig.Settings)
	if err != nil {
		return "", nil, err
	}

	return name, src, nil
}

// reportMode resolves the effective reporting range: the --range flag
// wins over the configured report.range.
func reportMode(cfg *config.Config, flag string) (expiry.Mode, error) {
	if flag != "" {
		return expiry.ParseMode(flag)
	}
	return cfg.Definition.Report.Mode()
}

// mailConfig converts the loaded configuration into the sender's view
// of it. The password travels separately.
func mailConfig(cfg *config.Config) mail.Config {
	def := cfg.Definition
	return mail.Config{
		SMTP: mail.SMTPConfig{
			Host:     def.Mail.SMTP.Host,
			Port:     def.Mail.SMTP.Port,
			Username: def.Mail.SMTP.Username,
			TLS:      def.Mail.SMTP.TLS,
		},
		From:    def.Mail.From,
		Subject: def.Report.Subject,
	}
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

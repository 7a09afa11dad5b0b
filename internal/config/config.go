package config

import (
	"fmt"
	"net/mail"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/expiry"
	"github.com/systmms/kvreport/internal/logging"
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the kvreport.yaml structure
type Definition struct {
	Version int                     `yaml:"version"`
	Sources map[string]SourceConfig `yaml:"sources"`
	Report  ReportConfig            `yaml:"report"`
	Mail    MailConfig              `yaml:"mail"`
	Metrics *MetricsConfig          `yaml:"metrics,omitempty"`
}

// SourceConfig holds source-specific configuration. Settings beyond the
// type tag are passed through to the source factory untouched.
type SourceConfig struct {
	Type     string                 `yaml:"type"`
	Settings map[string]interface{} `yaml:",inline"`
}

// RangeValue is report.range as written. YAML resolves the bare numeric
// forms (30) to integers; decoding from the node text keeps them
// interchangeable with the quoted word forms ("30d").
type RangeValue string

func (v *RangeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("range must be a scalar value")
	}
	*v = RangeValue(node.Value)
	return nil
}

// ReportConfig selects what to report and who receives it
type ReportConfig struct {
	// Source names the configured source to inventory.
	Source string `yaml:"source"`

	// Range is the requested reporting scope: 0|1|30|60|90 or
	// expired|all|30d|60d|90d. Empty means all upcoming.
	Range RangeValue `yaml:"range,omitempty"`

	// Recipient receives the report on success.
	Recipient string `yaml:"recipient"`

	// Admin receives the failure alert when a run cannot complete.
	Admin string `yaml:"admin"`

	// Subject overrides the default report subject when set.
	Subject string `yaml:"subject,omitempty"`
}

// MailConfig holds outbound mail configuration
type MailConfig struct {
	From string     `yaml:"from"`
	SMTP SMTPConfig `yaml:"smtp"`
}

// SMTPConfig holds SMTP server configuration. Password may be set
// inline (discouraged), named via PasswordEnv, or omitted entirely to
// use the OS keychain entry written by 'kvreport login'.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	TLS         bool   `yaml:"tls,omitempty"`
}

// MetricsConfig enables the optional end-of-run Pushgateway push
type MetricsConfig struct {
	// Gateway is the Pushgateway base URL.
	Gateway string `yaml:"gateway"`

	// Job is the Pushgateway job label (default: kvreport).
	Job string `yaml:"job,omitempty"`
}

// Mode parses the configured range into a report mode. An empty range
// defaults to all upcoming windows.
func (r ReportConfig) Mode() (expiry.Mode, error) {
	if r.Range == "" {
		return expiry.ModeAllUpcoming, nil
	}
	return expiry.ParseMode(string(r.Range))
}

// JobName returns the Pushgateway job label
func (m *MetricsConfig) JobName() string {
	if m == nil || m.Job == "" {
		return "kvreport"
	}
	return m.Job
}

// Load reads, parses, and validates the kvreport.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return kverrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Run 'kvreport init' to create a new configuration file",
			}
		}
		return kverrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	// Structural validation first, so typos in section names fail with
	// a precise path instead of silently decoding to zero values.
	if err := validateSchema(data); err != nil {
		return err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return kverrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return kverrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your kvreport.yaml file",
		}
	}

	if err := def.validate(); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// validate applies the semantic checks the schema cannot express. Core
// packages never see an invalid mode or address; everything is rejected
// here at the boundary.
func (d *Definition) validate() error {
	if len(d.Sources) == 0 {
		return kverrors.ConfigError{
			Field:      "sources",
			Message:    "no sources configured",
			Suggestion: "Add at least one source to the 'sources:' section",
		}
	}

	for name, source := range d.Sources {
		if source.Type == "" {
			return kverrors.ConfigError{
				Field:      fmt.Sprintf("sources.%s.type", name),
				Message:    "source has no type",
				Suggestion: "Set a type such as azure.keyvault or aws.secretsmanager",
			}
		}
	}

	if d.Report.Source == "" {
		return kverrors.ConfigError{
			Field:      "report.source",
			Message:    "no source selected for the report",
			Suggestion: "Set report.source to one of the configured source names",
		}
	}

	if _, ok := d.Sources[d.Report.Source]; !ok {
		return kverrors.ConfigError{
			Field:      "report.source",
			Value:      d.Report.Source,
			Message:    "source is not configured",
			Suggestion: fmt.Sprintf("Available sources: %s", strings.Join(d.SourceNames(), ", ")),
		}
	}

	if _, err := d.Report.Mode(); err != nil {
		return err
	}

	for _, addr := range []struct {
		field string
		value string
	}{
		{"report.recipient", d.Report.Recipient},
		{"report.admin", d.Report.Admin},
		{"mail.from", d.Mail.From},
	} {
		if addr.value == "" {
			return kverrors.ConfigError{
				Field:      addr.field,
				Message:    "address is required",
				Suggestion: "Set an email address, e.g. ops@example.com",
			}
		}
		if _, err := mail.ParseAddress(addr.value); err != nil {
			return kverrors.ConfigError{
				Field:      addr.field,
				Value:      addr.value,
				Message:    "not a valid email address",
				Suggestion: "Use a plain address (ops@example.com) or a named one (Ops <ops@example.com>)",
			}
		}
	}

	if d.Mail.SMTP.Host == "" {
		return kverrors.ConfigError{
			Field:      "mail.smtp.host",
			Message:    "SMTP host is required",
			Suggestion: "Set the hostname of your SMTP server",
		}
	}

	if d.Mail.SMTP.Port <= 0 || d.Mail.SMTP.Port > 65535 {
		return kverrors.ConfigError{
			Field:      "mail.smtp.port",
			Value:      d.Mail.SMTP.Port,
			Message:    "SMTP port must be between 1 and 65535",
			Suggestion: "Common submission ports are 587 (STARTTLS) and 465 (TLS)",
		}
	}

	if d.Metrics != nil && d.Metrics.Gateway == "" {
		return kverrors.ConfigError{
			Field:      "metrics.gateway",
			Message:    "metrics section is present but gateway is empty",
			Suggestion: "Set the Pushgateway URL or remove the metrics section",
		}
	}

	return nil
}

// GetSource returns the configuration for a named source
func (c *Config) GetSource(name string) (SourceConfig, error) {
	if c.Definition == nil {
		return SourceConfig{}, kverrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	source, ok := c.Definition.Sources[name]
	if !ok {
		return SourceConfig{}, kverrors.ConfigError{
			Field:      "source",
			Value:      name,
			Message:    "source not found in configuration",
			Suggestion: fmt.Sprintf("Available sources: %s", strings.Join(c.Definition.SourceNames(), ", ")),
		}
	}

	return source, nil
}

// ReportSource returns the configuration of the source the report
// section selects.
func (c *Config) ReportSource() (string, SourceConfig, error) {
	if c.Definition == nil {
		return "", SourceConfig{}, kverrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	name := c.Definition.Report.Source
	source, err := c.GetSource(name)
	return name, source, err
}

// SourceNames returns the configured source names, sorted
func (d *Definition) SourceNames() []string {
	names := make([]string, 0, len(d.Sources))
	for name := range d.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

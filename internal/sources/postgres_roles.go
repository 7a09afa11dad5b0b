package sources

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	// PostgreSQL driver
	_ "github.com/lib/pq"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// PostgresRolesSource lists database roles whose passwords carry a
// VALID UNTIL timestamp. Each login role is reported as a secret; roles
// with no validity bound (or 'infinity') never expire. The keys and
// certificates lists are always empty.
type PostgresRolesSource struct {
	name   string
	config sqlSourceConfig
	logger *logging.Logger
	db     *sql.DB
}

// sqlSourceConfig holds connection settings shared by the SQL-backed sources
type sqlSourceConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

func parseSQLSourceConfig(settings map[string]interface{}, defaultPort int, defaultDatabase string) (sqlSourceConfig, error) {
	config := sqlSourceConfig{
		Port:     defaultPort,
		Database: defaultDatabase,
	}

	if host, ok := settings["host"].(string); ok {
		config.Host = host
	}
	switch port := settings["port"].(type) {
	case int:
		config.Port = port
	case float64:
		config.Port = int(port)
	case string:
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return sqlSourceConfig{}, kverrors.ConfigError{
				Field:      "port",
				Value:      port,
				Message:    "port must be a number",
				Suggestion: "Use the numeric database port, e.g. 5432",
			}
		}
		config.Port = parsed
	}
	if database, ok := settings["database"].(string); ok {
		config.Database = database
	}
	if username, ok := settings["username"].(string); ok {
		config.Username = username
	}
	if password, ok := settings["password"].(string); ok {
		config.Password = password
	}
	if sslmode, ok := settings["sslmode"].(string); ok {
		config.SSLMode = sslmode
	}

	if config.Host == "" {
		return sqlSourceConfig{}, kverrors.ConfigError{
			Field:      "host",
			Message:    "host is required",
			Suggestion: "Provide the database host name",
		}
	}
	if config.Username == "" {
		return sqlSourceConfig{}, kverrors.ConfigError{
			Field:      "username",
			Message:    "username is required",
			Suggestion: "Provide a read-only account that may inspect account metadata",
		}
	}

	return config, nil
}

// PostgresSourceOption is a functional option for configuring Postgres sources
type PostgresSourceOption func(*PostgresRolesSource)

// WithPostgresDB sets an open database handle (for testing)
func WithPostgresDB(db *sql.DB) PostgresSourceOption {
	return func(s *PostgresRolesSource) {
		s.db = db
	}
}

// NewPostgresRolesSource creates a new Postgres roles source
func NewPostgresRolesSource(name string, settings map[string]interface{}, opts ...PostgresSourceOption) (*PostgresRolesSource, error) {
	config, err := parseSQLSourceConfig(settings, 5432, "postgres")
	if err != nil {
		return nil, err
	}

	s := &PostgresRolesSource{
		name:   name,
		config: config,
		logger: logging.New(false, false),
	}

	// Apply options (allows handle injection)
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		// sql.Open validates the DSN without connecting; the first
		// query or ping establishes the connection
		db, err := sql.Open("postgres", buildPostgresDSN(config))
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
		}
		s.db = db
	}

	return s, nil
}

// buildPostgresDSN builds a PostgreSQL connection string
func buildPostgresDSN(config sqlSourceConfig) string {
	parts := []string{
		fmt.Sprintf("host=%s", config.Host),
		fmt.Sprintf("port=%d", config.Port),
		fmt.Sprintf("dbname=%s", config.Database),
		fmt.Sprintf("user=%s", config.Username),
	}

	if config.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", config.Password))
	}

	if config.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", config.SSLMode))
	} else {
		parts = append(parts, "sslmode=require")
	}

	return strings.Join(parts, " ")
}

// Name returns the source name
func (s *PostgresRolesSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *PostgresRolesSource) Type() string {
	return "postgres.roles"
}

// Keys returns an empty list: role inventory has no keys
func (s *PostgresRolesSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// rolesQuery folds 'infinity' into NULL so the driver never has to
// decode the sentinel timestamp
const rolesQuery = `SELECT rolname,
       CASE WHEN rolvaliduntil = 'infinity' THEN NULL ELSE rolvaliduntil END AS rolvaliduntil
FROM pg_roles
WHERE rolcanlogin
ORDER BY rolname`

// Secrets lists login roles with their password validity bound
func (s *PostgresRolesSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing roles from PostgreSQL host %s", s.config.Host)

	rows, err := s.db.QueryContext(ctx, rolesQuery)
	if err != nil {
		return nil, s.queryError(err)
	}
	defer func() { _ = rows.Close() }()

	var items []inventory.Item
	for rows.Next() {
		var (
			name       string
			validUntil sql.NullTime
		)
		if err := rows.Scan(&name, &validUntil); err != nil {
			return nil, s.queryError(err)
		}

		item := inventory.Item{
			Name: name,
			Kind: inventory.KindSecret,
		}
		if validUntil.Valid {
			expires := validUntil.Time
			item.Expires = &expires
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(err)
	}

	return items, nil
}

// Certificates returns an empty list: role inventory has no certificates
func (s *PostgresRolesSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Validate checks database connectivity
func (s *PostgresRolesSource) Validate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		if isSQLAuthError(err) {
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    fmt.Sprintf("Failed to connect to PostgreSQL host %s", s.config.Host),
			Details:    err.Error(),
			Suggestion: getSQLErrorSuggestion(err),
		}
	}
	return nil
}

func (s *PostgresRolesSource) queryError(err error) error {
	return kverrors.UserError{
		Message:    fmt.Sprintf("Failed to list roles from PostgreSQL host %s", s.config.Host),
		Details:    err.Error(),
		Suggestion: getSQLErrorSuggestion(err),
		Err:        err,
	}
}

// isSQLAuthError checks for rejected database credentials
func isSQLAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "password authentication failed") ||
		strings.Contains(errStr, "access denied for user") ||
		strings.Contains(errStr, "authentication failed")
}

// getSQLErrorSuggestion provides helpful suggestions for database errors
func getSQLErrorSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "password authentication failed"),
		strings.Contains(errStr, "access denied for user"):
		return "Check the database username and password"
	case strings.Contains(errStr, "connection refused"):
		return "Check that the database is running and the host and port are correct"
	case strings.Contains(errStr, "no such host"):
		return "Check the database host name"
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "insufficient privilege"):
		return "The account needs permission to read account metadata (pg_roles or mysql.user)"
	case strings.Contains(errStr, "ssl"), strings.Contains(errStr, "tls"):
		return "Check the sslmode setting against the server's TLS configuration"
	default:
		return "Check the database connection settings"
	}
}

// NewPostgresRolesSourceFactory creates a Postgres roles source factory
func NewPostgresRolesSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewPostgresRolesSource(name, settings)
}

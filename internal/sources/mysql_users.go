package sources

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// MySQL driver
	_ "github.com/go-sql-driver/mysql"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// MySQLUsersSource lists database accounts with their computed password
// expiry. MySQL stores the last password change and a per-account
// lifetime in days (NULL means the server default applies, 0 disables
// expiry), so the expiry reported here is last change plus the effective
// lifetime. The keys and certificates lists are always empty.
type MySQLUsersSource struct {
	name   string
	config sqlSourceConfig
	logger *logging.Logger
	db     *sql.DB
}

// MySQLSourceOption is a functional option for configuring MySQL sources
type MySQLSourceOption func(*MySQLUsersSource)

// WithMySQLDB sets an open database handle (for testing)
func WithMySQLDB(db *sql.DB) MySQLSourceOption {
	return func(s *MySQLUsersSource) {
		s.db = db
	}
}

// NewMySQLUsersSource creates a new MySQL users source
func NewMySQLUsersSource(name string, settings map[string]interface{}, opts ...MySQLSourceOption) (*MySQLUsersSource, error) {
	config, err := parseSQLSourceConfig(settings, 3306, "mysql")
	if err != nil {
		return nil, err
	}

	s := &MySQLUsersSource{
		name:   name,
		config: config,
		logger: logging.New(false, false),
	}

	// Apply options (allows handle injection)
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		db, err := sql.Open("mysql", buildMySQLDSN(config))
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
		}
		s.db = db
	}

	return s, nil
}

// buildMySQLDSN builds a MySQL connection string
// Format: username:password@tcp(host:port)/database
func buildMySQLDSN(config sqlSourceConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)
}

// Name returns the source name
func (s *MySQLUsersSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *MySQLUsersSource) Type() string {
	return "mysql.users"
}

// Keys returns an empty list: account inventory has no keys
func (s *MySQLUsersSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

const defaultLifetimeQuery = `SELECT @@global.default_password_lifetime`

const usersQuery = `SELECT user, host, password_last_changed, password_lifetime
FROM mysql.user
WHERE account_locked = 'N'
ORDER BY user, host`

// Secrets lists accounts with their computed password expiry
func (s *MySQLUsersSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing accounts from MySQL host %s", s.config.Host)

	var defaultLifetime int64
	if err := s.db.QueryRowContext(ctx, defaultLifetimeQuery).Scan(&defaultLifetime); err != nil {
		return nil, s.queryError(err)
	}

	rows, err := s.db.QueryContext(ctx, usersQuery)
	if err != nil {
		return nil, s.queryError(err)
	}
	defer func() { _ = rows.Close() }()

	var items []inventory.Item
	for rows.Next() {
		var (
			user        string
			host        string
			lastChanged sql.NullTime
			lifetime    sql.NullInt64
		)
		if err := rows.Scan(&user, &host, &lastChanged, &lifetime); err != nil {
			return nil, s.queryError(err)
		}

		item := inventory.Item{
			Name:    fmt.Sprintf("%s@%s", user, host),
			Kind:    inventory.KindSecret,
			Expires: passwordExpiry(lastChanged, lifetime, defaultLifetime),
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(err)
	}

	return items, nil
}

// Certificates returns an empty list: account inventory has no certificates
func (s *MySQLUsersSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Validate checks database connectivity
func (s *MySQLUsersSource) Validate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		if isSQLAuthError(err) {
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    fmt.Sprintf("Failed to connect to MySQL host %s", s.config.Host),
			Details:    err.Error(),
			Suggestion: getSQLErrorSuggestion(err),
		}
	}
	return nil
}

func (s *MySQLUsersSource) queryError(err error) error {
	return kverrors.UserError{
		Message:    fmt.Sprintf("Failed to list accounts from MySQL host %s", s.config.Host),
		Details:    err.Error(),
		Suggestion: getSQLErrorSuggestion(err),
		Err:        err,
	}
}

// passwordExpiry computes when an account's password stops working.
// A per-account lifetime overrides the server default; a lifetime of
// zero (either level) means the password never expires.
func passwordExpiry(lastChanged sql.NullTime, lifetime sql.NullInt64, defaultLifetime int64) *time.Time {
	if !lastChanged.Valid {
		return nil
	}

	days := defaultLifetime
	if lifetime.Valid {
		days = lifetime.Int64
	}
	if days <= 0 {
		return nil
	}

	expires := lastChanged.Time.Add(time.Duration(days) * 24 * time.Hour)
	return &expires
}

// NewMySQLUsersSourceFactory creates a MySQL users source factory
func NewMySQLUsersSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewMySQLUsersSource(name, settings)
}

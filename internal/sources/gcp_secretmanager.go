package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// GCPSecretLister lists all secrets under a project parent. The real
// implementation drives the iterator of a secretmanager.Client; tests
// inject a replacement.
type GCPSecretLister func(ctx context.Context, parent string) ([]*secretmanagerpb.Secret, error)

// GCPSecretManagerSource lists secrets from Google Cloud Secret Manager.
// A secret's expire_time is reported as its expiry; secrets without one
// never expire. The keys and certificates lists are always empty.
type GCPSecretManagerSource struct {
	name      string
	projectID string
	logger    *logging.Logger
	client    *secretmanager.Client
	list      GCPSecretLister
}

// GCPSecretManagerConfig holds GCP Secret Manager-specific configuration
type GCPSecretManagerConfig struct {
	ProjectID             string
	ServiceAccountKeyPath string
}

// GCPSourceOption is a functional option for configuring GCP sources
type GCPSourceOption func(*GCPSecretManagerSource)

// WithGCPSecretLister sets a custom secret lister (for testing)
func WithGCPSecretLister(list GCPSecretLister) GCPSourceOption {
	return func(s *GCPSecretManagerSource) {
		s.list = list
	}
}

// NewGCPSecretManagerSource creates a new GCP Secret Manager source
func NewGCPSecretManagerSource(name string, settings map[string]interface{}, opts ...GCPSourceOption) (*GCPSecretManagerSource, error) {
	config := GCPSecretManagerConfig{}

	// Parse configuration
	if projectID, ok := settings["project_id"].(string); ok {
		config.ProjectID = projectID
	}
	if keyPath, ok := settings["service_account_key_path"].(string); ok {
		config.ServiceAccountKeyPath = keyPath
	}

	// Validate required configuration
	if config.ProjectID == "" {
		if projectID := getGCPProjectID(); projectID != "" {
			config.ProjectID = projectID
		} else {
			return nil, kverrors.ConfigError{
				Field:      "project_id",
				Message:    "project_id is required for GCP Secret Manager",
				Suggestion: "Set project_id in config or GOOGLE_CLOUD_PROJECT environment variable",
			}
		}
	}

	s := &GCPSecretManagerSource{
		name:      name,
		projectID: config.ProjectID,
		logger:    logging.New(false, false),
	}

	// Apply options (allows lister injection)
	for _, opt := range opts {
		opt(s)
	}

	if s.list == nil {
		client, err := createGCPSecretManagerClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		s.client = client
		s.list = s.listWithClient
	}

	return s, nil
}

// createGCPSecretManagerClient creates a GCP Secret Manager client
func createGCPSecretManagerClient(config GCPSecretManagerConfig) (*secretmanager.Client, error) {
	ctx := context.Background()

	var clientOptions []option.ClientOption

	if config.ServiceAccountKeyPath != "" {
		keyPath := config.ServiceAccountKeyPath
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

// getGCPProjectID attempts to get the GCP project ID from the environment
func getGCPProjectID() string {
	if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
		return projectID
	}
	if projectID := os.Getenv("GCLOUD_PROJECT"); projectID != "" {
		return projectID
	}
	if projectID := os.Getenv("GCP_PROJECT"); projectID != "" {
		return projectID
	}
	return ""
}

// listWithClient drives the real iterator
func (s *GCPSecretManagerSource) listWithClient(ctx context.Context, parent string) ([]*secretmanagerpb.Secret, error) {
	var secrets []*secretmanagerpb.Secret

	req := &secretmanagerpb.ListSecretsRequest{
		Parent: parent,
	}
	it := s.client.ListSecrets(ctx, req)
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, secret)
	}

	return secrets, nil
}

// Name returns the source name
func (s *GCPSecretManagerSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *GCPSecretManagerSource) Type() string {
	return "gcp.secretmanager"
}

// Keys returns an empty list: Secret Manager has no key inventory
func (s *GCPSecretManagerSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Secrets lists secrets with their scheduled expiration
func (s *GCPSecretManagerSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	parent := fmt.Sprintf("projects/%s", s.projectID)
	s.logger.Debug("Listing secrets from %s", parent)

	secrets, err := s.list(ctx, parent)
	if err != nil {
		return nil, kverrors.UserError{
			Message:    fmt.Sprintf("Failed to list secrets from GCP project %s", s.projectID),
			Details:    err.Error(),
			Suggestion: getGCPErrorSuggestion(err),
			Err:        err,
		}
	}

	items := make([]inventory.Item, 0, len(secrets))
	for _, secret := range secrets {
		if secret == nil || secret.Name == "" {
			continue
		}
		item := inventory.Item{
			Name: secretDisplayName(secret.Name),
			Kind: inventory.KindSecret,
		}
		if expireTime := secret.GetExpireTime(); expireTime != nil {
			expires := expireTime.AsTime()
			item.Expires = &expires
		}
		items = append(items, item)
	}

	return items, nil
}

// Certificates returns an empty list: Secret Manager has no certificate inventory
func (s *GCPSecretManagerSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Validate checks that secrets can be listed in the configured project
func (s *GCPSecretManagerSource) Validate(ctx context.Context) error {
	parent := fmt.Sprintf("projects/%s", s.projectID)

	if _, err := s.list(ctx, parent); err != nil {
		switch status.Code(err) {
		case codes.Unauthenticated, codes.PermissionDenied:
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    "Failed to connect to GCP Secret Manager",
			Details:    err.Error(),
			Suggestion: getGCPErrorSuggestion(err),
		}
	}

	return nil
}

// secretDisplayName strips the projects/<id>/secrets/ prefix from a
// resource name
func secretDisplayName(resourceName string) string {
	parts := strings.Split(resourceName, "/")
	if len(parts) >= 4 && parts[2] == "secrets" {
		return parts[3]
	}
	return resourceName
}

// getGCPErrorSuggestion provides helpful suggestions based on GCP errors
func getGCPErrorSuggestion(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PermissionDenied"):
		return "Check IAM permissions: secretmanager.secrets.list is required"
	case strings.Contains(errStr, "Unauthenticated"):
		return "Check authentication: set GOOGLE_APPLICATION_CREDENTIALS or run 'gcloud auth application-default login'"
	case strings.Contains(errStr, "NotFound"):
		return "Verify the project ID. Check that the project exists and Secret Manager is enabled"
	case strings.Contains(errStr, "ResourceExhausted"):
		return "Request was throttled. Consider running the report at a quieter time"
	default:
		return "Check GCP credentials, project ID, and IAM permissions for Secret Manager"
	}
}

// NewGCPSecretManagerSourceFactory creates a GCP Secret Manager source factory
func NewGCPSecretManagerSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewGCPSecretManagerSource(name, settings)
}

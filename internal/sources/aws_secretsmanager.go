package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager operations
// This allows for mocking in tests
type SecretsManagerClientAPI interface {
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// STSClientAPI defines the interface for AWS STS identity checks
type STSClientAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AWSSecretsManagerSource lists rotation-managed secrets from AWS Secrets
// Manager. A secret's NextRotationDate is reported as its expiry: that is
// the date the current credential material stops being the one in use.
// Secrets without rotation have no expiry. The keys and certificates
// lists are always empty for this source.
type AWSSecretsManagerSource struct {
	name      string
	region    string
	endpoint  string // Optional custom endpoint for LocalStack or testing
	logger    *logging.Logger
	client    SecretsManagerClientAPI
	stsClient STSClientAPI
}

// AWSSecretsManagerOption is a functional option for configuring the source
type AWSSecretsManagerOption func(*AWSSecretsManagerSource)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) AWSSecretsManagerOption {
	return func(s *AWSSecretsManagerSource) {
		s.client = client
	}
}

// WithSTSClient sets a custom STS client (for testing)
func WithSTSClient(client STSClientAPI) AWSSecretsManagerOption {
	return func(s *AWSSecretsManagerSource) {
		s.stsClient = client
	}
}

// NewAWSSecretsManagerSource creates a new AWS Secrets Manager source
func NewAWSSecretsManagerSource(name string, settings map[string]interface{}, opts ...AWSSecretsManagerOption) (*AWSSecretsManagerSource, error) {
	region := "us-east-1" // Default region
	if r, ok := settings["region"].(string); ok && r != "" {
		region = r
	}

	// Optional endpoint for LocalStack/testing
	var endpoint string
	if e, ok := settings["endpoint"].(string); ok && e != "" {
		endpoint = e
	}

	s := &AWSSecretsManagerSource{
		name:     name,
		region:   region,
		endpoint: endpoint,
		logger:   logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil || s.stsClient == nil {
		cfg, err := loadAWSConfig(context.Background(), region, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		if s.client == nil {
			var clientOpts []func(*secretsmanager.Options)
			if endpoint != "" {
				clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
					o.BaseEndpoint = &endpoint
				})
			}
			s.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
		}
		if s.stsClient == nil {
			s.stsClient = sts.NewFromConfig(cfg)
		}
	}

	return s, nil
}

// loadAWSConfig loads the shared AWS configuration, honoring optional
// static credentials from the source settings (for LocalStack/testing)
func loadAWSConfig(ctx context.Context, region string, settings map[string]interface{}) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(region))

	var accessKeyID, secretAccessKey string
	if ak, ok := settings["access_key_id"].(string); ok && ak != "" {
		accessKeyID = ak
	}
	if sk, ok := settings["secret_access_key"].(string); ok && sk != "" {
		secretAccessKey = sk
	}
	if accessKeyID != "" && secretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	if profile, ok := settings["profile"].(string); ok && profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}

	return config.LoadDefaultConfig(ctx, configOpts...)
}

// Name returns the source name
func (s *AWSSecretsManagerSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *AWSSecretsManagerSource) Type() string {
	return "aws.secretsmanager"
}

// Keys returns an empty list: Secrets Manager has no key inventory
func (s *AWSSecretsManagerSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Secrets lists secrets with their next rotation date as expiry
func (s *AWSSecretsManagerSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing secrets from AWS Secrets Manager in %s", s.region)

	var items []inventory.Item
	input := &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(100),
	}

	for {
		result, err := s.client.ListSecrets(ctx, input)
		if err != nil {
			return nil, kverrors.UserError{
				Message:    "Failed to list secrets from AWS Secrets Manager",
				Details:    err.Error(),
				Suggestion: getAWSErrorSuggestion(err),
				Err:        err,
			}
		}

		for _, entry := range result.SecretList {
			if entry.Name == nil {
				continue
			}
			items = append(items, inventory.Item{
				Name:    *entry.Name,
				Kind:    inventory.KindSecret,
				Expires: entry.NextRotationDate,
			})
		}

		if result.NextToken == nil {
			break
		}
		input.NextToken = result.NextToken
	}

	return items, nil
}

// Certificates returns an empty list: Secrets Manager has no certificate inventory
func (s *AWSSecretsManagerSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Validate checks that AWS credentials resolve to a live identity
func (s *AWSSecretsManagerSource) Validate(ctx context.Context) error {
	result, err := s.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		if isAWSAuthError(err) {
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    "Failed to verify AWS identity",
			Details:    err.Error(),
			Suggestion: getAWSErrorSuggestion(err),
		}
	}

	if result.Arn != nil {
		s.logger.Debug("AWS identity: %s", *result.Arn)
	}

	return nil
}

// isAWSAuthError checks for common auth-related errors by string matching
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidClientTokenId") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "no EC2 IMDS role found") ||
		strings.Contains(errStr, "failed to retrieve credentials")
}

// getAWSErrorSuggestion provides helpful suggestions based on AWS errors
func getAWSErrorSuggestion(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "ExpiredToken"):
		return "AWS session token has expired. Refresh your credentials (e.g., 'aws sso login')"
	case strings.Contains(errStr, "AccessDenied"):
		return "Check IAM permissions: secretsmanager:ListSecrets is required"
	case strings.Contains(errStr, "InvalidClientTokenId"):
		return "Check that AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are valid"
	case strings.Contains(errStr, "no EC2 IMDS role found") || strings.Contains(errStr, "failed to retrieve credentials"):
		return "No AWS credentials found. Configure a profile, environment variables, or an instance role"
	case strings.Contains(errStr, "ThrottlingException"):
		return "Request was throttled. Consider running the report at a quieter time"
	default:
		return "Check AWS credentials, region, and IAM permissions"
	}
}

// NewAWSSecretsManagerSourceFactory creates an AWS Secrets Manager source factory
func NewAWSSecretsManagerSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewAWSSecretsManagerSource(name, settings)
}

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// SSMClientAPI defines the interface for AWS Systems Manager operations
// This allows for mocking in tests
type SSMClientAPI interface {
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// AWSParameterStoreSource lists SSM parameters as secret inventory.
// Advanced-tier parameters can carry an Expiration policy; its timestamp
// is reported as the parameter's expiry. Parameters without one never
// expire. The keys and certificates lists are always empty.
type AWSParameterStoreSource struct {
	name   string
	region string
	logger *logging.Logger
	client SSMClientAPI
}

// AWSParameterStoreOption is a functional option for configuring the source
type AWSParameterStoreOption func(*AWSParameterStoreSource)

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(client SSMClientAPI) AWSParameterStoreOption {
	return func(s *AWSParameterStoreSource) {
		s.client = client
	}
}

// NewAWSParameterStoreSource creates a new AWS Parameter Store source
func NewAWSParameterStoreSource(name string, settings map[string]interface{}, opts ...AWSParameterStoreOption) (*AWSParameterStoreSource, error) {
	region := "us-east-1" // Default region
	if r, ok := settings["region"].(string); ok && r != "" {
		region = r
	}

	s := &AWSParameterStoreSource{
		name:   name,
		region: region,
		logger: logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(context.Background(), region, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s.client = ssm.NewFromConfig(cfg)
	}

	return s, nil
}

// Name returns the source name
func (s *AWSParameterStoreSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *AWSParameterStoreSource) Type() string {
	return "aws.parameterstore"
}

// Keys returns an empty list: Parameter Store has no key inventory
func (s *AWSParameterStoreSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Secrets lists parameters with their expiration policy timestamps
func (s *AWSParameterStoreSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing parameters from AWS Parameter Store in %s", s.region)

	var items []inventory.Item
	input := &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(50), // DescribeParameters page limit
	}

	for {
		result, err := s.client.DescribeParameters(ctx, input)
		if err != nil {
			return nil, kverrors.UserError{
				Message:    "Failed to list parameters from AWS Parameter Store",
				Details:    err.Error(),
				Suggestion: getAWSErrorSuggestion(err),
				Err:        err,
			}
		}

		for _, param := range result.Parameters {
			if param.Name == nil {
				continue
			}
			items = append(items, inventory.Item{
				Name:    *param.Name,
				Kind:    inventory.KindSecret,
				Expires: expirationFromPolicies(param.Policies),
			})
		}

		if result.NextToken == nil {
			break
		}
		input.NextToken = result.NextToken
	}

	return items, nil
}

// Certificates returns an empty list: Parameter Store has no certificate inventory
func (s *AWSParameterStoreSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return nil, nil
}

// Validate checks that parameters can be listed with the configured credentials
func (s *AWSParameterStoreSource) Validate(ctx context.Context) error {
	input := &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(1),
	}

	if _, err := s.client.DescribeParameters(ctx, input); err != nil {
		if isAWSAuthError(err) {
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    "Failed to connect to AWS Parameter Store",
			Details:    err.Error(),
			Suggestion: getAWSErrorSuggestion(err),
		}
	}

	return nil
}

// parameterPolicy mirrors the inline policy document SSM attaches to
// advanced-tier parameters
type parameterPolicy struct {
	Type       string `json:"Type"`
	Version    string `json:"Version"`
	Attributes struct {
		Timestamp string `json:"Timestamp"`
	} `json:"Attributes"`
}

// expirationFromPolicies extracts the Expiration policy timestamp, if any
func expirationFromPolicies(policies []types.ParameterInlinePolicy) *time.Time {
	for _, policy := range policies {
		if policy.PolicyType == nil || *policy.PolicyType != "Expiration" {
			continue
		}
		if policy.PolicyText == nil {
			continue
		}

		var doc parameterPolicy
		if err := json.Unmarshal([]byte(*policy.PolicyText), &doc); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, doc.Attributes.Timestamp)
		if err != nil {
			continue
		}
		return &ts
	}
	return nil
}

// NewAWSParameterStoreSourceFactory creates an AWS Parameter Store source factory
func NewAWSParameterStoreSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewAWSParameterStoreSource(name, settings)
}

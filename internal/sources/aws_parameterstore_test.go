package sources_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvreport/internal/sources"
	"github.com/systmms/kvreport/pkg/inventory"
)

type fakeSSMClient struct {
	pages [][]ssmtypes.ParameterMetadata
	err   error

	calls int
}

func (f *fakeSSMClient) DescribeParameters(_ context.Context, params *ssm.DescribeParametersInput, _ ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	page := 0
	if params.NextToken != nil {
		page = f.calls
	}
	f.calls++

	out := &ssm.DescribeParametersOutput{}
	if page < len(f.pages) {
		out.Parameters = f.pages[page]
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func expirationPolicy(timestamp string) ssmtypes.ParameterInlinePolicy {
	return ssmtypes.ParameterInlinePolicy{
		PolicyType: aws.String("Expiration"),
		PolicyText: aws.String(`{"Type":"Expiration","Version":"1.0","Attributes":{"Timestamp":"` + timestamp + `"}}`),
	}
}

func newTestParameterStoreSource(t *testing.T, client sources.SSMClientAPI) *sources.AWSParameterStoreSource {
	t.Helper()

	s, err := sources.NewAWSParameterStoreSource("aws-params", map[string]interface{}{
		"region": "eu-west-1",
	}, sources.WithSSMClient(client))
	require.NoError(t, err)
	return s
}

func TestAWSParameterStoreSourceSecrets(t *testing.T) {
	t.Parallel()

	client := &fakeSSMClient{
		pages: [][]ssmtypes.ParameterMetadata{
			{
				{
					Name:     aws.String("/prod/db/password"),
					Policies: []ssmtypes.ParameterInlinePolicy{expirationPolicy("2026-09-01T06:00:00.000Z")},
				},
				{
					Name: aws.String("/prod/feature-flag"),
					Policies: []ssmtypes.ParameterInlinePolicy{
						{
							// Notification policies carry no expiry
							PolicyType: aws.String("ExpirationNotification"),
							PolicyText: aws.String(`{"Type":"ExpirationNotification","Version":"1.0","Attributes":{"Before":"15","Unit":"Days"}}`),
						},
					},
				},
			},
			{
				{Name: aws.String("/prod/api/endpoint")},
			},
		},
	}

	s := newTestParameterStoreSource(t, client)
	items, err := s.Secrets(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "/prod/db/password", items[0].Name)
	assert.Equal(t, inventory.KindSecret, items[0].Kind)
	require.NotNil(t, items[0].Expires)
	expected := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	assert.True(t, items[0].Expires.Equal(expected))

	assert.Nil(t, items[1].Expires)
	assert.Nil(t, items[2].Expires)
	assert.Equal(t, 2, client.calls)
}

func TestAWSParameterStoreSourceEmptyKindsAreEmpty(t *testing.T) {
	t.Parallel()

	s := newTestParameterStoreSource(t, &fakeSSMClient{})

	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)

	certs, err := s.Certificates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestAWSParameterStoreSourceListErrorKeepsDetail(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("operation error SSM: DescribeParameters, ThrottlingException")
	s := newTestParameterStoreSource(t, &fakeSSMClient{err: backendErr})

	_, err := s.Secrets(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "ThrottlingException")
}

func TestAWSParameterStoreSourceValidate(t *testing.T) {
	t.Parallel()

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()

		s := newTestParameterStoreSource(t, &fakeSSMClient{})
		assert.NoError(t, s.Validate(context.Background()))
	})

	t.Run("access denied", func(t *testing.T) {
		t.Parallel()

		s := newTestParameterStoreSource(t, &fakeSSMClient{
			err: errors.New("operation error SSM: DescribeParameters, AccessDenied"),
		})

		err := s.Validate(context.Background())
		require.Error(t, err)

		var authErr inventory.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "aws-params", authErr.Source)
	})
}

package sources_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/sources"
	"github.com/systmms/kvreport/pkg/inventory"
)

const testVaultURL = "https://unit.vault.azure.net/"

func keyID(name string) *azkeys.ID {
	id := azkeys.ID(testVaultURL + "keys/" + name + "/0123456789abcdef")
	return &id
}

func secretID(name string) *azsecrets.ID {
	id := azsecrets.ID(testVaultURL + "secrets/" + name + "/0123456789abcdef")
	return &id
}

func certID(name string) *azcertificates.ID {
	id := azcertificates.ID(testVaultURL + "certificates/" + name + "/0123456789abcdef")
	return &id
}

// fakeKeysClient serves pre-built pages through a real SDK pager, so the
// source's pagination loop is exercised end to end.
type fakeKeysClient struct {
	pages [][]*azkeys.KeyProperties
	err   error
}

func (f *fakeKeysClient) NewListKeyPropertiesPager(_ *azkeys.ListKeyPropertiesOptions) *runtime.Pager[azkeys.ListKeyPropertiesResponse] {
	fetched := 0
	return runtime.NewPager(runtime.PagingHandler[azkeys.ListKeyPropertiesResponse]{
		More: func(page azkeys.ListKeyPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(_ context.Context, _ *azkeys.ListKeyPropertiesResponse) (azkeys.ListKeyPropertiesResponse, error) {
			if f.err != nil {
				return azkeys.ListKeyPropertiesResponse{}, f.err
			}
			var resp azkeys.ListKeyPropertiesResponse
			if fetched < len(f.pages) {
				resp.Value = f.pages[fetched]
				fetched++
			}
			if fetched < len(f.pages) {
				next := "next"
				resp.NextLink = &next
			}
			return resp, nil
		},
	})
}

type fakeSecretsClient struct {
	pages [][]*azsecrets.SecretProperties
	err   error
}

func (f *fakeSecretsClient) NewListSecretPropertiesPager(_ *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse] {
	fetched := 0
	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesResponse]{
		More: func(page azsecrets.ListSecretPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(_ context.Context, _ *azsecrets.ListSecretPropertiesResponse) (azsecrets.ListSecretPropertiesResponse, error) {
			if f.err != nil {
				return azsecrets.ListSecretPropertiesResponse{}, f.err
			}
			var resp azsecrets.ListSecretPropertiesResponse
			if fetched < len(f.pages) {
				resp.Value = f.pages[fetched]
				fetched++
			}
			if fetched < len(f.pages) {
				next := "next"
				resp.NextLink = &next
			}
			return resp, nil
		},
	})
}

type fakeCertificatesClient struct {
	pages [][]*azcertificates.CertificateProperties
	err   error
}

func (f *fakeCertificatesClient) NewListCertificatePropertiesPager(_ *azcertificates.ListCertificatePropertiesOptions) *runtime.Pager[azcertificates.ListCertificatePropertiesResponse] {
	fetched := 0
	return runtime.NewPager(runtime.PagingHandler[azcertificates.ListCertificatePropertiesResponse]{
		More: func(page azcertificates.ListCertificatePropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(_ context.Context, _ *azcertificates.ListCertificatePropertiesResponse) (azcertificates.ListCertificatePropertiesResponse, error) {
			if f.err != nil {
				return azcertificates.ListCertificatePropertiesResponse{}, f.err
			}
			var resp azcertificates.ListCertificatePropertiesResponse
			if fetched < len(f.pages) {
				resp.Value = f.pages[fetched]
				fetched++
			}
			if fetched < len(f.pages) {
				next := "next"
				resp.NextLink = &next
			}
			return resp, nil
		},
	})
}

func newTestAzureSource(t *testing.T, opts ...sources.AzureSourceOption) *sources.AzureKeyVaultSource {
	t.Helper()

	// Always provide all three clients so no real credential is created
	defaults := []sources.AzureSourceOption{
		sources.WithAzureKeysClient(&fakeKeysClient{}),
		sources.WithAzureSecretsClient(&fakeSecretsClient{}),
		sources.WithAzureCertificatesClient(&fakeCertificatesClient{}),
	}
	defaults = append(defaults, opts...)

	s, err := sources.NewAzureKeyVaultSource("test-vault", map[string]interface{}{
		"vault_url": testVaultURL,
	}, defaults...)
	require.NoError(t, err)
	return s
}

func TestAzureKeyVaultSourceRequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := sources.NewAzureKeyVaultSource("test-vault", map[string]interface{}{})
	require.Error(t, err)

	var cfgErr kverrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vault_url", cfgErr.Field)
}

func TestAzureKeyVaultSourceKeys(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	keys := &fakeKeysClient{
		pages: [][]*azkeys.KeyProperties{
			{
				{KID: keyID("signing-key"), Attributes: &azkeys.KeyAttributes{Expires: &expires}},
				{KID: keyID("wrapping-key"), Attributes: &azkeys.KeyAttributes{}},
			},
			{
				{KID: keyID("legacy-key")},
			},
		},
	}

	s := newTestAzureSource(t, sources.WithAzureKeysClient(keys))
	items, err := s.Keys(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "signing-key", items[0].Name)
	assert.Equal(t, inventory.KindKey, items[0].Kind)
	require.NotNil(t, items[0].Expires)
	assert.True(t, items[0].Expires.Equal(expires))

	// No expiry attribute means no expiry, not a zero time
	assert.Equal(t, "wrapping-key", items[1].Name)
	assert.Nil(t, items[1].Expires)

	// Second page was fetched
	assert.Equal(t, "legacy-key", items[2].Name)
	assert.Nil(t, items[2].Expires)
}

func TestAzureKeyVaultSourceSecrets(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)
	secrets := &fakeSecretsClient{
		pages: [][]*azsecrets.SecretProperties{
			{
				{ID: secretID("db-password"), Attributes: &azsecrets.SecretAttributes{Expires: &expires}},
				{ID: secretID("api-token")},
			},
		},
	}

	s := newTestAzureSource(t, sources.WithAzureSecretsClient(secrets))
	items, err := s.Secrets(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "db-password", items[0].Name)
	assert.Equal(t, inventory.KindSecret, items[0].Kind)
	require.NotNil(t, items[0].Expires)
	assert.True(t, items[0].Expires.Equal(expires))
	assert.Nil(t, items[1].Expires)
}

func TestAzureKeyVaultSourceCertificates(t *testing.T) {
	t.Parallel()

	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	certs := &fakeCertificatesClient{
		pages: [][]*azcertificates.CertificateProperties{
			{
				{ID: certID("tls-cert"), Attributes: &azcertificates.CertificateAttributes{Expires: &expires}},
			},
		},
	}

	s := newTestAzureSource(t, sources.WithAzureCertificatesClient(certs))
	items, err := s.Certificates(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "tls-cert", items[0].Name)
	assert.Equal(t, inventory.KindCertificate, items[0].Kind)
	require.NotNil(t, items[0].Expires)
	assert.True(t, items[0].Expires.Equal(expires))
}

func TestAzureKeyVaultSourceListErrorKeepsDetail(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("GET " + testVaultURL + "keys: 403 Forbidden")
	s := newTestAzureSource(t, sources.WithAzureKeysClient(&fakeKeysClient{err: backendErr}))

	_, err := s.Keys(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "403 Forbidden")
	assert.Contains(t, err.Error(), "access policies")
}

func TestAzureKeyVaultSourceValidate(t *testing.T) {
	t.Parallel()

	t.Run("healthy vault", func(t *testing.T) {
		t.Parallel()

		s := newTestAzureSource(t, sources.WithAzureSecretsClient(&fakeSecretsClient{
			pages: [][]*azsecrets.SecretProperties{{{ID: secretID("db-password")}}},
		}))
		assert.NoError(t, s.Validate(context.Background()))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		t.Parallel()

		s := newTestAzureSource(t, sources.WithAzureSecretsClient(&fakeSecretsClient{
			err: errors.New("401 Unauthorized: AKV10000"),
		}))

		err := s.Validate(context.Background())
		require.Error(t, err)

		var authErr inventory.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "test-vault", authErr.Source)
	})

	t.Run("unreachable vault", func(t *testing.T) {
		t.Parallel()

		s := newTestAzureSource(t, sources.WithAzureSecretsClient(&fakeSecretsClient{
			err: errors.New("dial tcp: lookup unit.vault.azure.net: no such host"),
		}))

		err := s.Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Failed to connect to Azure Key Vault")
	})
}

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/pkg/inventory"
)

// AzureKeysClientAPI defines the interface for Azure Key Vault key listing.
// This allows for mocking in tests via runtime.NewPager.
type AzureKeysClientAPI interface {
	NewListKeyPropertiesPager(options *azkeys.ListKeyPropertiesOptions) *runtime.Pager[azkeys.ListKeyPropertiesResponse]
}

// AzureSecretsClientAPI defines the interface for Azure Key Vault secret listing
type AzureSecretsClientAPI interface {
	NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
}

// AzureCertificatesClientAPI defines the interface for Azure Key Vault certificate listing
type AzureCertificatesClientAPI interface {
	NewListCertificatePropertiesPager(options *azcertificates.ListCertificatePropertiesOptions) *runtime.Pager[azcertificates.ListCertificatePropertiesResponse]
}

// AzureKeyVaultSource lists the key, secret, and certificate inventory of
// a single Azure Key Vault
type AzureKeyVaultSource struct {
	name     string
	vaultURL string
	config   AzureKeyVaultConfig
	logger   *logging.Logger

	keys  AzureKeysClientAPI
	certs AzureCertificatesClientAPI
	// secrets also backs Validate: listing secret properties is the
	// cheapest call that exercises both authentication and list access
	secrets AzureSecretsClientAPI
}

// AzureKeyVaultConfig holds Azure Key Vault-specific configuration
type AzureKeyVaultConfig struct {
	VaultURL           string
	TenantID           string
	ClientID           string
	ClientSecret       string
	UseManagedIdentity bool
	UserAssignedID     string // For user-assigned managed identity
}

// AzureSourceOption is a functional option for configuring Azure sources
type AzureSourceOption func(*AzureKeyVaultSource)

// WithAzureKeysClient sets a custom keys client (for testing)
func WithAzureKeysClient(client AzureKeysClientAPI) AzureSourceOption {
	return func(s *AzureKeyVaultSource) {
		s.keys = client
	}
}

// WithAzureSecretsClient sets a custom secrets client (for testing)
func WithAzureSecretsClient(client AzureSecretsClientAPI) AzureSourceOption {
	return func(s *AzureKeyVaultSource) {
		s.secrets = client
	}
}

// WithAzureCertificatesClient sets a custom certificates client (for testing)
func WithAzureCertificatesClient(client AzureCertificatesClientAPI) AzureSourceOption {
	return func(s *AzureKeyVaultSource) {
		s.certs = client
	}
}

// NewAzureKeyVaultSource creates a new Azure Key Vault source
func NewAzureKeyVaultSource(name string, settings map[string]interface{}, opts ...AzureSourceOption) (*AzureKeyVaultSource, error) {
	config := AzureKeyVaultConfig{
		UseManagedIdentity: true, // Default to managed identity
	}

	// Parse configuration
	if vaultURL, ok := settings["vault_url"].(string); ok {
		config.VaultURL = vaultURL
	}
	if tenantID, ok := settings["tenant_id"].(string); ok {
		config.TenantID = tenantID
	}
	if clientID, ok := settings["client_id"].(string); ok {
		config.ClientID = clientID
	}
	if clientSecret, ok := settings["client_secret"].(string); ok {
		config.ClientSecret = clientSecret
	}
	if useMI, ok := settings["use_managed_identity"].(bool); ok {
		config.UseManagedIdentity = useMI
	}
	if userAssignedID, ok := settings["user_assigned_identity_id"].(string); ok {
		config.UserAssignedID = userAssignedID
	}

	// Validate required configuration
	if config.VaultURL == "" {
		return nil, kverrors.ConfigError{
			Field:      "vault_url",
			Message:    "vault_url is required for Azure Key Vault",
			Suggestion: "Provide the Key Vault URL (e.g., https://my-vault.vault.azure.net/)",
		}
	}

	if _, err := url.Parse(config.VaultURL); err != nil {
		return nil, kverrors.ConfigError{
			Field:      "vault_url",
			Message:    "Invalid vault_url format",
			Suggestion: "Use format: https://vault-name.vault.azure.net/",
		}
	}

	s := &AzureKeyVaultSource{
		name:     name,
		vaultURL: config.VaultURL,
		config:   config,
		logger:   logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(s)
	}

	// If no clients were provided via options, create real ones sharing
	// one credential
	if s.keys == nil || s.secrets == nil || s.certs == nil {
		cred, err := createAzureCredential(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}

		if s.keys == nil {
			client, err := azkeys.NewClient(config.VaultURL, cred, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create Key Vault keys client: %w", err)
			}
			s.keys = client
		}
		if s.secrets == nil {
			client, err := azsecrets.NewClient(config.VaultURL, cred, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create Key Vault secrets client: %w", err)
			}
			s.secrets = client
		}
		if s.certs == nil {
			client, err := azcertificates.NewClient(config.VaultURL, cred, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create Key Vault certificates client: %w", err)
			}
			s.certs = client
		}
	}

	return s, nil
}

// createAzureCredential selects an authentication method from configuration
func createAzureCredential(config AzureKeyVaultConfig) (azcore.TokenCredential, error) {
	if config.UseManagedIdentity {
		if config.UserAssignedID != "" {
			// User-assigned managed identity
			opts := azidentity.ManagedIdentityCredentialOptions{
				ID: azidentity.ClientID(config.UserAssignedID),
			}
			return azidentity.NewManagedIdentityCredential(&opts)
		}
		// System-assigned managed identity
		return azidentity.NewManagedIdentityCredential(nil)
	}

	if config.ClientSecret != "" {
		// Service Principal with client secret
		return azidentity.NewClientSecretCredential(config.TenantID, config.ClientID, config.ClientSecret, nil)
	}

	// Azure CLI or Default Azure Credential
	return azidentity.NewDefaultAzureCredential(nil)
}

// Name returns the source name
func (s *AzureKeyVaultSource) Name() string {
	return s.name
}

// Type returns the source type tag
func (s *AzureKeyVaultSource) Type() string {
	return "azure.keyvault"
}

// Keys lists key inventory from the vault
func (s *AzureKeyVaultSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing keys from %s", s.vaultURL)

	var items []inventory.Item
	pager := s.keys.NewListKeyPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s.listError("keys", err)
		}
		for _, key := range page.Value {
			if key == nil || key.KID == nil {
				continue
			}
			item := inventory.Item{
				Name: key.KID.Name(),
				Kind: inventory.KindKey,
			}
			if key.Attributes != nil {
				item.Expires = key.Attributes.Expires
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Secrets lists secret inventory from the vault
func (s *AzureKeyVaultSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing secrets from %s", s.vaultURL)

	var items []inventory.Item
	pager := s.secrets.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s.listError("secrets", err)
		}
		for _, secret := range page.Value {
			if secret == nil || secret.ID == nil {
				continue
			}
			item := inventory.Item{
				Name: secret.ID.Name(),
				Kind: inventory.KindSecret,
			}
			if secret.Attributes != nil {
				item.Expires = secret.Attributes.Expires
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Certificates lists certificate inventory from the vault
func (s *AzureKeyVaultSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	s.logger.Debug("Listing certificates from %s", s.vaultURL)

	var items []inventory.Item
	pager := s.certs.NewListCertificatePropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s.listError("certificates", err)
		}
		for _, cert := range page.Value {
			if cert == nil || cert.ID == nil {
				continue
			}
			item := inventory.Item{
				Name: cert.ID.Name(),
				Kind: inventory.KindCertificate,
			}
			if cert.Attributes != nil {
				item.Expires = cert.Attributes.Expires
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Validate checks if the vault is reachable with the configured credentials
func (s *AzureKeyVaultSource) Validate(ctx context.Context) error {
	pager := s.secrets.NewListSecretPropertiesPager(nil)
	if !pager.More() {
		return nil
	}

	if _, err := pager.NextPage(ctx); err != nil {
		if isAzureAuthError(err) {
			return inventory.AuthError{
				Source:  s.name,
				Message: err.Error(),
			}
		}
		return kverrors.UserError{
			Message:    fmt.Sprintf("Failed to connect to Azure Key Vault %s", s.vaultURL),
			Details:    err.Error(),
			Suggestion: getAzureErrorSuggestion(err),
		}
	}

	return nil
}

func (s *AzureKeyVaultSource) listError(operation string, err error) error {
	return kverrors.UserError{
		Message:    fmt.Sprintf("Failed to list %s from %s", operation, s.vaultURL),
		Details:    err.Error(),
		Suggestion: getAzureErrorSuggestion(err),
		Err:        err,
	}
}

// isAzureAuthError checks if the error indicates rejected credentials
func isAzureAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden")
}

// getAzureErrorSuggestion provides helpful suggestions based on Azure errors
func getAzureErrorSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "access denied"):
		return "Check Key Vault access policies: 'List' permission is required for keys, secrets, and certificates"
	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401"):
		return "Check authentication: verify managed identity, service principal, or Azure CLI login"
	case strings.Contains(errStr, "vault not found") || strings.Contains(errStr, "keyvaulterror") || strings.Contains(errStr, "no such host"):
		return "Check the vault URL format and that the Key Vault exists"
	case strings.Contains(errStr, "throttled") || strings.Contains(errStr, "429"):
		return "Request was throttled. Consider running the report at a quieter time"
	case strings.Contains(errStr, "tenant"):
		return "Check that the tenant ID is correct and the application is registered"
	default:
		return "Check Azure credentials, Key Vault URL, and access policies"
	}
}

// NewAzureKeyVaultSourceFactory creates an Azure Key Vault source factory
func NewAzureKeyVaultSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	return NewAzureKeyVaultSource(name, settings)
}
